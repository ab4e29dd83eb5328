package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gsource-auth/internal/core/source"
	"gsource-auth/internal/model"
	pkgErrors "gsource-auth/pkg/errors"
)

func TestRobotStoreLookupRequiresSystem(t *testing.T) {
	repo := new(mockRobotRepo)
	store := newTestStore(t, repo, &fakeDetector{})

	got, err := store.LookupRobots(context.Background(), source.RobotQuery{Acting: "alice"})
	require.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertNotCalled(t, "ListVisible", mock.Anything, mock.Anything)
}

func TestRobotStoreLookupFiltersByAllowedScopes(t *testing.T) {
	repo := new(mockRobotRepo)
	gerritOnly := saRecord(t, 1, source.ScopeGerritCodeReview)
	open := saRecord(t, 2)
	broken := saRecord(t, 3)
	broken.EncryptedData = "not-a-ciphertext"
	repo.On("ListVisible", mock.Anything, (*int64)(nil)).
		Return([]*model.RobotCredential{gerritOnly, open, broken}, nil)

	store := newTestStore(t, repo, &fakeDetector{})
	got, err := store.LookupRobots(context.Background(), source.RobotQuery{
		ItemScope:    source.GlobalScope(),
		Acting:       source.SystemIdentity,
		Requirements: []source.DomainRequirement{source.StrategyCloudPlatform.Scope()},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID())

	got, err = store.LookupRobots(context.Background(), source.RobotQuery{
		Acting:       source.SystemIdentity,
		Requirements: []source.DomainRequirement{source.StrategyGerrit.Scope()},
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRobotStoreLookupStoreError(t *testing.T) {
	repo := new(mockRobotRepo)
	repo.On("ListVisible", mock.Anything, mock.Anything).Return(nil, pkgErrors.ErrDatabaseError)

	store := newTestStore(t, repo, &fakeDetector{})
	_, err := store.LookupRobots(context.Background(), source.RobotQuery{Acting: source.SystemIdentity})
	assert.Equal(t, pkgErrors.CodeStoreError, pkgErrors.CodeOf(err))
}

func TestRobotStoreGetRobot(t *testing.T) {
	repo := new(mockRobotRepo)
	repo.On("GetByID", mock.Anything, int64(7)).Return(saRecord(t, 7), nil)
	repo.On("GetByID", mock.Anything, int64(8)).Return(nil, pkgErrors.ErrRecordNotFound)

	store := newTestStore(t, repo, &fakeDetector{})
	r, err := store.GetRobot(context.Background(), "7")
	require.NoError(t, err)
	name, err := r.Username(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "builder@my-proj.iam.gserviceaccount.com", name)

	_, err = store.GetRobot(context.Background(), "8")
	assert.ErrorIs(t, err, source.ErrCredentialUnavailable)

	_, err = store.GetRobot(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, source.ErrCredentialUnavailable)
}

func TestProviderOverRobotStore(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRobotRepo)
	rec := saRecord(t, 5)
	repo.On("ListVisible", mock.Anything, mock.Anything).Return([]*model.RobotCredential{rec}, nil)
	repo.On("GetByID", mock.Anything, int64(5)).Return(rec, nil)

	d := &fakeDetector{}
	provider := source.NewProvider(nil, source.Host{Store: newTestStore(t, repo, d)}, zap.NewNop())
	creds, err := provider.Lookup(ctx, source.LookupQuery{
		Type:         source.TypeUsernamePassword,
		Acting:       source.SystemIdentity,
		Requirements: source.RequirementsFromURI("https://chromium.googlesource.com/chromium/src"),
	})
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "source:5", creds[0].ID())
	assert.Equal(t, 0, d.calls)

	pw, err := creds[0].Password(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ya29."+source.ScopeGerritCodeReview, pw.PlainText())
	assert.Equal(t, 1, d.calls)
}
