package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gsource-auth/internal/core/source"
	"gsource-auth/internal/dto"
	"gsource-auth/internal/model"
	"gsource-auth/internal/pkg/git"
	pkgErrors "gsource-auth/pkg/errors"
)

const gerritRepo = "https://chromium.googlesource.com/chromium/src"

type fakeVerifier struct {
	repoURL, username, password string
	result                      *git.VerifyResult
	err                         error
}

func (v *fakeVerifier) Verify(_ context.Context, repoURL, username, password string) (*git.VerifyResult, error) {
	v.repoURL, v.username, v.password = repoURL, username, password
	return v.result, v.err
}

func newSourceService(t *testing.T, d *fakeDetector, v RepoVerifier) (SourceCredentialService, *mockRobotRepo) {
	repo := new(mockRobotRepo)
	rec := saRecord(t, 5)
	repo.On("ListVisible", mock.Anything, mock.Anything).Return([]*model.RobotCredential{rec}, nil)
	repo.On("GetByID", mock.Anything, int64(5)).Return(rec, nil)
	repo.On("GetByID", mock.Anything, mock.Anything).Return(nil, pkgErrors.ErrRecordNotFound)

	provider := source.NewProvider(nil, source.Host{Store: newTestStore(t, repo, d)}, zap.NewNop())
	return NewSourceCredentialService(provider, v, zap.NewNop()), repo
}

func TestSourceLookup(t *testing.T) {
	svc, _ := newSourceService(t, &fakeDetector{}, nil)

	resp, err := svc.Lookup(context.Background(), source.SystemIdentity, &dto.SourceLookupRequest{URL: gerritRepo})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, dto.SourceCredentialItem{
		ID:            "source:5",
		CredentialsID: "5",
		Strategy:      "GERRIT",
		Description:   "builder@my-proj.iam.gserviceaccount.com",
		Binding:       `{"credentials_id":"5","strategy":"GERRIT"}`,
	}, resp.Items[0])

	resp, err = svc.Lookup(context.Background(), "alice", &dto.SourceLookupRequest{URL: gerritRepo})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	_, err = svc.Lookup(context.Background(), source.SystemIdentity, &dto.SourceLookupRequest{Type: "bogus"})
	assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err))
}

func TestSourceLookupRepoURLForms(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSourceService(t, &fakeDetector{}, nil)

	// scp 风格地址按 ssh 处理，不会命中 https 策略
	resp, err := svc.Lookup(ctx, source.SystemIdentity, &dto.SourceLookupRequest{URL: "git@github.com:foo/bar.git"})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	for _, u := range []string{"github.com/foo/bar", "not a url"} {
		_, err = svc.Lookup(ctx, source.SystemIdentity, &dto.SourceLookupRequest{URL: u})
		assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err), u)

		_, err = svc.Resolve(ctx, source.SystemIdentity, &dto.SourceResolveRequest{ID: "source:5", URL: u})
		assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err), u)

		_, err = svc.Resolve(ctx, source.SystemIdentity, &dto.SourceResolveRequest{ID: "source:5", Strategy: "GERRIT", URL: u})
		assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err), u)
	}
}

func TestSourceResolve(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSourceService(t, &fakeDetector{}, nil)

	resp, err := svc.Resolve(ctx, source.SystemIdentity, &dto.SourceResolveRequest{ID: "source:5", URL: gerritRepo})
	require.NoError(t, err)
	assert.Equal(t, "GERRIT", resp.Strategy)
	assert.Equal(t, "git", resp.Username)
	assert.Equal(t, "ya29."+source.ScopeGerritCodeReview, resp.Password)

	resp, err = svc.Resolve(ctx, source.SystemIdentity, &dto.SourceResolveRequest{ID: "5", Strategy: "CLOUD_PLATFORM"})
	require.NoError(t, err)
	assert.Equal(t, "builder@my-proj.iam.gserviceaccount.com", resp.Username)
	assert.Equal(t, "ya29."+source.ScopeSourceReadWrite, resp.Password)
}

func TestSourceResolveByBinding(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSourceService(t, &fakeDetector{}, nil)

	found, err := svc.Lookup(ctx, source.SystemIdentity, &dto.SourceLookupRequest{
		URL: "https://source.developers.google.com/p/proj/r/repo",
	})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)

	resp, err := svc.Resolve(ctx, source.SystemIdentity, &dto.SourceResolveRequest{Binding: found.Items[0].Binding})
	require.NoError(t, err)
	assert.Equal(t, "source:5", resp.ID)
	assert.Equal(t, "CLOUD_PLATFORM", resp.Strategy)
	assert.Equal(t, "ya29."+source.ScopeSourceReadWrite, resp.Password)

	// binding 中的策略与仓库地址仍需匹配
	_, err = svc.Resolve(ctx, source.SystemIdentity, &dto.SourceResolveRequest{Binding: found.Items[0].Binding, URL: gerritRepo})
	assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err))

	_, err = svc.Resolve(ctx, source.SystemIdentity, &dto.SourceResolveRequest{Binding: `{"strategy":"GERRIT"}`})
	assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err))
}

func TestSourceResolveErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSourceService(t, &fakeDetector{}, nil)

	_, err := svc.Resolve(ctx, "alice", &dto.SourceResolveRequest{ID: "5", URL: gerritRepo})
	assert.ErrorIs(t, err, pkgErrors.ErrForbidden)

	_, err = svc.Resolve(ctx, source.SystemIdentity, &dto.SourceResolveRequest{ID: "5", URL: "https://github.com/a/b"})
	assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err))

	_, err = svc.Resolve(ctx, source.SystemIdentity, &dto.SourceResolveRequest{ID: "5", URL: gerritRepo, Strategy: "CLOUD_PLATFORM"})
	assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err))

	_, err = svc.Resolve(ctx, source.SystemIdentity, &dto.SourceResolveRequest{ID: "5"})
	assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err))

	_, err = svc.Resolve(ctx, source.SystemIdentity, &dto.SourceResolveRequest{ID: "404", URL: gerritRepo})
	assert.ErrorIs(t, err, source.ErrCredentialUnavailable)
}

func TestSourceResolveTokenFailure(t *testing.T) {
	d := &fakeDetector{fail: map[string]bool{source.ScopeGerritCodeReview: true}}
	svc, _ := newSourceService(t, d, nil)

	_, err := svc.Resolve(context.Background(), source.SystemIdentity, &dto.SourceResolveRequest{ID: "5", URL: gerritRepo})
	assert.ErrorIs(t, err, source.ErrAuthenticationFailure)
	assert.ErrorIs(t, err, errInvalidGrant)
}

func TestSourceRemoteDecodesOnAgent(t *testing.T) {
	ctx := context.Background()
	d := &fakeDetector{}
	svc, _ := newSourceService(t, d, nil)

	resp, err := svc.Remote(ctx, source.SystemIdentity, &dto.SourceResolveRequest{ID: "5", URL: gerritRepo})
	require.NoError(t, err)
	assert.Equal(t, "source:5", resp.ID)
	assert.Equal(t, "git", resp.Username)
	assert.Equal(t, []string{source.ScopeGerritCodeReview}, resp.Scopes)
	assert.NotEmpty(t, resp.ExpiresAt)
	calls := d.calls

	data, err := base64.StdEncoding.DecodeString(resp.Data)
	require.NoError(t, err)
	agent, err := source.Decode(data, source.AgentHost())
	require.NoError(t, err)
	assert.Equal(t, source.FormSnapshot, agent.Form())

	pw, err := agent.Password(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ya29."+source.ScopeGerritCodeReview, pw.PlainText())
	assert.Equal(t, calls, d.calls)
}

func TestSourceVerify(t *testing.T) {
	ctx := context.Background()
	v := &fakeVerifier{result: &git.VerifyResult{StatusCode: 200}}
	svc, _ := newSourceService(t, &fakeDetector{}, v)

	resp, err := svc.Verify(ctx, source.SystemIdentity, &dto.SourceVerifyRequest{ID: "source:5", URL: gerritRepo})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "git", v.username)
	assert.Equal(t, "ya29."+source.ScopeGerritCodeReview, v.password)
	assert.Equal(t, gerritRepo, v.repoURL)

	v.result = &git.VerifyResult{StatusCode: 403}
	v.err = errors.New("认证失败")
	resp, err = svc.Verify(ctx, source.SystemIdentity, &dto.SourceVerifyRequest{ID: "5", URL: gerritRepo})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Contains(t, resp.Message, "认证失败")
}
