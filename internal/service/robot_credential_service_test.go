package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gsource-auth/internal/dto"
	"gsource-auth/internal/model"
	pkgErrors "gsource-auth/pkg/errors"
)

func newRobotCredentialService(t *testing.T, repo *mockRobotRepo) RobotCredentialService {
	return NewRobotCredentialService(repo, newTestCipher(t), newTestFactory(&fakeDetector{}), zap.NewNop())
}

func TestCreateServiceAccount(t *testing.T) {
	repo := new(mockRobotRepo)
	var saved *model.RobotCredential
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.RobotCredential")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*model.RobotCredential) }).
		Return(nil)

	svc := newRobotCredentialService(t, repo)
	resp, err := svc.Create(context.Background(), &dto.CreateRobotCredentialRequest{
		Scope:         "global",
		Name:          "builder",
		Kind:          "service_account",
		Key:           json.RawMessage(testKey),
		AllowedScopes: []string{"https://a", "https://a", "https://b"},
	})
	require.NoError(t, err)

	assert.Equal(t, "1", resp.CredentialsID)
	assert.Equal(t, "builder@my-proj.iam.gserviceaccount.com", resp.Email)
	assert.Equal(t, []string{"https://a", "https://b"}, resp.AllowedScopes)

	require.NotNil(t, saved)
	assert.NotContains(t, saved.EncryptedData, "private_key")
	plain, err := newTestCipher(t).Decrypt(saved.EncryptedData)
	require.NoError(t, err)
	assert.JSONEq(t, testKey, string(plain))
	assert.JSONEq(t, `{"email":"builder@my-proj.iam.gserviceaccount.com","gcp_project_id":"my-proj"}`, string(saved.MetaJSON))
}

func TestCreateValidation(t *testing.T) {
	repo := new(mockRobotRepo)
	svc := newRobotCredentialService(t, repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, &dto.CreateRobotCredentialRequest{Scope: "project", Name: "x", Kind: "application_default"})
	assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err))

	_, err = svc.Create(ctx, &dto.CreateRobotCredentialRequest{Scope: "global", Name: "x", Kind: "service_account"})
	assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err))

	_, err = svc.Create(ctx, &dto.CreateRobotCredentialRequest{
		Scope: "global", Name: "x", Kind: "service_account", Key: json.RawMessage(`{"type":"service_account"}`),
	})
	assert.Equal(t, pkgErrors.CodeValidationError, pkgErrors.CodeOf(err))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateApplicationDefault(t *testing.T) {
	repo := new(mockRobotRepo)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	pid := int64(3)
	svc := newRobotCredentialService(t, repo)
	resp, err := svc.Create(context.Background(), &dto.CreateRobotCredentialRequest{
		Scope:     "project",
		ProjectID: &pid,
		Name:      "runner",
		Kind:      "application_default",
		Email:     "runner@my-proj.iam.gserviceaccount.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "runner@my-proj.iam.gserviceaccount.com", resp.Email)
	assert.Equal(t, &pid, resp.ProjectID)
}

func TestUpdateKeepsKeyWhenOnlyEmailChanges(t *testing.T) {
	repo := new(mockRobotRepo)
	rec := saRecord(t, 4)
	before := rec.EncryptedData
	repo.On("GetByID", mock.Anything, int64(4)).Return(rec, nil)
	repo.On("Update", mock.Anything, rec).Return(nil)

	email := "ignored@x"
	svc := newRobotCredentialService(t, repo)
	resp, err := svc.Update(context.Background(), 4, &dto.UpdateRobotCredentialRequest{Name: "renamed", Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "renamed", resp.Name)
	// service_account 的邮箱来自 key
	assert.Equal(t, "builder@my-proj.iam.gserviceaccount.com", resp.Email)

	plain, err := newTestCipher(t).Decrypt(rec.EncryptedData)
	require.NoError(t, err)
	assert.JSONEq(t, testKey, string(plain))
	assert.NotEqual(t, before, rec.EncryptedData)
}

func TestDeleteMissing(t *testing.T) {
	repo := new(mockRobotRepo)
	repo.On("GetByID", mock.Anything, int64(9)).Return(nil, pkgErrors.ErrRecordNotFound)

	err := newRobotCredentialService(t, repo).Delete(context.Background(), 9)
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
