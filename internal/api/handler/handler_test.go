package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gsource-auth/internal/core/source"
	"gsource-auth/internal/dto"
	"gsource-auth/pkg/constants"
	pkgErrors "gsource-auth/pkg/errors"
	"gsource-auth/pkg/responses"
)

type mockSourceService struct {
	mock.Mock
}

func (m *mockSourceService) Lookup(ctx context.Context, acting source.Identity, req *dto.SourceLookupRequest) (*dto.SourceLookupResponse, error) {
	args := m.Called(acting, req)
	resp, _ := args.Get(0).(*dto.SourceLookupResponse)
	return resp, args.Error(1)
}

func (m *mockSourceService) Resolve(ctx context.Context, acting source.Identity, req *dto.SourceResolveRequest) (*dto.SourceResolveResponse, error) {
	args := m.Called(acting, req)
	resp, _ := args.Get(0).(*dto.SourceResolveResponse)
	return resp, args.Error(1)
}

func (m *mockSourceService) Remote(ctx context.Context, acting source.Identity, req *dto.SourceResolveRequest) (*dto.SourceRemoteResponse, error) {
	args := m.Called(acting, req)
	resp, _ := args.Get(0).(*dto.SourceRemoteResponse)
	return resp, args.Error(1)
}

func (m *mockSourceService) Verify(ctx context.Context, acting source.Identity, req *dto.SourceVerifyRequest) (*dto.SourceVerifyResponse, error) {
	args := m.Called(acting, req)
	resp, _ := args.Get(0).(*dto.SourceVerifyResponse)
	return resp, args.Error(1)
}

// withActing 模拟认证中间件
func withActing(acting source.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.ContextKeyActing, acting)
		c.Next()
	}
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) responses.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp responses.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func sourceRouter(svc *mockSourceService, acting source.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSourceCredentialHandler(svc)
	r := gin.New()
	r.Use(withActing(acting))
	r.POST("/lookup", h.Lookup)
	r.POST("/resolve", h.Resolve)
	return r
}

func TestLookupHandlerPassesActingIdentity(t *testing.T) {
	svc := new(mockSourceService)
	svc.On("Lookup", source.SystemIdentity, &dto.SourceLookupRequest{URL: "https://a.googlesource.com/x"}).
		Return(&dto.SourceLookupResponse{Items: []dto.SourceCredentialItem{{ID: "source:1", Strategy: "GERRIT"}}}, nil)

	resp := postJSON(t, sourceRouter(svc, source.SystemIdentity), "/lookup", `{"url":"https://a.googlesource.com/x"}`)
	assert.Equal(t, pkgErrors.CodeSuccess, resp.Code)
	items := resp.Data.(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "source:1", items[0].(map[string]any)["id"])
	svc.AssertExpectations(t)
}

func TestResolveHandlerErrors(t *testing.T) {
	svc := new(mockSourceService)
	svc.On("Resolve", source.Identity("user:alice"), mock.Anything).Return(nil, pkgErrors.ErrForbidden)
	r := sourceRouter(svc, "user:alice")

	resp := postJSON(t, r, "/resolve", `{"strategy":"GITHUB"}`)
	assert.Equal(t, pkgErrors.CodeBadRequest, resp.Code)
	svc.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)

	resp = postJSON(t, r, "/resolve", `{"id":"source:1","strategy":"GERRIT"}`)
	assert.Equal(t, pkgErrors.CodeForbidden, resp.Code)
}

type stubBuildService struct {
	notified *dto.BuildNotifyRequest
}

func (s *stubBuildService) Notify(_ context.Context, req *dto.BuildNotifyRequest) (*dto.BuildResponse, error) {
	s.notified = req
	return &dto.BuildResponse{ID: 1, Job: req.Job, BuildNumber: req.BuildNumber}, nil
}

func (s *stubBuildService) GetByID(context.Context, int64) (*dto.BuildResponse, error) {
	return nil, pkgErrors.ErrRecordNotFound
}

func (s *stubBuildService) GetByJobAndNumber(context.Context, string, int) (*dto.BuildResponse, error) {
	return nil, pkgErrors.ErrRecordNotFound
}

func (s *stubBuildService) ListSourceMetadata(_ context.Context, id int64) ([]dto.SourceMetadataResponse, error) {
	return []dto.SourceMetadataResponse{{SCM: "git", RepoURL: "https://a"}}, nil
}

func TestBuildHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubBuildService{}
	h := NewBuildHandler(svc)
	r := gin.New()
	r.POST("/builds/notify", h.Notify)
	r.GET("/builds/:id/source-metadata", h.SourceMetadata)

	resp := postJSON(t, r, "/builds/notify", `{"job":"chromium","build_number":3,"scm":{"type":"git","urls":["https://a"]}}`)
	require.Equal(t, pkgErrors.CodeSuccess, resp.Code)
	require.NotNil(t, svc.notified)
	assert.Equal(t, "git", svc.notified.SCM.Type)

	resp = postJSON(t, r, "/builds/notify", `{"job":"chromium"}`)
	assert.Equal(t, pkgErrors.CodeBadRequest, resp.Code)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/builds/x/source-metadata", nil))
	var bad responses.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bad))
	assert.Equal(t, pkgErrors.CodeBadRequest, bad.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/builds/1/source-metadata", nil))
	var ok responses.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ok))
	assert.Equal(t, pkgErrors.CodeSuccess, ok.Code)
	assert.Len(t, ok.Data.([]any), 1)
}
