package handler

import (
	"github.com/gin-gonic/gin"

	"gsource-auth/internal/api/middleware"
	"gsource-auth/internal/dto"
	"gsource-auth/internal/service"
	pkgErrors "gsource-auth/pkg/errors"
	"gsource-auth/pkg/responses"
	"gsource-auth/pkg/utils"
)

// SourceCredentialHandler 桥接凭据接口，以调用方身份执行
type SourceCredentialHandler struct {
	svc service.SourceCredentialService
}

func NewSourceCredentialHandler(svc service.SourceCredentialService) *SourceCredentialHandler {
	return &SourceCredentialHandler{svc: svc}
}

// Lookup 查询适用于仓库的桥接凭据
// @Summary 查询桥接凭据
// @Description 只有系统身份能拿到结果，其余调用方得到空列表
// @Tags Source
// @Accept json
// @Produce json
// @Param request body dto.SourceLookupRequest true "查询条件"
// @Success 200 {object} responses.Response{data=dto.SourceLookupResponse}
// @Security BearerAuth
// @Router /api/v1/source-credentials/lookup [post]
func (h *SourceCredentialHandler) Lookup(c *gin.Context) {
	var req dto.SourceLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, pkgErrors.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	resp, err := h.svc.Lookup(c.Request.Context(), middleware.Acting(c), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, resp)
}

// Resolve 解析为用户名/密码
// @Summary 解析桥接凭据
// @Tags Source
// @Accept json
// @Produce json
// @Param request body dto.SourceResolveRequest true "解析请求"
// @Success 200 {object} responses.Response{data=dto.SourceResolveResponse}
// @Security BearerAuth
// @Router /api/v1/source-credentials/resolve [post]
func (h *SourceCredentialHandler) Resolve(c *gin.Context) {
	var req dto.SourceResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, pkgErrors.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	resp, err := h.svc.Resolve(c.Request.Context(), middleware.Acting(c), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, resp)
}

// Remote 生成交给构建 agent 的凭据快照
// @Summary 生成远端快照
// @Tags Source
// @Accept json
// @Produce json
// @Param request body dto.SourceResolveRequest true "解析请求"
// @Success 200 {object} responses.Response{data=dto.SourceRemoteResponse}
// @Security BearerAuth
// @Router /api/v1/source-credentials/remote [post]
func (h *SourceCredentialHandler) Remote(c *gin.Context) {
	var req dto.SourceResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, pkgErrors.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	resp, err := h.svc.Remote(c.Request.Context(), middleware.Acting(c), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, resp)
}

// Verify 使用桥接凭据访问仓库
// @Summary 验证仓库访问
// @Tags Source
// @Accept json
// @Produce json
// @Param request body dto.SourceVerifyRequest true "验证请求"
// @Success 200 {object} responses.Response{data=dto.SourceVerifyResponse}
// @Security BearerAuth
// @Router /api/v1/source-credentials/verify [post]
func (h *SourceCredentialHandler) Verify(c *gin.Context) {
	var req dto.SourceVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, pkgErrors.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	resp, err := h.svc.Verify(c.Request.Context(), middleware.Acting(c), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, resp)
}
