package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gsource-auth/internal/dto"
	"gsource-auth/internal/pkg/logger"
	"gsource-auth/internal/service"
	pkgErrors "gsource-auth/pkg/errors"
	"gsource-auth/pkg/responses"
	"gsource-auth/pkg/utils"
)

// BuildHandler 构建处理器
type BuildHandler struct {
	buildService service.BuildService
}

// NewBuildHandler 创建构建处理器
func NewBuildHandler(buildService service.BuildService) *BuildHandler {
	return &BuildHandler{buildService: buildService}
}

// Notify 接收构建通知
// @Summary 接收构建通知
// @Description 变更集解析完成后上报，记录构建使用的源码来源
// @Tags Build
// @Accept json
// @Produce json
// @Param request body dto.BuildNotifyRequest true "构建通知请求"
// @Success 200 {object} responses.Response{data=dto.BuildResponse}
// @Security BearerAuth
// @Router /api/v1/builds/notify [post]
func (h *BuildHandler) Notify(c *gin.Context) {
	var req dto.BuildNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, pkgErrors.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.buildService.Notify(c.Request.Context(), &req)
	if err != nil {
		logger.Error("处理构建通知失败", zap.String("job", req.Job), zap.Int("build_number", req.BuildNumber), zap.Error(err))
		responses.Error(c, err)
		return
	}
	responses.Success(c, resp)
}

// Get 查询构建及其来源
// @Summary 构建详情
// @Tags Build
// @Produce json
// @Param id path int64 true "构建ID"
// @Success 200 {object} responses.Response{data=dto.BuildResponse}
// @Security BearerAuth
// @Router /api/v1/builds/{id} [get]
func (h *BuildHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.buildService.GetByID(c.Request.Context(), id)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, resp)
}

// SourceMetadata 构建使用的源码来源
// @Summary 构建来源
// @Tags Build
// @Produce json
// @Param id path int64 true "构建ID"
// @Success 200 {object} responses.Response{data=[]dto.SourceMetadataResponse}
// @Security BearerAuth
// @Router /api/v1/builds/{id}/source-metadata [get]
func (h *BuildHandler) SourceMetadata(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	list, err := h.buildService.ListSourceMetadata(c.Request.Context(), id)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, list)
}

// GetByJob 按任务名和构建号查询
// @Summary 按任务查询构建
// @Tags Build
// @Produce json
// @Param job query string true "任务名"
// @Param number query int true "构建号"
// @Success 200 {object} responses.Response{data=dto.BuildResponse}
// @Security BearerAuth
// @Router /api/v1/builds [get]
func (h *BuildHandler) GetByJob(c *gin.Context) {
	job := c.Query("job")
	number, err := strconv.Atoi(c.Query("number"))
	if job == "" || err != nil {
		responses.ErrorWithCode(c, pkgErrors.CodeBadRequest, "job 与 number 必填")
		return
	}
	resp, err := h.buildService.GetByJobAndNumber(c.Request.Context(), job, number)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, resp)
}
