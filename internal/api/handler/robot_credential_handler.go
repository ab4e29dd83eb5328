package handler

import (
	"github.com/gin-gonic/gin"

	"gsource-auth/internal/dto"
	"gsource-auth/internal/service"
	pkgErrors "gsource-auth/pkg/errors"
	"gsource-auth/pkg/responses"
	"gsource-auth/pkg/utils"
)

type RobotCredentialHandler struct {
	svc   service.RobotCredentialService
	probe service.ProbeService
}

func NewRobotCredentialHandler(svc service.RobotCredentialService, probe service.ProbeService) *RobotCredentialHandler {
	return &RobotCredentialHandler{svc: svc, probe: probe}
}

// Create 创建 robot 凭据
// @Summary 创建 robot 凭据
// @Tags RobotCredential
// @Accept json
// @Produce json
// @Param request body dto.CreateRobotCredentialRequest true "创建 robot 凭据请求"
// @Success 200 {object} responses.Response{data=dto.RobotCredentialResponse}
// @Security BearerAuth
// @Router /api/v1/robot-credentials [post]
func (h *RobotCredentialHandler) Create(c *gin.Context) {
	var req dto.CreateRobotCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, pkgErrors.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, resp)
}

// List 列表
// @Summary robot 凭据列表
// @Tags RobotCredential
// @Produce json
// @Param scope query string false "global/project"
// @Param project_id query int64 false "项目ID"
// @Param keyword query string false "名称关键字"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} responses.Response{data=dto.PageResponse{items=[]dto.RobotCredentialResponse}}
// @Security BearerAuth
// @Router /api/v1/robot-credentials [get]
func (h *RobotCredentialHandler) List(c *gin.Context) {
	var q dto.ListRobotCredentialQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		responses.ErrorWithDetail(c, pkgErrors.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	list, total, err := h.svc.List(c.Request.Context(), &q)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, dto.NewPageResponse(list, total, q.GetPage(), q.GetPageSize()))
}

// Get 详情
// @Summary robot 凭据详情
// @Tags RobotCredential
// @Produce json
// @Param id path int64 true "ID"
// @Success 200 {object} responses.Response{data=dto.RobotCredentialResponse}
// @Security BearerAuth
// @Router /api/v1/robot-credentials/{id} [get]
func (h *RobotCredentialHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, resp)
}

// Update 更新，key 为空时保留原密文
// @Summary 更新 robot 凭据
// @Tags RobotCredential
// @Accept json
// @Produce json
// @Param id path int64 true "ID"
// @Param request body dto.UpdateRobotCredentialRequest true "更新请求"
// @Success 200 {object} responses.Response{data=dto.RobotCredentialResponse}
// @Security BearerAuth
// @Router /api/v1/robot-credentials/{id} [put]
func (h *RobotCredentialHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateRobotCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, pkgErrors.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, resp)
}

// Delete 删除
// @Summary 删除 robot 凭据
// @Tags RobotCredential
// @Param id path int64 true "ID"
// @Success 200 {object} responses.Response
// @Security BearerAuth
// @Router /api/v1/robot-credentials/{id} [delete]
func (h *RobotCredentialHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, nil)
}

// Probe 立即探测一次
// @Summary 探测 robot 凭据
// @Tags RobotCredential
// @Produce json
// @Param id path int64 true "ID"
// @Success 200 {object} responses.Response{data=dto.ProbeResult}
// @Security BearerAuth
// @Router /api/v1/robot-credentials/{id}/probe [post]
func (h *RobotCredentialHandler) Probe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.probe.Probe(c.Request.Context(), id)
	if err != nil {
		responses.Error(c, err)
		return
	}
	responses.Success(c, res)
}

func pathID(c *gin.Context) (int64, bool) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		responses.ErrorWithDetail(c, pkgErrors.CodeBadRequest, "无效的 ID", utils.FormatValidationError(err))
		return 0, false
	}
	return param.ID, true
}
