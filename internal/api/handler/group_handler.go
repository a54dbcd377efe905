package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/healththreads/timeline/internal/api/middleware"
	"github.com/healththreads/timeline/internal/service"
	"github.com/healththreads/timeline/pkg/response"
)

type createGroupRequest struct {
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description" binding:"max=255"`
}

// CreateGroup 创建社区
// @Summary 创建社区
// @Tags 社区
// @Accept json
// @Produce json
// @Param request body createGroupRequest true "社区信息"
// @Success 201 {object} response.Response{data=model.Group}
// @Failure 400 {object} response.Response
// @Router /api/v1/groups [post]
func (h *Handler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	g, err := h.groups.Create(c.Request.Context(), middleware.CurrentUserID(c), req.Name, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, g)
}

// ListGroups 社区列表
// @Summary 社区列表
// @Tags 社区
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/groups [get]
func (h *Handler) ListGroups(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.groups.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
