package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healththreads/timeline/internal/api/middleware"
	"github.com/healththreads/timeline/internal/service"
	"github.com/healththreads/timeline/pkg/response"
)

// CreatePost 发帖（落库后触发写扩散 / 热度 / 索引 / 广播）
// @Summary 发帖
// @Tags 帖子
// @Accept json
// @Produce json
// @Param request body service.IngestInput true "帖子内容"
// @Success 201 {object} response.Response{data=service.FeedPost}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var in service.IngestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.ingest.Ingest(c.Request.Context(), middleware.CurrentUserID(c), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrUnauthorized):
			response.Unauthorized(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, post)
}

// ToggleLike 点赞 / 取消点赞
// @Summary 点赞 toggle
// @Tags 帖子
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id}/like [post]
func (h *Handler) ToggleLike(c *gin.Context) {
	postID := c.Param("id")
	liked, err := h.likes.Toggle(c.Request.Context(), middleware.CurrentUserID(c), postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"liked": liked})
}
