package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/healththreads/timeline/internal/api/middleware"
	"github.com/healththreads/timeline/pkg/response"
)

// Feed 读当前用户的时间线，倒序分页
// @Summary 时间线
// @Tags 时间线
// @Param page query int false "页码（0起）" default(0)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=service.FeedPage}
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/feed [get]
func (h *Handler) Feed(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	feed, err := h.timeline.ReadPage(c.Request.Context(), userID, userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, feed)
}

// Trending 全局热门标签
// @Summary 热门标签
// @Tags 时间线
// @Param n query int false "数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/trending [get]
func (h *Handler) Trending(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("n", "10"))
	if n <= 0 || n > 100 {
		n = 10
	}
	tags, err := h.trending.Top(c.Request.Context(), n)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"tags": tags})
}
