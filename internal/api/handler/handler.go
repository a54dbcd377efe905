package handler

import (
	"github.com/healththreads/timeline/internal/service"
)

// Handler 聚合全部 HTTP 处理器依赖
type Handler struct {
	ingest     *service.IngestService
	timeline   *service.TimelineService
	trending   *service.TrendingService
	relService service.RelationshipService
	likes      *service.LikeService
	users      *service.UserService
	groups     *service.GroupService
}

func New(
	ingest *service.IngestService,
	timeline *service.TimelineService,
	trending *service.TrendingService,
	relService service.RelationshipService,
	likes *service.LikeService,
	users *service.UserService,
	groups *service.GroupService,
) *Handler {
	return &Handler{
		ingest:     ingest,
		timeline:   timeline,
		trending:   trending,
		relService: relService,
		likes:      likes,
		users:      users,
		groups:     groups,
	}
}
