package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/healththreads/timeline/internal/cache"
	"github.com/healththreads/timeline/internal/model"
	"github.com/healththreads/timeline/internal/repository"
	"github.com/healththreads/timeline/pkg/logger"
)

// FeedMedia 时间线里附件的投影
type FeedMedia struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// FeedPost 时间线里帖子的投影（含作者摘要与点赞标记）
type FeedPost struct {
	ID            string               `json:"id"`
	Kind          string               `json:"kind"`
	Title         string               `json:"title,omitempty"`
	Body          string               `json:"body,omitempty"`
	GroupID       string               `json:"group_id,omitempty"`
	LikeCount     int64                `json:"like_count"`
	CommentCount  int64                `json:"comment_count"`
	CreatedAt     time.Time            `json:"created_at"`
	Author        cache.AuthorSnapshot `json:"author"`
	Media         []FeedMedia          `json:"media,omitempty"`
	LikedByViewer bool                 `json:"liked_by_viewer"`
}

// FeedPage 一页时间线
type FeedPage struct {
	Posts   []*FeedPost `json:"posts"`
	HasMore bool        `json:"has_more"`
}

// LikeFilter 点赞标记查询入口；LikeService 走缓存优先，
// 直接挂仓储则每次回源 DB
type LikeFilter interface {
	FilterLiked(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
}

// TimelineService 读路径：有序集合给名次区间的 postID，
// DB 批量补全帖子，作者摘要走缓存
type TimelineService struct {
	timeline        *cache.TimelineStore
	posts           repository.PostRepository
	likes           LikeFilter
	authors         *cache.UserSnapshotCache
	defaultPageSize int
	maxPageSize     int
}

func NewTimelineService(
	timeline *cache.TimelineStore,
	posts repository.PostRepository,
	likes LikeFilter,
	authors *cache.UserSnapshotCache,
	defaultPageSize, maxPageSize int,
) *TimelineService {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize <= 0 {
		maxPageSize = 50
	}
	return &TimelineService{
		timeline:        timeline,
		posts:           posts,
		likes:           likes,
		authors:         authors,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// ReadPage 读 userID 时间线的第 page 页（0 起），倒序。
// viewerID 非空时补 liked_by_viewer 标记。
// DB 批量查询不保证返回顺序，必须按名次序重排。
func (s *TimelineService) ReadPage(ctx context.Context, userID, viewerID string, page, pageSize int) (*FeedPage, error) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	start := int64(page) * int64(pageSize)
	stop := start + int64(pageSize) - 1
	ids, err := s.timeline.Range(ctx, userID, start, stop)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &FeedPage{Posts: []*FeedPost{}, HasMore: false}, nil
	}

	rows, err := s.posts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Post, len(rows))
	authorIDs := make([]string, 0, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
		authorIDs = append(authorIDs, p.AuthorID)
	}

	authors, err := s.authors.Load(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	liked := map[string]bool{}
	if viewerID != "" {
		liked, err = s.likes.FilterLiked(ctx, viewerID, ids)
		if err != nil {
			return nil, err
		}
	}

	// 按有序集合给出的名次序重排；时间线里引用但 DB 缺失的条目跳过
	ordered := make([]*FeedPost, 0, len(ids))
	var stale []string
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			logger.Warn("timeline: referenced post missing from store",
				zap.String("user_id", userID), zap.String("post_id", id))
			stale = append(stale, id)
			continue
		}
		ordered = append(ordered, buildFeedPost(p, authors[p.AuthorID], liked[p.ID]))
	}

	// 失效条目顺手从时间线里摘掉，不让它们撑大 has_more 的分母
	if len(stale) > 0 {
		if err := s.timeline.Remove(ctx, userID, stale); err != nil {
			logger.Warn("timeline: stale entry cleanup failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}

	total, err := s.timeline.Card(ctx, userID)
	if err != nil {
		return nil, err
	}
	hasMore := int64(page+1)*int64(pageSize) < total

	return &FeedPage{Posts: ordered, HasMore: hasMore}, nil
}

func buildFeedPost(p *model.Post, author cache.AuthorSnapshot, likedByViewer bool) *FeedPost {
	media := make([]FeedMedia, 0, len(p.Media))
	for _, m := range p.Media {
		media = append(media, FeedMedia{URL: m.URL, Kind: m.Kind})
	}
	return &FeedPost{
		ID:            p.ID,
		Kind:          p.Kind,
		Title:         p.Title,
		Body:          p.Body,
		GroupID:       p.GroupID,
		LikeCount:     p.LikeCount,
		CommentCount:  p.CommentCount,
		CreatedAt:     p.CreatedAt,
		Author:        author,
		Media:         media,
		LikedByViewer: likedByViewer,
	}
}
