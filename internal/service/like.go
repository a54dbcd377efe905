package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/healththreads/timeline/internal/cache"
	"github.com/healththreads/timeline/internal/repository"
	"github.com/healththreads/timeline/pkg/logger"
)

// LikeService 点赞 toggle；DB 先行，redis 集合写透为 best-effort
type LikeService struct {
	likes     repository.PostLikeRepository
	posts     repository.PostRepository
	likeCache *cache.LikeCache
}

func NewLikeService(likes repository.PostLikeRepository, posts repository.PostRepository, likeCache *cache.LikeCache) *LikeService {
	return &LikeService{likes: likes, posts: posts, likeCache: likeCache}
}

// Toggle 已点赞则取消，未点赞则点赞；返回操作后的状态
func (s *LikeService) Toggle(ctx context.Context, userID, postID string) (bool, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return false, err
	}
	exists, err := s.likes.Exists(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := s.likes.Delete(ctx, userID, postID); err != nil {
			return true, err
		}
		if err := s.posts.IncrLikeCount(ctx, postID, -1); err != nil {
			return false, err
		}
		if s.likeCache != nil {
			if err := s.likeCache.RemoveLike(ctx, userID, postID); err != nil {
				logger.Warn("like: cache remove failed", zap.String("post_id", postID), zap.Error(err))
			}
		}
		return false, nil
	}

	if err := s.likes.Create(ctx, userID, postID); err != nil {
		return false, err
	}
	if err := s.posts.IncrLikeCount(ctx, postID, 1); err != nil {
		return true, err
	}
	if s.likeCache != nil {
		if err := s.likeCache.AddLike(ctx, userID, postID); err != nil {
			logger.Warn("like: cache add failed", zap.String("post_id", postID), zap.Error(err))
		}
	}
	return true, nil
}

// FilterLiked 缓存优先的点赞标记查询：SISMEMBER 命中即为已点赞，
// 未命中回源 DB，DB 确认的再回填集合。缓存层故障只降级不报错。
func (s *LikeService) FilterLiked(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return liked, nil
	}

	if s.likeCache != nil {
		hits, err := s.likeCache.FilterLiked(ctx, userID, postIDs)
		if err != nil {
			logger.Warn("like: cache filter failed", zap.Error(err))
		} else {
			for id := range hits {
				liked[id] = true
			}
		}
	}

	missing := make([]string, 0, len(postIDs))
	for _, id := range postIDs {
		if !liked[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return liked, nil
	}

	fromDB, err := s.likes.FilterLiked(ctx, userID, missing)
	if err != nil {
		return nil, err
	}
	for id := range fromDB {
		liked[id] = true
		if s.likeCache != nil {
			if err := s.likeCache.AddLike(ctx, userID, id); err != nil {
				logger.Warn("like: cache backfill failed", zap.String("post_id", id), zap.Error(err))
			}
		}
	}
	return liked, nil
}
