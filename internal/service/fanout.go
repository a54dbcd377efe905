package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/healththreads/timeline/internal/cache"
	"github.com/healththreads/timeline/internal/repository"
	"github.com/healththreads/timeline/pkg/logger"
)

// FanoutService 写扩散：发帖时把帖子引用写进作者 + 全部粉丝的时间线。
// 粉丝按页从冗余表枚举，每页一次 pipeline 往返，score 统一取帖子创建时间，
// 因此重复 fan-out 只是同值覆盖，不产生重复条目。
type FanoutService struct {
	fans      repository.FanRepository
	timeline  *cache.TimelineStore
	batchSize int
}

func NewFanoutService(fans repository.FanRepository, timeline *cache.TimelineStore, batchSize int) *FanoutService {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &FanoutService{fans: fans, timeline: timeline, batchSize: batchSize}
}

// FanOut 先写作者自己的时间线，再分批写粉丝。
// 某一批失败只记日志并继续后续批次，不在线重试；返回遇到的首个错误。
func (s *FanoutService) FanOut(ctx context.Context, postID, authorID string, createdAt time.Time) error {
	score := float64(createdAt.UnixNano())

	var firstErr error
	if err := s.timeline.Push(ctx, []string{authorID}, postID, score); err != nil {
		logger.Error("fanout: author timeline write failed",
			zap.String("post_id", postID), zap.String("author_id", authorID), zap.Error(err))
		firstErr = err
	}

	offset := 0
	for {
		fanIDs, err := s.fans.ListFanIDs(ctx, authorID, offset, s.batchSize)
		if err != nil {
			logger.Error("fanout: list fans failed",
				zap.String("author_id", authorID), zap.Int("offset", offset), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			return firstErr
		}
		if len(fanIDs) == 0 {
			return firstErr
		}
		if err := s.timeline.Push(ctx, fanIDs, postID, score); err != nil {
			logger.Error("fanout: batch write failed",
				zap.String("post_id", postID), zap.String("author_id", authorID),
				zap.Int("offset", offset), zap.Int("batch", len(fanIDs)), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
		if len(fanIDs) < s.batchSize {
			return firstErr
		}
		offset += s.batchSize
	}
}
