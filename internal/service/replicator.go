package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/healththreads/timeline/internal/repository"
	"github.com/healththreads/timeline/pkg/logger"
)

type replicateAction int

const (
	actionAdd replicateAction = iota + 1
	actionRemove
)

type replicateJob struct {
	action replicateAction
	userID string
	fanID  string
}

// FanReplicator 把 Follow 表的变更异步冗余到 Fan 表（fan-out 的收件人来源）。
// 队列满时丢弃并记日志；冗余表允许短暂落后于关注表。
type FanReplicator struct {
	fanRepo repository.FanRepository
	ch      chan replicateJob
}

func NewFanReplicator(fanRepo repository.FanRepository, queueSize int) *FanReplicator {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &FanReplicator{fanRepo: fanRepo, ch: make(chan replicateJob, queueSize)}
}

// Start 启动 workers 个消费协程；返回停止函数，停止时等待队列排空一小段时间
func (r *FanReplicator) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go r.run(stopCh)
	}
	return func(ctx context.Context) error {
		close(stopCh)
		deadline := time.After(2 * time.Second)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-deadline:
				return nil
			default:
				if len(r.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

func (r *FanReplicator) run(stopCh <-chan struct{}) {
	for {
		select {
		case job := <-r.ch:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			var err error
			switch job.action {
			case actionAdd:
				err = r.fanRepo.Create(ctx, job.userID, job.fanID)
			case actionRemove:
				err = r.fanRepo.Delete(ctx, job.userID, job.fanID)
			}
			cancel()
			if err != nil {
				logger.Warn("replicator: fan write failed",
					zap.String("user_id", job.userID), zap.String("fan_id", job.fanID), zap.Error(err))
			}
		case <-stopCh:
			return
		}
	}
}

func (r *FanReplicator) EnqueueAdd(userID, fanID string) {
	select {
	case r.ch <- replicateJob{action: actionAdd, userID: userID, fanID: fanID}:
	default:
		logger.Warn("replicator: queue full, drop add",
			zap.String("user_id", userID), zap.String("fan_id", fanID))
	}
}

func (r *FanReplicator) EnqueueRemove(userID, fanID string) {
	select {
	case r.ch <- replicateJob{action: actionRemove, userID: userID, fanID: fanID}:
	default:
		logger.Warn("replicator: queue full, drop remove",
			zap.String("user_id", userID), zap.String("fan_id", fanID))
	}
}

// QueueLen 当前队列长度（采样值）
func (r *FanReplicator) QueueLen() int { return len(r.ch) }
