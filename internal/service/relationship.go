package service

import (
	"context"

	"github.com/healththreads/timeline/internal/repository"
)

// RelationshipService 关系链服务；关注是一个 toggle 操作
type RelationshipService interface {
	// Toggle 已关注则取关，未关注则建立；返回操作后的关注状态
	Toggle(ctx context.Context, fromUserID, toUserID string) (following bool, err error)
	ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error)
	ListFans(ctx context.Context, userID string, page, pageSize int) ([]string, error)
}

type relationshipService struct {
	followRepo repository.FollowRepository
	fanRepo    repository.FanRepository
	replicator *FanReplicator
}

func NewRelationshipService(followRepo repository.FollowRepository, fanRepo repository.FanRepository, replicator *FanReplicator) RelationshipService {
	return &relationshipService{followRepo: followRepo, fanRepo: fanRepo, replicator: replicator}
}

func (s *relationshipService) Toggle(ctx context.Context, fromUserID, toUserID string) (bool, error) {
	if fromUserID == toUserID {
		return false, ErrFollowSelf
	}
	exists, err := s.followRepo.Exists(ctx, fromUserID, toUserID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := s.followRepo.Delete(ctx, fromUserID, toUserID); err != nil {
			return true, err
		}
		if s.replicator != nil {
			s.replicator.EnqueueRemove(toUserID, fromUserID)
		}
		return false, nil
	}
	if err := s.followRepo.Create(ctx, fromUserID, toUserID); err != nil {
		return false, err
	}
	if s.replicator != nil {
		s.replicator.EnqueueAdd(toUserID, fromUserID)
	}
	return true, nil
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	offset, limit := pageWindow(page, pageSize)
	items, err := s.followRepo.ListFollowings(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FolloweeID
	}
	return res, nil
}

func (s *relationshipService) ListFans(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	offset, limit := pageWindow(page, pageSize)
	return s.fanRepo.ListFanIDs(ctx, userID, offset, limit)
}

func pageWindow(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return (page - 1) * pageSize, pageSize
}
