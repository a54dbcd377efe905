package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/healththreads/timeline/internal/model"
	"github.com/healththreads/timeline/internal/repository"
)

// GroupService 兴趣社区的创建与列表
type GroupService struct {
	groups repository.GroupRepository
}

func NewGroupService(groups repository.GroupRepository) *GroupService {
	return &GroupService{groups: groups}
}

func (s *GroupService) Create(ctx context.Context, creatorID, name, description string) (*model.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: group name required", ErrValidation)
	}
	g := &model.Group{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatorID:   creatorID,
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GroupService) List(ctx context.Context, page, pageSize int) ([]*model.Group, error) {
	offset, limit := pageWindow(page, pageSize)
	return s.groups.List(ctx, offset, limit)
}
