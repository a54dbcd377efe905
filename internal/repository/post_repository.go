package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/healththreads/timeline/internal/model"
)

type PostRepository interface {
	// CreateWithMedia 单事务落地 Post 与附件行
	CreateWithMedia(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	// FindByIDs 批量取帖子（含附件）；返回顺序不保证与入参一致
	FindByIDs(ctx context.Context, ids []string) ([]*model.Post, error)
	IncrLikeCount(ctx context.Context, postID string, delta int64) error
	IncrCommentCount(ctx context.Context, postID string, delta int64) error
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) CreateWithMedia(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		media := post.Media
		post.Media = nil
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if len(media) > 0 {
			if err := tx.Create(&media).Error; err != nil {
				return err
			}
		}
		post.Media = media
		return nil
	})
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Preload("Media").Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []*model.Post
	err := r.db.WithContext(ctx).Preload("Media").Where("id IN ?", ids).Find(&posts).Error
	return posts, err
}

func (r *postRepository) IncrLikeCount(ctx context.Context, postID string, delta int64) error {
	return r.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", postID).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
}

func (r *postRepository) IncrCommentCount(ctx context.Context, postID string, delta int64) error {
	return r.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", postID).
		UpdateColumn("comment_count", gorm.Expr("comment_count + ?", delta)).Error
}
