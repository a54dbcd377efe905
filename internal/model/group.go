package model

import "time"

// Group 兴趣社区
type Group struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Name        string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Description string `gorm:"type:varchar(255)"`
	CreatorID   string `gorm:"type:varchar(36);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Group) TableName() string { return "groups" }

// PostLike 点赞边 (user, post) 唯一
type PostLike struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_like_pair,unique;not null"`
	PostID    string `gorm:"type:varchar(36);not null;index:idx_like_pair,unique;index:idx_like_post"`
	CreatedAt time.Time
}

func (PostLike) TableName() string { return "post_likes" }
