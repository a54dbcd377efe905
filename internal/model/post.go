package model

import "time"

// Post 内容类型
const (
	PostKindThread = "thread" // 短贴
	PostKindDeep   = "deep"   // 长文，必须有标题
)

// Post 内容主体
type Post struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	AuthorID     string `gorm:"type:varchar(36);index:idx_post_author;not null"`
	Kind         string `gorm:"type:varchar(16);not null"`
	Title        string `gorm:"type:varchar(200)"`
	Body         string `gorm:"type:text"`
	GroupID      string `gorm:"type:varchar(36);index:idx_post_group"` // 可空：社区内发帖
	LikeCount    int64  `gorm:"not null;default:0"`
	CommentCount int64  `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Media []MediaAsset `gorm:"foreignKey:PostID"`
}

func (Post) TableName() string { return "posts" }

// MediaAsset 帖子附件，随 Post 同一事务落库
type MediaAsset struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	PostID    string `gorm:"type:varchar(36);index:idx_media_post;not null"`
	URL       string `gorm:"type:varchar(512);not null"`
	Kind      string `gorm:"type:varchar(16);not null"` // image / video / audio
	CreatedAt time.Time
}

func (MediaAsset) TableName() string { return "media_assets" }
