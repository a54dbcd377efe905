package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/healththreads/timeline/internal/cache"
	"github.com/healththreads/timeline/internal/model"
	"github.com/healththreads/timeline/internal/repository"
	"github.com/healththreads/timeline/pkg/logger"
)

// DocumentIndexer 外部搜索索引入口，best-effort
type DocumentIndexer interface {
	Index(ctx context.Context, id string, doc []byte) error
}

// Notifier 实时事件广播，best-effort
type Notifier interface {
	Publish(ctx context.Context, event string, payload []byte) error
}

// EventPostCreated 发帖成功后的广播事件名
const EventPostCreated = "post.created"

// MediaInput 附件入参；Kind 由 ContentType 推断
type MediaInput struct {
	URL         string `json:"url" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// IngestInput 发帖入参
type IngestInput struct {
	Kind    string       `json:"kind" binding:"required,postkind"`
	Title   string       `json:"title"`
	Text    string       `json:"text"`
	GroupID string       `json:"group_id"`
	Media   []MediaInput `json:"media"`
}

// indexDocument 投进搜索索引 topic 的去范式化摘要
type indexDocument struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Text       string    `json:"text"`
	AuthorName string    `json:"author_name"`
	Hashtags   []string  `json:"hashtags,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// IngestService 发帖主路径。
// 关键路径只有帖子 + 附件的落库；fan-out、热度、索引、广播都是
// 尽力而为，失败只记日志，不回滚也不影响调用方的成功响应。
type IngestService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	fanout   *FanoutService
	trending *TrendingService
	indexer  DocumentIndexer // 可空
	notifier Notifier        // 可空
}

func NewIngestService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	fanout *FanoutService,
	trending *TrendingService,
	indexer DocumentIndexer,
	notifier Notifier,
) *IngestService {
	return &IngestService{
		posts:    posts,
		groups:   groups,
		users:    users,
		fanout:   fanout,
		trending: trending,
		indexer:  indexer,
		notifier: notifier,
	}
}

func mediaKindFromContentType(ct string) (string, error) {
	switch {
	case strings.HasPrefix(ct, "image/"):
		return "image", nil
	case strings.HasPrefix(ct, "video/"):
		return "video", nil
	case strings.HasPrefix(ct, "audio/"):
		return "audio", nil
	default:
		return "", fmt.Errorf("%w: unsupported media content type %q", ErrValidation, ct)
	}
}

func validateIngest(in *IngestInput) error {
	switch in.Kind {
	case model.PostKindDeep:
		if strings.TrimSpace(in.Title) == "" {
			return fmt.Errorf("%w: deep post requires a title", ErrValidation)
		}
		if strings.TrimSpace(in.Text) == "" {
			return fmt.Errorf("%w: deep post requires body text", ErrValidation)
		}
	case model.PostKindThread:
		if strings.TrimSpace(in.Text) == "" && len(in.Media) == 0 {
			return fmt.Errorf("%w: thread post requires text or media", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown post kind %q", ErrValidation, in.Kind)
	}
	return nil
}

// Ingest 校验并落地帖子，然后依次触发 fan-out、热度、索引、广播。
// 返回填好作者摘要和附件的帖子投影。
func (s *IngestService) Ingest(ctx context.Context, authorID string, in IngestInput) (*FeedPost, error) {
	if authorID == "" {
		return nil, ErrUnauthorized
	}
	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if err := validateIngest(&in); err != nil {
		return nil, err
	}
	if in.GroupID != "" {
		if _, err := s.groups.FindByID(ctx, in.GroupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: unknown group %q", ErrValidation, in.GroupID)
			}
			return nil, err
		}
	}

	now := time.Now()
	post := &model.Post{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Kind:      in.Kind,
		Title:     in.Title,
		Body:      in.Text,
		GroupID:   in.GroupID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, m := range in.Media {
		kind, err := mediaKindFromContentType(m.ContentType)
		if err != nil {
			return nil, err
		}
		post.Media = append(post.Media, model.MediaAsset{
			ID:        uuid.New().String(),
			PostID:    post.ID,
			URL:       m.URL,
			Kind:      kind,
			CreatedAt: now,
		})
	}

	// 关键路径：这里失败整个请求失败
	if err := s.posts.CreateWithMedia(ctx, post); err != nil {
		return nil, err
	}

	// 以下全部尽力而为
	if err := s.fanout.FanOut(ctx, post.ID, authorID, post.CreatedAt); err != nil {
		logger.Error("ingest: fanout failed", zap.String("post_id", post.ID), zap.Error(err))
	}

	tags := ExtractHashtags(in.Text)
	for _, tag := range tags {
		if err := s.trending.Bump(ctx, tag); err != nil {
			logger.Warn("ingest: trending bump failed",
				zap.String("post_id", post.ID), zap.String("tag", tag), zap.Error(err))
		}
	}

	result := buildFeedPost(post, cache.AuthorSnapshot{ID: author.ID, Username: author.Username}, false)

	if s.indexer != nil {
		doc := indexDocument{
			ID:         post.ID,
			Kind:       post.Kind,
			Text:       post.Body,
			AuthorName: author.Username,
			Hashtags:   tags,
			CreatedAt:  post.CreatedAt,
		}
		if payload, mErr := json.Marshal(doc); mErr == nil {
			if err := s.indexer.Index(ctx, post.ID, payload); err != nil {
				logger.Warn("ingest: search index failed", zap.String("post_id", post.ID), zap.Error(err))
			}
		}
	}

	if s.notifier != nil {
		if payload, mErr := json.Marshal(result); mErr == nil {
			if err := s.notifier.Publish(ctx, EventPostCreated, payload); err != nil {
				logger.Warn("ingest: notify failed", zap.String("post_id", post.ID), zap.Error(err))
			}
		}
	}

	return result, nil
}
