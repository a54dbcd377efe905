package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/healththreads/timeline/internal/cache"
)

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// ExtractHashtags 提取文本中的话题标签：# 后跟单词字符，
// 去重、小写化，保持首次出现顺序
func ExtractHashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// TrendingService 热度聚合：每次标签出现 +1，读取按累计分降序
type TrendingService struct {
	store *cache.TrendingStore
}

func NewTrendingService(store *cache.TrendingStore) *TrendingService {
	return &TrendingService{store: store}
}

func (s *TrendingService) Bump(ctx context.Context, tag string) error {
	return s.store.Bump(ctx, tag)
}

func (s *TrendingService) Top(ctx context.Context, n int) ([]cache.TagScore, error) {
	return s.store.Top(ctx, n)
}
