package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healththreads/timeline/internal/repository"
)

// AuthorSnapshot 时间线页面需要的最小作者信息
type AuthorSnapshot struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserSnapshotCache 作者摘要缓存：MGET 批量命中，缺失回源 DB 并回填
type UserSnapshotCache struct {
	users repository.UserRepository
	cache *redis.Client
	ttl   time.Duration
}

func NewUserSnapshotCache(users repository.UserRepository, cache *redis.Client, ttl time.Duration) *UserSnapshotCache {
	return &UserSnapshotCache{users: users, cache: cache, ttl: ttl}
}

func snapshotKey(id string) string { return fmt.Sprintf("user:snap:%s", id) }

// Load 批量取作者摘要；缓存层失败不致命，直接回源
func (s *UserSnapshotCache) Load(ctx context.Context, ids []string) (map[string]AuthorSnapshot, error) {
	result := make(map[string]AuthorSnapshot, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = snapshotKey(id)
	}
	if vals, err := s.cache.MGet(ctx, keys...).Result(); err == nil {
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				continue
			}
			var snap AuthorSnapshot
			if uErr := json.Unmarshal([]byte(str), &snap); uErr == nil {
				result[ids[i]] = snap
			}
		}
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := result[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	users, err := s.users.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		snap := AuthorSnapshot{ID: u.ID, Username: u.Username}
		result[u.ID] = snap
		if payload, mErr := json.Marshal(snap); mErr == nil {
			_ = s.cache.Set(ctx, snapshotKey(u.ID), payload, s.ttl).Err()
		}
	}
	return result, nil
}
