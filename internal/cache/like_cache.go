package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	likeSetTTL       = 24 * time.Hour
	likeSetKeyPrefix = "like:set:post" // 某帖子已点赞用户ID集合
)

// LikeCache 点赞集合的写透缓存；DB 是点赞的事实来源。
// 集合只保证正向命中：SISMEMBER 为真即已点赞，为假只说明缓存未覆盖，
// 读方需要回源 DB 确认。
type LikeCache struct {
	rdb *redis.Client
}

func NewLikeCache(rdb *redis.Client) *LikeCache { return &LikeCache{rdb: rdb} }

func likeSetKey(postID string) string { return fmt.Sprintf("%s:%s", likeSetKeyPrefix, postID) }

func (c *LikeCache) AddLike(ctx context.Context, userID, postID string) error {
	k := likeSetKey(postID)
	if err := c.rdb.SAdd(ctx, k, userID).Err(); err != nil {
		return err
	}
	return c.rdb.Expire(ctx, k, likeSetTTL).Err()
}

func (c *LikeCache) RemoveLike(ctx context.Context, userID, postID string) error {
	return c.rdb.SRem(ctx, likeSetKey(postID), userID).Err()
}

// FilterLiked 单次 pipeline 查 userID 在 postIDs 各集合里的成员关系。
// 只返回命中的 postID；未命中可能是未点赞也可能是缓存缺失。
func (c *LikeCache) FilterLiked(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	hits := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return hits, nil
	}
	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.BoolCmd, len(postIDs))
	for i, id := range postIDs {
		cmds[i] = pipe.SIsMember(ctx, likeSetKey(id), userID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	for i, cmd := range cmds {
		if cmd.Val() {
			hits[postIDs[i]] = true
		}
	}
	return hits, nil
}
