package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TimelineStore 每用户一个有序集合 timeline:{userID}
// member = postID, score = 帖子创建时间（unix nano），重复写入只更新 score
type TimelineStore struct {
	rdb *redis.Client
}

func NewTimelineStore(rdb *redis.Client) *TimelineStore { return &TimelineStore{rdb: rdb} }

func timelineKey(userID string) string { return fmt.Sprintf("timeline:%s", userID) }

// Push 单次 pipeline 把同一篇帖子写进一批收件人的时间线
func (s *TimelineStore) Push(ctx context.Context, userIDs []string, postID string, score float64) error {
	if len(userIDs) == 0 {
		return nil
	}
	pipe := s.rdb.Pipeline()
	for _, uid := range userIDs {
		pipe.ZAdd(ctx, timelineKey(uid), redis.Z{Score: score, Member: postID})
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Range 按 score 倒序取 [start, stop] 名次区间的 postID
func (s *TimelineStore) Range(ctx context.Context, userID string, start, stop int64) ([]string, error) {
	return s.rdb.ZRevRange(ctx, timelineKey(userID), start, stop).Result()
}

// Remove 把一批 postID 移出某用户的时间线
func (s *TimelineStore) Remove(ctx context.Context, userID string, postIDs []string) error {
	if len(postIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(postIDs))
	for i, id := range postIDs {
		members[i] = id
	}
	return s.rdb.ZRem(ctx, timelineKey(userID), members...).Err()
}

// Card 时间线总条数
func (s *TimelineStore) Card(ctx context.Context, userID string) (int64, error) {
	return s.rdb.ZCard(ctx, timelineKey(userID)).Result()
}

// Score 查某条目的 score；不存在返回 redis.Nil
func (s *TimelineStore) Score(ctx context.Context, userID, postID string) (float64, error) {
	return s.rdb.ZScore(ctx, timelineKey(userID), postID).Result()
}
