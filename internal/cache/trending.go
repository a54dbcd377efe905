package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const trendingKey = "trending:tags"

// TagScore 标签与累计热度
type TagScore struct {
	Tag   string  `json:"tag"`
	Score float64 `json:"score"`
}

// TrendingStore 全局热度榜：单 ZSET，每次出现 ZINCRBY +1
// 目前是单调累计，没有时间衰减
type TrendingStore struct {
	rdb *redis.Client
}

func NewTrendingStore(rdb *redis.Client) *TrendingStore { return &TrendingStore{rdb: rdb} }

func (s *TrendingStore) Bump(ctx context.Context, tag string) error {
	return s.rdb.ZIncrBy(ctx, trendingKey, 1, tag).Err()
}

// Top 返回热度最高的 n 个标签，降序
func (s *TrendingStore) Top(ctx context.Context, n int) ([]TagScore, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := s.rdb.ZRevRangeWithScores(ctx, trendingKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	res := make([]TagScore, 0, len(zs))
	for _, z := range zs {
		tag, _ := z.Member.(string)
		res = append(res, TagScore{Tag: tag, Score: z.Score})
	}
	return res, nil
}
