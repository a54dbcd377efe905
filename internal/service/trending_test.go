package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healththreads/timeline/internal/cache"
)

func TestExtractHashtags(t *testing.T) {
	assert.Equal(t, []string{"wellness", "sleep"}, ExtractHashtags("a #wellness tip about #sleep and #Wellness"))
	assert.Equal(t, []string{"covid_19"}, ExtractHashtags("#covid_19 update"))
	assert.Nil(t, ExtractHashtags("no tags here"))
	assert.Nil(t, ExtractHashtags("# not a tag"))
}

func TestTrendingTopDescending(t *testing.T) {
	rdb := setupRedis(t)
	svc := NewTrendingService(cache.NewTrendingStore(rdb))
	ctx := context.Background()

	require.NoError(t, svc.Bump(ctx, "yoga"))
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Bump(ctx, "nutrition"))
	}

	top, err := svc.Top(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "nutrition", top[0].Tag)
	assert.Equal(t, float64(3), top[0].Score)
	assert.Equal(t, "yoga", top[1].Tag)
}

// 每次 bump 分数单调不降，排名不会劣化
func TestTrendingBumpMonotonic(t *testing.T) {
	rdb := setupRedis(t)
	svc := NewTrendingService(cache.NewTrendingStore(rdb))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Bump(ctx, "fitness"))
	}
	require.NoError(t, svc.Bump(ctx, "yoga"))

	rank := func(tag string) int {
		top, err := svc.Top(ctx, 10)
		require.NoError(t, err)
		for i, ts := range top {
			if ts.Tag == tag {
				return i
			}
		}
		return -1
	}

	before := rank("yoga")
	var prevScore float64
	for _, ts := range mustTop(t, svc, ctx) {
		if ts.Tag == "yoga" {
			prevScore = ts.Score
		}
	}

	require.NoError(t, svc.Bump(ctx, "yoga"))

	after := rank("yoga")
	assert.LessOrEqual(t, after, before)
	for _, ts := range mustTop(t, svc, ctx) {
		if ts.Tag == "yoga" {
			assert.GreaterOrEqual(t, ts.Score, prevScore)
		}
	}
}

func mustTop(t *testing.T, svc *TrendingService, ctx context.Context) []cache.TagScore {
	t.Helper()
	top, err := svc.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	return top
}
