package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/healththreads/timeline/config"
	"github.com/healththreads/timeline/internal/cache"
	"github.com/healththreads/timeline/internal/model"
	"github.com/healththreads/timeline/internal/repository"
	"github.com/healththreads/timeline/internal/service"
	"github.com/healththreads/timeline/pkg/database"
	"github.com/healththreads/timeline/pkg/redisx"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			return v
		}
	}
	return def
}

// 同步写扩散延迟基准：一个作者 N 个粉丝，发 POSTS 篇帖子
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	rdb := must(redisx.New(cfg))

	N := envInt("N", 20000)
	POSTS := envInt("POSTS", 100)
	BATCH := envInt("BATCH", cfg.Fanout.BatchSize)

	must(0, db.AutoMigrate(&model.User{}, &model.Post{}, &model.MediaAsset{}, &model.Fan{}))

	fanRepo := repository.NewFanRepository(db)
	postRepo := repository.NewPostRepository(db)
	fanout := service.NewFanoutService(fanRepo, cache.NewTimelineStore(rdb), BATCH)

	ctx := context.Background()

	// seed author + N fans
	author := model.User{ID: "author0", Username: "author0", Email: "author0@example.com", Password: "p"}
	_ = db.Where("id = ?", author.ID).FirstOrCreate(&author).Error
	users := make([]model.User, N)
	for i := 0; i < N; i++ {
		id := uuid.New().String()
		users[i] = model.User{ID: id, Username: "u" + id[:8], Email: id[:8] + "@example.com", Password: "p"}
	}
	must(0, db.CreateInBatches(&users, 1000).Error)
	for i := 0; i < N; i++ {
		_ = fanRepo.Create(ctx, author.ID, users[i].ID)
	}

	durations := make([]time.Duration, 0, POSTS)
	for i := 0; i < POSTS; i++ {
		post := &model.Post{
			ID:        uuid.New().String(),
			AuthorID:  author.ID,
			Kind:      model.PostKindThread,
			Body:      fmt.Sprintf("hello %d", i),
			CreatedAt: time.Now(),
		}
		must(0, postRepo.CreateWithMedia(ctx, post))
		st := time.Now()
		if err := fanout.FanOut(ctx, post.ID, author.ID, post.CreatedAt); err != nil {
			panic(err)
		}
		durations = append(durations, time.Since(st))
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	fmt.Printf("N=%d POSTS=%d BATCH=%d\n", N, POSTS, BATCH)
	fmt.Printf("FanOut latency: avg=%v p95=%v p99=%v\n",
		sum/time.Duration(len(durations)), pct(durations, 0.95), pct(durations, 0.99))
}
