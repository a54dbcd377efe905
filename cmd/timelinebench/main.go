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

// 时间线读路径基准：读延迟应只与页大小相关，与粉丝规模无关
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	rdb := must(redisx.New(cfg))

	ENTRIES := 5000
	READS := 500
	PAGE := 20
	if s := os.Getenv("ENTRIES"); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			ENTRIES = v
		}
	}
	if s := os.Getenv("READS"); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			READS = v
		}
	}

	must(0, db.AutoMigrate(&model.User{}, &model.Post{}, &model.MediaAsset{}, &model.PostLike{}))

	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewUserRepository(db)
	likeRepo := repository.NewPostLikeRepository(db)
	timelineStore := cache.NewTimelineStore(rdb)
	snapshots := cache.NewUserSnapshotCache(userRepo, rdb, 10*time.Minute)
	reader := service.NewTimelineService(timelineStore, postRepo, likeRepo, snapshots, PAGE, 50)

	ctx := context.Background()

	reader0 := model.User{ID: "reader0", Username: "reader0", Email: "reader0@example.com", Password: "p"}
	_ = db.Where("id = ?", reader0.ID).FirstOrCreate(&reader0).Error
	author := model.User{ID: "author0", Username: "author0", Email: "author0@example.com", Password: "p"}
	_ = db.Where("id = ?", author.ID).FirstOrCreate(&author).Error

	base := time.Now().Add(-time.Duration(ENTRIES) * time.Second)
	for i := 0; i < ENTRIES; i++ {
		post := &model.Post{
			ID:        uuid.New().String(),
			AuthorID:  author.ID,
			Kind:      model.PostKindThread,
			Body:      fmt.Sprintf("entry %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		must(0, postRepo.CreateWithMedia(ctx, post))
		must(0, timelineStore.Push(ctx, []string{reader0.ID}, post.ID, float64(post.CreatedAt.UnixNano())))
	}

	pages := ENTRIES / PAGE
	durations := make([]time.Duration, 0, READS)
	for i := 0; i < READS; i++ {
		st := time.Now()
		_, err := reader.ReadPage(ctx, reader0.ID, reader0.ID, i%pages, PAGE)
		if err != nil {
			panic(err)
		}
		durations = append(durations, time.Since(st))
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	fmt.Printf("ENTRIES=%d READS=%d PAGE=%d\n", ENTRIES, READS, PAGE)
	fmt.Printf("ReadPage latency: avg=%v p95=%v p99=%v\n",
		sum/time.Duration(len(durations)), pct(durations, 0.95), pct(durations, 0.99))
}
