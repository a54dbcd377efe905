package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/healththreads/timeline/internal/cache"
	"github.com/healththreads/timeline/internal/model"
	"github.com/healththreads/timeline/internal/repository"
)

type recordingIndexer struct {
	docs map[string][]byte
	err  error
}

func (r *recordingIndexer) Index(_ context.Context, id string, doc []byte) error {
	if r.err != nil {
		return r.err
	}
	if r.docs == nil {
		r.docs = map[string][]byte{}
	}
	r.docs[id] = doc
	return nil
}

type recordingNotifier struct {
	events []string
	err    error
}

func (r *recordingNotifier) Publish(_ context.Context, event string, _ []byte) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

type ingestFixture struct {
	db       *gorm.DB
	store    *cache.TimelineStore
	fans     repository.FanRepository
	svc      *IngestService
	trending *TrendingService
	indexer  *recordingIndexer
	notifier *recordingNotifier
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	db := setupDB(t)
	rdb := setupRedis(t)

	posts := repository.NewPostRepository(db)
	groups := repository.NewGroupRepository(db)
	users := repository.NewUserRepository(db)
	fans := repository.NewFanRepository(db)
	store := cache.NewTimelineStore(rdb)
	trending := NewTrendingService(cache.NewTrendingStore(rdb))
	indexer := &recordingIndexer{}
	notifier := &recordingNotifier{}
	fanout := NewFanoutService(fans, store, 500)
	svc := NewIngestService(posts, groups, users, fanout, trending, indexer, notifier)

	require.NoError(t, db.Create(&model.User{ID: "author1", Username: "alice", Email: "alice@example.com", Password: "p"}).Error)
	return &ingestFixture{db: db, store: store, fans: fans, svc: svc, trending: trending, indexer: indexer, notifier: notifier}
}

func TestIngestValidation(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   IngestInput
	}{
		{"deep without title", IngestInput{Kind: model.PostKindDeep, Title: "", Text: "body"}},
		{"deep without body", IngestInput{Kind: model.PostKindDeep, Title: "t", Text: ""}},
		{"thread without text or media", IngestInput{Kind: model.PostKindThread}},
		{"unknown kind", IngestInput{Kind: "poll", Text: "x"}},
		{"bad media type", IngestInput{Kind: model.PostKindThread, Text: "x",
			Media: []MediaInput{{URL: "https://cdn/x", ContentType: "application/pdf"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Ingest(ctx, "author1", tc.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestIngestThreadWithOnlyMedia(t *testing.T) {
	f := newIngestFixture(t)
	post, err := f.svc.Ingest(context.Background(), "author1", IngestInput{
		Kind:  model.PostKindThread,
		Media: []MediaInput{{URL: "https://cdn/a.png", ContentType: "image/png"}},
	})
	require.NoError(t, err)
	require.Len(t, post.Media, 1)
	assert.Equal(t, "image", post.Media[0].Kind)
}

func TestIngestMediaKindInference(t *testing.T) {
	f := newIngestFixture(t)
	post, err := f.svc.Ingest(context.Background(), "author1", IngestInput{
		Kind: model.PostKindThread,
		Text: "media mix",
		Media: []MediaInput{
			{URL: "https://cdn/a.png", ContentType: "image/png"},
			{URL: "https://cdn/b.mp4", ContentType: "video/mp4"},
			{URL: "https://cdn/c.ogg", ContentType: "audio/ogg"},
		},
	})
	require.NoError(t, err)
	require.Len(t, post.Media, 3)
	assert.Equal(t, "image", post.Media[0].Kind)
	assert.Equal(t, "video", post.Media[1].Kind)
	assert.Equal(t, "audio", post.Media[2].Kind)
}

func TestIngestUnknownAuthor(t *testing.T) {
	f := newIngestFixture(t)
	_, err := f.svc.Ingest(context.Background(), "ghost", IngestInput{Kind: model.PostKindThread, Text: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Ingest(context.Background(), "", IngestInput{Kind: model.PostKindThread, Text: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestIngestUnknownGroup(t *testing.T) {
	f := newIngestFixture(t)
	_, err := f.svc.Ingest(context.Background(), "author1",
		IngestInput{Kind: model.PostKindThread, Text: "x", GroupID: "nope"})
	assert.ErrorIs(t, err, ErrValidation)
}

// 作者 3 个粉丝发一条 "#wellness tip"：
// 作者 + 全部粉丝第一页可见，热榜里 wellness >= 1
func TestIngestFanOutAndTrending(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()
	for _, fan := range []string{"f1", "f2", "f3"} {
		require.NoError(t, f.fans.Create(ctx, "author1", fan))
	}

	post, err := f.svc.Ingest(ctx, "author1", IngestInput{Kind: model.PostKindThread, Text: "#wellness tip"})
	require.NoError(t, err)
	assert.Equal(t, "alice", post.Author.Username)

	for _, uid := range []string{"author1", "f1", "f2", "f3"} {
		ids, err := f.store.Range(ctx, uid, 0, 9)
		require.NoError(t, err)
		assert.Contains(t, ids, post.ID, "recipient %s", uid)
	}

	top, err := f.trending.Top(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, top)
	assert.Equal(t, "wellness", top[0].Tag)
	assert.GreaterOrEqual(t, top[0].Score, float64(1))

	assert.Contains(t, f.indexer.docs, post.ID)
	assert.Equal(t, []string{EventPostCreated}, f.notifier.events)
}

// 索引 / 广播失败不影响发帖成功，帖子照常落库
func TestIngestBestEffortFailures(t *testing.T) {
	f := newIngestFixture(t)
	f.indexer.err = errors.New("index down")
	f.notifier.err = errors.New("broker down")

	post, err := f.svc.Ingest(context.Background(), "author1",
		IngestInput{Kind: model.PostKindThread, Text: "still works"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&model.Post{}).Where("id = ?", post.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestIngestSetsCreationScore(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()
	before := time.Now().Add(-time.Second)

	post, err := f.svc.Ingest(ctx, "author1", IngestInput{Kind: model.PostKindThread, Text: "x"})
	require.NoError(t, err)

	score, err := f.store.Score(ctx, "author1", post.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(post.CreatedAt.UnixNano()), score)
	assert.True(t, post.CreatedAt.After(before))
}
