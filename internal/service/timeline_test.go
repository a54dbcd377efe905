package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/healththreads/timeline/internal/cache"
	"github.com/healththreads/timeline/internal/model"
	"github.com/healththreads/timeline/internal/repository"
)

type timelineFixture struct {
	db     *gorm.DB
	store  *cache.TimelineStore
	posts  repository.PostRepository
	likes  repository.PostLikeRepository
	reader *TimelineService
}

func newTimelineFixture(t *testing.T) *timelineFixture {
	t.Helper()
	db := setupDB(t)
	rdb := setupRedis(t)
	posts := repository.NewPostRepository(db)
	users := repository.NewUserRepository(db)
	likes := repository.NewPostLikeRepository(db)
	store := cache.NewTimelineStore(rdb)
	snapshots := cache.NewUserSnapshotCache(users, rdb, time.Minute)
	reader := NewTimelineService(store, posts, likes, snapshots, 20, 50)

	require.NoError(t, db.Create(&model.User{ID: "author1", Username: "alice", Email: "alice@example.com", Password: "p"}).Error)
	return &timelineFixture{db: db, store: store, posts: posts, likes: likes, reader: reader}
}

// addPost 落库并写进 reader0 的时间线
func (f *timelineFixture) addPost(t *testing.T, id string, createdAt time.Time) {
	t.Helper()
	ctx := context.Background()
	post := &model.Post{
		ID:        id,
		AuthorID:  "author1",
		Kind:      model.PostKindThread,
		Body:      "body " + id,
		CreatedAt: createdAt,
	}
	require.NoError(t, f.posts.CreateWithMedia(ctx, post))
	require.NoError(t, f.store.Push(ctx, []string{"reader0"}, id, float64(createdAt.UnixNano())))
}

func TestReadPageOrdering(t *testing.T) {
	f := newTimelineFixture(t)
	base := time.Now()
	f.addPost(t, "p1", base.Add(-2*time.Hour))
	f.addPost(t, "p2", base.Add(-1*time.Hour))
	f.addPost(t, "p3", base)

	page, err := f.reader.ReadPage(context.Background(), "reader0", "", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 3)
	assert.Equal(t, "p3", page.Posts[0].ID)
	assert.Equal(t, "p2", page.Posts[1].ID)
	assert.Equal(t, "p1", page.Posts[2].ID)
	assert.False(t, page.HasMore)
	assert.Equal(t, "alice", page.Posts[0].Author.Username)
}

// 拼接各页应等于整个有序集的前缀，无重复无空洞
func TestReadPagePagination(t *testing.T) {
	f := newTimelineFixture(t)
	base := time.Now()
	for i := 0; i < 5; i++ {
		f.addPost(t, fmt.Sprintf("p%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	var got []string
	for p := 0; p < 3; p++ {
		page, err := f.reader.ReadPage(context.Background(), "reader0", "", p, 2)
		require.NoError(t, err)
		for _, fp := range page.Posts {
			got = append(got, fp.ID)
		}
		assert.Equal(t, p < 2, page.HasMore, "page %d", p)
	}
	assert.Equal(t, []string{"p4", "p3", "p2", "p1", "p0"}, got)
}

func TestReadPageBeyondEnd(t *testing.T) {
	f := newTimelineFixture(t)
	base := time.Now()
	for i := 0; i < 5; i++ {
		f.addPost(t, fmt.Sprintf("p%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	page, err := f.reader.ReadPage(context.Background(), "reader0", "", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.False(t, page.HasMore)
}

// DB 批量查询按存储顺序返回，不是入参顺序；读路径必须按名次重排。
// 这里按时间倒序插入，让插入顺序与名次序相反。
func TestReadPageResortsBulkFetch(t *testing.T) {
	f := newTimelineFixture(t)
	base := time.Now()
	for i := 0; i < 5; i++ {
		// p0 最新但最先插入，DB 自然顺序与期望输出相反
		f.addPost(t, fmt.Sprintf("p%d", i), base.Add(-time.Duration(i)*time.Minute))
	}

	page, err := f.reader.ReadPage(context.Background(), "reader0", "", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 5)
	for i, fp := range page.Posts {
		assert.Equal(t, fmt.Sprintf("p%d", i), fp.ID)
	}
}

func TestReadPageLikedAnnotation(t *testing.T) {
	f := newTimelineFixture(t)
	base := time.Now()
	f.addPost(t, "p1", base.Add(-time.Minute))
	f.addPost(t, "p2", base)
	require.NoError(t, f.likes.Create(context.Background(), "reader0", "p1"))

	page, err := f.reader.ReadPage(context.Background(), "reader0", "reader0", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.False(t, page.Posts[0].LikedByViewer) // p2
	assert.True(t, page.Posts[1].LikedByViewer)  // p1
}

// 时间线引用了 DB 里不存在的帖子时跳过该条，不报错，并把失效条目摘掉
func TestReadPageSkipsMissingPosts(t *testing.T) {
	f := newTimelineFixture(t)
	ctx := context.Background()
	f.addPost(t, "p1", time.Now())
	require.NoError(t, f.store.Push(ctx, []string{"reader0"}, "ghost", float64(time.Now().UnixNano())))

	page, err := f.reader.ReadPage(ctx, "reader0", "", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "p1", page.Posts[0].ID)

	total, err := f.store.Card(ctx, "reader0")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

// 末尾整页都是失效条目时，该页返回空且 has_more 为假，翻页在此终止
func TestReadPageTrailingStaleEntries(t *testing.T) {
	f := newTimelineFixture(t)
	ctx := context.Background()
	base := time.Now()
	f.addPost(t, "p1", base.Add(-time.Minute))
	f.addPost(t, "p2", base)
	for i, ghost := range []string{"g1", "g2"} {
		score := float64(base.Add(-time.Duration(i+2) * time.Hour).UnixNano())
		require.NoError(t, f.store.Push(ctx, []string{"reader0"}, ghost, score))
	}

	page, err := f.reader.ReadPage(ctx, "reader0", "", 0, 2)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.True(t, page.HasMore) // 破损条目尚未被访问，这里允许虚高

	page, err = f.reader.ReadPage(ctx, "reader0", "", 1, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.False(t, page.HasMore)

	total, err := f.store.Card(ctx, "reader0")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
