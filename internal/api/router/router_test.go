package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/healththreads/timeline/config"
	"github.com/healththreads/timeline/internal/api/handler"
	"github.com/healththreads/timeline/internal/cache"
	"github.com/healththreads/timeline/internal/model"
	"github.com/healththreads/timeline/internal/repository"
	"github.com/healththreads/timeline/internal/service"
)

func setupServer(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Post{}, &model.MediaAsset{},
		&model.Follow{}, &model.Fan{}, &model.Group{}, &model.PostLike{},
	))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	postRepo := repository.NewPostRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	userRepo := repository.NewUserRepository(db)
	likeRepo := repository.NewPostLikeRepository(db)
	groupRepo := repository.NewGroupRepository(db)

	timelineStore := cache.NewTimelineStore(rdb)
	snapshots := cache.NewUserSnapshotCache(userRepo, rdb, time.Minute)

	fanout := service.NewFanoutService(fanRepo, timelineStore, 500)
	trending := service.NewTrendingService(cache.NewTrendingStore(rdb))
	ingest := service.NewIngestService(postRepo, groupRepo, userRepo, fanout, trending, nil, nil)
	likeSvc := service.NewLikeService(likeRepo, postRepo, cache.NewLikeCache(rdb))
	timelineSvc := service.NewTimelineService(timelineStore, postRepo, likeSvc, snapshots, 20, 50)
	relSvc := service.NewRelationshipService(followRepo, fanRepo, nil)
	userSvc := service.NewUserService(userRepo, "test-secret", 30*time.Minute)
	groupSvc := service.NewGroupService(groupRepo)

	h := handler.New(ingest, timelineSvc, trending, relSvc, likeSvc, userSvc, groupSvc)
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	return New(cfg, h, userSvc)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/users/register", "", gin.H{
		"username": username, "email": username + "@example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"username": username, "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.AccessToken)
	return resp.Data.AccessToken
}

func TestPostAndFeedFlow(t *testing.T) {
	r := setupServer(t)
	token := registerAndLogin(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/v1/posts", token, gin.H{
		"kind": "thread", "text": "first #wellness post",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/v1/feed?page=0&page_size=10", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var feed struct {
		Data struct {
			Posts []struct {
				Body string `json:"body"`
			} `json:"posts"`
			HasMore bool `json:"has_more"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Len(t, feed.Data.Posts, 1)
	assert.Equal(t, "first #wellness post", feed.Data.Posts[0].Body)
	assert.False(t, feed.Data.HasMore)

	w = doJSON(t, r, http.MethodGet, "/api/v1/trending?n=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "wellness")
}

// 用户名 / 邮箱唯一键冲突应映射成 400，而不是把驱动错误透传成 500
func TestRegisterDuplicateUsername(t *testing.T) {
	r := setupServer(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/users/register", "", gin.H{
		"username": "dave", "email": "dave@example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/v1/users/register", "", gin.H{
		"username": "dave", "email": "dave2@example.com", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "already taken")
}

func TestPostRequiresAuth(t *testing.T) {
	r := setupServer(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/posts", "", gin.H{"kind": "thread", "text": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/feed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostValidationMapsTo400(t *testing.T) {
	r := setupServer(t)
	token := registerAndLogin(t, r, "bob")

	// deep 缺标题：服务层校验
	w := doJSON(t, r, http.MethodPost, "/api/v1/posts", token, gin.H{
		"kind": "deep", "title": "", "text": "body",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 未知 kind：binding 校验
	w = doJSON(t, r, http.MethodPost, "/api/v1/posts", token, gin.H{
		"kind": "poll", "text": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFollowToggleEndpoint(t *testing.T) {
	r := setupServer(t)
	token := registerAndLogin(t, r, "carol")

	w := doJSON(t, r, http.MethodPost, "/api/v1/relations/toggle", token, gin.H{"to_user_id": "someone"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"following":true`)

	w = doJSON(t, r, http.MethodPost, "/api/v1/relations/toggle", token, gin.H{"to_user_id": "someone"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"following":false`)
}
