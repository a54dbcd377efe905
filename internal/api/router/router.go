package router

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/healththreads/timeline/config"
	"github.com/healththreads/timeline/internal/api/handler"
	"github.com/healththreads/timeline/internal/api/middleware"
	"github.com/healththreads/timeline/internal/model"
	"github.com/healththreads/timeline/internal/service"
)

// RegisterValidations 挂自定义 binding 规则；入口和测试各自调用一次即可
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("postkind", func(fl validator.FieldLevel) bool {
			k := fl.Field().String()
			return k == model.PostKindThread || k == model.PostKindDeep
		})
	}
}

// New 组装路由与中间件
func New(cfg *config.Config, h *handler.Handler, users *service.UserService) *gin.Engine {
	RegisterValidations()
	gin.SetMode(modeOf(cfg.Server.Mode))
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware("healththreads-timeline"))
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	users1 := v1.Group("/users")
	{
		users1.POST("/register", h.Register)
		users1.POST("/login", h.Login)
	}

	auth := v1.Group("")
	auth.Use(middleware.Auth(users))
	{
		writes := auth.Group("")
		writes.Use(middleware.RateLimit(rate.Limit(10), 20))
		{
			writes.POST("/posts", h.CreatePost)
			writes.POST("/posts/:id/like", h.ToggleLike)
			writes.POST("/relations/toggle", h.ToggleFollow)
			writes.POST("/groups", h.CreateGroup)
		}

		auth.GET("/feed", h.Feed)
		auth.GET("/users/me", h.Me)
	}

	v1.GET("/trending", h.Trending)
	v1.GET("/groups", h.ListGroups)
	v1.GET("/relations/:user_id/following", h.ListFollowing)
	v1.GET("/relations/:user_id/fans", h.ListFans)

	return r
}

func modeOf(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
