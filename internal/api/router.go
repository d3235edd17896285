package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/outpost-social/outpost/internal/cache"
	"github.com/outpost-social/outpost/internal/db"
	"github.com/outpost-social/outpost/internal/submit"
	"github.com/outpost-social/outpost/pkg/logging"
)

// Router sets up API routes
type Router struct {
	db       *db.DB
	cache    *cache.Cache
	pipeline *submit.Service
	logger   *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(database *db.DB, redisCache *cache.Cache, pipeline *submit.Service) *Router {
	return &Router{
		db:       database,
		cache:    redisCache,
		pipeline: pipeline,
		logger:   logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)

	repo := db.NewRepository(r.db.DB)
	users := db.NewUserRepository(repo)
	guilds := db.NewGuildRepository(repo)
	submissions := db.NewSubmissionRepository(repo)
	comments := db.NewCommentRepository(repo)

	auth := NewAuthenticator(users)
	postAPI := NewPostAPI(r.pipeline, submissions, guilds)
	guildAPI := NewGuildAPI(guilds, submissions, r.cache)
	userAPI := NewUserAPI(users)
	commentAPI := NewCommentAPI(comments, submissions, postAPI)

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/post", auth.Require(), postAPI.CreatePost)

		reads := v1.Group("", auth.Populate())
		reads.GET("/post/:id", postAPI.GetPost)
		reads.GET("/guild/:name", guildAPI.GetGuild)
		reads.GET("/guild/:name/listing/new", guildAPI.GetGuildListing)
		reads.GET("/user/:username", userAPI.GetUser)
		reads.GET("/comment/:id", commentAPI.GetComment)
	}
}

// healthHandler reports database and cache health
func (r *Router) healthHandler(c *gin.Context) {
	ctx := c.Request.Context()

	status := http.StatusOK
	dbStatus := "ok"
	if err := r.db.Health(ctx); err != nil {
		dbStatus = err.Error()
		status = http.StatusServiceUnavailable
	}

	cacheStatus := "disabled"
	if r.cache != nil {
		cacheStatus = "ok"
		if err := r.cache.Health(ctx); err != nil {
			cacheStatus = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":   overall,
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}
