package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"imagecompare/internal/config"
	"imagecompare/internal/middleware"
	"imagecompare/internal/models"
	"imagecompare/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type JobQueue interface {
	Enqueue(ctx context.Context, job models.GenerationJob) (string, error)
}

type JobProgress interface {
	Publish(ctx context.Context, event models.JobEvent) error
	Last(ctx context.Context, jobID string) (models.JobEvent, error)
	Subscribe(ctx context.Context, jobID string) *redis.PubSub
}

// Deps are the collaborators a HandlerSet serves. Jobs, Progress and Cache
// may be nil, which disables the asynchronous job endpoints.
type Deps struct {
	Users       *service.UserService
	Comparisons *service.ComparisonService
	Generation  *service.GenerationService
	Votes       *service.VoteService
	Admins      *service.AdminService
	Images      ImageServer
	Jobs        JobQueue
	Progress    JobProgress
	DB          Pinger
	Cache       *redis.Client
}

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	users       *service.UserService
	comparisons *service.ComparisonService
	generation  *service.GenerationService
	votes       *service.VoteService
	admins      *service.AdminService
	images      ImageServer
	jobs        JobQueue
	progress    JobProgress
	db          Pinger
	cache       *redis.Client
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Deps) HandlerSet {
	return HandlerSet{
		log:         log,
		cfg:         cfg,
		users:       deps.Users,
		comparisons: deps.Comparisons,
		generation:  deps.Generation,
		votes:       deps.Votes,
		admins:      deps.Admins,
		images:      deps.Images,
		jobs:        deps.Jobs,
		progress:    deps.Progress,
		db:          deps.DB,
		cache:       deps.Cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthcheck", h.Health)

	v1 := router.Group("/v1")
	{
		v1.POST("/user", h.CreateUser)
		v1.GET("/user/:id", h.GetUser)
		v1.GET("/user/:id/comparison", h.NextComparison)

		v1.GET("/comparison/dirnames", h.Dirnames)
		v1.GET("/comparison/:id", h.GetComparison)

		v1.POST("/vote", h.Vote)
		v1.PUT("/vote", h.Vote)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuth(h.admins))
	{
		admin.POST("/token", h.IssueAdminToken)
		admin.POST("/comparison", h.GenerateComparisons)
		admin.POST("/comparison/jobs", h.EnqueueGeneration)
		admin.GET("/jobs/:id", h.JobStatus)
		admin.GET("/jobs/:id/watch", h.WatchJob)
	}
}

// RegisterStatic mounts image delivery under the public image route.
func (h HandlerSet) RegisterStatic(router gin.IRouter) {
	router.GET(h.cfg.Catalog.PublicRoute+"/*filepath", h.ServeImage)
}
