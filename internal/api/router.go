package api

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"edusync/internal/config"
	"edusync/internal/httpmiddleware"
	"edusync/internal/metrics"
	"edusync/internal/school"
	"edusync/internal/store"
)

// Deps is everything the router needs. Redis may be nil.
type Deps struct {
	Config  config.App
	Service *school.Service
	DB      *store.DB
	Redis   *store.Redis
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

var unlogged = []string{"/healthz", "/metrics"}

// NewRouter wires middleware and routes onto a fresh gin engine.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := NewHandler(d.Service, d.Metrics, d.Logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(d.Logger, unlogged...))
	r.Use(cors.New(corsConfig(d.Config.CORSOrigins)))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(d.Metrics.GinMiddleware())
	if l := newLimiter(d); l != nil {
		r.Use(httpmiddleware.RateLimit(l, unlogged...))
	}

	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	r.GET("/healthz", healthz(d))

	r.GET("/", h.Root)

	r.GET("/students", h.ListStudents)
	r.POST("/students", h.CreateStudent)
	r.GET("/students/:id", h.GetStudent)
	r.GET("/students/:id/recommended-tasks", h.RecommendTasks)
	r.GET("/students/:id/tasks", h.StudentTasks)
	r.POST("/students/:id/assign-task/:task_id", h.AssignTask)

	r.POST("/attendance/:student_id", h.MarkAttendance)
	r.GET("/attendance/:student_id", h.StudentAttendance)
	r.GET("/attendance", h.ListAttendance)

	r.GET("/tasks", h.ListTasks)
	r.GET("/tasks/:id", h.GetTask)

	r.GET("/dashboard/stats", h.DashboardStats)

	return r
}

// corsConfig allows every method and header with credentials. An empty list
// or "*" reflects any origin, since a literal wildcard cannot carry credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", httpmiddleware.RequestIDHeader, "*"},
		ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func newLimiter(d Deps) httpmiddleware.Limiter {
	perMin := d.Config.RateLimitPerMin
	switch {
	case perMin <= 0:
		return nil
	case d.Redis != nil:
		return httpmiddleware.NewRedisLimiter(d.Redis.Client, perMin, d.Logger)
	default:
		return httpmiddleware.NewSimpleTokenBucket(perMin, perMin)
	}
}

func healthz(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		status := http.StatusOK

		db := "ok"
		if !d.DB.Healthy(ctx) {
			db, status = "down", http.StatusServiceUnavailable
		}
		redis := "disabled"
		if d.Redis != nil {
			redis = "ok"
			if !d.Redis.Healthy(ctx) {
				redis, status = "down", http.StatusServiceUnavailable
			}
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "db": db, "redis": redis})
	}
}
