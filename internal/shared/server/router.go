package server

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-review/internal/pipeline"
	"resume-review/internal/reviews"
	"resume-review/internal/shared/config"
	"resume-review/internal/shared/metrics"
	"resume-review/internal/shared/server/middleware"
	"resume-review/internal/shared/server/respond"
	"resume-review/internal/shared/storage/object"
)

// Rate limit groups.
const (
	GroupAnalyze = "ANALYZE"
	GroupPolling = "POLLING"
)

// RouterDeps collects the handlers and stores the router serves.
type RouterDeps struct {
	Config          config.Config
	ReviewHandler   *reviews.Handler
	AnalysisHandler *pipeline.Handler
	// Assets is served under /api/v1/assets when set; only the local store is exposed.
	Assets      object.ObjectStore
	RateLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	public := r.Group("/api/v1")
	public.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.Assets != nil {
		public.GET("/assets/*key", serveAsset(deps.Assets))
	}

	api := r.Group("/api/v1")
	api.Use(
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				GroupAnalyze: {Rate: 1.0 / 6.0, Burst: 3},
				GroupPolling: {Rate: 5, Burst: 20},
			},
			GroupFor: middleware.RouteGroups(map[string]string{
				"POST /api/v1/analyses":    GroupAnalyze,
				"POST /api/v1/ai/feedback": GroupAnalyze,
				"GET /api/v1/analyses/:id": GroupPolling,
			}),
			Limiter: deps.RateLimiter,
		}),
	)
	registerMeRoutes(api)
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}
	if deps.ReviewHandler != nil {
		deps.ReviewHandler.RegisterRoutes(api)
	}

	return r
}

func serveAsset(store object.ObjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		rc, err := store.Open(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, object.ErrInvalidKey) || errors.Is(err, os.ErrNotExist) {
				respond.Error(c, http.StatusNotFound, "not_found", "asset not found", nil)
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read asset", nil)
			return
		}
		defer rc.Close()

		c.Header("Cache-Control", "private, max-age=3600")
		c.Status(http.StatusOK)
		c.Header("Content-Type", contentTypeFor(key))
		_, _ = io.Copy(c.Writer, rc)
	}
}

func contentTypeFor(key string) string {
	switch {
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
