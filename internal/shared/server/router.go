package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recommendation-backend/internal/contextstore"
	"recommendation-backend/internal/entities"
	"recommendation-backend/internal/letters"
	"recommendation-backend/internal/research"
	"recommendation-backend/internal/resumes"
	"recommendation-backend/internal/selections"
	"recommendation-backend/internal/services/health"
	"recommendation-backend/internal/shared/config"
	"recommendation-backend/internal/shared/metrics"
	"recommendation-backend/internal/shared/server/middleware"
	"recommendation-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config     config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Recorder
	Health     *health.Service
	Resumes    *resumes.Handler
	Entities   *entities.Handler
	Context    *contextstore.Handler
	Selections *selections.Handler
	Research   *research.Handler
	Letters    *letters.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if !deps.Config.IsDevLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(deps.Logger),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	if deps.Metrics != nil {
		r.GET("/metrics", deps.Metrics.Handler())
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		checks, ok := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ok": ok, "checks": checks})
	})

	// parse, research and generation call the LLM
	limiter := middleware.NewRateLimiter(middleware.RateLimitRule{
		Rate:  deps.Config.RateLimitRPS,
		Burst: deps.Config.RateLimitBurst,
	}, nil)
	guard := middleware.RateLimit(limiter)

	if deps.Resumes != nil {
		deps.Resumes.RegisterRoutes(api)
	}
	if deps.Entities != nil {
		deps.Entities.RegisterRoutes(api, guard)
	}
	if deps.Context != nil {
		deps.Context.RegisterRoutes(api)
	}
	if deps.Selections != nil {
		deps.Selections.RegisterRoutes(api)
	}
	if deps.Research != nil {
		deps.Research.RegisterRoutes(api, guard)
	}
	if deps.Letters != nil {
		deps.Letters.RegisterRoutes(api, guard)
	}

	return r
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
