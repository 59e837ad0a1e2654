package api

import (
	"url-shortener/internal/auth"
	"url-shortener/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterOptions carries what SetupRouter needs besides the handler.
type RouterOptions struct {
	Tokens auth.Verifier
	// AllowedOrigins restricts CORS; empty allows every origin.
	AllowedOrigins []string
	Logger         *zap.Logger
}

// SetupRouter initializes and configures the Gin router.
func SetupRouter(h *Handler, opts RouterOptions) *gin.Engine {
	metrics.Init()

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(opts.Logger.Named("http")), Metrics())

	config := cors.DefaultConfig()
	if len(opts.AllowedOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = opts.AllowedOrigins
	}
	config.AllowHeaders = append(config.AllowHeaders, "Authorization", requestIDHeader)
	r.Use(cors.New(config))

	r.GET("/health", h.HealthCheck)
	r.GET("/status", h.Status)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := auth.RequireAuth(opts.Tokens, opts.Logger.Named("auth"))

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/shorten", requireAuth, h.Shorten)
		apiGroup.GET("/urls", requireAuth, h.ListURLs)
		apiGroup.DELETE("/urls/:id", requireAuth, h.DeleteURL)
		apiGroup.DELETE("/url/:id", requireAuth, h.DeleteURL)
		apiGroup.GET("/redirect/:shortCode", h.Redirect)
	}

	// Short links handed out by /api/shorten point at the site root.
	r.GET("/:shortCode", h.Redirect)

	return r
}
