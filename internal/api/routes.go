package api

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/nicefield/internal/dispatch"
	"github.com/rawblock/nicefield/internal/metrics"
	"github.com/rawblock/nicefield/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// corsMiddleware allows any origin (configurable via ALLOWED_ORIGINS), the
// listed methods, all headers, credentials, and caches preflight for a day.
func corsMiddleware() gin.HandlerFunc {
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH, HEAD")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// SetupRouter builds the full HTTP front: claim/submit/validate endpoints
// public except where AuthMiddleware gates them, CORS, request timing,
// and the dashboard event stream.
func SetupRouter(st *store.Store, disp *dispatch.Dispatcher, hub *Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(metrics.RequestTiming())

	h := NewHandler(st, disp, hub)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.HandleHealth)
		v1.GET("/stream", hub.Subscribe)
		v1.GET("/claim", h.HandleClaim)
		v1.GET("/claim/detailed", h.HandleClaim)
		v1.GET("/claim/niceonly", h.HandleClaimNiceonly)
		v1.GET("/claim/validate", h.HandleClaimValidate)
	}

	mutating := r.Group("/api/v1")
	mutating.Use(AuthMiddleware())
	mutating.Use(NewRateLimiter(SubmitRatePerMinute, SubmitBurst, "mutating").Middleware())
	{
		mutating.POST("/submit", h.HandleSubmit)
		mutating.GET("/consensus/flags", h.HandleListConsensusFlags)
		mutating.POST("/consensus/flags/:field_id/resolve", h.HandleResolveConsensusFlag)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
