// Package httpapi assembles the Gin engine: middleware chain, webhook and
// health routes, and the Prometheus scrape endpoint.
package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-reminder-backend/internal/http/handlers"
	"github.com/tbourn/go-reminder-backend/internal/http/middleware"
)

// maxBodyBytes caps inbound request bodies. Webhook envelopes are small;
// anything near this size is garbage.
const maxBodyBytes = 1 << 20

// Options carries the route dependencies and edge tuning knobs.
type Options struct {
	Handlers    *handlers.Handlers
	ServiceName string
	RateRPS     float64
	RateBurst   int
}

// NewRouter builds the engine with the full middleware chain. Middleware
// order matters: the request ID must exist before logging, and recovery must
// wrap everything downstream of it.
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()

	r.Use(otelgin.Middleware(opts.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(middleware.Metrics())
	r.Use(middleware.NewRateLimiter(opts.RateRPS, opts.RateBurst).Handler())
	r.Use(cors.Default())

	r.POST("/callback", opts.Handlers.Webhook)
	r.GET("/healthz", opts.Handlers.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// limitBody rejects oversized request bodies before handlers read them.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
