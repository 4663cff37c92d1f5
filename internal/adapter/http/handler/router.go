package handler

import (
	"solana-payment-gateway/internal/adapter/http/middleware"
	redisStore "solana-payment-gateway/internal/adapter/storage/redis"
	"solana-payment-gateway/internal/core/ports"
	"solana-payment-gateway/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	PaymentSvc     ports.PaymentService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Metrics        *metrics.HTTPMetrics // nil = request metrics disabled
	Docs           *APIDocs             // nil = /swagger/spec answers 404
	Mode           string
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	}
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", deps.Docs.UI)
		swagger.GET("/spec", deps.Docs.Spec)
	}

	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	paymentHandler := NewPaymentHandler(deps.PaymentSvc, deps.Logger)

	payments := v1.Group("/payments", jwtAuth)
	{
		payments.POST("/requests", rl("payments_create"), paymentHandler.CreateRequest)
		payments.POST("/direct", rl("payments_create"), paymentHandler.DirectPayment)
		payments.POST("/mobile", rl("payments_create"), paymentHandler.MobilePayment)
		payments.GET("/:reference", rl("payments_read"), paymentHandler.GetPayment)
		payments.DELETE("/:reference", rl("payments_abort"), paymentHandler.AbortPayment)
	}

	return r
}
