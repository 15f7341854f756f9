package http

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"insta-giveaway-backend/internal/common/middleware"
)

const serviceName = "insta-giveaway-backend"

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// RouterDeps wires every handler. RateLimiter and the checkers may be nil.
type RouterDeps struct {
	Origins     []string
	Auth        middleware.Authenticator
	RateLimiter *middleware.RateLimiter
	Postgres    HealthChecker
	Redis       HealthChecker

	Accounts  AccountService
	Giveaways GiveawayService
	Audit     AuditService
	Instagram InstagramService
	Analytics AnalyticsService
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	if len(d.Origins) == 0 || slices.Contains(d.Origins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = d.Origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	registerProbes(router, d.Postgres, d.Redis)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	if d.RateLimiter != nil {
		v1.Use(d.RateLimiter.Middleware())
	}
	protected := v1.Group("", middleware.BearerAuth(d.Auth))

	NewAccountHandler(d.Accounts).RegisterRoutes(v1, protected)
	NewGiveawayHandler(d.Giveaways).RegisterRoutes(protected)
	NewAuditHandler(d.Audit).RegisterRoutes(protected)
	NewInstagramHandler(d.Instagram).RegisterRoutes(v1, protected)
	NewAnalyticsHandler(d.Analytics).RegisterRoutes(protected)

	return router
}

func registerProbes(router *gin.Engine, pg, rdb HealthChecker) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := []struct {
			name    string
			checker HealthChecker
		}{{"postgres", pg}, {"redis", rdb}}
		for _, check := range checks {
			if check.checker == nil {
				continue
			}
			if err := check.checker.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   check.name + " unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
