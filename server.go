package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/middlewares"
	"github.com/brightpath/adjustments_backend/models"
	"github.com/brightpath/adjustments_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("adjustments-backend")

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "route not found"})
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// In production only the CORS_ALLOWED_ORIGINS allowlist; deny all when unset.
	if config.IsProduction() {
		corsConfig.AllowOrigins = utils.SplitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS"))
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOrigins = []string{}
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	return corsConfig
}

func setupRouter(logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Header("x-correlation-id", cid)
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Redis is optional, the database is not.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(cors.New(corsConfig()))

	if config.RateLimitEnabled() {
		limit := int64(intEnv("RATE_LIMIT_MAX_REQUESTS", 600))
		window := time.Duration(intEnv("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
		// redis connects after the listener is up, so the client is resolved per request
		r.Use(NewRateLimiter(nil, limit, window).RateLimitMiddleware)
		if !config.RedisConfigured() {
			logger.WithFields(logrus.Fields{"field": "rateLimit"}).Warn("RATE_LIMIT_ENABLED without REDIS_ADDRESS; requests are not limited")
		}
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/login", loginHandler())
	r.POST("/forgot", forgotHandler())
	r.GET("/logout", logoutHandler())

	authed := r.Group("/", middlewares.RequireSession())
	authed.GET("/dashboard", dashboardHandler())
	authed.GET("/export", exportHandler())
	authed.GET("/api/children", childrenHandler())
	authed.GET("/api/child_details", childDetailsHandler())

	records := authed.Group("/records")
	records.POST("/add", addRecordHandler())
	records.POST("/bulk_approval", bulkApprovalHandler())
	records.GET("/:id", getRecordHandler())
	records.POST("/edit/:id", editRecordHandler())
	records.POST("/delete/:id", deleteRecordHandler())

	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if config.IsProduction() {
		if !utils.JwtSecretConfigured() {
			logger.WithFields(logrus.Fields{"field": "API_SECRET"}).Fatal("API_SECRET must be set in production")
		}
		gin.SetMode(gin.ReleaseMode)
	}

	// Start the HTTP server first; app endpoints return 503 until the DB is ready.
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: setupRouter(logger),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	defer config.CloseDatabase()
	config.ConnectRedisWithRetry()
	defer config.CloseRedis()

	// AutoMigrate can lock tables; SKIP_MIGRATIONS=true runs without it.
	if !config.SkipMigrations() {
		if err := models.MigrateTable(); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	if config.ImportCSVOnStartup() {
		if _, err := models.ImportStartupData(sigCtx, config.DataDir()); err != nil {
			logger.WithFields(logrus.Fields{"field": "import"}).Warn("startup import incomplete: " + err.Error())
		}
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{
				"path":           c.FullPath(),
				"correlation_id": cid,
			}).Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// RateLimitMiddleware counts requests per client IP in a fixed window.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	client := rl.client
	if client == nil {
		client = config.GetRedisDB()
	}
	if client == nil {
		c.Next()
		return
	}
	key := "ratelimit:" + c.ClientIP()

	count, err := client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		// fail open; redis trouble must not take the API down
		_ = c.Error(err)
		c.Next()
		return
	}
	if count == 1 {
		if err := client.Expire(c.Request.Context(), key, rl.window).Err(); err != nil {
			_ = c.Error(err)
		}
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"ok":    false,
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func intEnv(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
