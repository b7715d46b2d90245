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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/middlewares"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"bitbucket.org/mmdatafocus/hr_backend/workflow"
)

const defaultPort = "8080"

var tracer = otel.Tracer("hr-backend")

// Workflow singletons, initialized in main after the DB is ready.
var (
	pointsLedger      *workflow.PointsLedger
	appraisalWorkflow *workflow.AppraisalWorkflow
)

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

// respondError maps workflow failure kinds to HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorEditWindowClosed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorLedgerConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/login", loginHandler())
		auth.POST("/logout", logoutHandler())
		auth.POST("/otp", requestOtpHandler())
		auth.POST("/otp-verify", verifyOtpHandler())
		auth.POST("/reset-password", resetPasswordHandler())
	}

	secured := api.Group("", middlewares.RequireSession())
	{
		users := secured.Group("/users")
		{
			users.GET("", listUsersHandler())
			users.POST("", middlewares.RequirePermission("users:write"), createUserHandler())
			users.GET("/managers", listManagersHandler())
			users.GET("/:id", getUserHandler())
			users.PUT("/:id", middlewares.RequirePermission("users:write"), updateUserHandler())
			users.DELETE("/:id", middlewares.RequirePermission("users:write"), deactivateUserHandler())
			users.PATCH("/:id/status", middlewares.RequirePermission("users:write"), setUserStatusHandler())
			users.PATCH("/:id/reporting", middlewares.RequirePermission("users:write"), setReportingHandler())
			users.GET("/:id/team", teamMembersHandler())
			users.POST("/:id/password", changePasswordHandler())
		}

		points := secured.Group("/points")
		{
			points.POST("", middlewares.RequirePermission("points:write"), recordPointHandler())
			points.PUT("/:id", middlewares.RequirePermission("points:write"), amendPointHandler())
			points.DELETE("/:id", middlewares.RequirePermission("points:write"), deletePointHandler())
			points.GET("/employee/:employeeId", pointHistoryHandler())
			points.GET("/employee/:employeeId/recent", recentPointsHandler())
		}

		attendance := secured.Group("/attendance")
		{
			attendance.POST("", middlewares.RequirePermission("attendance:write"), markAttendanceHandler())
			attendance.GET("/daily", dailyAttendanceHandler())
			attendance.GET("/employee/:employeeId/monthly", monthlyAttendanceHandler())
			attendance.DELETE("/:id", middlewares.RequirePermission("attendance:write"), deleteAttendanceHandler())
		}

		roles := secured.Group("/roles")
		{
			roles.GET("", listRolesHandler())
			roles.POST("", middlewares.RequirePermission("roles:write"), createRoleHandler())
			roles.GET("/:id", getRoleHandler())
			roles.PUT("/:id", middlewares.RequirePermission("roles:write"), updateRoleHandler())
			roles.DELETE("/:id", middlewares.RequirePermission("roles:write"), deleteRoleHandler())
		}

		departments := secured.Group("/departments")
		{
			departments.GET("", departmentTreeHandler())
			departments.POST("", middlewares.RequirePermission("departments:write"), createDepartmentHandler())
			departments.GET("/:id", getDepartmentHandler())
			departments.PUT("/:id", middlewares.RequirePermission("departments:write"), updateDepartmentHandler())
			departments.DELETE("/:id", middlewares.RequirePermission("departments:write"), deleteDepartmentHandler())
		}

		designations := secured.Group("/designations")
		{
			designations.GET("", listDesignationsHandler())
			designations.POST("", middlewares.RequirePermission("designations:write"), createDesignationHandler())
			designations.PUT("/:id", middlewares.RequirePermission("designations:write"), updateDesignationHandler())
			designations.DELETE("/:id", middlewares.RequirePermission("designations:write"), deleteDesignationHandler())
		}

		holidays := secured.Group("/holidays")
		{
			holidays.GET("", listHolidaysHandler())
			holidays.POST("", middlewares.RequirePermission("holidays:write"), createHolidayHandler())
			holidays.PUT("/:id", middlewares.RequirePermission("holidays:write"), updateHolidayHandler())
			holidays.DELETE("/:id", middlewares.RequirePermission("holidays:write"), deleteHolidayHandler())
		}

		templates := secured.Group("/appraisal-templates")
		{
			templates.GET("", listAppraisalTemplatesHandler())
			templates.POST("", middlewares.RequirePermission("appraisals:write"), createAppraisalTemplateHandler())
			templates.GET("/:id", getAppraisalTemplateHandler())
			templates.PUT("/:id", middlewares.RequirePermission("appraisals:write"), updateAppraisalTemplateHandler())
			templates.DELETE("/:id", middlewares.RequirePermission("appraisals:write"), deleteAppraisalTemplateHandler())
			templates.GET("/:id/matched-users", matchedUsersHandler())
		}

		appraisals := secured.Group("/appraisals")
		{
			appraisals.GET("", listAppraisalsHandler())
			appraisals.POST("", middlewares.RequirePermission("appraisals:write"), createAppraisalHandler())
			appraisals.POST("/bulk", middlewares.RequirePermission("appraisals:write"), bulkCreateAppraisalsHandler())
			appraisals.GET("/:id", getAppraisalHandler())
			appraisals.PUT("/:id", middlewares.RequirePermission("appraisals:write"), updateAppraisalHandler())
			appraisals.DELETE("/:id", middlewares.RequirePermission("appraisals:write"), deleteAppraisalHandler())
			appraisals.POST("/:id/decision", appraisalDecisionHandler())
		}

		dashboard := secured.Group("/dashboard")
		{
			dashboard.GET("/admin", adminDashboardHandler())
			dashboard.GET("/hr", hrDashboardHandler())
			dashboard.GET("/manager", managerDashboardHandler())
		}

		reports := secured.Group("/reports")
		{
			reports.GET("/points/:employeeId", pointsReportHandler())
			reports.GET("/attendance/:employeeId", attendanceReportHandler())
		}

		uploads := secured.Group("/uploads")
		{
			uploads.POST("/sign", signUploadHandler())
			uploads.POST("/complete", completeUploadHandler())
			uploads.GET("/object", objectAccessHandler())
		}
	}

	// Ops tooling (admin only).
	ops := r.Group("/internal/ops", middlewares.RequireSession(), middlewares.RequireAdmin())
	{
		ops.POST("/outbox/replay", outboxReplayHandler())
		ops.POST("/points/rebuild", pointsRebuildHandler())
	}
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

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	pointsLedger = workflow.NewPointsLedger(db, logger)
	appraisalWorkflow = workflow.NewAppraisalWorkflow(db, pointsLedger, logger)

	// Start outbox dispatcher (publishes AFTER commit).
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	go workflow.NewOutboxDispatcher(db, logger).Run(dispatcherCtx)

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/api/v1")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelDispatcher()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
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

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP() // Assuming IP-based rate limiting

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
