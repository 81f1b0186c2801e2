package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Ne4nf/TimoBank/configs"
	"github.com/Ne4nf/TimoBank/internal/analytics"
	"github.com/Ne4nf/TimoBank/internal/auth"
	"github.com/Ne4nf/TimoBank/internal/cache"
	"github.com/Ne4nf/TimoBank/internal/models"
	"github.com/Ne4nf/TimoBank/internal/repositories"
	"github.com/Ne4nf/TimoBank/internal/services"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Load configuration
	cfg := configs.Load()

	// Setup logging
	setupLogging(cfg.Server.Environment)

	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("Starting banking data quality API server")

	// Initialize database
	db, err := repositories.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize cache. The API works uncached when Redis is off.
	cacheClient, err := cache.New(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer cacheClient.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	alertRepo := repositories.NewAlertRepository(db)

	// Initialize services
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	authService := services.NewAuthService(userRepo, jwtManager)
	analyticsService := analytics.NewService(db, alertRepo, cacheClient)

	// Setup Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware())

	// Rate limiting: 100 requests per minute per IP
	rateLimiter := NewRateLimiter(100, time.Minute)
	router.Use(rateLimitMiddleware(rateLimiter))

	// Setup routes
	setupRoutes(router, jwtManager, authService, analyticsService, alertRepo, db, cacheClient)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func setupRoutes(
	router *gin.Engine,
	jwtManager *auth.JWTManager,
	authService *services.AuthService,
	analyticsService *analytics.Service,
	alertRepo *repositories.AlertRepository,
	db *repositories.Database,
	cacheClient *cache.Client,
) {
	// Health check
	router.GET("/health", healthHandler(db, cacheClient))

	// API v1 routes
	v1 := router.Group("/api/v1")

	// Auth routes (public)
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", registerHandler(authService))
		authRoutes.POST("/login", loginHandler(authService))
		authRoutes.POST("/refresh", auth.AuthMiddleware(jwtManager), refreshTokenHandler(authService))
		authRoutes.GET("/me", auth.AuthMiddleware(jwtManager), currentUserHandler(authService))
	}

	// Read endpoints. The dashboard is public so monitors can poll it.
	v1.GET("/data-quality/summary", dataQualitySummaryHandler(analyticsService))
	v1.GET("/dashboard/overview", dashboardOverviewHandler(analyticsService))
	v1.GET("/fraud-alerts", fraudAlertsHandler(analyticsService))
	v1.GET("/transactions/summary", transactionSummaryHandler(analyticsService))
	v1.GET("/compliance/metrics", complianceMetricsHandler(analyticsService))
	v1.GET("/customers/risk-profile", customerRiskProfilesHandler(analyticsService))
	v1.GET("/devices/unverified", unverifiedDevicesHandler(analyticsService))

	// Alert workflow requires an operator login
	protected := v1.Group("")
	protected.Use(auth.AuthMiddleware(jwtManager))
	protected.Use(auth.RoleMiddleware(models.RoleAnalyst, models.RoleAdmin))
	{
		protected.PATCH("/fraud-alerts/:id/status", updateAlertStatusHandler(alertRepo))
	}
}

// Middleware

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("%d", time.Now().UnixNano())
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Str("request_id", c.GetString("request_id")).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RateLimiter implements a simple in-memory rate limiter using token bucket algorithm
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens   int
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	// Clean up old visitors periodically
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastSeen: now}
		return true
	}

	// Refill tokens based on time elapsed
	elapsed := now.Sub(v.lastSeen)
	refill := int(elapsed / (rl.window / time.Duration(rl.rate)))
	v.tokens += refill
	if v.tokens > rl.rate {
		v.tokens = rl.rate
	}
	v.lastSeen = now

	if v.tokens > 0 {
		v.tokens--
		return true
	}

	return false
}

func rateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.Allow(ip) {
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": 60,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Handlers

func healthHandler(db *repositories.Database, cacheClient *cache.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"database":  "down",
				"timestamp": time.Now().Format(time.RFC3339),
			})
			return
		}

		cacheStatus := "up"
		if err := cacheClient.HealthCheck(c.Request.Context()); err != nil {
			cacheStatus = "down"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "up",
			"cache":     cacheStatus,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func registerHandler(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := authService.Register(c.Request.Context(), &req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, services.ErrWeakPassword) || errors.Is(err, repositories.ErrUserAlreadyExists) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, resp)
	}
}

func loginHandler(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := authService.Login(c.Request.Context(), &req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, services.ErrInvalidCredentials) {
				status = http.StatusUnauthorized
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func refreshTokenHandler(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if len(token) > 7 {
			token = token[7:] // Remove "Bearer "
		}

		resp, err := authService.RefreshToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func currentUserHandler(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		user, err := authService.GetUser(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// dataQualitySummaryHandler always answers 200. The service degrades
// to a default payload when the checks cannot run.
func dataQualitySummaryHandler(analyticsService *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, analyticsService.DataQualitySummary(c.Request.Context()))
	}
}

// dashboardOverviewHandler always answers 200 for the same reason
func dashboardOverviewHandler(analyticsService *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, analyticsService.DashboardOverview(c.Request.Context()))
	}
}

func fraudAlertsHandler(analyticsService *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		severity := c.Query("severity")
		status := c.Query("status")
		limit := getIntParam(c, "limit", 50)

		alerts, err := analyticsService.FraudAlerts(c.Request.Context(), severity, status, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"alerts": alerts,
			"count":  len(alerts),
		})
	}
}

func transactionSummaryHandler(analyticsService *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := getIntParam(c, "days", 30)

		summaries, err := analyticsService.TransactionSummary(c.Request.Context(), days)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"days":      days,
			"summaries": summaries,
		})
	}
}

func complianceMetricsHandler(analyticsService *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics, err := analyticsService.ComplianceMetrics(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"metrics": metrics})
	}
}

func customerRiskProfilesHandler(analyticsService *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := getIntParam(c, "limit", 20)

		profiles, err := analyticsService.CustomerRiskProfiles(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"profiles": profiles})
	}
}

func unverifiedDevicesHandler(analyticsService *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := getIntParam(c, "limit", 50)

		groups, err := analyticsService.UnverifiedDevices(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"customers": groups})
	}
}

func updateAlertStatusHandler(alertRepo *repositories.AlertRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
			return
		}

		var req struct {
			Status          string `json:"status" binding:"required,oneof=OPEN INVESTIGATING RESOLVED FALSE_POSITIVE"`
			AssignedTo      string `json:"assigned_to"`
			ResolutionNotes string `json:"resolution_notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := alertRepo.UpdateStatus(c.Request.Context(), id, req.Status, req.AssignedTo, req.ResolutionNotes); err != nil {
			if errors.Is(err, repositories.ErrAlertNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		alert, err := alertRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, alert)
	}
}

// Helper functions

func getIntParam(c *gin.Context, key string, defaultValue int) int {
	if val := c.Query(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil && result > 0 {
			return result
		}
	}
	return defaultValue
}
