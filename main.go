package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Sakshi-Mishra77/Smart-city-new/config"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/handler"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/messaging"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/middleware"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/migrate"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/repository"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig(os.Getenv("SAFELIVE_CONFIG"))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.DBName, cfg.Database.SSLMode)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database", zap.String("host", cfg.Database.Host))

	if err := migrate.Up(ctx, db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	rmq, err := messaging.NewRabbitMQ(cfg.RabbitMQ.Host, cfg.RabbitMQ.Port,
		cfg.RabbitMQ.User, cfg.RabbitMQ.Password, logger)
	if err != nil {
		logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rmq.Close()

	sseHub := messaging.NewSSEHub(logger)
	go sseHub.Run()

	userRepo := repository.NewUserRepository(db)
	incidentRepo := repository.NewIncidentRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	logRepo := repository.NewLogRepository(db)
	otpRepo := repository.NewOtpRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	outboxWorker := messaging.NewOutboxWorker(outboxRepo, rmq, logger)
	outboxWorker.Start()
	defer outboxWorker.Stop()

	consumer := messaging.NewEventConsumer(rmq, notificationRepo, sseHub, logger)
	consumer.Start()
	defer consumer.Stop()

	// Expired OTP challenges are only dead weight once past their window.
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if deleted, err := otpRepo.DeleteExpired(); err != nil {
					logger.Warn("otp cleanup failed", zap.Error(err))
				} else if deleted > 0 {
					logger.Info("otp cleanup", zap.Int64("deleted", deleted))
				}
			}
		}
	}()

	mailer := &service.LogMailer{Logger: logger}
	sms := &service.LogSmsSender{Logger: logger}

	otpService := service.NewOtpService(otpRepo, mailer, sms, service.OtpConfig{
		Secret:           cfg.JWT.Secret,
		ExpireMinutes:    cfg.OTP.ExpireMinutes,
		MaxAttempts:      cfg.OTP.MaxAttempts,
		MinResendSeconds: cfg.OTP.MinResendSeconds,
	}, logger)
	authService := service.NewAuthService(userRepo, resetRepo, otpService, mailer,
		cfg.JWT, cfg.Reset.TokenExpire, logger)
	incidentService := service.NewIncidentService(incidentRepo, ticketRepo, outboxRepo, logger)
	ticketService := service.NewTicketService(ticketRepo, logRepo, outboxRepo,
		incidentRepo, userRepo, logger)
	userService := service.NewUserService(userRepo)
	analyticsService := service.NewAnalyticsService(analyticsRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	authHandler := handler.NewAuthHandler(authService)
	incidentHandler := handler.NewIncidentHandler(incidentService)
	ticketHandler := handler.NewTicketHandler(ticketService)
	userHandler := handler.NewUserHandler(userService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	notificationHandler := handler.NewNotificationHandler(notificationService, sseHub)

	middleware.InitMetrics()
	loginLimiter := middleware.NewLoginRateLimiter(cfg.Login.RatePerMinute, cfg.Login.Burst)

	r := gin.Default()
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "safelive"})
	})
	r.GET("/metrics", middleware.MetricsHandler())

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", loginLimiter.Middleware(), authHandler.Login)
		auth.POST("/verify-otp", loginLimiter.Middleware(), authHandler.VerifyOtp)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		authed := auth.Group("", middleware.RequireAuth(authService))
		authed.POST("/change-password/request-otp", authHandler.RequestPasswordChange)
		authed.POST("/change-password/confirm", authHandler.ConfirmPasswordChange)
		authed.POST("/2fa/enable/request-otp", authHandler.RequestTwoFactorChange(true))
		authed.POST("/2fa/enable/confirm", authHandler.ConfirmTwoFactorChange(true))
		authed.POST("/2fa/disable/request-otp", authHandler.RequestTwoFactorChange(false))
		authed.POST("/2fa/disable/confirm", authHandler.ConfirmTwoFactorChange(false))
	}

	issues := api.Group("/issues", middleware.RequireAuth(authService))
	{
		issues.POST("", incidentHandler.Create)
		issues.GET("", incidentHandler.List)
		issues.GET("/stats", incidentHandler.Stats)
		issues.GET("/:id", incidentHandler.Get)
		issues.PUT("/:id", incidentHandler.Update)
		issues.DELETE("/:id", middleware.RequireHeadSupervisor(), incidentHandler.Delete)
	}

	tickets := api.Group("/tickets", middleware.RequireAuth(authService), middleware.RequireOfficial())
	{
		tickets.GET("", ticketHandler.List)
		tickets.GET("/stats", ticketHandler.Stats)
		tickets.GET("/:id", ticketHandler.Get)
		tickets.PATCH("/:id/status", ticketHandler.UpdateStatus)
		tickets.POST("/:id/assign", ticketHandler.Assign)
		tickets.POST("/:id/progress-update", ticketHandler.ProgressUpdate)
		tickets.GET("/:id/logbook", ticketHandler.Logbook)
	}

	users := api.Group("/users", middleware.RequireAuth(authService))
	{
		users.GET("/profile", userHandler.GetProfile)
		users.PUT("/profile", userHandler.UpdateProfile)
		users.GET("/workers", middleware.RequireOfficial(), userHandler.ListWorkers)
		users.POST("/managed-officials", middleware.RequireOfficial(), userHandler.CreateManagedOfficial)
		users.GET("/managed-officials", middleware.RequireOfficial(), userHandler.ListManagedOfficials)
	}

	analytics := api.Group("/analytics", middleware.RequireAuth(authService), middleware.RequireOfficial())
	{
		analytics.GET("/dashboard", analyticsHandler.Dashboard)
		analytics.GET("/heatmap", analyticsHandler.Heatmap)
		analytics.GET("/trends", analyticsHandler.Trends)
	}

	notifications := api.Group("/notifications", middleware.RequireAuth(authService))
	{
		notifications.GET("", notificationHandler.List)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
		notifications.GET("/stream", notificationHandler.Stream)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}
