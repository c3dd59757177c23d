package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/prms/prms-api/internal/config"
	"github.com/prms/prms-api/internal/domain/analytics"
	"github.com/prms/prms-api/internal/domain/auditlog"
	"github.com/prms/prms-api/internal/domain/barangay"
	"github.com/prms/prms-api/internal/domain/disease"
	"github.com/prms/prms-api/internal/domain/identity"
	"github.com/prms/prms-api/internal/domain/notification"
	"github.com/prms/prms-api/internal/domain/patient"
	"github.com/prms/prms-api/internal/domain/record"
	"github.com/prms/prms-api/internal/platform/auth"
	"github.com/prms/prms-api/internal/platform/db"
	"github.com/prms/prms-api/internal/platform/middleware"
	"github.com/prms/prms-api/internal/platform/respond"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "prms-server",
		Short: "Patient Record Management System API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the PRMS API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Restore from a database backup instead.")
			return nil
		},
	})

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Sessions
	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	sessions := auth.NewSessionManager(cfg.SessionSecret, sessionTTL, !cfg.IsDev())

	// Repositories
	userRepo := identity.NewUserRepoPG(pool)
	patientRepo := patient.NewPatientRepoPG(pool)
	recordRepo := record.NewRecordRepoPG(pool)
	diseaseRepo := disease.NewDiseaseRepoPG(pool)
	barangayRepo := barangay.NewBarangayRepoPG(pool)
	analyticsRepo := analytics.NewAnalyticsRepoPG(pool)
	notificationRepo := notification.NewNotificationRepoPG(pool)
	auditRepo := auditlog.NewAuditLogRepoPG(pool)

	// Services
	identitySvc := identity.NewService(userRepo, logger)
	patientSvc := patient.NewService(patientRepo)
	recordSvc := record.NewService(recordRepo, patientRepo)
	analyticsSvc := analytics.NewService(analyticsRepo)
	auditSvc := auditlog.NewService(auditRepo)
	recorder := auditlog.NewRecorder(auditRepo, cfg.AuditFallbackFile, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = respond.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	// Health check
	e.GET("/health", db.HealthHandler(pool))

	// API groups. Everything under /api/staff requires an authenticated
	// staff identity; /api itself carries only the login and logout routes.
	api := e.Group("/api")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	strategies := []auth.Strategy{
		&auth.SessionStrategy{Sessions: sessions},
	}
	if cfg.StaffTestToken != "" {
		strategies = append(strategies, &auth.TokenStrategy{
			Token:    cfg.StaffTestToken,
			Users:    identitySvc,
			Sessions: sessions,
		})
	}
	if cfg.IsDev() && cfg.DevFallbackUser != "" {
		strategies = append(strategies, &auth.DevStrategy{
			Username: cfg.DevFallbackUser,
			Users:    identitySvc,
		})
	}
	staff := api.Group("/staff", auth.Middleware(logger, strategies...))

	// Routes
	identity.NewHandler(identitySvc, sessions, recorder).RegisterRoutes(api, staff)
	patient.NewHandler(patientSvc, recorder).RegisterRoutes(staff)
	record.NewHandler(recordSvc, recorder).RegisterRoutes(staff)
	disease.NewHandler(diseaseRepo).RegisterRoutes(staff)
	barangay.NewHandler(barangayRepo).RegisterRoutes(staff)
	analytics.NewHandler(analyticsSvc, logger).RegisterRoutes(staff)
	notification.NewHandler(notificationRepo, recorder, logger).RegisterRoutes(staff)
	auditlog.NewHandler(auditSvc).RegisterRoutes(staff)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
