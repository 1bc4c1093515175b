package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/api"
	"github.com/aufildessentiers/backend/internal/app"
	iauth "github.com/aufildessentiers/backend/internal/auth"
	"github.com/aufildessentiers/backend/internal/cache"
	"github.com/aufildessentiers/backend/internal/database"
	"github.com/aufildessentiers/backend/internal/maintenance"
	"github.com/aufildessentiers/backend/internal/middleware"
	"github.com/aufildessentiers/backend/internal/services"
	"github.com/aufildessentiers/backend/pkg/logger"
	"github.com/aufildessentiers/backend/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sentiers-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := database.Open(cfg.DatabaseConfig())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeDatabase(db, log)

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.SMTPSettings())
	if err != nil {
		return fmt.Errorf("initialise mailer: %w", err)
	}
	if !cfg.Email.SMTP.Enabled {
		log.Warn("smtp disabled; outbound email will not be delivered")
	}

	jwtService, err := iauth.NewJWTService(cfg.JWTConfig())
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	sessionSvc, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{})
	if err != nil {
		return fmt.Errorf("initialise session service: %w", err)
	}

	tokenStore, err := iauth.NewTokenStore(db, jwtService, iauth.TokenStoreConfig{
		VerificationTTL: cfg.Auth.JWT.VerificationTTL,
	})
	if err != nil {
		return fmt.Errorf("initialise token store: %w", err)
	}

	accountSvc, err := services.NewAccountService(db, sessionSvc, tokenStore, mailer, services.AccountConfig{
		BcryptCost: cfg.Auth.BcryptCost,
		BaseURL:    cfg.Site.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("initialise account service: %w", err)
	}

	eventSvc, err := services.NewEventService(db)
	if err != nil {
		return fmt.Errorf("initialise event service: %w", err)
	}
	registrationSvc, err := services.NewRegistrationService(db)
	if err != nil {
		return fmt.Errorf("initialise registration service: %w", err)
	}
	blogSvc, err := services.NewBlogService(db)
	if err != nil {
		return fmt.Errorf("initialise blog service: %w", err)
	}
	contactSvc, err := services.NewContactService(db)
	if err != nil {
		return fmt.Errorf("initialise contact service: %w", err)
	}
	adminSvc, err := services.NewAdminService(db)
	if err != nil {
		return fmt.Errorf("initialise admin service: %w", err)
	}

	if cfg.Cleanup.Enabled {
		cleaner := maintenance.NewCleaner(db, sessionSvc, tokenStore,
			maintenance.WithSchedule(cfg.Cleanup.Schedule))
		if err := cleaner.Start(); err != nil {
			return fmt.Errorf("start maintenance jobs: %w", err)
		}
		defer func() {
			stopCtx := cleaner.Stop()
			if err := cleaner.RunOnce(stopCtx); err != nil {
				log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
			}
		}()
	}

	router, err := api.NewRouter(api.Dependencies{
		DB:            db,
		JWT:           jwtService,
		Sessions:      sessionSvc,
		Accounts:      accountSvc,
		Events:        eventSvc,
		Registrations: registrationSvc,
		Blog:          blogSvc,
		Contacts:      contactSvc,
		Admin:         adminSvc,
		RateStore:     middleware.NewCacheRateStore(cache.NewDatabaseStore(db)),
	}, api.Config{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		GlobalRateLimit:  cfg.RateLimit.Global.Max,
		GlobalRateWindow: cfg.RateLimit.Global.Window,
		EmailRateLimit:   cfg.RateLimit.Email.Max,
		EmailRateWindow:  cfg.RateLimit.Email.Window,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("access underlying database handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
