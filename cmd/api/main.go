package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/resona/rental-api/internal/application/service"
	"github.com/resona/rental-api/internal/config"
	"github.com/resona/rental-api/internal/domain/pricing"
	domainRepo "github.com/resona/rental-api/internal/domain/repository"
	"github.com/resona/rental-api/internal/infrastructure/cache"
	"github.com/resona/rental-api/internal/infrastructure/database"
	"github.com/resona/rental-api/internal/infrastructure/export"
	"github.com/resona/rental-api/internal/infrastructure/repository"
	"github.com/resona/rental-api/internal/infrastructure/storage"
	"github.com/resona/rental-api/internal/presentation/http/handler"
	"github.com/resona/rental-api/internal/presentation/http/middleware"
	"github.com/resona/rental-api/internal/presentation/http/routes"
	"github.com/resona/rental-api/pkg/email"
	"github.com/resona/rental-api/pkg/utils"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.App)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(&cfg.Database, cfg.App.Debug)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if err := database.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	if err := database.SeedDefaultData(db, cfg.Admin); err != nil {
		log.WithError(err).Warn("failed to seed default data")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, running without product cache and token blacklist")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	documentStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.WithError(err).Warn("object storage unavailable, generated PDFs will not be archived")
		documentStore = storage.NullStore{}
	}

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	quoteRepo := repository.NewQuoteRequestRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Services
	engine := pricing.NewEngine(cfg.Pricing)
	authService := service.NewAuthService(userRepo, jwtManager, cache.NewTokenBlacklist(redisClient))
	catalogService := service.NewCatalogService(productRepo, categoryRepo, cache.NewProductCache(redisClient, cfg.Redis.ProductTTL))
	calculator := service.NewQuoteCalculatorService(catalogService, engine, export.Company{
		Name:    cfg.Company.Name,
		TaxID:   cfg.Company.TaxID,
		Address: cfg.Company.Address,
		Phone:   cfg.Company.Phone,
		Email:   cfg.Company.Email,
		Website: cfg.Company.Website,
	})
	mailer := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
		AppName:      cfg.Company.Name,
	})
	if !mailer.Enabled() {
		log.Info("SMTP not configured, order confirmations disabled")
	}
	quoteService := service.NewQuoteRequestService(quoteRepo, orderRepo, productRepo, userRepo, calculator, documentStore, mailer)
	orderService := service.NewOrderService(orderRepo)
	userService := service.NewUserService(userRepo, repository.NewRoleRepository(db))

	handlers := &routes.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Product:      handler.NewProductHandler(catalogService),
		Quote:        handler.NewQuoteHandler(calculator, quoteService),
		QuoteRequest: handler.NewQuoteRequestHandler(quoteService),
		Order:        handler.NewOrderHandler(orderService),
		User:         handler.NewUserHandler(userService),
	}

	rateLimiter := middleware.NewIPRateLimiter(cfg.RateLimit)
	defer rateLimiter.Stop()

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Revocation:      authService,
		RateLimiter:     rateLimiter,
	})

	go purgeIdempotencyKeys(ctx, idempotencyRepo, time.Hour)

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{
			"service": cfg.App.Name,
			"port":    port,
			"env":     cfg.App.Env,
		}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
}

func setupLogging(app config.AppConfig) {
	if app.Env == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(app.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// purgeIdempotencyKeys removes expired keys until ctx is cancelled
func purgeIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("failed to purge idempotency keys")
				continue
			}
			if n > 0 {
				log.WithField("deleted", n).Debug("purged expired idempotency keys")
			}
		}
	}
}
