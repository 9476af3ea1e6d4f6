package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smita-2184/llm-eval/internal/cache"
	"github.com/smita-2184/llm-eval/internal/config"
	"github.com/smita-2184/llm-eval/internal/credentials"
	"github.com/smita-2184/llm-eval/internal/llm"
	"github.com/smita-2184/llm-eval/internal/repository"
	"github.com/smita-2184/llm-eval/internal/service"
	"github.com/smita-2184/llm-eval/internal/transport/rest"
	"github.com/smita-2184/llm-eval/internal/transport/ws"
	"github.com/smita-2184/llm-eval/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("Starting server")

	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.WithError(err).Fatal("Failed to ping MongoDB")
	}
	log.Info("Connected to MongoDB")

	db := mongoClient.Database(cfg.Mongo.Database)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.WithError(err).Fatal("Failed to ping Redis")
	}
	log.Info("Connected to Redis")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	evalRepo := repository.NewEvaluationRepository(db)

	// Initialize the event bus and hub
	events := cache.NewEvaluationEvents(rdb)
	wsHub := ws.NewHub(log)

	// Initialize LLM plumbing
	creds := credentials.NewStore(apiKeyRepo, cfg.Credentials.CacheTTL, log)
	registry := llm.NewRegistry(&cfg.Providers, log)
	gemini := llm.NewGoogleAdapter(&cfg.Providers, "gemini-doc", "Gemini", "gemini-1.5-flash", log)

	// Initialize services
	authSvc := service.NewAuthService(userRepo, cfg.Auth, log)
	fanoutSvc := service.NewFanoutService(registry, creds, log)
	docSvc := service.NewDocumentService(gemini, creds, log)
	evalSvc := service.NewEvaluationService(evalRepo, events, log)
	progressSvc := service.NewProgressService(evalRepo, events, log)

	router := rest.NewRouter(&rest.Container{
		Config:          cfg,
		Logger:          log,
		AuthService:     authSvc,
		FanoutService:   fanoutSvc,
		DocumentService: docSvc,
		EvalService:     evalSvc,
		ProgressService: progressSvc,
		WSHub:           wsHub,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("ListenAndServe failed")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exited")
}
