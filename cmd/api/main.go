package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/teamtasks/docs" // Swagger docs (generated)
	"github.com/redmonkez12/teamtasks/internal/auth"
	"github.com/redmonkez12/teamtasks/internal/config"
	"github.com/redmonkez12/teamtasks/internal/database"
	"github.com/redmonkez12/teamtasks/internal/email"
	httpServer "github.com/redmonkez12/teamtasks/internal/http"
	"github.com/redmonkez12/teamtasks/internal/logging"
	"github.com/redmonkez12/teamtasks/internal/password"
	"github.com/redmonkez12/teamtasks/internal/ratelimit"
	"github.com/redmonkez12/teamtasks/internal/telemetry"
	"github.com/redmonkez12/teamtasks/internal/token"
	"github.com/redmonkez12/teamtasks/internal/user"
)

// @title           TeamTasks API
// @version         1.0
// @description     Authentication API for the TeamTasks team and task tracker.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB, goose.DialectPostgres); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}
	if err := database.VerifySchema(ctx, db); err != nil {
		return fmt.Errorf("database schema check failed: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn("REDIS_HOST not set, rate limiting and email confirmation disabled")
	}

	hasher, err := password.NewHasher(cfg.Auth.PasswordAlgorithm, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	codec, err := token.NewCodec(token.Config{
		Algorithm: cfg.Auth.Algorithm,
		Secret:    []byte(cfg.Auth.Secret),
		TTL:       cfg.Auth.TokenTTL(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}

	userRepo := user.NewRepository(db)

	authService := auth.NewService(userRepo, hasher, codec, logger, auth.Options{
		DefaultAvatar:         cfg.Auth.DefaultAvatar,
		MergeCredentialErrors: cfg.Auth.MergeCredentialErrors,
	})
	if redisClient != nil && cfg.Email.Enabled() {
		authService.WithConfirmation(
			auth.NewConfirmationRepository(redisClient, cfg.Auth.ConfirmationTTL),
			email.NewService(cfg.Email),
		)
		logger.Info("email confirmation enabled")
	}

	var rateLimiter *ratelimit.Limiter
	if redisClient != nil {
		rateLimiter = ratelimit.NewLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	authHandler := auth.NewHandler(authService, rateLimiter, logger)
	authMiddleware := auth.NewMiddleware(authService)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, db, logger)

	server := httpServer.NewServer(
		cfg.Server.Address(),
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
