package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/imrishuroy/pos-handoff/internal/analytics"
	"github.com/imrishuroy/pos-handoff/internal/aws"
	"github.com/imrishuroy/pos-handoff/internal/catalog"
	"github.com/imrishuroy/pos-handoff/internal/config"
	"github.com/imrishuroy/pos-handoff/internal/handlers"
	"github.com/imrishuroy/pos-handoff/internal/handoff"
	"github.com/imrishuroy/pos-handoff/internal/ratelimit"
	"github.com/imrishuroy/pos-handoff/internal/staffauth"
	"github.com/imrishuroy/pos-handoff/internal/store"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestLogger(cfg.Logger))
	handlers.RegisterRoutes(r, cfg)
	return r
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.LoadDotEnv(".env"); err != nil {
		fatal(logger, "load .env", err)
	}
	cfg, err := config.Load()
	if err != nil {
		fatal(logger, "load config", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(logger, "invalid config", err)
	}

	ctx := context.Background()
	var clients *aws.AWSClients
	if cfg.StoreBackend == config.BackendDynamoDB || cfg.AnalyticsURL != "" {
		clients, err = aws.NewAWSClients(ctx)
		if err != nil {
			fatal(logger, "init aws clients", err)
		}
	}

	st, closeStore, err := store.Open(ctx, cfg, clients)
	if err != nil {
		fatal(logger, "open handoff store", err)
	}
	defer closeStore()

	svc := handoff.NewService(st, handoff.Config{
		AllowedStoreIDs: cfg.AllowedStoreIDs,
		Expiry:          cfg.Expiry(),
	}, handoff.WithLogger(logger))

	var sink analytics.Sink = analytics.NewLogSink(logger)
	if cfg.AnalyticsURL != "" {
		sink = analytics.NewQueueSink(aws.NewPublisher(clients.SQS, cfg.AnalyticsURL))
	}

	r := setupRouter(handlers.HandlerConfig{
		Handoffs:       svc,
		Enabled:        cfg.HandoffEnabled,
		PrimaryStoreID: cfg.PrimaryStoreID(),
		ExpiryMinutes:  cfg.ExpiryMinutes,
		Signer:         staffauth.NewSigner(cfg.StaffAuthSecret),
		Credentials:    staffauth.NewCredentials(cfg.StaffLoginEmail, cfg.StaffPasswordHash, cfg.StaffPINs),
		SecureCookie:   !cfg.RunLocal,
		Catalog:        catalog.NewShopify(cfg.ShopifyShop, cfg.ShopifyToken, cfg.ShopifyAPIVer),
		Events:         sink,
		Limiter:        newLimiter(ctx, cfg, logger),
		RateLimits:     cfg.RateLimits,
		Logger:         logger,
	})

	logger.Info("starting api",
		"backend", cfg.StoreBackend,
		"handoff_enabled", cfg.HandoffEnabled,
		"stores", cfg.AllowedStoreIDs,
		"staff_auth", cfg.StaffAuthConfigured(),
	)

	if cfg.RunLocal {
		logger.Info("running local server", "addr", cfg.Address)
		if err := r.Run(cfg.Address); err != nil {
			fatal(logger, "run local server", err)
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}

// newLimiter shares counters through Redis when configured. The in-memory
// limiter is swept periodically so idle keys do not accumulate.
func newLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) ratelimit.Limiter {
	if cfg.RedisAddr != "" {
		logger.Info("using redis rate limiter", "addr", cfg.RedisAddr)
		return ratelimit.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), "ratelimit")
	}

	mem := ratelimit.NewMemory()
	var widest time.Duration
	for _, l := range cfg.RateLimits {
		widest = max(widest, l.Window)
	}
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := mem.Sweep(widest); n > 0 {
					logger.Debug("swept idle rate limit keys", "count", n)
				}
			}
		}
	}()
	return mem
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
