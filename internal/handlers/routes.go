// Package handlers exposes the price checker and POS handoff over HTTP.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/pos-handoff/internal/analytics"
	"github.com/imrishuroy/pos-handoff/internal/catalog"
	"github.com/imrishuroy/pos-handoff/internal/config"
	"github.com/imrishuroy/pos-handoff/internal/handoff"
	"github.com/imrishuroy/pos-handoff/internal/ratelimit"
	"github.com/imrishuroy/pos-handoff/internal/staffauth"
	"github.com/imrishuroy/pos-handoff/internal/validation"
)

// HandoffService is the lifecycle surface used by the handoff routes.
type HandoffService interface {
	Create(ctx context.Context, cmd handoff.CreateCommand) (*handoff.Record, error)
	Retrieve(ctx context.Context, code, storeID string) (*handoff.Record, error)
	Claim(ctx context.Context, cmd handoff.ClaimCommand) (*handoff.ClaimResult, error)
}

// Catalog looks up product pricing.
type Catalog interface {
	Lookup(ctx context.Context, kind catalog.LookupKind, value string) (*catalog.Product, error)
}

// HandlerConfig groups dependencies for the HTTP layer.
type HandlerConfig struct {
	Handoffs       HandoffService
	Enabled        bool
	PrimaryStoreID string
	ExpiryMinutes  int

	Signer       *staffauth.Signer
	Credentials  *staffauth.Credentials
	SecureCookie bool

	Catalog Catalog
	Events  analytics.Sink

	Limiter    ratelimit.Limiter
	RateLimits map[string]ratelimit.Limit
	Logger     *slog.Logger
}

type server struct {
	cfg      HandlerConfig
	validate *validatorv10.Validate
	logger   *slog.Logger
	nowFunc  func() time.Time
}

func (cfg HandlerConfig) limit(namespace string) ratelimit.Limit {
	if l, ok := cfg.RateLimits[namespace]; ok {
		return l
	}
	return config.DefaultRateLimits()[namespace]
}

// RegisterRoutes registers every API route on r.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewMemory()
	}
	if cfg.Signer == nil {
		cfg.Signer = staffauth.NewSigner(nil)
	}
	if cfg.Credentials == nil {
		cfg.Credentials = staffauth.NewCredentials("", "", nil)
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.NewShopify("", "", "")
	}
	if cfg.Events == nil {
		cfg.Events = analytics.NewLogSink(cfg.Logger)
	}
	s := &server{cfg: cfg, validate: validation.New(), logger: cfg.Logger, nowFunc: time.Now}
	limited := func(ns string) gin.HandlerFunc {
		return rateLimit(cfg.Limiter, ns, cfg.limit(ns), tooManyRequests)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := r.Group("/handoff")
	h.GET("/config", s.handoffConfig)
	h.POST("/create", requireEnabled(cfg.Enabled), limited(config.NamespaceCreate), s.createHandoff)
	h.GET("/retrieve", requireEnabled(cfg.Enabled), requireStaff(cfg.Signer), limited(config.NamespaceRetrieve), s.retrieveHandoff)
	h.POST("/claim", requireEnabled(cfg.Enabled), requireStaff(cfg.Signer), limited(config.NamespaceClaim), s.claimHandoff)
	h.OPTIONS("/claim-pos", posCORS(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	h.POST("/claim-pos", posCORS(), requireEnabled(cfg.Enabled), limited(config.NamespaceClaimPOS), s.claimHandoffPOS)

	staff := r.Group("/staff/auth")
	staff.POST("/login", rateLimit(cfg.Limiter, config.NamespaceStaffLogin, cfg.limit(config.NamespaceStaffLogin), tooManyLogins), s.login)
	staff.POST("/logout", s.logout)
	staff.GET("/session", s.session)

	r.GET("/price-checker", limited(config.NamespaceLookup), s.lookupPrice)
	r.POST("/analytics/track", limited(config.NamespaceTrack), s.track)
}
