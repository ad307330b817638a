// Package config resolves every runtime setting once at startup and exposes
// them as typed values. Components receive the parts they need explicitly
// instead of reading the environment themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/imrishuroy/pos-handoff/internal/ratelimit"
)

// Store backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Rate limit namespaces shared by the HTTP layer.
const (
	NamespaceCreate     = "pos-handoff-create"
	NamespaceClaim      = "pos-handoff-claim"
	NamespaceClaimPOS   = "pos-handoff-claim-pos"
	NamespaceRetrieve   = "pos-handoff-retrieve"
	NamespaceLookup     = "price-checker-lookup"
	NamespaceTrack      = "analytics-track"
	NamespaceStaffLogin = "staff-auth-login"
)

const (
	defaultAddress       = ":8080"
	defaultStoreID       = "riverside"
	defaultExpiryMinutes = 60
	defaultBackend       = BackendSQLite
	defaultSQLitePath    = "handoff.db"
	defaultHandoffTable  = "pos_handoffs"
	defaultCodesTable    = "pos_handoff_codes"
	defaultEventsTable   = "price_checker_events"
	defaultShopifyAPI    = "2024-10"
	defaultMetricsNS     = "PriceChecker"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	Address  string
	RunLocal bool

	HandoffEnabled  bool
	AllowedStoreIDs []string
	ExpiryMinutes   int

	StaffAuthSecret   []byte
	StaffLoginEmail   string
	StaffPasswordHash string
	StaffPINs         map[string]string

	StoreBackend  string
	HandoffTable  string
	CodesTable    string
	DatabaseURL   string
	SQLitePath    string
	EventsTable   string
	AnalyticsURL  string
	MetricsNS     string
	RedisAddr     string
	RateLimits    map[string]ratelimit.Limit
	ShopifyShop   string
	ShopifyToken  string
	ShopifyAPIVer string
}

// DefaultRateLimits are the per-namespace thresholds used unless overridden
// with RATE_LIMIT_<NAMESPACE>=max/window.
func DefaultRateLimits() map[string]ratelimit.Limit {
	minute := time.Minute
	return map[string]ratelimit.Limit{
		NamespaceCreate:     {MaxRequests: 20, Window: minute},
		NamespaceClaim:      {MaxRequests: 60, Window: minute},
		NamespaceClaimPOS:   {MaxRequests: 60, Window: minute},
		NamespaceRetrieve:   {MaxRequests: 60, Window: minute},
		NamespaceLookup:     {MaxRequests: 30, Window: minute},
		NamespaceTrack:      {MaxRequests: 60, Window: minute},
		NamespaceStaffLogin: {MaxRequests: 20, Window: minute},
	}
}

// LoadDotEnv seeds the environment from a dotenv file when it exists.
// Variables already present in the environment are left alone.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from the environment, falling back to defaults
// for missing or malformed values.
func Load() (*Config, error) {
	cfg := &Config{
		Address:  readEnv("ADDR", defaultAddress),
		RunLocal: readFlag("RUN_LOCAL", false),

		HandoffEnabled:  readFlag("POS_HANDOFF_ENABLED", false),
		AllowedStoreIDs: parseStoreIDs(readEnv("POS_HANDOFF_ALLOWED_STORE_ID", defaultStoreID)),
		ExpiryMinutes:   parsePositiveInt("POS_HANDOFF_EXPIRY_MINUTES", defaultExpiryMinutes),

		StaffAuthSecret:   []byte(strings.TrimSpace(os.Getenv("STAFF_AUTH_SECRET"))),
		StaffLoginEmail:   strings.ToLower(strings.TrimSpace(os.Getenv("STAFF_LOGIN_EMAIL"))),
		StaffPasswordHash: strings.TrimSpace(os.Getenv("STAFF_LOGIN_PASSWORD_HASH")),

		StoreBackend:  strings.ToLower(readEnv("HANDOFF_STORE", defaultBackend)),
		HandoffTable:  readEnv("HANDOFF_TABLE", defaultHandoffTable),
		CodesTable:    readEnv("HANDOFF_CODES_TABLE", defaultCodesTable),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    readEnv("SQLITE_PATH", defaultSQLitePath),
		EventsTable:   readEnv("ANALYTICS_TABLE", defaultEventsTable),
		AnalyticsURL:  os.Getenv("ANALYTICS_QUEUE_URL"),
		MetricsNS:     readEnv("METRICS_NAMESPACE", defaultMetricsNS),
		RedisAddr:     os.Getenv("RATE_LIMIT_REDIS_ADDR"),
		ShopifyShop:   os.Getenv("SHOPIFY_SHOP"),
		ShopifyToken:  os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		ShopifyAPIVer: readEnv("SHOPIFY_API_VERSION", defaultShopifyAPI),
	}

	pins, err := ParseStaffPINs(os.Getenv("STAFF_PINS"))
	if err != nil {
		return nil, err
	}
	cfg.StaffPINs = pins

	cfg.RateLimits = DefaultRateLimits()
	for ns := range cfg.RateLimits {
		key := "RATE_LIMIT_" + envSuffix(ns)
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		limit, err := ParseLimit(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		cfg.RateLimits[ns] = limit
	}

	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendDynamoDB:
		if c.HandoffTable == "" || c.CodesTable == "" {
			errs = append(errs, errors.New("dynamodb backend needs HANDOFF_TABLE and HANDOFF_CODES_TABLE"))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("postgres backend needs DATABASE_URL"))
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite backend needs SQLITE_PATH"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown HANDOFF_STORE %q", c.StoreBackend))
	}
	if len(c.AllowedStoreIDs) == 0 {
		errs = append(errs, errors.New("POS_HANDOFF_ALLOWED_STORE_ID is empty"))
	}
	return errors.Join(errs...)
}

// Expiry is the handoff lifetime.
func (c *Config) Expiry() time.Duration {
	return time.Duration(c.ExpiryMinutes) * time.Minute
}

// PrimaryStoreID is the store reported to kiosks by the config endpoint.
func (c *Config) PrimaryStoreID() string {
	if len(c.AllowedStoreIDs) == 0 {
		return ""
	}
	return c.AllowedStoreIDs[0]
}

// StaffAuthConfigured reports whether session login can work at all.
func (c *Config) StaffAuthConfigured() bool {
	return len(c.StaffAuthSecret) > 0 && c.StaffLoginEmail != "" && c.StaffPasswordHash != ""
}

// Limit returns the limit for namespace, falling back to the defaults.
func (c *Config) Limit(namespace string) ratelimit.Limit {
	if l, ok := c.RateLimits[namespace]; ok {
		return l
	}
	return DefaultRateLimits()[namespace]
}

// ParseLimit parses "max/window", e.g. "20/60s" or "30/1m".
func ParseLimit(raw string) (ratelimit.Limit, error) {
	maxPart, windowPart, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok {
		return ratelimit.Limit{}, fmt.Errorf("rate limit %q: want max/window", raw)
	}
	maxRequests, err := strconv.Atoi(strings.TrimSpace(maxPart))
	if err != nil || maxRequests <= 0 {
		return ratelimit.Limit{}, fmt.Errorf("rate limit %q: bad max", raw)
	}
	window, err := time.ParseDuration(strings.TrimSpace(windowPart))
	if err != nil || window <= 0 {
		return ratelimit.Limit{}, fmt.Errorf("rate limit %q: bad window", raw)
	}
	return ratelimit.Limit{MaxRequests: maxRequests, Window: window}, nil
}

// ParseStaffPINs parses "staffId:bcryptHash,staffId:bcryptHash".
func ParseStaffPINs(raw string) (map[string]string, error) {
	out := map[string]string{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, hash, ok := strings.Cut(entry, ":")
		id, hash = strings.TrimSpace(id), strings.TrimSpace(hash)
		if !ok || id == "" || hash == "" {
			return nil, fmt.Errorf("STAFF_PINS: malformed entry %q", entry)
		}
		out[id] = hash
	}
	return out, nil
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func readFlag(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func parsePositiveInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func parseStoreIDs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.ToLower(strings.TrimSpace(part))
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// envSuffix turns "pos-handoff-claim-pos" into "POS_HANDOFF_CLAIM_POS".
func envSuffix(namespace string) string {
	return strings.ToUpper(strings.ReplaceAll(namespace, "-", "_"))
}
