// Package handoff implements the lifecycle of a POS handoff: a customer's
// scanned item list redeemable once at a register through a short code.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/imrishuroy/pos-handoff/internal/codegen"
)

// DefaultMaxCodeAttempts bounds insert retries on code collisions.
const DefaultMaxCodeAttempts = 5

// Config is the lifecycle policy.
type Config struct {
	AllowedStoreIDs []string
	Expiry          time.Duration
	CodeLength      int
	MaxCodeAttempts int
}

// Service orchestrates create, retrieve and claim transitions.
type Service struct {
	store   Store
	cfg     Config
	logger  *slog.Logger
	newCode func() string
	newID   func() string
	nowFunc func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(fn func() string) Option {
	return func(s *Service) { s.newCode = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.nowFunc = fn }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService returns a Service over store.
func NewService(store Store, cfg Config, opts ...Option) *Service {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = codegen.DefaultLength
	}
	if cfg.MaxCodeAttempts <= 0 {
		cfg.MaxCodeAttempts = DefaultMaxCodeAttempts
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 60 * time.Minute
	}
	normalized := make([]string, 0, len(cfg.AllowedStoreIDs))
	for _, id := range cfg.AllowedStoreIDs {
		if id = NormalizeStoreID(id); id != "" {
			normalized = append(normalized, id)
		}
	}
	cfg.AllowedStoreIDs = normalized

	s := &Service{
		store:   store,
		cfg:     cfg,
		logger:  slog.Default(),
		newID:   uuid.NewString,
		nowFunc: time.Now,
	}
	s.newCode = func() string { return codegen.Generate(s.cfg.CodeLength) }
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective lifecycle policy.
func (s *Service) Config() Config {
	return s.cfg
}

func (s *Service) checkStore(storeID string) (string, error) {
	id := NormalizeStoreID(storeID)
	if id == "" || !slices.Contains(s.cfg.AllowedStoreIDs, id) {
		return "", ErrStoreNotAllowed
	}
	return id, nil
}

// Create validates the command and inserts a new open handoff under a fresh
// code, retrying on code collisions.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Record, error) {
	storeID, err := s.checkStore(cmd.StoreID)
	if err != nil {
		return nil, err
	}
	items := SanitizeItems(cmd.Items)
	if len(items) == 0 {
		return nil, ErrInvalidItems
	}

	now := s.nowFunc().UTC()
	rec := &Record{
		ID:                s.newID(),
		StoreID:           storeID,
		Status:            StatusOpen,
		Items:             items,
		CustomerSessionID: cmd.SessionID,
		Source:            SourcePriceChecker,
		ExpiresAt:         now.Add(s.cfg.Expiry),
		CreatedAt:         now,
	}

	for attempt := 1; attempt <= s.cfg.MaxCodeAttempts; attempt++ {
		rec.Code = s.newCode()
		err := s.store.Insert(ctx, rec)
		if err == nil {
			s.logger.Info("handoff created", "id", rec.ID, "store", storeID, "items", len(items), "attempt", attempt)
			return rec, nil
		}
		if !errors.Is(err, ErrDuplicateCode) {
			return nil, fmt.Errorf("insert handoff: %w", err)
		}
		s.logger.Debug("handoff code collision", "attempt", attempt)
	}
	return nil, ErrCodeExhausted
}

// Retrieve returns the handoff for code in storeID with its effective
// status. It never writes.
func (s *Service) Retrieve(ctx context.Context, code, storeID string) (*Record, error) {
	storeID, err := s.checkStore(storeID)
	if err != nil {
		return nil, err
	}
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	rec, err := s.store.FindByCodeAndStore(ctx, code, storeID)
	if err != nil {
		return nil, s.lookupErr(err)
	}
	rec.Status = rec.EffectiveStatus(s.nowFunc())
	return rec, nil
}

// Claim moves an open handoff to claimed for cmd.StaffID. A repeated claim
// by the staff member who already holds the handoff succeeds with Retry set.
func (s *Service) Claim(ctx context.Context, cmd ClaimCommand) (*ClaimResult, error) {
	storeID, err := s.checkStore(cmd.StoreID)
	if err != nil {
		return nil, err
	}
	code := NormalizeCode(cmd.Code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	rec, err := s.store.FindByCodeAndStore(ctx, code, storeID)
	if err != nil {
		return nil, s.lookupErr(err)
	}

	switch rec.Status {
	case StatusOpen:
	case StatusClaimed:
		if rec.ClaimedByStaffID != "" && rec.ClaimedByStaffID == cmd.StaffID {
			return &ClaimResult{Record: rec, Retry: true}, nil
		}
		return nil, ErrAlreadyClaimed
	default:
		return nil, &StateError{Status: rec.Status}
	}

	now := s.nowFunc().UTC()
	if rec.Expired(now) {
		// Best effort: a concurrent caller may already have moved it.
		if _, err := s.store.ConditionalUpdate(ctx, rec.ID, StatusOpen, Patch{Status: StatusExpired}); err != nil && !errors.Is(err, ErrNoMatch) {
			s.logger.Warn("mark handoff expired failed", "id", rec.ID, "error", err)
		}
		return nil, ErrExpired
	}

	updated, err := s.store.ConditionalUpdate(ctx, rec.ID, StatusOpen, Patch{
		Status:           StatusClaimed,
		ClaimedAt:        &now,
		ClaimedByStaffID: cmd.StaffID,
	})
	if errors.Is(err, ErrNoMatch) {
		s.logger.Info("handoff claim lost race", "id", rec.ID, "staff", cmd.StaffID)
		// The winner may be the same staff member double-submitting.
		if cur, ferr := s.store.FindByCodeAndStore(ctx, code, storeID); ferr == nil &&
			cur.Status == StatusClaimed && cur.ClaimedByStaffID == cmd.StaffID {
			return &ClaimResult{Record: cur, Retry: true}, nil
		}
		return nil, ErrAlreadyClaimed
	}
	if err != nil {
		return nil, fmt.Errorf("claim handoff: %w", err)
	}
	s.logger.Info("handoff claimed", "id", updated.ID, "staff", cmd.StaffID)
	return &ClaimResult{Record: updated}, nil
}

func (s *Service) lookupErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("find handoff: %w", err)
}
