// Package staffauth authenticates store staff: stateless HMAC-signed session
// tokens for the register UI, bcrypt-checked email/password login, and
// inline PIN credentials for register integrations without a session.
package staffauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionDuration is how long an issued token stays valid.
const SessionDuration = 8 * time.Hour

// CookieName carries the session token for browser clients.
const CookieName = "cm_staff_session"

var (
	ErrNotConfigured = errors.New("staff auth is not configured")
	ErrInvalidToken  = errors.New("invalid session token")
	ErrExpiredToken  = errors.New("session token expired")
)

// Session is the verified content of a token.
type Session struct {
	StaffID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type payload struct {
	StaffID string `json:"staffId"`
	IAT     int64  `json:"iat"`
	EXP     int64  `json:"exp"`
}

// Signer issues and verifies session tokens under one secret.
type Signer struct {
	secret  []byte
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewSigner returns a Signer. An empty secret yields a Signer whose every
// operation fails with ErrNotConfigured.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, ttl: SessionDuration, nowFunc: time.Now}
}

// Configured reports whether a secret is present.
func (s *Signer) Configured() bool {
	return len(s.secret) > 0
}

// Issue mints a token for staffID.
func (s *Signer) Issue(staffID string) (string, Session, error) {
	if !s.Configured() {
		return "", Session{}, ErrNotConfigured
	}
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return "", Session{}, errors.New("staff id is required")
	}

	now := s.nowFunc().Unix()
	p := payload{StaffID: staffID, IAT: now, EXP: now + int64(s.ttl/time.Second)}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", Session{}, fmt.Errorf("marshal session: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(raw)
	return body + "." + s.sign(body), p.session(), nil
}

// Verify checks the signature and expiry of token.
func (s *Signer) Verify(token string) (Session, error) {
	if !s.Configured() {
		return Session{}, ErrNotConfigured
	}
	body, sig, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || body == "" || sig == "" {
		return Session{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(body))) {
		return Session{}, ErrInvalidToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil || p.StaffID == "" || p.EXP == 0 {
		return Session{}, ErrInvalidToken
	}
	if p.EXP < s.nowFunc().Unix() {
		return Session{}, ErrExpiredToken
	}
	return p.session(), nil
}

func (s *Signer) sign(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (p payload) session() Session {
	return Session{
		StaffID:   p.StaffID,
		IssuedAt:  time.Unix(p.IAT, 0).UTC(),
		ExpiresAt: time.Unix(p.EXP, 0).UTC(),
	}
}
