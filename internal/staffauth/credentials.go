package staffauth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login or PIN check.
var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash keeps the comparison cost constant for unknown identities.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// Credentials checks staff logins against bcrypt hashes from configuration.
type Credentials struct {
	email        string
	passwordHash []byte
	pins         map[string][]byte
}

// NewCredentials builds a checker for one login email and a set of staff
// PIN hashes keyed by staff id.
func NewCredentials(email, passwordHash string, pins map[string]string) *Credentials {
	c := &Credentials{
		email:        normalizeEmail(email),
		passwordHash: []byte(strings.TrimSpace(passwordHash)),
		pins:         make(map[string][]byte, len(pins)),
	}
	for id, hash := range pins {
		if id = strings.TrimSpace(id); id != "" && hash != "" {
			c.pins[id] = []byte(hash)
		}
	}
	return c
}

// LoginConfigured reports whether email/password login can succeed at all.
func (c *Credentials) LoginConfigured() bool {
	return c.email != "" && len(c.passwordHash) > 0
}

// Login verifies an email/password pair and returns the staff id, which is
// the normalized email.
func (c *Credentials) Login(email, password string) (string, error) {
	if !c.LoginConfigured() {
		return "", ErrNotConfigured
	}
	email = normalizeEmail(email)
	hash := c.passwordHash
	if email != c.email {
		hash = dummyHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || email != c.email {
		return "", ErrInvalidCredentials
	}
	return email, nil
}

// CheckPIN verifies an inline staff PIN and returns the trimmed staff id.
func (c *Credentials) CheckPIN(staffID, pin string) (string, error) {
	staffID = strings.TrimSpace(staffID)
	hash, ok := c.pins[staffID]
	if !ok {
		hash = dummyHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(pin)); err != nil || !ok {
		return "", ErrInvalidCredentials
	}
	return staffID, nil
}

// HashSecret returns a bcrypt hash suitable for STAFF_LOGIN_PASSWORD_HASH or
// a STAFF_PINS entry.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
