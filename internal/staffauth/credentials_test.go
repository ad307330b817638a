package staffauth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func mustHash(t *testing.T, secret string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hash)
}

func TestLogin(t *testing.T) {
	c := NewCredentials(" Staff@Example.com ", mustHash(t, "hunter2"), nil)

	id, err := c.Login("STAFF@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if id != "staff@example.com" {
		t.Fatalf("staff id = %q", id)
	}
	if _, err := c.Login("staff@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := c.Login("other@example.com", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong email: %v", err)
	}
}

func TestLoginNotConfigured(t *testing.T) {
	c := NewCredentials("", "", nil)
	if c.LoginConfigured() {
		t.Fatal("expected login unconfigured")
	}
	if _, err := c.Login("a@b.c", "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCheckPIN(t *testing.T) {
	c := NewCredentials("", "", map[string]string{"S-100": mustHash(t, "4321")})

	id, err := c.CheckPIN(" S-100 ", "4321")
	if err != nil || id != "S-100" {
		t.Fatalf("CheckPIN = %q, %v", id, err)
	}
	if _, err := c.CheckPIN("S-100", "0000"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong pin: %v", err)
	}
	if _, err := c.CheckPIN("S-200", "4321"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown staff: %v", err)
	}
}

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("1234")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("1234")) != nil {
		t.Fatal("hash does not verify")
	}
}
