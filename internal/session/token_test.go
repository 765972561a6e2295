package session

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	signer, err := NewSigner("test-secret-key-for-sessions", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	token, err := signer.Issue("0192f0c8-7b5e-7c3a-9b1d-4f2e8a6c0d11")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id != "0192f0c8-7b5e-7c3a-9b1d-4f2e8a6c0d11" {
		t.Errorf("session id = %q", id)
	}
}

func TestTokenExpired(t *testing.T) {
	signer, _ := NewSigner("secret", -time.Hour)
	token, err := signer.Issue("abc")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got %v, want ErrInvalidToken", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	a, _ := NewSigner("secret-a", time.Hour)
	b, _ := NewSigner("secret-b", time.Hour)

	token, _ := a.Issue("abc")
	if _, err := b.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign token: got %v, want ErrInvalidToken", err)
	}
	if _, err := a.Verify("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: got %v, want ErrInvalidToken", err)
	}
}

func TestRandomSecretWhenEmpty(t *testing.T) {
	a, err := NewSigner("", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewSigner("", time.Hour)

	token, _ := a.Issue("abc")
	if _, err := a.Verify(token); err != nil {
		t.Errorf("own token should verify: %v", err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Error("two random secrets should differ")
	}
}
