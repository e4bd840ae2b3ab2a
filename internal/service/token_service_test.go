package service

import (
	"errors"
	"testing"
	"time"

	"quickchat/internal/domain"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		Issuer:     "quickchat",
		Audience:   "quickchat-client",
		AccessTTL:  time.Hour,
		SigningKey: []byte("unit-test-secret"),
	}
}

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenServiceHS256(testTokenConfig())

	token, err := ts.Issue("65f000000000000000000001")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}
	sub, err := ts.Verify(token)
	if err != nil {
		t.Fatalf("verify returned error: %v", err)
	}
	if sub != "65f000000000000000000001" {
		t.Fatalf("unexpected subject %q", sub)
	}
}

func TestTokenWrongKeyRejected(t *testing.T) {
	issuer := NewTokenServiceHS256(testTokenConfig())
	token, err := issuer.Issue("65f000000000000000000001")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	cfg := testTokenConfig()
	cfg.SigningKey = []byte("a-different-secret")
	verifier := NewTokenServiceHS256(cfg)

	if _, err := verifier.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenExpiryRejected(t *testing.T) {
	ts := NewTokenServiceHS256(testTokenConfig())

	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return issuedAt }
	token, err := ts.Issue("65f000000000000000000001")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	ts.now = func() time.Time { return issuedAt.Add(30 * time.Minute) }
	if _, err := ts.Verify(token); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}

	ts.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	if _, err := ts.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestTokenIssuerAndAudienceChecked(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*TokenConfig)
	}{
		{name: "wrong issuer", mutate: func(c *TokenConfig) { c.Issuer = "someone-else" }},
		{name: "wrong audience", mutate: func(c *TokenConfig) { c.Audience = "other-client" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testTokenConfig()
			tc.mutate(&cfg)
			issuer := NewTokenServiceHS256(cfg)
			token, err := issuer.Issue("65f000000000000000000001")
			if err != nil {
				t.Fatalf("issue returned error: %v", err)
			}
			verifier := NewTokenServiceHS256(testTokenConfig())
			if _, err := verifier.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenGarbageRejected(t *testing.T) {
	ts := NewTokenServiceHS256(testTokenConfig())
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := ts.Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", tok, err)
		}
	}
}
