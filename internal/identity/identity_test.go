package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/frontline-gg/wagervault/internal/errors"
)

const (
	testIssuer   = "https://accounts.frontline.gg"
	testAudience = "wagervault"
)

func testNow() time.Time {
	return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}

type tokenParams struct {
	issuer   string
	audience string
	account  string
	role     string
	expires  time.Time
}

func signToken(t *testing.T, key ed25519.PrivateKey, p tokenParams) string {
	t.Helper()
	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			ExpiresAt: jwt.NewNumericDate(p.expires),
			IssuedAt:  jwt.NewNumericDate(testNow()),
		},
		Account: p.account,
		Role:    p.role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newTestVerifier(t *testing.T) (*TokenVerifier, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	verifier, err := NewTokenVerifier(Config{
		Issuer:   testIssuer,
		Audience: testAudience,
		Key:      pub,
		Now:      testNow,
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return verifier, priv
}

func TestVerify(t *testing.T) {
	verifier, priv := newTestVerifier(t)

	token := signToken(t, priv, tokenParams{
		issuer:   testIssuer,
		audience: testAudience,
		account:  "player-1",
		role:     "player",
		expires:  testNow().Add(time.Hour),
	})

	id, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Account != "player-1" {
		t.Fatalf("account = %s, want player-1", id.Account)
	}
	if id.GameServer {
		t.Fatal("player token flagged as game server")
	}
}

func TestVerifyGameServerRole(t *testing.T) {
	verifier, priv := newTestVerifier(t)

	token := signToken(t, priv, tokenParams{
		issuer:   testIssuer,
		audience: testAudience,
		account:  "server-1",
		role:     RoleGameServer,
		expires:  testNow().Add(time.Hour),
	})

	id, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !id.GameServer {
		t.Fatal("game server token not flagged")
	}
}

func TestVerifyRejections(t *testing.T) {
	verifier, priv := newTestVerifier(t)
	_, wrongPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong key", signToken(t, wrongPriv, tokenParams{
			issuer: testIssuer, audience: testAudience, account: "p1", expires: testNow().Add(time.Hour),
		})},
		{"wrong issuer", signToken(t, priv, tokenParams{
			issuer: "https://elsewhere", audience: testAudience, account: "p1", expires: testNow().Add(time.Hour),
		})},
		{"wrong audience", signToken(t, priv, tokenParams{
			issuer: testIssuer, audience: "other-service", account: "p1", expires: testNow().Add(time.Hour),
		})},
		{"expired", signToken(t, priv, tokenParams{
			issuer: testIssuer, audience: testAudience, account: "p1", expires: testNow().Add(-time.Minute),
		})},
		{"no account", signToken(t, priv, tokenParams{
			issuer: testIssuer, audience: testAudience, expires: testNow().Add(time.Hour),
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := verifier.Verify(tc.token)
			if !apperrors.IsCode(err, apperrors.CodeIdentityTokenInvalid) {
				t.Fatalf("expected %s, got %v", apperrors.CodeIdentityTokenInvalid, err)
			}
		})
	}
}

func TestVerifyFallsBackToSubject(t *testing.T) {
	verifier, priv := newTestVerifier(t)

	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "player-9",
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(testNow().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	id, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Account != "player-9" {
		t.Fatalf("account = %s, want player-9", id.Account)
	}
}

func TestNewTokenVerifierRequiresConfig(t *testing.T) {
	if _, err := NewTokenVerifier(Config{}); err == nil {
		t.Fatal("expected error for empty config")
	}
}
