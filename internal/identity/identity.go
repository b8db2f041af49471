// Package identity verifies caller identity tokens. Tokens are EdDSA-signed
// JWTs minted by the platform's account service; this package only verifies
// them, it never issues them.
package identity

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/frontline-gg/wagervault/internal/errors"
)

// RoleGameServer marks tokens minted for trusted match servers.
const RoleGameServer = "game_server"

// Identity is a verified caller.
type Identity struct {
	Account    string
	Role       string
	GameServer bool
	ExpiresAt  time.Time
}

// Verifier checks a bearer token and returns the verified identity.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// identityEnv holds raw env values before post-parse validation.
type identityEnv struct {
	Issuer    string `env:"WAGERVAULT_IDENTITY_ISSUER"`
	Audience  string `env:"WAGERVAULT_IDENTITY_AUDIENCE"`
	PublicKey string `env:"WAGERVAULT_IDENTITY_PUBLIC_KEY"`
}

// Config defines how identity tokens are verified.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// identityClaims is the internal claims type used for JWT parsing.
type identityClaims struct {
	jwt.RegisteredClaims
	Account string `json:"account"`
	Role    string `json:"role"`
}

// LoadConfigFromEnv reads identity verification configuration.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw identityEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse identity env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return Config{}, fmt.Errorf("WAGERVAULT_IDENTITY_ISSUER is required")
	}
	if audience == "" {
		return Config{}, fmt.Errorf("WAGERVAULT_IDENTITY_AUDIENCE is required")
	}
	if publicKey == "" {
		return Config{}, fmt.Errorf("WAGERVAULT_IDENTITY_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode identity public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return Config{}, fmt.Errorf("identity public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return Config{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// TokenVerifier verifies EdDSA identity tokens against a fixed config.
type TokenVerifier struct {
	cfg Config
}

// NewTokenVerifier returns a verifier for the given config.
func NewTokenVerifier(cfg Config) (*TokenVerifier, error) {
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return nil, errors.New("identity verifier is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenVerifier{cfg: cfg}, nil
}

// Verify checks the token signature, issuer, audience, and lifetime, and
// returns the embedded account identity.
func (v *TokenVerifier) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, apperrors.New(apperrors.CodeIdentityTokenInvalid, "identity token is required")
	}

	var parsed identityClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return v.cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Identity{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != v.cfg.Issuer {
		return Identity{}, apperrors.WithMetadata(
			apperrors.CodeIdentityTokenInvalid,
			"identity token issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if !audienceContains(parsed.Audience, v.cfg.Audience) {
		return Identity{}, apperrors.WithMetadata(
			apperrors.CodeIdentityTokenInvalid,
			"identity token audience mismatch",
			map[string]string{"Field": "audience"},
		)
	}
	if parsed.ExpiresAt == nil {
		return Identity{}, apperrors.New(apperrors.CodeIdentityTokenInvalid, "identity token exp is required")
	}

	now := v.cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Identity{}, apperrors.New(apperrors.CodeIdentityTokenInvalid, "identity token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Identity{}, apperrors.New(apperrors.CodeIdentityTokenInvalid, "identity token not active yet")
	}

	account := strings.TrimSpace(parsed.Account)
	if account == "" {
		account = strings.TrimSpace(parsed.Subject)
	}
	if account == "" {
		return Identity{}, apperrors.New(apperrors.CodeIdentityTokenInvalid, "identity token account is required")
	}

	return Identity{
		Account:    account,
		Role:       parsed.Role,
		GameServer: parsed.Role == RoleGameServer,
		ExpiresAt:  exp,
	}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeIdentityTokenInvalid, "identity token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeIdentityTokenInvalid, "identity token alg is invalid")
	}
	return apperrors.New(apperrors.CodeIdentityTokenInvalid, "identity token is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}

var _ Verifier = (*TokenVerifier)(nil)
