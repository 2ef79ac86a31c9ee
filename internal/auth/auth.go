// Package auth provides JWT-based authentication for the HTTP API.
//
// Tokens are signed with HMAC-SHA256 using a shared secret. When no
// secret is configured an ephemeral one is generated, which is fine for
// development but invalidates tokens on restart.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/seocho-ai/seocho/internal/policy"
)

// Claims carries the caller identity and role.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string      `json:"user_id"`
	Role        policy.Role `json:"role"`
	WorkspaceID string      `json:"workspace_id,omitempty"`
}

// JWTManager handles token creation and validation.
type JWTManager struct {
	secret     []byte
	expiration time.Duration
}

// NewJWTManager creates a manager. An empty secret generates an
// ephemeral one.
func NewJWTManager(secret string, expiration time.Duration) *JWTManager {
	if secret == "" {
		slog.Warn("auth: no JWT secret configured, generating an ephemeral one (not for production)")
		buf := make([]byte, 32)
		rand.Read(buf)
		secret = hex.EncodeToString(buf)
	}
	return &JWTManager{secret: []byte(secret), expiration: expiration}
}

// IssueToken creates a signed JWT for the given user and role.
func (m *JWTManager) IssueToken(userID string, role policy.Role, workspaceID string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(m.expiration)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "seocho",
			Audience:  jwt.ClaimStrings{"seocho"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID:      userID,
		Role:        role,
		WorkspaceID: workspaceID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return token, exp, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer("seocho"), jwt.WithAudience("seocho"))
	if err != nil {
		return nil, fmt.Errorf("auth: validate token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	return claims, nil
}
