// internal/pkg/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/undercontrol/storefront/internal/config"
)

const tokenTypeSession = "session"

// ErrInvalidToken is returned for any token that cannot identify a session
var ErrInvalidToken = errors.New("invalid session token")

// Claims identify an anonymous shopper session
type Claims struct {
	SessionID string `json:"sid"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// SessionTokens issues and verifies anonymous session tokens
type SessionTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionTokens creates a token manager from the session config
func NewSessionTokens(cfg *config.Config) *SessionTokens {
	ttl := cfg.Session.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &SessionTokens{
		secret: []byte(cfg.Session.Secret),
		issuer: cfg.App.Name,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is how long an issued token stays valid
func (j *SessionTokens) TTL() time.Duration {
	return j.ttl
}

// Issue starts a new session and returns its id and signed token
func (j *SessionTokens) Issue() (string, string, error) {
	sessionID := uuid.NewString()
	token, err := j.Sign(sessionID)
	if err != nil {
		return "", "", err
	}
	return sessionID, token, nil
}

// Sign creates a token for an existing session id
func (j *SessionTokens) Sign(sessionID string) (string, error) {
	now := j.now().UTC()

	claims := &Claims{
		SessionID: sessionID,
		TokenType: tokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.issuer,
			Subject:   "session:" + sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// Validate parses a token and returns its session id
func (j *SessionTokens) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer), jwt.WithTimeFunc(j.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.TokenType != tokenTypeSession {
		return "", fmt.Errorf("%w: unexpected token type %q", ErrInvalidToken, claims.TokenType)
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", fmt.Errorf("%w: malformed session id", ErrInvalidToken)
	}

	return claims.SessionID, nil
}

// ExtractTokenFromHeader extracts a token from an Authorization header
func ExtractTokenFromHeader(authHeader string) string {
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}
