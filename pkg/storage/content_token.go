package storage

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContentTokenSigner mints and validates short-lived tokens that authorise
// downloading one stored content blob.
type ContentTokenSigner struct {
	secret []byte
	ttl    time.Duration
}

type contentClaims struct {
	ContentRef string `json:"ref"`
	jwt.RegisteredClaims
}

// NewContentTokenSigner constructs a signer with the provided secret and TTL.
func NewContentTokenSigner(secret string, ttl time.Duration) *ContentTokenSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ContentTokenSigner{secret: []byte(secret), ttl: ttl}
}

// Generate returns a signed token for the page id and its content reference.
func (s *ContentTokenSigner) Generate(pageID int64, contentRef string) (string, time.Time, error) {
	if pageID <= 0 || contentRef == "" {
		return "", time.Time{}, fmt.Errorf("pageID and contentRef required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	claims := contentClaims{
		ContentRef: contentRef,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", pageID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign content token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse validates a token and returns the page id and content reference.
func (s *ContentTokenSigner) Parse(token string) (pageID string, contentRef string, err error) {
	claims := &contentClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("parse content token: %w", err)
	}
	if !parsed.Valid {
		return "", "", fmt.Errorf("invalid content token")
	}
	return claims.Subject, claims.ContentRef, nil
}
