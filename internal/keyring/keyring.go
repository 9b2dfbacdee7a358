// Package keyring signs and verifies attestation payloads. The default
// implementation wraps payloads in HS256 JWTs; projects that supply their own
// key material get their own service instance, so the engine never needs to
// know which key signed what.
package keyring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/attestra/formtrail/internal/models"
)

// ErrInvalidToken is returned by Verify for tokens that do not parse or
// whose signature does not match.
var ErrInvalidToken = errors.New("keyring: invalid token")

// KeyService signs a payload into an opaque token and recovers the payload
// from a token. Implementations vary per project but are interchangeable.
type KeyService interface {
	Sign(ctx context.Context, payload map[string]any) (string, error)
	Verify(ctx context.Context, token string) (map[string]any, error)
}

// HMACKeyService is the default KeyService: payloads ride in the "payload"
// claim of an HS256 JWT.
type HMACKeyService struct {
	secret []byte
}

func NewHMAC(secret string) *HMACKeyService {
	return &HMACKeyService{secret: []byte(secret)}
}

func (s *HMACKeyService) Sign(ctx context.Context, payload map[string]any) (string, error) {
	claims := jwt.MapClaims{
		"payload": payload,
		"iat":     jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("keyring: sign: %w", err)
	}
	return signed, nil
}

func (s *HMACKeyService) Verify(ctx context.Context, tokenStr string) (map[string]any, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	payload, _ := claims["payload"].(map[string]any)
	return payload, nil
}

// Ring resolves the KeyService for a project: the project's own key material
// when present, the service default otherwise.
type Ring struct {
	fallback KeyService
}

func NewRing(defaultSecret string) *Ring {
	return &Ring{fallback: NewHMAC(defaultSecret)}
}

func (r *Ring) For(project *models.Project) KeyService {
	if project != nil && project.Settings.SigningKey != "" {
		return NewHMAC(project.Settings.SigningKey)
	}
	return r.fallback
}
