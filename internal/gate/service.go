package gate

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"memowriter/internal/redis"
)

// TokenStore persists issued gate tokens. The redis wrapper satisfies it;
// tests substitute an in-memory map.
type TokenStore interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

const tokenKeyPrefix = "gate:token:"

// Service guards the tool behind a single pre-configured access code.
// An empty access code disables the gate entirely.
type Service struct {
	accessCode string
	store      TokenStore
	tokenTTL   time.Duration
	headerName string
}

// NewService constructs the gate with the supplied token lifetime.
func NewService(accessCode string, store TokenStore, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		accessCode: accessCode,
		store:      store,
		tokenTTL:   ttl,
		headerName: "Authorization",
	}
}

// Enabled reports whether an access code is configured.
func (s *Service) Enabled() bool {
	return s.accessCode != ""
}

// Authenticate compares the submitted code against the configured secret
// and mints a bearer token on match.
func (s *Service) Authenticate(ctx context.Context, code string) (string, error) {
	if !s.Enabled() {
		return "", errors.New("gate is not enabled")
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(s.accessCode)) != 1 {
		return "", errors.New("invalid access code")
	}
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, tokenKeyPrefix+token, time.Now().UTC().Format(time.RFC3339), s.tokenTTL); err != nil {
		return "", fmt.Errorf("store gate token: %w", err)
	}
	return token, nil
}

// ValidateToken verifies the token was issued and has not expired.
func (s *Service) ValidateToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token required")
	}
	_, err := s.store.Get(ctx, tokenKeyPrefix+token)
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return errors.New("invalid token")
		}
		return fmt.Errorf("lookup gate token: %w", err)
	}
	return nil
}

// RevokeToken deletes a single token.
func (s *Service) RevokeToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Del(ctx, tokenKeyPrefix+token); err != nil {
		return fmt.Errorf("revoke gate token: %w", err)
	}
	return nil
}

// TokenTTL reports the configured token lifetime.
func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
