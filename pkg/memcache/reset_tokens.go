package mem

import (
	"context"
	"time"
)

const resetKeyPrefix = "password_reset:"

type ResetTokenStore interface {
	Set(ctx context.Context, token, userID string, ttl time.Duration) error

	// Consume returns the user id for token if not expired and removes the token
	// (single-use). Returns "" if missing or expired.
	Consume(ctx context.Context, token string) (string, error)
}

// ResetTokens keeps password reset tokens in the shared Store, so a token issued
// by one replica can be redeemed on another when the Store is Redis.
type ResetTokens struct {
	store Store
}

func NewResetTokens(store Store) *ResetTokens {
	return &ResetTokens{store: store}
}

func (r *ResetTokens) Set(ctx context.Context, token, userID string, ttl time.Duration) error {
	return r.store.Set(ctx, resetKeyPrefix+token, []byte(userID), ttl)
}

func (r *ResetTokens) Consume(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	v, ok, err := r.store.Take(ctx, resetKeyPrefix+token)
	if err != nil || !ok {
		return "", err
	}
	return string(v), nil
}
