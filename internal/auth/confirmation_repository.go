package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ConfirmationRepository handles email confirmation token storage in Redis
type ConfirmationRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewConfirmationRepository(client *redis.Client, ttl time.Duration) *ConfirmationRepository {
	return &ConfirmationRepository{
		client: client,
		ttl:    ttl,
	}
}

// StoreConfirmationToken stores a confirmation token for userID until the TTL elapses
func (r *ConfirmationRepository) StoreConfirmationToken(ctx context.Context, userID uuid.UUID, token string) error {
	key := confirmationKey(token)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, "user_id", userID.String())
	pipe.Expire(ctx, key, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store confirmation token: %w", err)
	}

	return nil
}

// GetConfirmationToken returns the user ID a confirmation token was issued for
func (r *ConfirmationRepository) GetConfirmationToken(ctx context.Context, token string) (uuid.UUID, error) {
	userIDStr, err := r.client.HGet(ctx, confirmationKey(token), "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrConfirmationTokenNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get confirmation token: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse user ID: %w", err)
	}

	return userID, nil
}

// DeleteConfirmationToken removes a used confirmation token
func (r *ConfirmationRepository) DeleteConfirmationToken(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, confirmationKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete confirmation token: %w", err)
	}
	return nil
}

// confirmationKey hashes the token so raw tokens never sit in Redis
func confirmationKey(token string) string {
	return fmt.Sprintf("email_confirmation:%s", hashToken(token))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
