// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/paperchat/internal/platform/apperr"
	"github.com/taibuivan/paperchat/internal/platform/constants"
)

// # OAuth State Repository

// RedisStateRepository implements StateRepository using Redis.
//
// State nonces are transient CSRF markers with a hard TTL, which makes Redis
// the natural home: they never need to survive a restart and must expire on
// their own.
type RedisStateRepository struct {
	client *redis.Client
}

// NewStateRepository creates a new Redis-backed StateRepository.
func NewStateRepository(client *redis.Client) *RedisStateRepository {
	return &RedisStateRepository{client: client}
}

/*
Set stores a state nonce tagged with its provider and TTL.

Parameters:
  - context: context.Context
  - state: string
  - provider: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisStateRepository) Set(context context.Context, state string, provider string, ttl time.Duration) error {

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixOAuthState, state)

	// Set the nonce with TTL
	if err := repository.client.Set(context, key, provider, ttl).Err(); err != nil {
		return fmt.Errorf("redis_oauth_state_set_failed: %w", err)
	}

	// Return nil on success
	return nil
}

/*
Consume retrieves and deletes the provider tagged to a state nonce.

Description: GETDEL gives single-use semantics atomically; an unknown or
expired state returns apperr.Unauthorized.

Parameters:
  - context: context.Context
  - state: string

Returns:
  - string: Provider name
  - error: apperr.Unauthorized or connectivity errors
*/
func (repository *RedisStateRepository) Consume(context context.Context, state string) (string, error) {

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixOAuthState, state)

	// Atomically fetch and delete the nonce
	provider, err := repository.client.GetDel(context, key).Result()

	// Handle errors
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.Unauthorized("OAuth state is invalid or expired")
		}
		return "", fmt.Errorf("redis_oauth_state_consume_failed: %w", err)
	}

	// Return the provider name
	return provider, nil
}
