// Package redis provides Redis-backed stores for local sessions and CAS
// assertions. Records are JSON-marshalled with TTLs derived from their
// expiry timestamps.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/auth"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	"github.com/redis/go-redis/v9"
)

// SessionStore persists local user sessions.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client, prefix: "session:"}
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	return saveJSON(ctx, s.client, s.prefix+sess.ID, sess, sess.ExpiresAt)
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, apperrors.NotFound("session not found")
	}
	var sess domainauth.Session
	if err := getJSON(ctx, s.client, s.prefix+id, &sess); err != nil {
		return domainauth.Session{}, err
	}
	// Redis TTL should have evicted expired records; be defensive anyway.
	if time.Now().After(sess.ExpiresAt) {
		if err := s.Delete(ctx, id); err != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", err)
		}
		return domainauth.Session{}, apperrors.NotFound("session not found")
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}

// AssertionStore persists verified CAS assertions between the validation
// callback and subsequent requests.
type AssertionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewAssertionStore creates a Redis-backed assertion store.
func NewAssertionStore(client redis.UniversalClient) *AssertionStore {
	return &AssertionStore{client: client, prefix: "cas_assertion:"}
}

func (s *AssertionStore) Save(ctx context.Context, a domainauth.Assertion) error {
	if a.ID == "" {
		return errors.New("assertion ID cannot be empty")
	}
	return saveJSON(ctx, s.client, s.prefix+a.ID, a, a.ExpiresAt)
}

func (s *AssertionStore) Get(ctx context.Context, id string) (domainauth.Assertion, error) {
	if id == "" {
		return domainauth.Assertion{}, apperrors.NotFound("assertion not found")
	}
	var a domainauth.Assertion
	if err := getJSON(ctx, s.client, s.prefix+id, &a); err != nil {
		return domainauth.Assertion{}, err
	}
	if time.Now().After(a.ExpiresAt) {
		if err := s.Delete(ctx, id); err != nil {
			return domainauth.Assertion{}, fmt.Errorf("cleanup expired assertion: %w", err)
		}
		return domainauth.Assertion{}, apperrors.NotFound("assertion not found")
	}
	return a, nil
}

func (s *AssertionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}

func saveJSON(ctx context.Context, client redis.UniversalClient, key string, v any, expiresAt time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return errors.New("record is already expired")
	}
	return client.Set(ctx, key, data, ttl).Err()
}

func getJSON(ctx context.Context, client redis.UniversalClient, key string, dst any) error {
	data, err := client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.NotFound("record not found")
		}
		return fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	return nil
}
