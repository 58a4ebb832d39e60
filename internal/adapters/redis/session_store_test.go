package redis

import (
	"context"
	"testing"
	"time"

	domainauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/auth"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := domainauth.Session{
		ID:        "test-session-1",
		AccountID: 42,
		Login:     "jdoe",
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jdoe@ua.edu",
		Role:      domainauth.RoleSubscriber,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}

	err := store.Save(ctx, session)
	require.NoError(t, err)

	retrieved, err := store.Get(ctx, "test-session-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, session.AccountID, retrieved.AccountID)
	assert.Equal(t, session.Login, retrieved.Login)
	assert.Equal(t, session.Email, retrieved.Email)
	assert.Equal(t, session.Role, retrieved.Role)
	assert.WithinDuration(t, session.ExpiresAt, retrieved.ExpiresAt, time.Second)
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), "non-existent")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionStore_SaveRejectsEmptyID(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	err := store.Save(context.Background(), domainauth.Session{ExpiresAt: time.Now().Add(time.Hour)})
	assert.Error(t, err)
}

func TestSessionStore_SaveRejectsExpired(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	err := store.Save(context.Background(), domainauth.Session{
		ID:        "already-expired",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	assert.Error(t, err)
}

func TestSessionStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := domainauth.Session{
		ID:        "to-delete",
		Login:     "jdoe",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, session))

	require.NoError(t, store.Delete(ctx, "to-delete"))

	_, err := store.Get(ctx, "to-delete")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAssertionStore_SaveAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewAssertionStore(client)
	ctx := context.Background()

	assertion := domainauth.Assertion{
		ID:       "test-assertion-1",
		Username: "jdoe",
		Attributes: map[string]string{
			domainauth.AttrEmail:     "jdoe@ua.edu",
			domainauth.AttrFirstName: "Jane",
			domainauth.AttrLastName:  "Doe",
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}

	require.NoError(t, store.Save(ctx, assertion))

	retrieved, err := store.Get(ctx, "test-assertion-1")
	require.NoError(t, err)
	assert.Equal(t, assertion.Username, retrieved.Username)
	assert.Equal(t, assertion.Attributes, retrieved.Attributes)

	identity := retrieved.Identity()
	assert.Equal(t, "jdoe", identity.Username)
	email, ok := identity.Attribute(domainauth.AttrEmail)
	assert.True(t, ok)
	assert.Equal(t, "jdoe@ua.edu", email)
}

func TestAssertionStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewAssertionStore(client)
	ctx := context.Background()

	assertion := domainauth.Assertion{
		ID:        "to-drop",
		Username:  "jdoe",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, assertion))

	require.NoError(t, store.Delete(ctx, "to-drop"))

	_, err := store.Get(ctx, "to-drop")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStores_UseSeparateKeyspaces(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	sessions := NewSessionStore(client)
	assertions := NewAssertionStore(client)
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, domainauth.Session{
		ID:        "shared-id",
		Login:     "jdoe",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	_, err := assertions.Get(ctx, "shared-id")
	assert.True(t, apperrors.IsNotFound(err), "a session ID must not resolve as an assertion")
}
