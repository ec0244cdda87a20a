package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyLifecycle(t *testing.T) {
	s, db := newTestStore()
	ctx := context.Background()

	key, prefix, err := s.CreateAPIKey(ctx, "user-1", "Ada", "laptop")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "pk_"))
	assert.Len(t, prefix, 8)
	assert.Equal(t, prefix, key[3:11])

	id, err := s.ValidateAPIKey(ctx, "Bearer "+key)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "user-1", Name: "Ada", KeyID: prefix}, id)
	assert.NotEmpty(t, db.updates, "last-used timestamp should be touched")

	require.NoError(t, s.RevokeAPIKey(ctx, prefix))
	_, err = s.ValidateAPIKey(ctx, key)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestValidateAPIKeyRejects(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	key, _, err := s.CreateAPIKey(ctx, "user-1", "Ada", "laptop")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":     "",
		"bearer":    "Bearer ",
		"no prefix": "sk_0123456789",
		"too short": "pk_abc",
		"unknown":   "pk_ffffffff" + strings.Repeat("0", 56),
		"tampered":  key[:len(key)-1] + "x",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.ValidateAPIKey(ctx, token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: "u"})
	id, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u", id.UserID)
}
