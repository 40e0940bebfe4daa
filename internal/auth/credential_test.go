package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/connectcom-support/pkg/logging"
)

type brokenStore struct{}

func (brokenStore) Revoke(context.Context, string, time.Duration) error { return errors.New("down") }
func (brokenStore) IsRevoked(context.Context, string) (bool, error)     { return false, errors.New("down") }

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestTokenFromContext(t *testing.T) {
	_, ok := TokenFromContext(context.Background())
	assert.False(t, ok)
	_, ok = TokenFromContext(WithToken(context.Background(), " "))
	assert.False(t, ok)
	token, ok := TokenFromContext(WithToken(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}

func TestContextCredentials(t *testing.T) {
	store := NewMemoryRevocationStore()
	creds := NewContextCredentials(store, logging.Discard())
	ctx := WithToken(context.Background(), "abc")

	token, ok := creds.Credential(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = creds.Credential(context.Background())
	assert.False(t, ok)

	assert.NoError(t, store.Revoke(ctx, "abc", time.Hour))
	_, ok = creds.Credential(ctx)
	assert.False(t, ok)
}

func TestContextCredentialsFailClosed(t *testing.T) {
	creds := NewContextCredentials(brokenStore{}, logging.Discard())
	_, ok := creds.Credential(WithToken(context.Background(), "abc"))
	assert.False(t, ok)
}

func TestContextCredentialsWithoutStore(t *testing.T) {
	creds := NewContextCredentials(nil, nil)
	_, ok := creds.Credential(WithToken(context.Background(), "abc"))
	assert.True(t, ok)
}
