package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Issue("admin")
	require.NoError(t, err)

	sub, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", sub)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Issue("admin")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	m := NewTokenManager("secret", -time.Minute)

	token, err := m.Issue("admin")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	_, err := NewTokenManager("secret", time.Hour).Verify("not-a-jwt")
	assert.Error(t, err)
}
