package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	user, err := CreateUser("testuser", "test@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, "testuser", user.Name)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, ROLE_USER, user.Role)
	assert.Equal(t, STATUS_ACTIVE, user.Status)
	assert.Equal(t, "free", user.SubscriptionTier)
	// New accounts get exactly one trial credit.
	assert.Equal(t, 1, user.CreditsRemaining)
	assert.NotEqual(t, "secret123", user.Password)
	assert.True(t, CheckPasswordHash("secret123", user.Password))
	assert.False(t, CheckPasswordHash("wrong", user.Password))
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"Short username", "ab", "test@example.com", "secret123"},
		{"Invalid email", "testuser", "not-an-email", "secret123"},
		{"Empty email", "testuser", "", "secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateUser(tt.username, tt.email, tt.password)
			assert.Error(t, err)
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	user := &User{}
	key, err := user.GenerateAPIKey()
	require.NoError(t, err)

	assert.Len(t, key, 64)
	assert.NotEqual(t, key, user.APIKeyHash)
	assert.Equal(t, HashAPIKey(key), user.APIKeyHash)

	// Rotating produces a different key and hash.
	second, err := user.GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, second)
	assert.Equal(t, HashAPIKey(second), user.APIKeyHash)
}

func TestUser_IsActive(t *testing.T) {
	assert.True(t, (&User{Status: STATUS_ACTIVE}).IsActive())
	assert.False(t, (&User{Status: STATUS_INACTIVE}).IsActive())
	assert.False(t, (&User{Status: STATUS_DISABLED}).IsActive())
}
