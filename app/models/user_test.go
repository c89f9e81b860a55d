package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	user, err := CreateUser("Ana Silva", "ana@example.com", "supersecret")
	require.NoError(t, err)

	assert.Equal(t, "Ana Silva", user.Name)
	assert.Equal(t, ROLE_USER, user.Role)
	assert.Equal(t, STATUS_INACTIVE, user.Status)
	assert.NotEqual(t, "supersecret", user.Password)
	assert.True(t, user.CheckPassword("supersecret"))
	assert.False(t, user.CheckPassword("wrong"))
}

func TestCreateUserRejectsInvalidInput(t *testing.T) {
	_, err := CreateUser("Ana", "not-an-email", "supersecret")
	assert.Error(t, err)

	_, err = CreateUser("ab", "ana@example.com", "supersecret")
	assert.Error(t, err)
}

func TestGenerateActivationToken(t *testing.T) {
	user := &User{}
	require.NoError(t, user.GenerateActivationToken())

	assert.Len(t, user.ActivationToken, 32)
	require.NotNil(t, user.ActivationSentAt)

	first := user.ActivationToken
	require.NoError(t, user.GenerateActivationToken())
	assert.NotEqual(t, first, user.ActivationToken)
}

func TestIssueAPIKey(t *testing.T) {
	user := &User{}
	raw, err := user.IssueAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "qa_"))
	assert.Equal(t, HashAPIKey(raw), user.APIKeyHash)
	assert.Equal(t, raw[:16], user.APIKeyPrefix)

	// hashing ignores surrounding whitespace so header parsing stays forgiving
	assert.Equal(t, HashAPIKey(raw), HashAPIKey("  "+raw+"\n"))
}

func TestIssueAPIKeyRotates(t *testing.T) {
	user := &User{}
	first, err := user.IssueAPIKey()
	require.NoError(t, err)
	second, err := user.IssueAPIKey()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, HashAPIKey(second), user.APIKeyHash)
}

func TestUserRoles(t *testing.T) {
	admin := &User{Role: ROLE_ADMIN, Status: STATUS_ACTIVE}
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.IsActive())

	user := &User{Role: ROLE_USER, Status: STATUS_INACTIVE}
	assert.False(t, user.IsAdmin())
	assert.False(t, user.IsActive())
}
