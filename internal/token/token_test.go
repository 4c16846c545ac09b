package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/selimdoruk/account-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	userID := uuid.New()
	tok, err := issuer.Issue(userID, models.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	parsed, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestIssuer_TokensAreUnique(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	userID := uuid.New()
	first, err := issuer.Issue(userID, models.RoleUser)
	require.NoError(t, err)
	second, err := issuer.Issue(userID, models.RoleUser)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "consecutive tokens must differ")
}

func TestIssuer_Verify_Rejections(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	expiredIssuer, err := NewIssuer("test-secret", -time.Minute)
	require.NoError(t, err)
	expired, err := expiredIssuer.Issue(uuid.New(), models.RoleUser)
	require.NoError(t, err)

	otherIssuer, err := NewIssuer("another-secret", time.Hour)
	require.NoError(t, err)
	foreign, err := otherIssuer.Issue(uuid.New(), models.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "malformed", token: "not-a-token"},
		{name: "empty", token: ""},
		{name: "expired", token: expired},
		{name: "wrong signing key", token: foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
