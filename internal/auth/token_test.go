package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-settlement/models"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{Secret: "test-secret", Issuer: "invoice-settlement", TTL: time.Hour}
}

func TestIssueAndParseToken(t *testing.T) {
	cfg := testTokenConfig()
	user := &models.User{ID: 42, Name: "Ada", Role: models.RoleAdmin}

	signed, issued, err := IssueToken(cfg, user, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := ParseToken(cfg, signed)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID())
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, Actor{UserID: 42, Role: models.RoleAdmin, Name: "Ada"}, claims.Actor())
}

func TestParseTokenRejects(t *testing.T) {
	cfg := testTokenConfig()
	user := &models.User{ID: 7, Role: models.RoleOwner}

	expired, _, err := IssueToken(cfg, user, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	other := cfg
	other.Secret = "someone-else"
	forged, _, err := IssueToken(other, user, time.Now())
	require.NoError(t, err)

	badRole, _, err := IssueToken(cfg, &models.User{ID: 7, Role: "superuser"}, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", forged},
		{"unknown role", badRole},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(cfg, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestActorCanAccess(t *testing.T) {
	admin := Actor{UserID: 1, Role: models.RoleAdmin}
	owner := Actor{UserID: 2, Role: models.RoleOwner}

	assert.True(t, admin.CanAccess(1))
	assert.False(t, admin.CanAccess(3))
	assert.True(t, owner.CanAccess(3))
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword("s3cret", hashed))
	assert.False(t, CheckPassword("wrong", hashed))
}
