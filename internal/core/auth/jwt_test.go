package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTer() *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "fitness", TTL: time.Minute, RefreshTTL: time.Hour}
}

func TestIssuePairTypes(t *testing.T) {
	j := newJWTer()
	p, err := j.IssuePair("u1", "user")
	require.NoError(t, err)

	ac, err := j.ParseType(p.Access, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", ac.UID)
	assert.Equal(t, "user", ac.Role)

	rc, err := j.ParseType(p.Refresh, TypeRefresh)
	require.NoError(t, err)
	assert.NotEmpty(t, rc.ID)
	assert.NotEqual(t, ac.ID, rc.ID)

	_, err = j.ParseType(p.Refresh, TypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	tok, err := newJWTer().Issue("u1", "admin")
	require.NoError(t, err)

	other := newJWTer()
	other.Secret = []byte("another")
	_, err = other.Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	j := newJWTer()
	j.TTL = -2 * time.Minute
	tok, err := j.Issue("u1", "user")
	require.NoError(t, err)
	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsJustExpired(t *testing.T) {
	j := newJWTer()
	j.TTL = -time.Second
	tok, err := j.Issue("u1", "user")
	require.NoError(t, err)
	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseHonoursConfiguredLeeway(t *testing.T) {
	j := newJWTer()
	j.TTL = -5 * time.Second
	tok, err := j.Issue("u1", "user")
	require.NoError(t, err)

	j.Leeway = time.Minute
	_, err = j.Parse(tok)
	assert.NoError(t, err)
}
