package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	j := &JWTer{Secret: []byte("k"), Issuer: "property-listing", TTL: time.Hour}
	tok, err := j.Issue("u1", "admin")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
	assert.Equal(t, "admin", c.Role)
}

func TestParseRejectsOtherIssuerAndExpired(t *testing.T) {
	j := &JWTer{Secret: []byte("k"), Issuer: "a", TTL: time.Hour}
	tok, err := (&JWTer{Secret: []byte("k"), Issuer: "b", TTL: time.Hour}).Issue("u1", "user")
	require.NoError(t, err)
	_, err = j.Parse(tok)
	assert.Error(t, err)

	expired, err := (&JWTer{Secret: []byte("k"), Issuer: "a", TTL: -2 * time.Minute}).Issue("u1", "user")
	require.NoError(t, err)
	_, err = j.Parse(expired)
	assert.Error(t, err)

	_, err = (&JWTer{Secret: []byte("other"), Issuer: "a"}).Parse(tok)
	assert.Error(t, err)
}

func TestParseWrapsInvalidToken(t *testing.T) {
	_, err := (&JWTer{Secret: []byte("k"), Issuer: "a"}).Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
