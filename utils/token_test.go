package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, time.Minute)

	tok, exp, err := issuer.IssueAccess(7, "admin@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := issuer.Parse(tok, PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "admin@example.com", claims.Email)
}

func TestParseRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, time.Minute)
	confirm, _, err := issuer.IssueConfirmation(PurposeDeleteBooking, "42", 7)
	require.NoError(t, err)

	t.Run("wrong purpose", func(t *testing.T) {
		_, err := issuer.Parse(confirm, PurposeAccess)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("other", time.Hour, time.Minute)
		_, err := other.Parse(confirm, PurposeDeleteBooking)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		defer func() { issuer.now = time.Now }()
		_, err := issuer.Parse(confirm, PurposeDeleteBooking)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not.a.token", PurposeAccess)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
}

func TestConfirmationCarriesSubjectAndUser(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, time.Minute)
	tok, exp, err := issuer.IssueConfirmation(PurposeDeleteBooking, "42", 7)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	claims, err := issuer.Parse(tok, PurposeDeleteBooking)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, uint(7), claims.UserID)
}
