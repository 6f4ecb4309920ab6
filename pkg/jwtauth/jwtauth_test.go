package jwtauth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager("secret", "taskboard", time.Hour)

	token, expires, err := m.Issue("user-1", "session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)
}

func TestManager_RejectsForeignSecret(t *testing.T) {
	token, _, err := NewManager("other", "taskboard", time.Hour).Issue("user-1", "session-1")
	require.NoError(t, err)

	_, err = NewManager("secret", "taskboard", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager("secret", "taskboard", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.Issue("user-1", "session-1")
	require.NoError(t, err)

	_, err = NewManager("secret", "taskboard", time.Minute).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{UserID: "user-1", SessionID: "session-1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewManager("secret", "", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsWrongIssuer(t *testing.T) {
	token, _, err := NewManager("secret", "someone-else", time.Hour).Issue("user-1", "session-1")
	require.NoError(t, err)

	_, err = NewManager("secret", "taskboard", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
