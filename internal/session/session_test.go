package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k-tsurumaki/quilldeck-cli/internal/api"
)

func TestValidateCredentials(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ValidateCredentials("a@b.com", "x"))

	cerr := ValidateCredentials("", "x")
	require.NotNil(t, cerr)
	assert.Equal(t, api.KindValidation, cerr.Kind)

	cerr = ValidateCredentials("a@b.com", "")
	require.NotNil(t, cerr)
	assert.Equal(t, api.KindValidation, cerr.Kind)

	cerr = ValidateCredentials("   ", "x")
	require.NotNil(t, cerr)
	assert.Equal(t, api.KindValidation, cerr.Kind)
}

func TestBeginAuthSingleFlight(t *testing.T) {
	t.Parallel()

	c := NewController(nil)
	token, cerr := c.BeginAuth()
	require.Nil(t, cerr)
	assert.True(t, c.AuthPending())

	_, busy := c.BeginAuth()
	require.NotNil(t, busy)
	assert.Equal(t, api.KindValidation, busy.Kind)

	c.FinishAuth(token, "u1", nil)
	assert.False(t, c.AuthPending())
	assert.Equal(t, "u1", c.Session().UserID)
}

func TestAuthFailureLeavesSessionUntouched(t *testing.T) {
	t.Parallel()

	c := NewController(nil)

	token, _ := c.BeginAuth()
	c.FinishAuth(token, "", api.Application("invalid credentials"))
	assert.False(t, c.Session().Authenticated())
	assert.False(t, c.AuthPending())

	// Establish a user, then fail a second attempt: the first user stays.
	token, _ = c.BeginAuth()
	c.FinishAuth(token, "u1", nil)
	token, _ = c.BeginAuth()
	c.FinishAuth(token, "", api.ServerError(500))
	assert.Equal(t, "u1", c.Session().UserID)
}

func TestFinishAuthWithStaleTokenIgnored(t *testing.T) {
	t.Parallel()

	c := NewController(nil)
	token, _ := c.BeginAuth()
	c.Logout() // bumps epoch while the request is in flight

	c.FinishAuth(token, "u1", nil)
	assert.False(t, c.Session().Authenticated(), "stale auth result must not establish a session")
}

func TestAddDocumentRequiresSession(t *testing.T) {
	t.Parallel()

	c := NewController(nil)
	_, cerr := c.AddDocument("d1", "notes.txt")
	require.NotNil(t, cerr)
	assert.Equal(t, api.KindValidation, cerr.Kind)
	assert.Empty(t, c.Documents())
}

func TestDocumentsAppendOnlyNoDedup(t *testing.T) {
	t.Parallel()

	c := NewController(nil)
	token, _ := c.BeginAuth()
	c.FinishAuth(token, "u1", nil)

	first, cerr := c.AddDocument("d1", "notes.txt")
	require.Nil(t, cerr)
	second, cerr := c.AddDocument("d2", "notes.txt")
	require.Nil(t, cerr)

	docs := c.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, first, docs[0])
	assert.Equal(t, second, docs[1])
	assert.NotEqual(t, docs[0].ID, docs[1].ID)
}

func TestLogoutClearsEverything(t *testing.T) {
	t.Parallel()

	c := NewController(nil)
	token, _ := c.BeginAuth()
	c.FinishAuth(token, "u1", nil)
	c.AddDocument("d1", "a.txt")
	c.AddDocument("d2", "b.md")
	before := c.Epoch()

	c.Logout()
	assert.False(t, c.Session().Authenticated())
	assert.Empty(t, c.Documents())
	assert.Greater(t, c.Epoch(), before, "logout must invalidate in-flight work")
}
