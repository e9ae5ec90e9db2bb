package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentTokenRoundTrip(t *testing.T) {
	signer := NewContentTokenSigner("secret", time.Minute)

	token, expiresAt, err := signer.Generate(42, "pages/abc.html")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	pageID, ref, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "42", pageID)
	assert.Equal(t, "pages/abc.html", ref)
}

func TestContentTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewContentTokenSigner("secret-a", time.Minute).Generate(1, "pages/x.html")
	require.NoError(t, err)

	_, _, err = NewContentTokenSigner("secret-b", time.Minute).Parse(token)
	require.Error(t, err)
}

func TestContentTokenRejectsExpired(t *testing.T) {
	signer := &ContentTokenSigner{secret: []byte("secret"), ttl: -time.Minute}
	token, _, err := signer.Generate(1, "pages/x.html")
	require.NoError(t, err)

	_, _, err = signer.Parse(token)
	require.Error(t, err)
}

func TestContentTokenRequiresInputs(t *testing.T) {
	signer := NewContentTokenSigner("secret", time.Minute)
	_, _, err := signer.Generate(0, "pages/x.html")
	require.Error(t, err)
	_, _, err = signer.Generate(1, "")
	require.Error(t, err)
}
