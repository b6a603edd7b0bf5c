package utils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jakechorley/shift-planner/internal/config"
)

func TestTokenStore_SaveLoadDelete(t *testing.T) {
	store := &TokenStore{Dir: filepath.Join(t.TempDir(), "tokens")}

	got, err := store.Load("test")
	require.NoError(t, err)
	assert.Nil(t, got)

	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save("test", token))

	info, err := os.Stat(filepath.Join(store.Dir, "token-test.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err = store.Load("test")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "access", got.AccessToken)

	require.NoError(t, store.Delete("test"))
	require.NoError(t, store.Delete("test"))
	got, err = store.Load("test")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTokenStore_UsesValidSavedToken(t *testing.T) {
	store := &TokenStore{Dir: t.TempDir()}
	require.NoError(t, store.Save("", &oauth2.Token{AccessToken: "still-good", Expiry: time.Now().Add(time.Hour)}))

	got, err := store.Token(context.Background(), &oauth2.Config{}, "", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "still-good", got.AccessToken)
}

func TestGetOAuthConfig(t *testing.T) {
	cfg := &config.OAuthClientConfig{Installed: config.OAuthInstalled{
		ClientID:     "id.apps.googleusercontent.com",
		ProjectID:    "planner",
		AuthURI:      "https://accounts.google.com/o/oauth2/auth",
		TokenURI:     "https://oauth2.googleapis.com/token",
		ClientSecret: "secret",
		RedirectURIs: []string{"http://localhost"},
	}}

	got, err := GetOAuthConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{ScopeSheets}, got.Scopes)
	assert.Equal(t, "http://localhost:3000/oauth/callback", got.RedirectURL)
}

func TestServiceAccountTokenSource_MissingFile(t *testing.T) {
	_, err := ServiceAccountTokenSource(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "failed to read credentials file")
}
