package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

func TestAuthLoginCmd_PrintsDeviceCode(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "auth", "login")
	require.NoError(t, err)
	assert.True(t, ts.auth.loggedIn)
	assert.Contains(t, out, "https://microsoft.com/devicelogin")
	assert.Contains(t, out, "ABCD-1234")
	assert.Contains(t, out, "Signed in.")
}

func TestAuthLoginCmd_OpensBrowser(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	var opened string
	original := openBrowser
	openBrowser = func(url string) error {
		opened = url
		return nil
	}
	defer func() { openBrowser = original }()

	_, err := execute(t, "auth", "login", "--browser")
	require.NoError(t, err)
	assert.Equal(t, "https://microsoft.com/devicelogin", opened)
}

func TestAuthLoginCmd_StoresClientSecret(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("s3cret\n"))
	defer rootCmd.SetIn(nil)

	_, err := execute(t, "auth", "login", "--client-secret")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", ts.settings.values["microsoft.client_secret"])
	assert.True(t, ts.auth.loggedIn)
}

func TestAuthLoginCmd_EmptySecret(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("\n"))
	defer rootCmd.SetIn(nil)

	_, err := execute(t, "auth", "login", "--client-secret")
	require.Error(t, err)
	assert.False(t, ts.auth.loggedIn)
}

func TestAuthLoginCmd_Failure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	ts.auth.loginErr = domain.ErrAuthRequired

	_, err := execute(t, "auth", "login")
	require.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestAuthLogoutCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "auth", "logout")
	require.NoError(t, err)
	assert.True(t, ts.auth.loggedOut)
	assert.Contains(t, out, "Signed out.")
}

func TestReadSecret_NonTerminal(t *testing.T) {
	assert.Equal(t, "value", readSecret(strings.NewReader("  value  \nrest")))
}
