package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/term"

	"github.com/custodia-labs/docpilot/internal/adapters/driving/browser"
	"github.com/custodia-labs/docpilot/internal/logger"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in to the document source",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to OneDrive with a device code",
	Long: `Start the Microsoft device authorization flow. A code and a URL are
printed; open the URL on any device, enter the code and sign in. The token
is cached in the config directory and refreshed automatically.

microsoft.client_id must be set first (or MICROSOFT_CLIENT_ID). Confidential
clients can pass --client-secret to be prompted for the secret, which is
stored as microsoft.client_secret.`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the cached token",
	RunE:  runAuthLogout,
}

// openBrowser is replaced in tests.
var openBrowser = browser.Open

func init() {
	authLoginCmd.Flags().Bool("client-secret", false, "prompt for and store a client secret")
	authLoginCmd.Flags().Bool("browser", false, "open the verification page in the default browser")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	askSecret, _ := cmd.Flags().GetBool("client-secret")
	open, _ := cmd.Flags().GetBool("browser")

	if askSecret {
		settings, err := settingsService()
		if err != nil {
			return err
		}
		cmd.Print("Client secret: ")
		secret := readSecret(cmd.InOrStdin())
		cmd.Println()
		if secret == "" {
			return errors.New("client secret is empty")
		}
		if err := settings.Set("microsoft.client_secret", secret); err != nil {
			return fmt.Errorf("storing client secret: %w", err)
		}
	}

	auth, err := authenticator()
	if err != nil {
		return err
	}

	prompt := func(da *oauth2.DeviceAuthResponse) {
		uri := da.VerificationURIComplete
		if uri == "" {
			uri = da.VerificationURI
		}
		cmd.Printf("To sign in, open %s and enter the code %s\n", heading(uri), heading(da.UserCode))
		if open {
			if err := openBrowser(uri); err != nil {
				logger.Warn("opening browser: %v", err)
			}
		}
		cmd.Println(dim("Waiting for sign-in..."))
	}

	if err := auth.Login(cmd.Context(), prompt); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	cmd.Println(ok("Signed in."))
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	auth, err := authenticator()
	if err != nil {
		return err
	}
	if err := auth.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	cmd.Println("Signed out.")
	return nil
}

// readSecret reads a line without echo when in is a terminal.
func readSecret(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}
