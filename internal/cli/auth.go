package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	finchErrors "github.com/tessro/finch/internal/errors"
	"github.com/tessro/finch/internal/jellyfin/auth"
	"github.com/tessro/finch/internal/jellyfin/discovery"
	"github.com/tessro/finch/internal/wizard"
)

const (
	quickConnectTimeout  = 5 * time.Minute
	quickConnectInterval = 5 * time.Second
)

var (
	loginServer       string
	loginUser         string
	loginPassword     string
	loginQuickConnect bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to a Jellyfin server",
	Long: `Sign in to a Jellyfin server with a user name and password or a Quick Connect code.

Without --server, servers on the local network are discovered and offered.
Missing details are asked for interactively when running in a terminal.

Examples:
  finch login
  finch login --server http://jellyfin.local:8096 --user alice
  finch login --server jellyfin.local --quick-connect`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"status"},
	Short:   "Show the signed-in user and server",
	RunE:    runWhoami,
}

func init() {
	loginCmd.Flags().StringVarP(&loginServer, "server", "s", "", "server address")
	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "", "user name")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted for when omitted)")
	loginCmd.Flags().BoolVarP(&loginQuickConnect, "quick-connect", "q", false, "sign in with a Quick Connect code")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	login := wizard.Login{
		ServerURL: loginServer,
		Username:  loginUser,
		Password:  loginPassword,
		Method:    wizard.LoginPassword,
	}
	if login.ServerURL == "" {
		login.ServerURL = cfg.Server.URL
	}
	if loginQuickConnect {
		login.Method = wizard.LoginQuickConnect
	}

	var found []*discovery.Server
	if login.ServerURL == "" {
		if !JSONOutput() {
			fmt.Println("Looking for servers on the local network...")
		}
		d := discovery.NewDiscovery(time.Duration(cfg.Server.DiscoveryTimeout) * time.Second)
		servers, err := d.Discover(ctx)
		if err != nil && Verbose() {
			fmt.Printf("Discovery failed: %v\n", err)
		}
		found = servers
	}

	incomplete := login.ServerURL == "" || (login.Method == wizard.LoginPassword && login.Username == "")
	switch {
	case incomplete && wizard.IsTerminal() && !JSONOutput():
		if err := wizard.RunLoginForm(&login, found); err != nil {
			return err
		}
	case login.ServerURL == "" && len(found) > 0:
		login.ServerURL = found[0].Address
	case login.ServerURL == "":
		return finchErrors.ErrServerNotFound
	}
	if login.Method == wizard.LoginPassword && login.Username == "" {
		return fmt.Errorf("a user name is required (--user)")
	}

	serverURL, err := auth.NormalizeServerURL(login.ServerURL)
	if err != nil {
		return err
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	var creds *auth.Credentials
	switch login.Method {
	case wizard.LoginQuickConnect:
		creds, err = quickConnect(ctx, serverURL, e.device)
	default:
		creds, err = auth.AuthenticateByName(ctx, serverURL, e.device, login.Username, login.Password)
	}
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := e.storage.Save(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"status":    "authenticated",
			"server":    creds.ServerURL,
			"server_id": creds.ServerID,
			"user_id":   creds.UserID,
			"user_name": creds.UserName,
			"device_id": creds.DeviceID,
		})
	}
	fmt.Printf("Signed in to %s as %s\n", creds.ServerURL, creds.UserName)
	return nil
}

func quickConnect(ctx context.Context, serverURL string, device auth.Device) (*auth.Credentials, error) {
	qc, err := auth.InitiateQuickConnect(ctx, serverURL, device)
	if err != nil {
		return nil, err
	}

	if !JSONOutput() {
		fmt.Printf("Quick Connect code: %s\n", qc.Code)
		fmt.Println("Enter it under Quick Connect in a signed-in client. Waiting for approval...")
	}

	ctx, cancel := context.WithTimeout(ctx, quickConnectTimeout)
	defer cancel()
	return qc.Wait(ctx, quickConnectInterval)
}

func runLogout(cmd *cobra.Command, args []string) error {
	storage, err := auth.NewStorage("")
	if err != nil {
		return err
	}
	if !storage.Exists() {
		if JSONOutput() {
			return printJSON(map[string]string{"status": "not_authenticated"})
		}
		fmt.Println("Not signed in.")
		return nil
	}
	if err := storage.Delete(); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "logged_out"})
	}
	fmt.Println("Signed out. Credentials removed.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if !e.creds.Valid() {
		if JSONOutput() {
			return printJSON(map[string]any{"status": "not_authenticated"})
		}
		fmt.Println("Not signed in. Run 'finch login' to sign in.")
		return nil
	}

	c, err := e.client()
	if err != nil {
		return err
	}

	user, userErr := c.GetCurrentUser(cmd.Context())

	if JSONOutput() {
		out := map[string]any{
			"status":    "authenticated",
			"server":    e.creds.ServerURL,
			"user_id":   e.creds.UserID,
			"user_name": e.creds.UserName,
			"device_id": e.device.ID,
			"saved_at":  e.creds.SavedAt,
		}
		if userErr != nil {
			out["status"] = "unreachable"
			out["error"] = userErr.Error()
		} else {
			out["is_admin"] = user.Policy.IsAdministrator
		}
		return printJSON(out)
	}

	fmt.Printf("Server:  %s\n", e.creds.ServerURL)
	fmt.Printf("User:    %s\n", e.creds.UserName)
	fmt.Printf("Device:  %s (%s)\n", e.device.Name, e.device.ID)
	if userErr != nil {
		fmt.Printf("Status:  %s could not verify (%v)\n", StatusIcon(false), userErr)
		return nil
	}
	role := "user"
	if user.Policy.IsAdministrator {
		role = "administrator"
	}
	fmt.Printf("Status:  %s signed in as %s\n", StatusIcon(true), role)
	return nil
}
