package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/tessro/finch/internal/jellyfin/auth"
	"github.com/tessro/finch/internal/jellyfin/discovery"
)

// LoginMethod is how the user proves who they are.
type LoginMethod string

const (
	LoginPassword     LoginMethod = "password"
	LoginQuickConnect LoginMethod = "quickconnect"
)

// otherServer is the select value for typing an address by hand.
const otherServer = "other"

// Login holds the answers of the login form.
type Login struct {
	ServerURL string
	Method    LoginMethod
	Username  string
	Password  string
}

// RunLoginForm asks for whatever Login is still missing. Servers found on
// the network are offered first.
func RunLoginForm(login *Login, found []*discovery.Server) error {
	if login.Method == "" {
		login.Method = LoginPassword
	}

	var groups []*huh.Group

	choice := otherServer
	if login.ServerURL == "" && len(found) > 0 {
		options := make([]huh.Option[string], 0, len(found)+1)
		for _, s := range found {
			options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", s.Name, s.Address), s.Address))
		}
		options = append(options, huh.NewOption("Other...", otherServer))
		choice = found[0].Address
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Server").
				Description("Found on your network").
				Options(options...).
				Value(&choice),
		))
	}

	groups = append(groups,
		huh.NewGroup(
			huh.NewInput().
				Title("Server address").
				Placeholder("http://jellyfin.local:8096").
				Value(&login.ServerURL).
				Validate(func(s string) error {
					_, err := auth.NormalizeServerURL(s)
					return err
				}),
		).WithHideFunc(func() bool { return choice != otherServer }),
		huh.NewGroup(
			huh.NewSelect[LoginMethod]().
				Title("Sign in with").
				Options(
					huh.NewOption("User name and password", LoginPassword),
					huh.NewOption("Quick Connect code", LoginQuickConnect),
				).
				Value(&login.Method),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("User name").
				Value(&login.Username).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("user name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&login.Password),
		).WithHideFunc(func() bool { return login.Method != LoginPassword }),
	)

	form := huh.NewForm(groups...).WithTheme(huh.ThemeCatppuccin())
	if err := form.Run(); err != nil {
		return fmt.Errorf("login cancelled: %w", err)
	}

	if choice != otherServer {
		login.ServerURL = choice
	}
	url, err := auth.NormalizeServerURL(login.ServerURL)
	if err != nil {
		return err
	}
	login.ServerURL = url
	return nil
}

// Confirm asks a yes/no question, defaulting to no.
func Confirm(title, description string) (bool, error) {
	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).WithTheme(huh.ThemeCatppuccin())
	err := form.Run()
	return ok, err
}
