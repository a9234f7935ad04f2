package cli

import (
	"github.com/spf13/cobra"

	"github.com/LBIT2016/trading-gamers/internal/api/response"
	"github.com/LBIT2016/trading-gamers/internal/model"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Session commands",
	}

	cmd.AddCommand(newAuthSignupCmd())
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthWhoamiCmd())
	cmd.AddCommand(newAuthNameAvailableCmd())

	return cmd
}

// currentSession describes the session held by this client
func currentSession() response.Session {
	return response.SessionFrom(app.Identity.Session(), app.Identity.CurrentUser())
}

func newAuthSignupCmd() *cobra.Command {
	var credential string

	cmd := &cobra.Command{
		Use:   "signup <name>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.Identity.Signup(cmd.Context(), args[0], credential); err != nil {
				return err
			}
			out.Print(currentSession())
			return nil
		},
	}

	cmd.Flags().StringVar(&credential, "credential", "", "Password for the new account")

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var credential string

	cmd := &cobra.Command{
		Use:   "login <name>",
		Short: "Log in to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.Identity.Login(cmd.Context(), args[0], credential); err != nil {
				return err
			}
			out.Print(currentSession())
			return nil
		},
	}

	cmd.Flags().StringVar(&credential, "credential", "", "Account password")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on this client",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Identity.Logout()
			out.PrintMessage("Logged out")
			return nil
		},
	}
}

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			out.Print(currentSession())
			return nil
		},
	}
}

func newAuthNameAvailableCmd() *cobra.Command {
	var exclude string

	cmd := &cobra.Command{
		Use:   "name-available <name>",
		Short: "Check whether a user name is free",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			available := app.Identity.IsNameUnique(args[0], model.UserID(exclude))
			out.Print(response.NameAvailable{Name: args[0], Available: available})
			return nil
		},
	}

	cmd.Flags().StringVar(&exclude, "exclude", "", "User id to ignore, e.g. when renaming yourself")

	return cmd
}
