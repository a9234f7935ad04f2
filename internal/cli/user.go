package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LBIT2016/trading-gamers/internal/api/response"
	"github.com/LBIT2016/trading-gamers/internal/model"
)

var errNotPermitted = errors.New("only administrators can change other users")

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User account commands",
	}

	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserShowCmd())
	cmd.AddCommand(newUserRenameCmd())
	cmd.AddCommand(newUserDeleteCmd())

	return cmd
}

// target resolves the user a command acts on. Users act on themselves
// unless an administrator names someone else.
func target(id string) (model.UserID, error) {
	actor := app.Identity.CurrentUser()
	if actor == nil {
		return "", model.ErrNotAuthenticated
	}
	if id == "" || model.UserID(id) == actor.ID {
		return actor.ID, nil
	}
	if !actor.IsAdmin {
		return "", errNotPermitted
	}
	return model.UserID(id), nil
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users := app.Identity.Users()
			result := make([]response.User, len(users))
			for i := range users {
				result[i] = response.UserFromModel(&users[i])
			}

			out.Print(result)
			return nil
		},
	}
}

func newUserShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.Identity.GetUser(model.UserID(args[0]))
			if err != nil {
				return err
			}

			out.Print(response.UserFromModel(u))
			return nil
		},
	}
}

func newUserRenameCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "rename <new-name>",
		Short: "Change a user name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := target(id)
			if err != nil {
				return err
			}

			u, err := app.Identity.UpdateProfileName(cmd.Context(), userID, args[0])
			if err != nil {
				return err
			}

			out.Print(response.UserFromModel(u))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "User to rename (administrators only; default: yourself)")

	return cmd
}

func newUserDeleteCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user account",
		Long: `Delete a user account. Deleting your own account logs you out.
Listings of the deleted user stay published.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := target(id)
			if err != nil {
				return err
			}

			if err := app.Identity.DeleteProfile(cmd.Context(), userID); err != nil {
				return err
			}

			out.PrintMessage(fmt.Sprintf("Deleted user %s", userID))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "User to delete (administrators only; default: yourself)")

	return cmd
}
