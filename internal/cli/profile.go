package cli

import (
	"github.com/spf13/cobra"

	"github.com/LBIT2016/trading-gamers/internal/model"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Player profile commands",
	}

	cmd.AddCommand(newProfileShowCmd())
	cmd.AddCommand(newProfileUpdateCmd())

	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your player profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := app.Profiles.Profile()
			if p == nil {
				return model.ErrNotAuthenticated
			}

			out.Print(*p)
			return nil
		},
	}
}

func newProfileUpdateCmd() *cobra.Command {
	var (
		displayName, email, playerType string
		genres, games                  []string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit your player profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch model.PlayerProfilePatch
			if flags.Changed("display-name") {
				patch.DisplayName = &displayName
			}
			if flags.Changed("email") {
				patch.Email = &email
			}
			if flags.Changed("genres") {
				patch.Genres = &genres
			}
			if flags.Changed("games") {
				patch.Games = &games
			}
			if flags.Changed("player-type") {
				pt := model.PlayerType(playerType)
				patch.PlayerType = &pt
			}

			p, err := app.Profiles.UpdateProfile(cmd.Context(), patch)
			if err != nil {
				return err
			}

			out.Print(*p)
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "display-name", "", "New display name")
	cmd.Flags().StringVar(&email, "email", "", "Contact email, kept on this client only")
	cmd.Flags().StringSliceVar(&genres, "genres", nil, "Favourite genres, comma separated")
	cmd.Flags().StringSliceVar(&games, "games", nil, "Games you play, comma separated")
	cmd.Flags().StringVar(&playerType, "player-type", "", "casual, competitive, collector, creator")

	return cmd
}
