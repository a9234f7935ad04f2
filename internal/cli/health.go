package cli

import (
	"github.com/spf13/cobra"

	"github.com/LBIT2016/trading-gamers/internal/api/response"
	"github.com/LBIT2016/trading-gamers/internal/docsync"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the shared documents are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := response.Health{Status: "ok", Documents: map[string]bool{}}
			for _, b := range []*docsync.Binding{app.UsersSync, app.ListingsSync} {
				result.Documents[b.DocumentID()] = b.Ready()
				if !b.Ready() {
					result.Status = "degraded"
				}
			}

			out.Print(result)
			return nil
		},
	}
}
