package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LBIT2016/trading-gamers/internal/docsync"
)

// documentAliases maps short names to shared document ids
var documentAliases = map[string]string{
	"users":                  docsync.UsersDocument,
	"listings":               docsync.ListingsDocument,
	docsync.UsersDocument:    docsync.UsersDocument,
	docsync.ListingsDocument: docsync.ListingsDocument,
}

// DocumentEvent is one printed document update
type DocumentEvent struct {
	Time     time.Time       `json:"time"`
	Document string          `json:"document"`
	Origin   string          `json:"origin"`
	Self     bool            `json:"self"`
	State    json.RawMessage `json:"state,omitempty"`
}

func newWatchCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "watch <document>",
		Short: "Stream updates of a shared document",
		Long: `Follow a shared document and print every saved version.

Documents:
  - users (users-auth): accounts and names
  - listings (marketplace-listings): all marketplace listings

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, ok := documentAliases[args[0]]
			if !ok {
				return fmt.Errorf("unknown document %q: must be users or listings", args[0])
			}
			return watchDocument(cmd, docID, full)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Include the document state in each event")

	return cmd
}

func watchDocument(cmd *cobra.Command, docID string, full bool) error {
	ctx := cmd.Context()
	updates, err := docsync.Watch(ctx, app.Storage, docID, logger)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	if cfg.Output == "text" {
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", docID)
	}

	own := map[string]bool{app.UsersSync.Origin(): true, app.ListingsSync.Origin(): true}
	for u := range updates {
		evt := DocumentEvent{
			Time:     app.Clock.Now(),
			Document: docID,
			Origin:   u.Origin,
			Self:     own[u.Origin],
		}
		if full {
			evt.State = u.State
		}
		printEvent(cmd, evt, len(u.State))
	}

	if cfg.Output == "text" {
		fmt.Fprintln(cmd.OutOrStdout(), "Disconnected")
	}
	return nil
}

func printEvent(cmd *cobra.Command, evt DocumentEvent, size int) {
	w := cmd.OutOrStdout()
	if cfg.Output == "json" {
		data, _ := json.Marshal(evt)
		fmt.Fprintln(w, string(data))
		return
	}

	timestamp := evt.Time.Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "[%s] %s updated by %s (%d bytes)\n", timestamp, evt.Document, evt.Origin, size)
	if evt.State != nil {
		fmt.Fprintln(w, string(evt.State))
	}
}
