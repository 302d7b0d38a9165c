package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/him-waste/internal/storage"
)

var flagHistoryFormat string

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded pickup date changes",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}

	cmd.Flags().StringVar(&flagHistoryFormat, "format", "text", "Output format: text or json")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	format := OutputFormat(strings.ToLower(flagHistoryFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagHistoryFormat)
	}

	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	snap, err := store.LoadSnapshot(cfg.PropertyID)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	w := cmd.OutOrStdout()
	if format == FormatJSON {
		return writeJSON(w, snap.ChangeLog)
	}

	if len(snap.ChangeLog) == 0 {
		fmt.Fprintln(w, "No changes recorded.")
		return nil
	}
	for _, c := range snap.ChangeLog {
		fmt.Fprintf(w, "%s  %s\n", c.DetectedAt.Format("2006-01-02 15:04"), formatChange(c))
	}
	return nil
}
