package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/him-waste/internal/waste"
)

var (
	flagFormat string
	flagSort   string
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fetch the calendar once and print the schedule",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}

	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagSort, "sort", "date", "Sort order: date or category")

	return cmd
}

// runCheck refreshes once with retries and prints the result
func runCheck(cmd *cobra.Command, _ []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
	order := SortOrder(strings.ToLower(flagSort))
	if order != SortByDate && order != SortByCategory {
		return fmt.Errorf("invalid sort order: %s (must be 'date' or 'category')", flagSort)
	}

	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	verbosef(stderr, "Checking property: %s\n", cfg.PropertyID)
	verbosef(stderr, "Data directory: %s\n", cfg.DataDir)

	coord, _, err := newCoordinator(cfg)
	if err != nil {
		return err
	}

	var changes []*waste.Change
	coord.Subscribe(func(_ context.Context, _ *waste.Schedule, c []*waste.Change) {
		changes = c
	})

	verbosef(stderr, "Fetching %s\n", sourceURL(cfg))
	schedule, err := coord.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	day := today(cfg)
	result := &OutputResult{
		CheckedAt:   time.Now().UTC(),
		PropertyID:  cfg.PropertyID,
		Values:      schedule.Values(),
		Next:        waste.Unknown,
		Entries:     entriesFor(schedule, day),
		Collections: schedule.Collections(),
		Changes:     changes,
		LastRefresh: schedule.LastRefresh,
	}
	if next, ok := schedule.Next(day); ok {
		result.Next = waste.FormatDate(next)
	}
	sortEntries(result.Entries, order)

	if err := WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
