package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/him-waste/internal/calendar"
)

var (
	flagOutput     string
	flagAlarmHours int
)

func newICSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Write the collection calendar as an iCalendar (.ics) feed",
		Args:  cobra.NoArgs,
		RunE:  runICS,
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().IntVar(&flagAlarmHours, "alarm-hours", 0, "Add a reminder this many hours before each pickup day (0 disables)")

	return cmd
}

// runICS refreshes, falling back to the persisted snapshot, and writes the feed
func runICS(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}

	coord, _, err := newCoordinator(cfg)
	if err != nil {
		return err
	}
	if err := coord.Start(cmd.Context()); err != nil {
		return err
	}

	ics := calendar.GenerateICS(coord.Schedule(), calendar.Options{
		AlarmHours: cfg.AlarmHours,
		SourceURL:  sourceURL(cfg),
	})

	var w io.Writer = cmd.OutOrStdout()
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := io.WriteString(w, ics); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	verbosef(cmd.ErrOrStderr(), "Wrote %d collection days\n", len(coord.Schedule().Collections()))
	return nil
}
