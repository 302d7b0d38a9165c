package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/him-waste/internal/config"
	"github.com/pfrederiksen/him-waste/internal/notifier"
)

var (
	flagDays     int
	flagDryRun   bool
	flagNotifier string
)

func newRemindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send reminders for collections a given number of days away",
		Long: `Send a reminder for every collection exactly --days days from today.
Exits with status 1 when nothing is due.`,
		Args: cobra.NoArgs,
		RunE: runRemind,
	}

	cmd.Flags().IntVar(&flagDays, "days", 1, "Days ahead to look for collections")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print reminders without sending")
	cmd.Flags().StringVar(&flagNotifier, "notifier", "", "Reminder channel: telegram or twitter")

	return cmd
}

func runRemind(cmd *cobra.Command, _ []string) error {
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

	due := notifier.Due(coord.Schedule(), today(cfg), cfg.Notifier.Days)
	if len(due) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No collections in %d days.\n", cfg.Notifier.Days)
		return &exitError{code: ExitError}
	}

	n, err := newNotifier(cfg, flagDryRun, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := n.Notify(cmd.Context(), due); err != nil {
		return fmt.Errorf("sending reminders: %w", err)
	}

	verbosef(cmd.ErrOrStderr(), "Sent %d reminders\n", len(due))
	return nil
}

// newNotifier builds the configured notifier. No kind, or dryRun, prints to out.
func newNotifier(cfg *config.Config, dryRun bool, out io.Writer) (notifier.Notifier, error) {
	if dryRun {
		return notifier.NewDryRunNotifier(out), nil
	}

	switch cfg.Notifier.Kind {
	case config.NotifierTelegram:
		return notifier.NewTelegramNotifier(cfg.Notifier.Telegram.BotToken, cfg.Notifier.Telegram.ChatID)
	case config.NotifierTwitter:
		tw := cfg.Notifier.Twitter
		return notifier.NewTwitterNotifier(notifier.TwitterCredentials{
			ConsumerKey:    tw.ConsumerKey,
			ConsumerSecret: tw.ConsumerSecret,
			AccessToken:    tw.AccessToken,
			AccessSecret:   tw.AccessSecret,
		})
	case config.NotifierNone, config.NotifierDryRun:
		return notifier.NewDryRunNotifier(out), nil
	default:
		return nil, fmt.Errorf("unknown notifier kind %q", cfg.Notifier.Kind)
	}
}
