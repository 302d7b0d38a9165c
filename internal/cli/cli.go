package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/him-waste/internal/config"
	"github.com/pfrederiksen/him-waste/internal/coordinator"
	"github.com/pfrederiksen/him-waste/internal/logger"
	"github.com/pfrederiksen/him-waste/internal/scraper"
	"github.com/pfrederiksen/him-waste/internal/storage"
	"github.com/pfrederiksen/him-waste/internal/waste"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig   string
	flagProperty string
	flagDataDir  string
	flagBaseURL  string
	flagLogLevel string
	flagVerbose  bool
)

// exitError carries a non-zero exit code for outcomes that are not failures
// worth printing, such as "no reminders due".
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "him-waste",
		Short: "Track HIM waste collection dates",
		Long: `A tool that scrapes the HIM waste collection calendar (him.as/tommekalender)
for one property and exposes the next pickup date per waste category.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "Path to YAML config (default ~/.config/him-waste/config.yaml)")
	flags.StringVar(&flagProperty, "property", "", "HIM property ID (eiendomId)")
	flags.StringVar(&flagDataDir, "data-dir", config.DefaultDataDir, "Data directory for snapshots")
	flags.StringVar(&flagBaseURL, "base-url", config.DefaultBaseURL, "Calendar page URL")
	flags.StringVar(&flagLogLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")

	cmd.AddCommand(
		newCheckCmd(),
		newICSCmd(),
		newRemindCmd(),
		newHistoryCmd(),
		newServeCmd(),
		newHashPasswordCmd(),
	)

	return cmd
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level, err := logger.ParseLevel(flagLogLevel)
	if err != nil {
		return err
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	return nil
}

// loadConfig resolves configuration from file, environment and flags, in that order.
// The default config file is only created when writeDefault is set.
func loadConfig(cmd *cobra.Command, writeDefault bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
		if _, statErr := os.Stat(path); statErr != nil && !writeDefault {
			path = ""
		}
	}

	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.Normalize()

	// Flags are applied after normalizing so explicit zero values survive
	flags := cmd.Flags()
	if flags.Changed("property") {
		cfg.PropertyID = flagProperty
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = flagDataDir
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = flagBaseURL
	}
	if flags.Changed("listen") {
		cfg.Listen = flagListen
	}
	if flags.Changed("alarm-hours") {
		cfg.AlarmHours = flagAlarmHours
	}
	if flags.Changed("notifier") {
		cfg.Notifier.Kind = flagNotifier
	}
	if flags.Changed("days") {
		cfg.Notifier.Days = flagDays
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newCoordinator wires the scraper and storage into a coordinator for cfg
func newCoordinator(cfg *config.Config) (*coordinator.Coordinator, *storage.Storage, error) {
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing storage: %w", err)
	}

	sc := scraper.New(
		scraper.WithBaseURL(cfg.BaseURL),
		scraper.WithTimeout(cfg.Timeout),
	)

	coord, err := coordinator.New(sc, store, coordinator.Options{
		PropertyID: cfg.PropertyID,
		Schedule:   cfg.Refresh,
		Attempts:   cfg.Attempts,
		RetryDelay: cfg.RetryDelay,
	})
	if err != nil {
		return nil, nil, err
	}
	return coord, store, nil
}

// sourceURL is the calendar page of the configured property
func sourceURL(cfg *config.Config) string {
	u, err := scraper.New(scraper.WithBaseURL(cfg.BaseURL)).PropertyURL(cfg.PropertyID)
	if err != nil {
		return ""
	}
	return u
}

// today returns the current day in the configured zone
func today(cfg *config.Config) time.Time {
	return waste.Day(time.Now().In(cfg.Location()))
}

func verbosef(w io.Writer, format string, args ...interface{}) {
	if flagVerbose {
		fmt.Fprintf(w, format, args...)
	}
}

// run executes the root command with args and returns the process exit code
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

// Execute runs the CLI
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
