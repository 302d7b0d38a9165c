package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/him-waste/internal/config"
	"github.com/pfrederiksen/him-waste/internal/coordinator"
	"github.com/pfrederiksen/him-waste/internal/hass"
	"github.com/pfrederiksen/him-waste/internal/logger"
	"github.com/pfrederiksen/him-waste/internal/notifier"
	"github.com/pfrederiksen/him-waste/internal/waste"
	"github.com/pfrederiksen/him-waste/internal/web"
)

var flagListen string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Refresh on a schedule and serve the HTTP API",
		Long: `Run the refresh scheduler, the HTTP API and, when configured, the Home Assistant
publisher and reminder scheduler until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&flagListen, "listen", config.DefaultListen, "HTTP listen address")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}

	coord, _, err := newCoordinator(cfg)
	if err != nil {
		return err
	}
	coord.Subscribe(logChanges)

	if cfg.HomeAssistant.URL != "" {
		pub, err := hass.NewPublisher(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token, cfg.Location())
		if err != nil {
			return err
		}
		coord.Subscribe(pub.OnRefresh)
		logger.Info("Home Assistant publishing enabled", logger.Fields{"url": cfg.HomeAssistant.URL})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return coord.Run(gctx)
	})

	srv := web.NewServer(cfg, coord, sourceURL(cfg))
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if cfg.Notifier.Kind != config.NotifierNone {
		n, err := newNotifier(cfg, false, cmd.OutOrStdout())
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			return runReminders(gctx, cfg, coord, n)
		})
	}

	return g.Wait()
}

// logChanges logs every detected pickup date change
func logChanges(_ context.Context, s *waste.Schedule, changes []*waste.Change) {
	for _, c := range changes {
		logger.Info("Pickup date changed", logger.Fields{
			"property_id": s.PropertyID,
			"category":    string(c.Category),
			"change_type": c.ChangeType,
			"old_value":   c.OldValue,
			"new_value":   c.NewValue,
		})
	}
}

// runReminders sends reminders on cfg.Notifier.Schedule until ctx is canceled
func runReminders(ctx context.Context, cfg *config.Config, coord *coordinator.Coordinator, n notifier.Notifier) error {
	scheduler := cron.New(cron.WithLocation(cfg.Location()))
	if _, err := scheduler.AddFunc(cfg.Notifier.Schedule, func() {
		due := notifier.Due(coord.Schedule(), today(cfg), cfg.Notifier.Days)
		if len(due) == 0 {
			return
		}
		if err := n.Notify(ctx, due); err != nil {
			logger.IncrCounter("reminder.error")
			logger.Error("Failed to send reminders", logger.Fields{"kind": cfg.Notifier.Kind}, err)
			return
		}
		logger.IncrCounter("reminder.sent")
		logger.Info("Sent reminders", logger.Fields{"count": len(due)})
	}); err != nil {
		return err
	}

	scheduler.Start()
	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}
