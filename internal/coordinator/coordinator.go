// Package coordinator keeps the current waste schedule fresh.
//
// A Coordinator owns the state holder for one property. It refreshes on a cron
// schedule (every six hours by default) and on demand, retrying a failed fetch a
// fixed number of times with a constant delay. When every attempt fails, the last
// good schedule stays available and is reported as stale.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"

	"github.com/pfrederiksen/him-waste/internal/logger"
	"github.com/pfrederiksen/him-waste/internal/storage"
	"github.com/pfrederiksen/him-waste/internal/waste"
)

const (
	DefaultSchedule   = "@every 6h"
	DefaultAttempts   = 3
	DefaultRetryDelay = time.Second
)

// ErrNoData is returned by Start when the first refresh fails and nothing was persisted
var ErrNoData = errors.New("no waste calendar data available")

// Fetcher retrieves the schedule of a property
type Fetcher interface {
	FetchSchedule(ctx context.Context, propertyID string) (*waste.Schedule, error)
}

// Store persists schedules between runs
type Store interface {
	LoadSnapshot(propertyID string) (*storage.Snapshot, error)
	Record(schedule *waste.Schedule) ([]*waste.Change, error)
}

// Listener is called after every successful refresh with the new schedule and the
// changes detected against the previous one
type Listener func(ctx context.Context, schedule *waste.Schedule, changes []*waste.Change)

// Options configures a Coordinator
type Options struct {
	PropertyID string
	Schedule   string        // cron spec, e.g. "@every 6h"
	Attempts   int           // fetch attempts per refresh
	RetryDelay time.Duration // delay between attempts
	Now        func() time.Time
}

// Status describes the state holder at a point in time
type Status struct {
	Schedule    *waste.Schedule `json:"schedule"`
	LastAttempt time.Time       `json:"last_attempt,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Stale       bool            `json:"stale"`
}

// Coordinator refreshes and holds the schedule of one property
type Coordinator struct {
	fetcher Fetcher
	store   Store
	opts    Options

	refreshMu sync.Mutex // serializes refreshes

	mu          sync.RWMutex
	current     *waste.Schedule
	lastErr     error
	lastAttempt time.Time
	listeners   []Listener
}

// New creates a Coordinator. store may be nil to disable persistence.
func New(fetcher Fetcher, store Store, opts Options) (*Coordinator, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if opts.PropertyID == "" {
		return nil, fmt.Errorf("property ID is required")
	}
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(opts.Schedule); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", opts.Schedule, err)
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Coordinator{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
		current: waste.NewSchedule(opts.PropertyID),
	}, nil
}

// Subscribe registers a listener for successful refreshes
func (c *Coordinator) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// PropertyID returns the property this coordinator tracks
func (c *Coordinator) PropertyID() string {
	return c.opts.PropertyID
}

// Schedule returns a copy of the current schedule
func (c *Coordinator) Schedule() *waste.Schedule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Clone()
}

// Status returns the current schedule together with refresh bookkeeping
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Status{
		Schedule:    c.current.Clone(),
		LastAttempt: c.lastAttempt,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
		st.Stale = true
	}
	return st
}

// LoadSnapshot seeds the state holder from the persisted snapshot, if any
func (c *Coordinator) LoadSnapshot() error {
	if c.store == nil {
		return nil
	}
	snap, err := c.store.LoadSnapshot(c.opts.PropertyID)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	if snap.Schedule.IsEmpty() {
		return nil
	}

	c.mu.Lock()
	c.current = snap.Schedule.Clone()
	c.mu.Unlock()

	logger.Info("Loaded persisted schedule", logger.Fields{
		"property_id":  c.opts.PropertyID,
		"last_refresh": snap.Schedule.LastRefresh.Format(time.RFC3339),
	})
	return nil
}

// Refresh fetches the schedule with retries and replaces the state holder on success.
// On failure the previous schedule is kept and the error is returned.
func (c *Coordinator) Refresh(ctx context.Context) (*waste.Schedule, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	start := c.opts.Now()
	c.mu.Lock()
	c.lastAttempt = start.UTC()
	c.mu.Unlock()

	schedule, err := c.fetchWithRetry(ctx)
	logger.RecordTiming("refresh.duration", time.Since(start))
	if err != nil {
		err = fmt.Errorf("error fetching waste calendar data: %w", err)
		logger.IncrCounter("refresh.failure")
		logger.Error("Refresh failed, keeping previous data", logger.Fields{
			"property_id": c.opts.PropertyID,
			"attempts":    c.opts.Attempts,
		}, err)

		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return nil, err
	}

	schedule.PropertyID = c.opts.PropertyID
	schedule.LastRefresh = c.opts.Now().UTC()

	var changes []*waste.Change
	if c.store != nil {
		changes, err = c.store.Record(schedule)
		if err != nil {
			// The fresh data is still served; only persistence failed
			logger.Error("Failed to persist schedule", logger.Fields{"property_id": c.opts.PropertyID}, err)
		}
	}

	c.mu.Lock()
	c.current = schedule.Clone()
	c.lastErr = nil
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	logger.IncrCounter("refresh.success")
	logger.SetGauge("refresh.last_success_timestamp", float64(schedule.LastRefresh.Unix()))
	logger.SetGauge("schedule.categories", float64(len(schedule.Dates)))
	logger.Info("Refresh succeeded", logger.Fields{
		"property_id": c.opts.PropertyID,
		"categories":  len(schedule.Dates),
		"changes":     len(changes),
	})

	for _, l := range listeners {
		l(ctx, schedule.Clone(), changes)
	}

	return schedule.Clone(), nil
}

// fetchWithRetry tries the fetcher up to Attempts times, RetryDelay apart
func (c *Coordinator) fetchWithRetry(ctx context.Context) (*waste.Schedule, error) {
	var (
		result  *waste.Schedule
		attempt int
	)

	operation := func() error {
		attempt++
		logger.IncrCounter("refresh.attempt")

		s, err := c.fetcher.FetchSchedule(ctx, c.opts.PropertyID)
		if err != nil {
			logger.Warn(fmt.Sprintf("Attempt %d to fetch waste calendar failed", attempt), logger.Fields{
				"property_id": c.opts.PropertyID,
				"attempt":     attempt,
				"error":       err.Error(),
			})
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result = s
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.opts.RetryDelay), uint64(c.opts.Attempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}

// Start loads the persisted snapshot and performs the first refresh.
// It fails only when the refresh fails and no earlier schedule is available.
func (c *Coordinator) Start(ctx context.Context) error {
	if err := c.LoadSnapshot(); err != nil {
		logger.Warn("Ignoring unreadable snapshot", logger.Fields{"error": err.Error()})
	}

	if _, err := c.Refresh(ctx); err != nil {
		if c.Schedule().IsEmpty() {
			return fmt.Errorf("%w: %v", ErrNoData, err)
		}
		logger.Warn("Serving stale schedule after failed first refresh", logger.Fields{
			"property_id": c.opts.PropertyID,
		})
	}
	return nil
}

// Run performs the first refresh and then refreshes on the configured schedule
// until ctx is canceled.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		return err
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(c.opts.Schedule, func() {
		// Errors are logged and recorded in Status by Refresh
		_, _ = c.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("scheduling refresh: %w", err)
	}

	logger.Info("Refresh scheduler started", logger.Fields{
		"property_id": c.opts.PropertyID,
		"schedule":    c.opts.Schedule,
	})
	scheduler.Start()

	<-ctx.Done()
	<-scheduler.Stop().Done()
	logger.Info("Refresh scheduler stopped", logger.Fields{"property_id": c.opts.PropertyID})
	return nil
}
