package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/plant-moisture-dashboard/internal/metrics"
	"github.com/i474232898/plant-moisture-dashboard/internal/plants"
	"github.com/i474232898/plant-moisture-dashboard/internal/plants/sources"
	"github.com/i474232898/plant-moisture-dashboard/internal/scheduler"
)

// DefaultInterval is the refresh cadence used when none is configured.
const DefaultInterval = 60 * time.Second

var (
	// ErrRefreshInFlight is returned when a trigger arrives while a fetch is
	// outstanding. The trigger is dropped, not queued.
	ErrRefreshInFlight = errors.New("refresh already in flight")
	// ErrStaleResult is returned when a fetch completes after a newer refresh
	// was issued or after teardown; its result is discarded.
	ErrStaleResult = errors.New("refresh result discarded")
	// ErrClosed is returned by operations after Teardown.
	ErrClosed = errors.New("dashboard torn down")
)

// Options tunes a Controller. Zero values pick the defaults.
type Options struct {
	Interval time.Duration
	// Timeout bounds one retrieval call.
	Timeout time.Duration
	Now     func() time.Time
}

// Controller owns the refresh cadence and the loading/error lifecycle of the
// dashboard snapshot. It is the only writer of the snapshot.
type Controller struct {
	source     plants.Source
	normalizer *plants.Normalizer
	logger     zerolog.Logger
	interval   time.Duration
	timeout    time.Duration
	now        func() time.Time

	// lifetime is cancelled by Teardown so in-flight fetches abort.
	lifetime context.Context
	cancel   context.CancelFunc

	mu          sync.Mutex
	snap        Snapshot
	seq         uint64
	inFlight    bool
	closed      bool
	sched       *scheduler.Scheduler
	subscribers map[int]chan View
	nextSub     int
}

// New creates a Controller. Nothing is fetched until Start or Refresh.
func New(source plants.Source, normalizer *plants.Normalizer, logger zerolog.Logger, opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		source:      source,
		normalizer:  normalizer,
		logger:      logger.With().Str("component", "dashboard").Str("source", source.Name()).Logger(),
		interval:    opts.Interval,
		timeout:     opts.Timeout,
		now:         opts.Now,
		lifetime:    ctx,
		cancel:      cancel,
		snap:        Snapshot{Readings: []plants.DisplayReading{}},
		subscribers: make(map[int]chan View),
	}
}

// Interval returns the configured refresh cadence.
func (c *Controller) Interval() time.Duration {
	return c.interval
}

// Start refreshes immediately and then on every interval. The returned
// handle stops the schedule; Teardown does the same and more.
func (c *Controller) Start() (*scheduler.Handle, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.sched != nil {
		c.mu.Unlock()
		return nil, scheduler.ErrAlreadyStarted
	}
	c.sched = scheduler.New(c.interval, 0, c.poll, c.logger)
	sched := c.sched
	c.mu.Unlock()

	return sched.Start()
}

func (c *Controller) poll(ctx context.Context) {
	// Failures are logged and recorded inside Refresh.
	_, _ = c.Refresh(ctx)
}

// RefreshNow is a user-initiated refresh, independent of the timer.
func (c *Controller) RefreshNow(ctx context.Context) (View, error) {
	c.logger.Debug().Msg("manual refresh requested")
	return c.Refresh(ctx)
}

// Refresh performs one poll. On success the snapshot readings and
// lastUpdated are replaced; on failure they are left untouched and only
// loading and lastError change. The returned View is the state after the
// call. A trigger while another fetch is outstanding returns
// ErrRefreshInFlight without issuing a request.
func (c *Controller) Refresh(ctx context.Context) (View, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return View{}, ErrClosed
	}
	if c.inFlight {
		view := c.snap.view()
		c.mu.Unlock()
		c.logger.Debug().Msg("refresh coalesced with in-flight fetch")
		metrics.RecordPoll(metrics.ResultCoalesced, time.Now())
		return view, ErrRefreshInFlight
	}
	c.seq++
	seq := c.seq
	c.inFlight = true
	c.snap.Loading = true
	c.publishLocked()
	c.mu.Unlock()

	log := c.logger.With().Str("poll_id", uuid.NewString()).Uint64("seq", seq).Logger()

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopAfter := context.AfterFunc(c.lifetime, cancel)
	defer stopAfter()
	if c.timeout > 0 {
		var cancelTimeout context.CancelFunc
		fetchCtx, cancelTimeout = context.WithTimeout(fetchCtx, c.timeout)
		defer cancelTimeout()
	}

	started := time.Now()
	raw, err := c.source.Fetch(fetchCtx)

	var normalized []plants.DisplayReading
	if err == nil {
		normalized = c.normalizer.Normalize(raw)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		log.Debug().Msg("discarding refresh result after teardown")
		metrics.RecordPoll(metrics.ResultStale, started)
		return c.snap.view(), ErrStaleResult
	}

	// At most one fetch is outstanding, so this call owns the flag.
	c.inFlight = false
	c.snap.Loading = false

	if seq != c.seq {
		log.Debug().Msg("discarding stale refresh result")
		metrics.RecordPoll(metrics.ResultStale, started)
		c.publishLocked()
		return c.snap.view(), ErrStaleResult
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Cancelled by Stop or the caller; not a backend failure.
			log.Debug().Err(err).Msg("refresh cancelled")
			c.publishLocked()
			return c.snap.view(), fmt.Errorf("refresh: %w", err)
		}

		c.snap.LastError = err
		ev := log.Error().Err(err).Str("kind", errorKind(err))
		var statusErr *sources.StatusError
		if errors.As(err, &statusErr) {
			ev = ev.Int("status", statusErr.StatusCode())
		}
		ev.Msg("error fetching readings; keeping last snapshot")
		metrics.RecordPoll(metrics.ResultError, started)
		c.publishLocked()
		return c.snap.view(), fmt.Errorf("refresh: %w", err)
	}

	c.snap.Readings = normalized
	c.snap.LastUpdated = c.now()
	c.snap.LastError = nil
	metrics.RecordPoll(metrics.ResultSuccess, started)
	c.publishLocked()

	log.Info().Int("plants", len(normalized)).Msg("readings refreshed")
	return c.snap.view(), nil
}

// errorKind buckets a fetch failure for logging.
func errorKind(err error) string {
	var statusErr *sources.StatusError
	switch {
	case errors.As(err, &statusErr):
		return "protocol"
	case errors.Is(err, sources.ErrMalformedPayload):
		return "payload"
	default:
		return "transport"
	}
}

// View returns the current read-only state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.view()
}

// Subscribe returns a channel receiving the latest View after every state
// change, starting with the current one. Slow readers only ever see the
// newest view. The channel is closed by cancel or Teardown.
func (c *Controller) Subscribe() (<-chan View, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan View, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = ch
	ch <- c.snap.view()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}
}

func (c *Controller) publishLocked() {
	view := c.snap.view()
	for _, ch := range c.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- view:
		default:
		}
	}
}

// Stop cancels the scheduled refresh. Safe to call if Start never ran.
func (c *Controller) Stop() {
	c.mu.Lock()
	sched := c.sched
	c.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
}

// Teardown stops the schedule, aborts any in-flight fetch and discards its
// result, and closes all subscriptions. No state is written afterwards.
func (c *Controller) Teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sched := c.sched
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
	c.mu.Unlock()

	c.cancel()
	if sched != nil {
		sched.Stop()
	}
	c.logger.Info().Msg("dashboard torn down")
}
