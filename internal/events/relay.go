package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rzpsarthak13/iso8583-persistence/internal/core"
)

// RelayConfig controls how fast and how persistently a Relay forwards events.
type RelayConfig struct {
	// Rate is the maximum number of events forwarded per second.
	Rate int

	// BatchSize is how many events to dequeue at once.
	BatchSize int

	// PollInterval is how long to wait before checking an empty queue again.
	PollInterval time.Duration

	// MaxRetries is how many times a failed delivery is retried before the event is dropped.
	MaxRetries int

	// RetryBackoff is the base delay between retries; it doubles on every attempt.
	RetryBackoff time.Duration
}

// DefaultRelayConfig returns the relay defaults.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Rate:         50,
		BatchSize:    10,
		PollInterval: 100 * time.Millisecond,
		MaxRetries:   3,
		RetryBackoff: time.Second,
	}
}

// Relay drains an outbox queue into a downstream publisher at a bounded rate,
// so a burst of mapper changes does not overwhelm the broker.
type Relay struct {
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	source core.EventQueue
	target core.EventPublisher
	config RelayConfig
	logger zerolog.Logger

	forwarded atomic.Int64
	dropped   atomic.Int64
}

// NewRelay creates a relay from source to target. Zero config values take defaults.
func NewRelay(source core.EventQueue, target core.EventPublisher, config RelayConfig, logger zerolog.Logger) *Relay {
	defaults := DefaultRelayConfig()
	if config.Rate <= 0 {
		config.Rate = defaults.Rate
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = defaults.RetryBackoff
	}

	return &Relay{
		source: source,
		target: target,
		config: config,
		logger: logger.With().Str("component", "relay").Logger(),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the relay goroutine. Starting a running relay is a no-op.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.logger.Debug().Msg("already running")
		return nil
	}
	r.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	r.stopCh, r.doneCh = stopCh, doneCh
	r.mu.Unlock()

	go r.run(ctx, stopCh, doneCh)
	r.logger.Info().Int("rate", r.config.Rate).Msg("relay started")
	return nil
}

// Stop signals the relay and waits for the in-flight event to finish.
func (r *Relay) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	close(stopCh)
	<-doneCh
	r.logger.Info().Int64("forwarded", r.forwarded.Load()).Int64("dropped", r.dropped.Load()).Msg("relay stopped")
	return nil
}

// IsRunning reports whether the relay goroutine is active.
func (r *Relay) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// QueueSize returns the number of events waiting in the source queue.
func (r *Relay) QueueSize() int {
	if r.source == nil {
		return 0
	}
	return r.source.Size()
}

// Forwarded returns how many events reached the target.
func (r *Relay) Forwarded() int64 {
	return r.forwarded.Load()
}

// Dropped returns how many events were abandoned after exhausting retries.
func (r *Relay) Dropped() int64 {
	return r.dropped.Load()
}

// Config returns the effective configuration.
func (r *Relay) Config() RelayConfig {
	return r.config
}

func (r *Relay) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	// Stop cancels the context so a blocked limiter or backoff wait returns promptly.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	limiter := rate.NewLimiter(rate.Limit(r.config.Rate), 1)

	for {
		if ctx.Err() != nil {
			r.markStopped(stopCh)
			return
		}

		if r.source.Size() == 0 {
			if !r.sleep(ctx, r.config.PollInterval) {
				r.markStopped(stopCh)
				return
			}
			continue
		}

		batch, err := r.source.Dequeue(ctx, r.config.BatchSize)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) {
				r.logger.Warn().Msg("source queue closed")
				r.markStopped(stopCh)
				return
			}
			r.logger.Error().Err(err).Msg("dequeue failed")
			if !r.sleep(ctx, r.config.PollInterval) {
				r.markStopped(stopCh)
				return
			}
			continue
		}

		for i, event := range batch {
			if event == nil {
				continue
			}
			if limiter.Wait(ctx) != nil || !r.deliver(ctx, event) {
				// Undelivered events go back so a later run still delivers them.
				r.requeue(batch[i:])
				r.markStopped(stopCh)
				return
			}
		}
	}
}

// deliver publishes event, retrying with exponential backoff. It returns false
// when ctx ends before the event is forwarded or dropped.
func (r *Relay) deliver(ctx context.Context, event *core.MapperEvent) bool {
	backoff := r.config.RetryBackoff
	for {
		err := r.target.Publish(ctx, event)
		if err == nil {
			r.forwarded.Add(1)
			r.logger.Debug().Str("event_id", event.ID).Str("mapper_id", event.MapperID).Msg("event forwarded")
			return true
		}
		if event.RetryCount >= r.config.MaxRetries {
			r.dropped.Add(1)
			r.logger.Error().Err(err).Str("event_id", event.ID).Int("retries", event.RetryCount).Msg("dropping event after retries")
			return true
		}
		event.RetryCount++
		r.logger.Warn().Err(err).Str("event_id", event.ID).Int("attempt", event.RetryCount).Dur("backoff", backoff).Msg("delivery failed, retrying")
		if !r.sleep(ctx, backoff) {
			return false
		}
		backoff *= 2
	}
}

// requeue appends events to the tail of the source queue. Events the queue
// refuses are counted as dropped.
func (r *Relay) requeue(events []*core.MapperEvent) {
	for _, event := range events {
		if event == nil {
			continue
		}
		if err := r.source.Publish(context.Background(), event); err != nil {
			r.dropped.Add(1)
			r.logger.Error().Err(fmt.Errorf("requeue event %s: %w", event.ID, err)).Msg("event lost")
		}
	}
}

// markStopped clears the running flag when the loop exits on its own.
func (r *Relay) markStopped(stopCh chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopCh == stopCh {
		r.running = false
	}
}

func (r *Relay) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
