package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/amqp"
)

// TablePusher is anything that can push the newest local snapshot to the
// sheet. Pushes must be idempotent: an up-to-date sheet is a no-op.
type TablePusher interface {
	PushLatest(ctx context.Context) error
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PushDebounce is the quiet period after a sync request before the
	// push runs, so a burst of appends becomes one push (default: 2s)
	PushDebounce time.Duration

	// PollInterval is how often to push-check without a request, covering
	// lost messages (default: 1m)
	PollInterval time.Duration

	// MaxRetries is the number of push attempts per cycle (default: 3)
	MaxRetries int

	// RetryDelay is the base delay between attempts; it grows linearly
	// with the attempt number (default: 5s)
	RetryDelay time.Duration
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PushDebounce: 2 * time.Second,
		PollInterval: 1 * time.Minute,
		MaxRetries:   3,
		RetryDelay:   5 * time.Second,
	}
}

// SyncProcessor coalesces sync requests into debounced, retried pushes.
// It runs on the worker behind the AMQP consumer, and in-process on the
// server when no broker is configured.
type SyncProcessor struct {
	pusher  TablePusher
	sheetID string
	config  SyncProcessorConfig

	kick chan struct{}

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(pusher TablePusher, sheetID string, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		pusher:  pusher,
		sheetID: sheetID,
		config:  config,
		kick:    make(chan struct{}, 1),
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "sync processor started",
		"push_debounce", p.config.PushDebounce,
		"poll_interval", p.config.PollInterval,
		"max_retries", p.config.MaxRetries)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// RequestPush schedules a debounced push. Safe from any goroutine and
// never blocks; redundant requests collapse into the pending one.
func (p *SyncProcessor) RequestPush() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// HandleMessage feeds an AMQP sync message into the debounce loop. The
// message itself only carries the trigger; the push always reads the
// newest snapshot. Messages for another sheet are acknowledged and
// dropped.
func (p *SyncProcessor) HandleMessage(ctx context.Context, msg *amqp.TableSyncMessage) error {
	if msg.SheetID != "" && p.sheetID != "" && msg.SheetID != p.sheetID {
		slog.WarnContext(ctx, "sync message targets a different sheet, skipping",
			"message_sheet", msg.SheetID,
			"processor_sheet", p.sheetID)
		return nil
	}

	slog.DebugContext(ctx, "queueing sync request",
		"sheet_id", msg.SheetID,
		"version", msg.Version)
	p.RequestPush()
	return nil
}

// runLoop is the main processing loop
func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()

	// Push whatever the sheet missed while we were down.
	p.pushWithRetries(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-p.kick:
			if !p.debounce(ctx) {
				return
			}
			p.pushWithRetries(ctx)
		case <-poll.C:
			p.pushWithRetries(ctx)
		}
	}
}

// debounce waits out the quiet period, swallowing any further requests
// that arrive meanwhile. Returns false if the processor is shutting down.
func (p *SyncProcessor) debounce(ctx context.Context) bool {
	timer := time.NewTimer(p.config.PushDebounce)
	defer timer.Stop()

	for {
		select {
		case <-p.stopCh:
			return false
		case <-ctx.Done():
			return false
		case <-p.kick:
			// Coalesced into the pending push.
		case <-timer.C:
			return true
		}
	}
}

func (p *SyncProcessor) pushWithRetries(ctx context.Context) {
	var err error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		if err = p.pusher.PushLatest(ctx); err == nil {
			return
		}

		slog.WarnContext(ctx, "push attempt failed",
			"attempt", attempt,
			"max_retries", p.config.MaxRetries,
			"error", err)

		if attempt < p.config.MaxRetries {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case <-time.After(p.config.RetryDelay * time.Duration(attempt)):
			}
		}
	}

	// The failure is already recorded in sync state; the next poll or
	// request tries again.
	slog.ErrorContext(ctx, "push failed after max retries",
		"max_retries", p.config.MaxRetries,
		"error", err)
}
