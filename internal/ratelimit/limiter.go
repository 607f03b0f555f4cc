package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"
)

// ErrCapacityTimeout reports that a caller waited longer than the configured
// ceiling for admission.
var ErrCapacityTimeout = errors.New("rate limit: capacity wait exceeded ceiling")

// Operation is one unit of paced work.
type Operation func(ctx context.Context) (any, error)

// ProgressFunc is invoked after each paced operation completes.
type ProgressFunc func(completed, total int)

// Options tune a Limiter.
type Options struct {
	// RequestsPerSecond is the steady-state per-tenant cap. It must sit
	// below the upstream provider's published limit so concurrent callers
	// and clock skew cannot push past it.
	RequestsPerSecond int
	// Burst grants a freshly active tenant extra admissions, decaying
	// linearly to zero over BurstWindow.
	Burst       int
	BurstWindow time.Duration
	// MaxWait bounds a single admission wait. Zero waits indefinitely.
	MaxWait time.Duration
}

// Limiter admits requests per tenant against a sliding one second window.
// Tenants never share a window or a lock: a saturated tenant cannot delay
// another tenant's admission.
type Limiter struct {
	rps         int
	burst       int
	burstWindow time.Duration
	maxWait     time.Duration
	window      time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	tenants map[string]*tenantWindow
}

type tenantWindow struct {
	mu        sync.Mutex
	firstSeen time.Time
	events    []time.Time
}

func New(opts Options) *Limiter {
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 8
	}
	return &Limiter{
		rps:         rps,
		burst:       opts.Burst,
		burstWindow: opts.BurstWindow,
		maxWait:     opts.MaxWait,
		window:      time.Second,
		tenants:     make(map[string]*tenantWindow),
	}
}

func (l *Limiter) SetLogger(logger *slog.Logger) {
	l.logger = logger
}

// Wait blocks until the tenant has capacity, then records the admission.
// Callers for the same tenant are admitted in arrival order; the wait is a
// timer-driven suspension, never a busy poll.
func (l *Limiter) Wait(ctx context.Context, tenantID string) error {
	tw := l.tenant(tenantID)

	// Serialises admission per tenant so the occupancy check and the
	// event insert are one atomic step.
	tw.mu.Lock()
	defer tw.mu.Unlock()

	var deadline time.Time
	if l.maxWait > 0 {
		deadline = time.Now().Add(l.maxWait)
	}

	for {
		now := time.Now()
		tw.prune(now.Add(-l.window))

		if len(tw.events) < l.limitAt(tw, now) {
			tw.events = append(tw.events, now)
			return nil
		}

		wakeAt := tw.events[0].Add(l.window)
		if !deadline.IsZero() && wakeAt.After(deadline) {
			l.logWarn("rate_limit_wait_ceiling", "tenant", tenantID, "ceiling", l.maxWait)
			return fmt.Errorf("tenant %s: %w", tenantID, ErrCapacityTimeout)
		}

		l.logDebug("rate_limit_waiting", "tenant", tenantID, "until", wakeAt)
		if err := sleepUntil(ctx, wakeAt); err != nil {
			return err
		}
	}
}

// Pace drains operations sequentially, acquiring capacity before each one
// and reporting progress after each completes.
func (l *Limiter) Pace(ctx context.Context, tenantID string, ops []Operation, progress ProgressFunc) ([]any, error) {
	results := make([]any, 0, len(ops))

	for i, op := range ops {
		if err := l.Wait(ctx, tenantID); err != nil {
			return results, err
		}

		result, err := op(ctx)
		if err != nil {
			return results, fmt.Errorf("operation %d/%d: %w", i+1, len(ops), err)
		}
		results = append(results, result)

		if progress != nil {
			progress(i+1, len(ops))
		}
	}

	return results, nil
}

// InWindow reports the tenant's current admission count, for observability.
func (l *Limiter) InWindow(tenantID string) int {
	tw := l.tenant(tenantID)
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.prune(time.Now().Add(-l.window))
	return len(tw.events)
}

// limitAt is the effective cap for a tenant at a given instant: the steady
// cap plus whatever remains of the burst grace.
func (l *Limiter) limitAt(tw *tenantWindow, now time.Time) int {
	if l.burst <= 0 || l.burstWindow <= 0 {
		return l.rps
	}
	age := now.Sub(tw.firstSeen)
	if age >= l.burstWindow {
		return l.rps
	}
	remaining := float64(l.burst) * (1 - float64(age)/float64(l.burstWindow))
	return l.rps + int(remaining)
}

func (l *Limiter) tenant(tenantID string) *tenantWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	tw, ok := l.tenants[tenantID]
	if !ok {
		tw = &tenantWindow{firstSeen: time.Now()}
		l.tenants[tenantID] = tw
	}
	return tw
}

func (tw *tenantWindow) prune(cutoff time.Time) {
	drop := 0
	for drop < len(tw.events) && tw.events[drop].Before(cutoff) {
		drop++
	}
	if drop > 0 {
		tw.events = append(tw.events[:0], tw.events[drop:]...)
	}
}

func sleepUntil(ctx context.Context, at time.Time) error {
	d := time.Until(at)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Limiter) logDebug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

func (l *Limiter) logWarn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
