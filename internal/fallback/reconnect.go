package fallback

import (
	"math/rand"
	"sync"
	"time"

	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
	"github.com/MTorner/GemeloVital/server/internal/platform/tuning"
)

// Reconnector retries the authoritative connection with exponential backoff.
// Past the attempt cap the client stays permanently in fallback mode until an
// explicit Reset.
type Reconnector struct {
	mu sync.Mutex

	cfg    *tuning.Config
	logger *logger.Logger
	dial   func() error

	attempt   int
	permanent bool
	pending   *time.Timer
	rng       *rand.Rand
}

// NewReconnector builds a reconnector around a dial function.
func NewReconnector(cfg *tuning.Config, dial func() error, log *logger.Logger) *Reconnector {
	return &Reconnector{
		cfg:    cfg,
		logger: log,
		dial:   dial,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// DelayFor returns the backoff delay for attempt n (0-indexed):
// min(base*2^n, max) plus a random jitter in [0, jitter).
func (r *Reconnector) DelayFor(n int) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delayLocked(n)
}

func (r *Reconnector) delayLocked(n int) time.Duration {
	base := r.cfg.ReconnectBaseDelayMs
	for i := 0; i < n && base < r.cfg.ReconnectMaxDelayMs; i++ {
		base *= 2
	}
	if base > r.cfg.ReconnectMaxDelayMs {
		base = r.cfg.ReconnectMaxDelayMs
	}

	jitter := 0
	if r.cfg.ReconnectJitterMs > 0 {
		jitter = r.rng.Intn(r.cfg.ReconnectJitterMs)
	}
	return time.Duration(base+jitter) * time.Millisecond
}

// ScheduleRetry arms a reconnect attempt after the current backoff delay.
// Clearing the previous timer and arming the new one happen under one lock
// hold, so concurrent callers can never leave two timers armed.
func (r *Reconnector) ScheduleRetry() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.permanent {
		return
	}
	if r.pending != nil {
		r.pending.Stop()
	}

	delay := r.delayLocked(r.attempt)
	r.logger.Info("Scheduling reconnect attempt %d in %s", r.attempt, delay)
	r.pending = time.AfterFunc(delay, r.tryConnect)
}

func (r *Reconnector) tryConnect() {
	r.mu.Lock()
	r.pending = nil
	if r.permanent {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	if err := r.dial(); err == nil {
		r.mu.Lock()
		r.attempt = 0
		r.mu.Unlock()
		r.logger.Info("Reconnected to authoritative loop")
		return
	}

	r.mu.Lock()
	r.attempt++
	exhausted := r.attempt >= r.cfg.ReconnectMaxAttempts
	if exhausted {
		r.permanent = true
	}
	r.mu.Unlock()

	if exhausted {
		r.logger.Warn("Reconnect attempts exhausted; staying in approximate mode until reset")
		return
	}
	r.ScheduleRetry()
}

// Permanent reports whether the client is locked into fallback mode.
func (r *Reconnector) Permanent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.permanent
}

// Attempt returns the current attempt counter.
func (r *Reconnector) Attempt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempt
}

// Reset clears permanent fallback mode and any pending timer; the next
// ScheduleRetry starts from attempt zero.
func (r *Reconnector) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
	r.attempt = 0
	r.permanent = false
}
