package fallback

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
	"github.com/MTorner/GemeloVital/server/internal/platform/tuning"
)

func TestDelayForBackoffBounds(t *testing.T) {
	rec := NewReconnector(tuning.DefaultConfig(), func() error { return nil }, logger.NewLogger())

	for n := 0; n <= 10; n++ {
		base := 1000
		for i := 0; i < n && base < 30000; i++ {
			base *= 2
		}
		if base > 30000 {
			base = 30000
		}
		lo := time.Duration(base) * time.Millisecond
		hi := time.Duration(base+1000) * time.Millisecond

		for trial := 0; trial < 20; trial++ {
			d := rec.DelayFor(n)
			if d < lo || d >= hi {
				t.Fatalf("Delay for attempt %d out of bounds: %s not in [%s, %s)", n, d, lo, hi)
			}
		}
	}
}

func TestZeroJitterDelayIsExact(t *testing.T) {
	cfg := testReconnectConfig()
	cfg.ReconnectJitterMs = 0
	rec := NewReconnector(cfg, func() error { return nil }, logger.NewLogger())

	if d := rec.DelayFor(0); d != time.Duration(cfg.ReconnectBaseDelayMs)*time.Millisecond {
		t.Errorf("Expected jitter-free base delay, got %s", d)
	}
}

func TestDelayCappedAtMax(t *testing.T) {
	rec := NewReconnector(tuning.DefaultConfig(), func() error { return nil }, logger.NewLogger())

	d := rec.DelayFor(50)
	if d < 30*time.Second || d >= 31*time.Second {
		t.Errorf("Expected capped delay in [30s, 31s), got %s", d)
	}
}

func TestPermanentAfterExhaustedAttempts(t *testing.T) {
	var dials int64
	rec := NewReconnector(testReconnectConfig(), func() error {
		atomic.AddInt64(&dials, 1)
		return errors.New("refused")
	}, logger.NewLogger())

	rec.ScheduleRetry()

	deadline := time.Now().Add(2 * time.Second)
	for !rec.Permanent() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if !rec.Permanent() {
		t.Fatalf("Expected permanent fallback after %d failed attempts", testReconnectConfig().ReconnectMaxAttempts)
	}
	if got := atomic.LoadInt64(&dials); got != 3 {
		t.Errorf("Expected exactly 3 dial attempts, got %d", got)
	}

	// Once permanent, further retries are refused outright.
	rec.ScheduleRetry()
	time.Sleep(20 * time.Millisecond)
	if got := atomic.LoadInt64(&dials); got != 3 {
		t.Errorf("Expected no dials after permanent mode, got %d", got)
	}
}

func TestSuccessfulDialResetsAttempts(t *testing.T) {
	cfg := testReconnectConfig()
	cfg.ReconnectBaseDelayMs = 30
	cfg.ReconnectMaxAttempts = 20

	var fail int64 = 1
	rec := NewReconnector(cfg, func() error {
		if atomic.LoadInt64(&fail) == 1 {
			return errors.New("refused")
		}
		return nil
	}, logger.NewLogger())

	rec.ScheduleRetry()
	deadline := time.Now().Add(time.Second)
	for rec.Attempt() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if rec.Attempt() == 0 {
		t.Fatalf("Expected at least one failed attempt")
	}

	atomic.StoreInt64(&fail, 0)
	deadline = time.Now().Add(time.Second)
	for rec.Attempt() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if rec.Attempt() != 0 {
		t.Errorf("Expected attempt counter reset after successful dial, got %d", rec.Attempt())
	}
	if rec.Permanent() {
		t.Errorf("Reconnected client must not be in permanent fallback")
	}
}

func TestConcurrentScheduleRetryArmsOneTimer(t *testing.T) {
	cfg := testReconnectConfig()
	cfg.ReconnectMaxAttempts = 1 // first failure locks permanent, nothing re-schedules

	var dials int64
	rec := NewReconnector(cfg, func() error {
		atomic.AddInt64(&dials, 1)
		time.Sleep(2 * time.Millisecond) // widen the window a duplicate timer would hit
		return errors.New("refused")
	}, logger.NewLogger())

	for round := 1; round <= 50; round++ {
		rec.Reset()

		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec.ScheduleRetry()
			}()
		}
		wg.Wait()

		deadline := time.Now().Add(time.Second)
		for !rec.Permanent() && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		if !rec.Permanent() {
			t.Fatalf("Round %d: armed retry never fired", round)
		}

		// Give an orphaned duplicate timer time to fire before counting.
		time.Sleep(10 * time.Millisecond)
		if got := atomic.LoadInt64(&dials); got != int64(round) {
			t.Fatalf("Round %d: %d dials total, concurrent ScheduleRetry calls armed more than one timer", round, got)
		}
	}
}

func TestResetClearsPermanent(t *testing.T) {
	rec := NewReconnector(testReconnectConfig(), func() error { return errors.New("refused") }, logger.NewLogger())
	forcePermanent(rec)

	rec.Reset()
	if rec.Permanent() {
		t.Errorf("Expected Reset to clear permanent mode")
	}
	if rec.Attempt() != 0 {
		t.Errorf("Expected Reset to zero the attempt counter")
	}
}
