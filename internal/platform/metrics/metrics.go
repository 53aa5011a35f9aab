// Package metrics provides observability for the simulation server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Collector gathers performance metrics.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Event metrics
	EventsDispatched int64
	JournalWrites    int64
	JournalWriteLat  int64
	JournalErrors    int64

	// Broadcast / WebSocket metrics
	BroadcastsEmitted   int64
	BroadcastsSkipped   int64 // suppressed by rate limiting
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// Session metrics
	SessionsActive  int64
	SessionsCreated int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TickLatencyMax) {
		atomic.StoreInt64(&c.TickLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordEventDispatch records a scheduled event reaching a module.
func (c *Collector) RecordEventDispatch() {
	atomic.AddInt64(&c.EventsDispatched, 1)
}

// RecordJournalWrite records an activity-journal write.
func (c *Collector) RecordJournalWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.JournalWrites, 1)
	atomic.AddInt64(&c.JournalWriteLat, int64(latency))
	if err != nil {
		atomic.AddInt64(&c.JournalErrors, 1)
	}
}

// RecordBroadcast records a state notification, emitted or rate-limited away.
func (c *Collector) RecordBroadcast(emitted bool) {
	if emitted {
		atomic.AddInt64(&c.BroadcastsEmitted, 1)
	} else {
		atomic.AddInt64(&c.BroadcastsSkipped, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordSession records session lifecycle changes.
func (c *Collector) RecordSession(delta int64) {
	atomic.AddInt64(&c.SessionsActive, delta)
	if delta > 0 {
		atomic.AddInt64(&c.SessionsCreated, delta)
	}
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	journalWrites := atomic.LoadInt64(&c.JournalWrites)

	var tickAvg, journalAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if journalWrites > 0 {
		journalAvg = float64(atomic.LoadInt64(&c.JournalWriteLat)) / float64(journalWrites) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),
		"uptime_human":   humanize.RelTime(c.StartTime, time.Now(), "", ""),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"events": map[string]interface{}{
			"dispatched":         atomic.LoadInt64(&c.EventsDispatched),
			"journal_writes":     journalWrites,
			"journal_avg_lat_ms": journalAvg,
			"journal_errors":     atomic.LoadInt64(&c.JournalErrors),
		},

		"broadcast": map[string]interface{}{
			"emitted": atomic.LoadInt64(&c.BroadcastsEmitted),
			"skipped": atomic.LoadInt64(&c.BroadcastsSkipped),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"sessions": map[string]interface{}{
			"active":  atomic.LoadInt64(&c.SessionsActive),
			"created": atomic.LoadInt64(&c.SessionsCreated),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP vital_tick_count Total tick cycles\n")
		fmt.Fprintf(w, "# TYPE vital_tick_count counter\n")
		fmt.Fprintf(w, "vital_tick_count %d\n\n", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP vital_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE vital_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "vital_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		fmt.Fprintf(w, "# HELP vital_events_dispatched Total scheduled events dispatched\n")
		fmt.Fprintf(w, "# TYPE vital_events_dispatched counter\n")
		fmt.Fprintf(w, "vital_events_dispatched %d\n\n", atomic.LoadInt64(&c.EventsDispatched))

		fmt.Fprintf(w, "# HELP vital_journal_writes Total activity journal writes\n")
		fmt.Fprintf(w, "# TYPE vital_journal_writes counter\n")
		fmt.Fprintf(w, "vital_journal_writes %d\n\n", atomic.LoadInt64(&c.JournalWrites))

		fmt.Fprintf(w, "# HELP vital_journal_errors Total activity journal write errors\n")
		fmt.Fprintf(w, "# TYPE vital_journal_errors counter\n")
		fmt.Fprintf(w, "vital_journal_errors %d\n\n", atomic.LoadInt64(&c.JournalErrors))

		fmt.Fprintf(w, "# HELP vital_broadcasts_total State notifications by outcome\n")
		fmt.Fprintf(w, "# TYPE vital_broadcasts_total counter\n")
		fmt.Fprintf(w, "vital_broadcasts_total{outcome=\"emitted\"} %d\n", atomic.LoadInt64(&c.BroadcastsEmitted))
		fmt.Fprintf(w, "vital_broadcasts_total{outcome=\"skipped\"} %d\n\n", atomic.LoadInt64(&c.BroadcastsSkipped))

		fmt.Fprintf(w, "# HELP vital_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE vital_ws_connections gauge\n")
		fmt.Fprintf(w, "vital_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP vital_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE vital_ws_messages_total counter\n")
		fmt.Fprintf(w, "vital_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "vital_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		fmt.Fprintf(w, "# HELP vital_sessions_active Active simulation sessions\n")
		fmt.Fprintf(w, "# TYPE vital_sessions_active gauge\n")
		fmt.Fprintf(w, "vital_sessions_active %d\n\n", atomic.LoadInt64(&c.SessionsActive))

		fmt.Fprintf(w, "# HELP vital_sessions_created Total sessions created\n")
		fmt.Fprintf(w, "# TYPE vital_sessions_created counter\n")
		fmt.Fprintf(w, "vital_sessions_created %d\n", atomic.LoadInt64(&c.SessionsCreated))
	}
}
