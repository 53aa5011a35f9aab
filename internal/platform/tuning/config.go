// Package tuning provides concurrency and loop-rate settings for the server.
package tuning

import (
	"runtime"
	"time"
)

// Config holds tuned parameters for the simulation loops and transport.
type Config struct {
	// Loop rates
	TickInterval      time.Duration // real time between ticks
	BroadcastInterval time.Duration // minimum real time between state notifications

	// Channel buffer sizes
	BroadcastChannelBuffer int
	ClientSendBuffer       int

	// Connection pools
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Session limits
	MaxSessions           int
	MaxSubscribersPerSess int

	// Client reconnect policy
	ReconnectBaseDelayMs int
	ReconnectMaxDelayMs  int
	ReconnectJitterMs    int
	ReconnectMaxAttempts int
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		TickInterval:      100 * time.Millisecond,
		BroadcastInterval: 500 * time.Millisecond, // compute and broadcast rates are decoupled

		BroadcastChannelBuffer: 256,
		ClientSendBuffer:       64,

		DBMaxOpenConns: numCPU * 4,
		DBMaxIdleConns: numCPU * 2,

		MaxSessions:           200,
		MaxSubscribersPerSess: 16,

		ReconnectBaseDelayMs: 1000,
		ReconnectMaxDelayMs:  30000,
		ReconnectJitterMs:    1000,
		ReconnectMaxAttempts: 8,
	}
}

// LowResourceConfig returns minimal settings for development and tests.
func LowResourceConfig() *Config {
	return &Config{
		TickInterval:      250 * time.Millisecond,
		BroadcastInterval: time.Second,

		BroadcastChannelBuffer: 16,
		ClientSendBuffer:       8,

		DBMaxOpenConns: 5,
		DBMaxIdleConns: 2,

		MaxSessions:           20,
		MaxSubscribersPerSess: 4,

		ReconnectBaseDelayMs: 1000,
		ReconnectMaxDelayMs:  30000,
		ReconnectJitterMs:    1000,
		ReconnectMaxAttempts: 4,
	}
}
