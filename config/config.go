// Package config provides a single immutable configuration record for the
// distributed ray tracer, built once at process start and passed down to
// whichever component needs it.
package config

import (
	"fmt"
	"net"
	"time"
)

// Config collects every tunable constant the system needs. It's built once
// by Default() (or a variant of it) and never mutated afterward.
type Config struct {
	// Multicast discovery.
	MulticastGroup net.IP
	MulticastPort  int
	AnnounceEvery  time.Duration

	// Discovery window: the orchestrator stops listening once QuietWindow
	// passes without a new announcement, or AbsoluteCap elapses, whichever
	// comes first.
	QuietWindow time.Duration
	AbsoluteCap time.Duration

	// TCP ports.
	OrchestratorClientPort int
	OrchestratorReturnPort int
	WorkerPortRangeStart   int
	WorkerPortRangeEnd     int

	// Transport timeouts.
	ConnectTimeout time.Duration
	IOTimeout      time.Duration

	// Brick lattice.
	BrickRepetition int

	// Ray worker failover.
	FailoverRetryDelay time.Duration

	// ShareParams ack wait before the orchestrator proceeds anyway.
	ShareParamsTimeout time.Duration

	// Draining state idle timeout on the return path.
	DrainIdleTimeout time.Duration
}

// Default returns the system's baseline configuration: multicast group
// 224.0.0.0:7784, a 5s/10s discovery window, and the fixed orchestrator and
// worker port ranges.
func Default() Config {
	return Config{
		MulticastGroup: net.IPv4(224, 0, 0, 0),
		MulticastPort:  7784,
		AnnounceEvery:  3 * time.Second,

		QuietWindow: 5 * time.Second,
		AbsoluteCap: 10 * time.Second,

		OrchestratorClientPort: 27301,
		OrchestratorReturnPort: 27302,
		WorkerPortRangeStart:   8000,
		WorkerPortRangeEnd:     9000,

		ConnectTimeout: 5 * time.Second,
		IOTimeout:      5 * time.Second,

		BrickRepetition: 10,

		FailoverRetryDelay: 5 * time.Second,

		ShareParamsTimeout: 5 * time.Second,

		DrainIdleTimeout: 10 * time.Minute,
	}
}

// ListenWorkerPort binds a TCP listener on the first free port in
// [WorkerPortRangeStart, WorkerPortRangeEnd]. Workers take a dynamic port
// from this range and advertise it in their discovery announcements.
func (c Config) ListenWorkerPort() (net.Listener, error) {
	var lastErr error
	for port := c.WorkerPortRangeStart; port <= c.WorkerPortRangeEnd; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			return ln, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no free port in [%d, %d]: %w", c.WorkerPortRangeStart, c.WorkerPortRangeEnd, lastErr)
}
