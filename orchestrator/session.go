package orchestrator

import (
	"context"
	"log"
	"math"
	"net"
	"sync"
	"time"

	"github.com/brickrender/distraytracer/config"
	"github.com/brickrender/distraytracer/shared/brick"
	"github.com/brickrender/distraytracer/shared/discovery"
	"github.com/brickrender/distraytracer/shared/metrics"
	"github.com/brickrender/distraytracer/shared/primitive"
	"github.com/brickrender/distraytracer/shared/sessionerr"
	"github.com/brickrender/distraytracer/shared/vec3"
	"github.com/brickrender/distraytracer/shared/wire"
)

// Session owns every piece of per-session orchestrator state: the frozen
// worker roster, the brick lattice and its spatial index, and the single
// connected client's streams.
type Session struct {
	cfg config.Config

	mu    sync.Mutex
	state State

	roster     discovery.Roster
	bricks     []brick.Brick
	brickIndex *brick.Index
	brickTable map[int][]string

	expectedSamples  int
	completedSamples int
	terminated       chan struct{}
	terminateOnce    sync.Once

	// Outstanding AddObject deliveries. Ray dispatch waits on this so no
	// camera ray can race ahead of a primitive still in flight to an
	// object worker.
	deliveries sync.WaitGroup

	metrics *metrics.Registry
}

// New builds a Session in the Discovery state.
func New(cfg config.Config, reg *metrics.Registry) *Session {
	return &Session{cfg: cfg, state: Discovery, metrics: reg, terminated: make(chan struct{})}
}

// Terminated is closed once the session reaches the Terminated state, by
// whichever termination trigger fires first: whole-image completion, client
// disconnect, or the draining idle timeout.
func (s *Session) Terminated() <-chan struct{} {
	return s.terminated
}

// terminate transitions to Terminated and closes the Terminated channel,
// exactly once regardless of which trigger calls it.
func (s *Session) terminate() {
	s.terminateOnce.Do(func() {
		s.setState(Terminated)
		close(s.terminated)
	})
}

// expectSamples records the total sample count a freshly begun render will
// produce, so the return path can detect whole-image completion.
func (s *Session) expectSamples(n int) {
	s.mu.Lock()
	s.expectedSamples = n
	s.mu.Unlock()
}

// recordCompletion counts one forwarded PixelResult and reports whether
// every expected sample has now been forwarded.
func (s *Session) recordCompletion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completedSamples++
	return s.expectedSamples > 0 && s.completedSamples >= s.expectedSamples
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Printf("orchestrator: %s -> %s", s.state, next)
	s.state = next
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RunDiscovery blocks for the discovery window, then validates the roster
// and builds the brick lattice. It returns a NoWorkers session error if
// either role has zero members.
func (s *Session) RunDiscovery(ctx context.Context) error {
	roster, err := discovery.Listen(ctx, s.cfg)
	if err != nil {
		return sessionerr.Wrap(sessionerr.Transport, err, "discovery listen")
	}
	if len(roster.ObjectWorkers) == 0 {
		return sessionerr.New(sessionerr.NoWorkers, "no object workers discovered")
	}
	if len(roster.RayWorkers) == 0 {
		return sessionerr.New(sessionerr.NoWorkers, "no ray workers discovered")
	}

	s.mu.Lock()
	s.roster = roster
	s.mu.Unlock()

	bricks, table := brick.Lattice(roster.ObjectWorkers, s.cfg.BrickRepetition)
	s.mu.Lock()
	s.bricks = bricks
	s.brickTable = table
	s.brickIndex = brick.NewIndex(bricks)
	s.mu.Unlock()

	for _, addr := range roster.ObjectWorkers {
		deregisterAnnouncer(s.cfg, addr)
	}
	for _, addr := range roster.RayWorkers {
		deregisterAnnouncer(s.cfg, addr)
	}

	s.setState(SceneUpload)
	return nil
}

// deregisterAnnouncer sends a single Deregistration control message telling
// a worker's announcer to sleep. Best-effort: a failure here just means the
// worker keeps multicasting, which is harmless.
func deregisterAnnouncer(cfg config.Config, addr string) {
	conn, err := net.DialTimeout("tcp", addr, cfg.ConnectTimeout)
	if err != nil {
		log.Printf("orchestrator: could not reach %s to deregister: %v", addr, err)
		return
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(cfg.IOTimeout))

	// Both worker kinds share a Deregistration/Registration discriminator
	// value across their message kinds (0/1), so either request shape is
	// accepted by either worker kind.
	wire.WriteFrame(conn, wire.ObjectRequest{Kind: wire.ObjectDeregistration})
}

// AddPrimitive routes a primitive to every object worker serving a brick
// slot whose geometry overlaps the sphere. Delivery is best-effort and
// asynchronous (failures are logged, not retried); the next primitive is
// accepted without waiting, but every delivery is accounted for in
// s.deliveries so ray dispatch can fence behind the last one.
func (s *Session) AddPrimitive(p primitive.Sphere) {
	s.mu.Lock()
	index := s.brickIndex
	table := s.brickTable
	s.mu.Unlock()

	candidates := index.Overlapping(p.Center.X-p.Radius, p.Center.X+p.Radius, p.Center.Z-p.Radius, p.Center.Z+p.Radius)

	targets := make(map[string]bool)
	for _, b := range candidates {
		if sphereOverlapsBrick(p, b) {
			for _, addr := range table[b.ID] {
				targets[addr] = true
			}
		}
	}

	if len(targets) == 0 {
		log.Printf("orchestrator: primitive at %v matched no brick slot", p.Center)
		return
	}
	if s.metrics != nil {
		s.metrics.PrimitivesRouted.Inc()
	}

	for addr := range targets {
		s.deliveries.Add(1)
		go func(addr string) {
			defer s.deliveries.Done()
			conn, err := net.DialTimeout("tcp", addr, s.cfg.ConnectTimeout)
			if err != nil {
				log.Printf("orchestrator: AddObject to %s failed: %v", addr, err)
				return
			}
			defer conn.Close()
			conn.SetDeadline(time.Now().Add(s.cfg.IOTimeout))
			if err := wire.WriteFrame(conn, wire.ObjectRequest{Kind: wire.ObjectAddObject, Primitive: p}); err != nil {
				log.Printf("orchestrator: AddObject to %s failed: %v", addr, err)
				return
			}
			var reply wire.ObjectReply
			wire.ReadFrame(conn, &reply)
		}(addr)
	}
}

// sphereOverlapsBrick clamps the sphere's center to the brick's XZ extent
// and compares the distance to the clamp point against the radius
// (strictly, so a sphere exactly touching a face does not match).
func sphereOverlapsBrick(p primitive.Sphere, b brick.Brick) bool {
	clampedX := clamp(p.Center.X, b.XMin, b.XMax)
	clampedZ := clamp(p.Center.Z, b.ZMin, b.ZMax)
	clamped := vec3.New(clampedX, p.Center.Y, clampedZ)
	return clamped.Sub(p.Center).Length() < p.Radius
}

func clamp(x, lo, hi float64) float64 {
	if math.IsInf(lo, -1) {
		lo = x
	}
	if math.IsInf(hi, 1) {
		hi = x
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
