// Package rayworker implements the ray worker role: it holds the brick
// lattice and brick->worker table shared by ShareParams, drives the
// per-pixel bounce loop against object workers, and reports finished
// samples back to the orchestrator.
package rayworker

import (
	"context"
	"hash/fnv"
	"log"
	"net"
	"sync"
	"time"

	"github.com/brickrender/distraytracer/config"
	"github.com/brickrender/distraytracer/shared/brick"
	"github.com/brickrender/distraytracer/shared/camera"
	"github.com/brickrender/distraytracer/shared/discovery"
	"github.com/brickrender/distraytracer/shared/metrics"
	"github.com/brickrender/distraytracer/shared/raytrace"
	"github.com/brickrender/distraytracer/shared/vec3"
	"github.com/brickrender/distraytracer/shared/wire"
)

const numPartitions = 16

// partition is a single shard of the pixel-state table, owned by its own
// mutex so the receive path (insert) and the bounce loop (read, update,
// remove) only contend with other pixels hashing to the same shard.
type partition struct {
	mu     sync.Mutex
	states map[camera.PixelIndex]camera.RayState
}

// Server holds one ray worker's session state: the brick lattice, the
// camera (only MaxDepth is consulted, per policy), and the in-flight
// per-pixel RayState table.
type Server struct {
	cfg config.Config

	paramsMu   sync.RWMutex
	bricks     []brick.Brick
	brickTable map[int][]string
	cam        camera.Camera
	haveParams bool

	partitions [numPartitions]*partition

	orchestratorReturnAddr string
	announcer              *discovery.Announcer
	metrics                *metrics.Registry
}

// New builds an idle Server reporting finished pixels to
// orchestratorReturnAddr.
func New(cfg config.Config, orchestratorReturnAddr string, reg *metrics.Registry) *Server {
	s := &Server{cfg: cfg, orchestratorReturnAddr: orchestratorReturnAddr, metrics: reg}
	for i := range s.partitions {
		s.partitions[i] = &partition{states: make(map[camera.PixelIndex]camera.RayState)}
	}
	return s
}

// AttachAnnouncer gives the Server the announcer its Deregistration and
// Registration handlers pause and resume.
func (s *Server) AttachAnnouncer(a *discovery.Announcer) {
	s.announcer = a
}

func (s *Server) partitionFor(idx camera.PixelIndex) *partition {
	h := fnv.New32a()
	h.Write([]byte{byte(idx.I), byte(idx.I >> 8), byte(idx.J), byte(idx.J >> 8), byte(idx.Sample)})
	return s.partitions[h.Sum32()%numPartitions]
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	for {
		var req wire.RayRequest
		if err := wire.ReadFrame(conn, &req); err != nil {
			return
		}
		reply := s.handle(ctx, req)
		if err := wire.WriteFrame(conn, reply); err != nil {
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, req wire.RayRequest) wire.RayReply {
	switch req.Kind {
	case wire.RayDeregistration:
		if s.announcer != nil {
			s.announcer.Pause()
		}
		return wire.RayReply{Kind: req.Kind, Ack: true}

	case wire.RayRegistration:
		if s.announcer != nil {
			s.announcer.Resume()
		}
		return wire.RayReply{Kind: req.Kind, Ack: true}

	case wire.RayShareParams:
		s.paramsMu.Lock()
		s.bricks = req.Bricks
		s.brickTable = req.BrickTable
		s.cam = req.Camera
		s.haveParams = true
		s.paramsMu.Unlock()
		return wire.RayReply{Kind: req.Kind, Ack: true}

	case wire.RaySendPixel:
		s.paramsMu.RLock()
		ready := s.haveParams
		s.paramsMu.RUnlock()
		if !ready {
			// Protocol error: SendPixel arrived before ShareParams. Drop it
			// silently rather than closing the connection.
			return wire.RayReply{Kind: req.Kind, Ack: false}
		}
		s.acceptPixel(req.PixelIdx, req.Ray)
		go s.runBounceLoop(ctx, req.PixelIdx)
		return wire.RayReply{Kind: req.Kind, Ack: true}

	default:
		return wire.RayReply{Kind: req.Kind, Ack: false}
	}
}

// acceptPixel inserts the initial RayState for idx if one isn't already
// present.
func (s *Server) acceptPixel(idx camera.PixelIndex, r raytrace.Ray) {
	s.paramsMu.RLock()
	maxDepth := s.cam.MaxDepth
	s.paramsMu.RUnlock()

	p := s.partitionFor(idx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.states[idx]; !exists {
		p.states[idx] = camera.NewRayState(r, maxDepth)
	}
}

// runBounceLoop drives idx's RayState to completion, per the bounce-loop
// state machine: consult bricks nearest-first, stopping at the first hit or
// stop, until the whole chain reports finished.
func (s *Server) runBounceLoop(ctx context.Context, idx camera.PixelIndex) {
	for {
		p := s.partitionFor(idx)
		p.mu.Lock()
		candidate, exists := p.states[idx]
		p.mu.Unlock()
		if !exists {
			return
		}

		s.paramsMu.RLock()
		bricks := s.bricks
		brickTable := s.brickTable
		s.paramsMu.RUnlock()

		hitBricks := brick.BricksHit(bricks, candidate.Ray)

		finished := true
		stopped := false
		for _, b := range hitBricks {
			outcome := s.checkHitWithFailover(ctx, brickTable[b.ID], candidate)
			candidate = outcome.NewRayState
			finished = finished && outcome.Finished
			if outcome.HitOrStopped {
				stopped = true
				break
			}
		}

		if !stopped {
			// The ray left the scene, either striking no brick at all or
			// transiting every brick it struck cleanly: realize the sky
			// contribution locally rather than consulting a worker.
			candidate.AccumulatedColor = candidate.Attenuation.Mul(raytrace.Sky(candidate.Ray.Direction))
			finished = true
		}

		p.mu.Lock()
		p.states[idx] = candidate
		p.mu.Unlock()

		if finished {
			s.sendPixelResult(idx, candidate.AccumulatedColor)
			p.mu.Lock()
			delete(p.states, idx)
			p.mu.Unlock()
			if s.metrics != nil {
				s.metrics.PixelsCompleted.Inc()
			}
			return
		}
	}
}

// checkHitWithFailover consults one brick's CheckHit handler, trying its
// worker candidates in order. On transport failure it tries the next
// candidate; once the list is exhausted it sleeps FailoverRetryDelay and
// restarts from index 0, retrying forever.
func (s *Server) checkHitWithFailover(ctx context.Context, workers []string, state camera.RayState) camera.BounceOutcome {
	for {
		for _, addr := range workers {
			outcome, err := s.checkHit(addr, state)
			if err == nil {
				return outcome
			}
			if s.metrics != nil {
				s.metrics.BouncesFailed.Inc()
			}
			log.Printf("rayworker: CheckHit against %s failed: %v", addr, err)
		}
		if s.metrics != nil {
			s.metrics.FailoverRetries.Inc()
		}
		select {
		case <-ctx.Done():
			return camera.BounceOutcome{Finished: true, HitOrStopped: true, NewRayState: state}
		case <-time.After(s.cfg.FailoverRetryDelay):
		}
	}
}

func (s *Server) checkHit(addr string, state camera.RayState) (camera.BounceOutcome, error) {
	conn, err := net.DialTimeout("tcp", addr, s.cfg.ConnectTimeout)
	if err != nil {
		return camera.BounceOutcome{}, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(s.cfg.IOTimeout))

	req := wire.ObjectRequest{Kind: wire.ObjectCheckHit, State: state}
	if err := wire.WriteFrame(conn, req); err != nil {
		return camera.BounceOutcome{}, err
	}
	var reply wire.ObjectReply
	if err := wire.ReadFrame(conn, &reply); err != nil {
		return camera.BounceOutcome{}, err
	}
	return reply.Outcome, nil
}

// sendPixelResult pushes a finished pixel sample to the orchestrator's
// worker-return listener. This is a one-shot push: a transport failure here
// is logged and the sample is simply never returned, per policy.
func (s *Server) sendPixelResult(idx camera.PixelIndex, color vec3.Vec3) {
	conn, err := net.DialTimeout("tcp", s.orchestratorReturnAddr, s.cfg.ConnectTimeout)
	if err != nil {
		log.Printf("rayworker: failed to reach orchestrator return port: %v", err)
		return
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(s.cfg.IOTimeout))

	if err := wire.WriteFrame(conn, wire.PixelResult{Idx: idx, Color: color}); err != nil {
		log.Printf("rayworker: failed to send pixel result for %+v: %v", idx, err)
	}
}
