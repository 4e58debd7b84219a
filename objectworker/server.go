// Package objectworker implements the object worker role: it holds an
// append-only list of primitives and answers CheckHit requests from ray
// workers, plus a small set of control messages from the orchestrator.
package objectworker

import (
	"context"
	"log"
	"net"
	"sync"

	"github.com/brickrender/distraytracer/shared/camera"
	"github.com/brickrender/distraytracer/shared/discovery"
	"github.com/brickrender/distraytracer/shared/material"
	"github.com/brickrender/distraytracer/shared/metrics"
	"github.com/brickrender/distraytracer/shared/primitive"
	"github.com/brickrender/distraytracer/shared/raytrace"
	"github.com/brickrender/distraytracer/shared/wire"
)

// Server holds one object worker's scene state for the session's duration.
// Primitives are appended by AddObject and read by CheckHit. The two arrive
// on separate connections (the orchestrator's and the ray workers'), each
// handled on its own goroutine, so the mutex guards the list against
// concurrent appends and reads.
type Server struct {
	mu         sync.Mutex
	primitives []primitive.Sphere

	announcer *discovery.Announcer
	metrics   *metrics.Registry
}

// New builds an idle Server.
func New(reg *metrics.Registry) *Server {
	return &Server{metrics: reg}
}

// AttachAnnouncer gives the Server the announcer its Deregistration and
// Registration handlers pause and resume.
func (s *Server) AttachAnnouncer(a *discovery.Announcer) {
	s.announcer = a
}

// Serve accepts connections on ln until ctx is cancelled, handling each
// ObjectRequest in a dedicated goroutine.
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
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	for {
		var req wire.ObjectRequest
		if err := wire.ReadFrame(conn, &req); err != nil {
			return
		}
		reply := s.handle(req)
		if err := wire.WriteFrame(conn, reply); err != nil {
			return
		}
	}
}

func (s *Server) handle(req wire.ObjectRequest) wire.ObjectReply {
	switch req.Kind {
	case wire.ObjectDeregistration:
		if s.announcer != nil {
			s.announcer.Pause()
		}
		return wire.ObjectReply{Kind: req.Kind, Ack: true}

	case wire.ObjectRegistration:
		if s.announcer != nil {
			s.announcer.Resume()
		}
		return wire.ObjectReply{Kind: req.Kind, Ack: true}

	case wire.ObjectAddObject:
		s.AddObject(req.Primitive)
		return wire.ObjectReply{Kind: req.Kind, Ack: true}

	case wire.ObjectPrintObjects:
		s.printObjects()
		return wire.ObjectReply{Kind: req.Kind, Ack: true}

	case wire.ObjectCheckHit:
		outcome := s.CheckHit(req.State)
		if s.metrics != nil {
			s.metrics.ChecksHandled.Inc()
		}
		return wire.ObjectReply{Kind: req.Kind, Outcome: outcome}

	default:
		// Protocol errors are silently ignored: drop the message, return a
		// benign echo rather than closing the connection.
		return wire.ObjectReply{Kind: req.Kind, Ack: false}
	}
}

// AddObject appends p to the worker's primitive list. A negative radius was
// already clamped to zero by the caller that built p.
func (s *Server) AddObject(p primitive.Sphere) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.primitives = append(s.primitives, p)
}

func (s *Server) printObjects() {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Printf("object worker: %d primitives held", len(s.primitives))
}

// CheckHit performs one bounce-loop turn for state against this worker's
// primitives: find the nearest intersection within (0.001, +Inf), and
// either scatter, absorb, or report a clean transit. Depth is consumed
// only by an actual scatter; a clean transit leaves it untouched, so a ray
// crossing several empty bricks keeps its full bounce allowance.
func (s *Server) CheckHit(state camera.RayState) camera.BounceOutcome {
	s.mu.Lock()
	primitives := s.primitives
	s.mu.Unlock()

	if state.DepthRemaining <= 0 {
		state.AccumulatedColor = state.Attenuation.Mul(zeroColor)
		return camera.BounceOutcome{Finished: true, HitOrStopped: true, NewRayState: state}
	}

	rec, mat, hit := primitive.HitAny(primitives, state.Ray, raytrace.Interval{Min: 0.001, Max: posInf})
	if !hit {
		return camera.BounceOutcome{Finished: true, HitOrStopped: false, NewRayState: state}
	}

	scattered, attenuation, ok := material.Scatter(mat, state.Ray, rec)
	if !ok {
		state.AccumulatedColor = state.Attenuation.Mul(zeroColor)
		return camera.BounceOutcome{Finished: true, HitOrStopped: true, NewRayState: state}
	}

	state.DepthRemaining--
	state.Attenuation = state.Attenuation.Mul(attenuation)
	state.Ray = scattered
	return camera.BounceOutcome{Finished: false, HitOrStopped: true, NewRayState: state}
}
