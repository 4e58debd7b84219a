package orchestrator

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/brickrender/distraytracer/shared/camera"
	"github.com/brickrender/distraytracer/shared/sessionerr"
	"github.com/brickrender/distraytracer/shared/wire"
)

// SendSessionError writes a single ClientDownstream carrying msg as a
// session-aborting error, then lets the caller close the connection. Used
// when discovery closes with NoWorkers: the session never reaches
// SceneUpload, but the client still needs to be told why.
func SendSessionError(conn net.Conn, msg string) {
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	wire.WriteFrame(conn, wire.ClientDownstream{
		Kind:  wire.ClientDownstreamReply,
		Reply: wire.ClientReply{Error: msg},
	})
}

// ServeClient drives one client session's SceneUpload -> ParamBroadcast ->
// RayDispatch -> Draining -> Terminated transitions. It reads ClientRequests
// off conn until the connection closes, and concurrently relays PixelResults
// arriving on results back to the client. It returns once the session
// reaches Terminated or conn is closed by the peer.
func (s *Session) ServeClient(ctx context.Context, conn net.Conn, results <-chan wire.PixelResult, idle *ReturnListener) error {
	s.setState(SceneUpload)

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var writeMu sync.Mutex
	writeFrame := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return wire.WriteFrame(conn, v)
	}

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		s.forwardResults(sessionCtx, writeFrame, results, idle)
	}()

	// Whole-image completion and the draining idle timeout terminate the
	// session from forwardResults; closing conn ends the request loop below.
	go func() {
		select {
		case <-s.Terminated():
			conn.Close()
		case <-sessionCtx.Done():
		}
	}()

	var readErr error
	for {
		var req wire.ClientRequest
		if err := wire.ReadFrame(conn, &req); err != nil {
			readErr = err
			break
		}

		switch req.Kind {
		case wire.ClientAddObject:
			s.AddPrimitive(req.Primitive)
			writeFrame(wire.ClientDownstream{Kind: wire.ClientDownstreamReply, Reply: wire.ClientReply{Kind: req.Kind, Ack: true}})

		case wire.ClientBeginRaytracing:
			writeFrame(wire.ClientDownstream{Kind: wire.ClientDownstreamReply, Reply: wire.ClientReply{Kind: req.Kind, Ack: true}})
			cam := req.Camera
			cam.Initialize()
			s.expectSamples(cam.ImageWidth * cam.ImageHeight * cam.SamplesPerPixel)
			go s.runRaytracing(sessionCtx, cam)

		default:
			// Protocol error: an unrecognized request kind. Drop it silently
			// and return a benign echo rather than closing the connection.
			writeFrame(wire.ClientDownstream{Kind: wire.ClientDownstreamReply, Reply: wire.ClientReply{Kind: req.Kind, Ack: false}})
		}
	}

	// A read error caused by the close above is the normal end of a
	// terminated session, not a transport failure.
	select {
	case <-s.Terminated():
		readErr = nil
	default:
	}

	// Client disconnect is one of the three Draining->Terminated triggers
	// regardless of session phase.
	cancel()
	<-forwardDone
	s.terminate()

	if readErr != nil {
		return sessionerr.Wrap(sessionerr.Transport, readErr, "client session closed")
	}
	return nil
}

// runRaytracing broadcasts params to the ray worker roster and dispatches
// every camera ray, driving ParamBroadcast -> RayDispatch -> Draining. It
// first waits out any AddObject deliveries still in flight, so every
// object worker holds the full scene before the first ray reaches it.
func (s *Session) runRaytracing(ctx context.Context, cam camera.Camera) {
	s.deliveries.Wait()
	rayWorkers := s.ShareParams(ctx, cam)
	s.DispatchRays(ctx, &cam, rayWorkers)
}

// forwardResults relays PixelResults arriving on results to the client until
// the whole image converges, the idle timeout on the return path elapses
// while Draining, or ctx is cancelled (client disconnected).
func (s *Session) forwardResults(ctx context.Context, writeFrame func(any) error, results <-chan wire.PixelResult, idle *ReturnListener) {
	idleCheck := time.NewTicker(time.Second)
	defer idleCheck.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case pr, ok := <-results:
			if !ok {
				return
			}
			if err := writeFrame(wire.ClientDownstream{Kind: wire.ClientDownstreamPixelResult, Result: pr}); err != nil {
				log.Printf("orchestrator: forward pixel result to client failed: %v", err)
				return
			}
			if s.metrics != nil {
				s.metrics.SamplesForwarded.Inc()
			}
			if s.recordCompletion() {
				s.terminate()
				return
			}

		case <-idleCheck.C:
			if s.State() == Draining && idle != nil && idle.IdleSince() > s.cfg.DrainIdleTimeout {
				log.Printf("orchestrator: draining idle timeout exceeded, terminating session")
				s.terminate()
				return
			}
		}
	}
}
