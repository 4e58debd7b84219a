package client

import (
	"context"
	"net"
	"time"

	"github.com/brickrender/distraytracer/config"
	"github.com/brickrender/distraytracer/shared/camera"
	"github.com/brickrender/distraytracer/shared/primitive"
	"github.com/brickrender/distraytracer/shared/sessionerr"
	"github.com/brickrender/distraytracer/shared/wire"
)

// Session is one client's framed, bidirectional connection to the
// orchestrator: it pushes primitives and a camera, then accumulates the
// PixelResults the orchestrator streams back into a Framebuffer.
type Session struct {
	cfg  config.Config
	conn net.Conn
	fb   *Framebuffer
}

// Dial opens the session connection to the orchestrator's client-facing
// endpoint.
func Dial(cfg config.Config, addr string) (*Session, error) {
	conn, err := net.DialTimeout("tcp", addr, cfg.ConnectTimeout)
	if err != nil {
		return nil, sessionerr.Wrap(sessionerr.Transport, err, "dial orchestrator")
	}
	return &Session{cfg: cfg, conn: conn}, nil
}

// Close closes the session connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Framebuffer returns the session's accumulation buffer. Only valid after
// Begin has succeeded.
func (s *Session) Framebuffer() *Framebuffer {
	return s.fb
}

// PushPrimitive sends one sphere to the orchestrator and waits for its ack.
// Every primitive must be pushed before Begin: AddObject order is only
// preserved per object worker if the client finishes pushing before
// BeginRaytracing.
func (s *Session) PushPrimitive(p primitive.Sphere) error {
	s.conn.SetDeadline(time.Now().Add(s.cfg.IOTimeout))
	if err := wire.WriteFrame(s.conn, wire.ClientRequest{Kind: wire.ClientAddObject, Primitive: p}); err != nil {
		return sessionerr.Wrap(sessionerr.Transport, err, "push primitive")
	}
	var down wire.ClientDownstream
	if err := wire.ReadFrame(s.conn, &down); err != nil {
		return sessionerr.Wrap(sessionerr.Transport, err, "await primitive ack")
	}
	return nil
}

// Begin sends the camera descriptor, moving the session into
// ParamBroadcast, and allocates the Framebuffer the returned PixelResults
// will accumulate into. A non-empty error in the orchestrator's reply means
// the session aborted (e.g. NoWorkers) before any rendering began.
func (s *Session) Begin(cam camera.Camera) error {
	s.fb = NewFramebuffer(cam.ImageWidth, cam.ImageHeight)

	s.conn.SetDeadline(time.Now().Add(s.cfg.IOTimeout))
	if err := wire.WriteFrame(s.conn, wire.ClientRequest{Kind: wire.ClientBeginRaytracing, Camera: cam}); err != nil {
		return sessionerr.Wrap(sessionerr.Transport, err, "begin raytracing")
	}
	var down wire.ClientDownstream
	if err := wire.ReadFrame(s.conn, &down); err != nil {
		return sessionerr.Wrap(sessionerr.Transport, err, "await begin ack")
	}
	if down.Kind == wire.ClientDownstreamReply && down.Reply.Error != "" {
		return sessionerr.New(sessionerr.NoWorkers, down.Reply.Error)
	}
	return nil
}

// Run reads PixelResult frames off the connection, accumulating each into
// the Framebuffer via onSample (if non-nil, to let a caller refresh a
// display surface), until the image converges, ctx is cancelled, or the
// orchestrator closes the connection.
func (s *Session) Run(ctx context.Context, samplesPerPixel int, onSample func(*Framebuffer)) error {
	done := make(chan error, 1)
	go func() {
		s.conn.SetDeadline(time.Time{})
		for {
			var down wire.ClientDownstream
			if err := wire.ReadFrame(s.conn, &down); err != nil {
				done <- err
				return
			}
			if down.Kind != wire.ClientDownstreamPixelResult {
				continue
			}
			s.fb.Add(down.Result.Idx, down.Result.Color)
			if onSample != nil {
				onSample(s.fb)
			}
			if s.fb.Converged(samplesPerPixel) {
				done <- nil
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return sessionerr.Wrap(sessionerr.Transport, err, "session ended")
		}
		return nil
	}
}
