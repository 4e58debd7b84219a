package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/brickrender/distraytracer/config"
	"github.com/brickrender/distraytracer/shared/camera"
	"github.com/brickrender/distraytracer/shared/vec3"
	"github.com/brickrender/distraytracer/shared/wire"
)

// startFakeOrchestrator accepts one connection, acks every ClientRequest,
// and once BeginRaytracing arrives streams the given results back before
// closing.
func startFakeOrchestrator(t *testing.T, results []wire.PixelResult) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var req wire.ClientRequest
			if err := wire.ReadFrame(conn, &req); err != nil {
				return
			}
			wire.WriteFrame(conn, wire.ClientDownstream{
				Kind:  wire.ClientDownstreamReply,
				Reply: wire.ClientReply{Kind: req.Kind, Ack: true},
			})
			if req.Kind == wire.ClientBeginRaytracing {
				for _, pr := range results {
					wire.WriteFrame(conn, wire.ClientDownstream{Kind: wire.ClientDownstreamPixelResult, Result: pr})
				}
				return
			}
		}
	}()

	return ln.Addr().String()
}

func TestSessionPushPrimitiveAndBeginRoundTrip(t *testing.T) {
	spheres, cam := TwoSphereScene(2, 2, 1, 1)
	addr := startFakeOrchestrator(t, nil)

	sess, err := Dial(config.Default(), addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sess.Close()

	for _, sp := range spheres {
		if err := sess.PushPrimitive(sp); err != nil {
			t.Fatalf("push primitive: %v", err)
		}
	}
	if err := sess.Begin(cam); err != nil {
		t.Fatalf("begin: %v", err)
	}
}

func TestSessionRunAccumulatesUntilConvergence(t *testing.T) {
	_, cam := EmptyScene(2, 1, 1, 1)
	results := []wire.PixelResult{
		{Idx: camera.PixelIndex{I: 0, J: 0, Sample: 0}, Color: vec3.New(0.1, 0.1, 0.1)},
		{Idx: camera.PixelIndex{I: 1, J: 0, Sample: 0}, Color: vec3.New(0.2, 0.2, 0.2)},
	}
	addr := startFakeOrchestrator(t, results)

	sess, err := Dial(config.Default(), addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sess.Close()

	if err := sess.Begin(cam); err != nil {
		t.Fatalf("begin: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sess.Run(ctx, 1, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !sess.Framebuffer().Converged(1) {
		t.Fatal("expected framebuffer to have converged")
	}
}
