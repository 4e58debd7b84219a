package orchestrator

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/brickrender/distraytracer/config"
	"github.com/brickrender/distraytracer/shared/brick"
	"github.com/brickrender/distraytracer/shared/camera"
	"github.com/brickrender/distraytracer/shared/material"
	"github.com/brickrender/distraytracer/shared/primitive"
	"github.com/brickrender/distraytracer/shared/vec3"
	"github.com/brickrender/distraytracer/shared/wire"
)

func TestSendSessionErrorReachesClient(t *testing.T) {
	server, clientConn := net.Pipe()
	defer server.Close()
	defer clientConn.Close()

	go SendSessionError(server, "no object workers discovered")

	var down wire.ClientDownstream
	if err := wire.ReadFrame(clientConn, &down); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if down.Reply.Error == "" {
		t.Fatal("expected a non-empty session error message")
	}
}

func TestServeClientAcksAddObjectAndBegin(t *testing.T) {
	cfg := config.Default()
	cfg.ShareParamsTimeout = 50 * time.Millisecond
	s := New(cfg, nil)

	// Build the brick lattice directly, as RunDiscovery would for a roster
	// of one object worker, and give the session one ray worker that never
	// acknowledges ShareParams (nothing listens there, so the dial is refused
	// and ShareParams proceeds with no acknowledged workers).
	bricks, table := brick.Lattice([]string{"127.0.0.1:1"}, cfg.BrickRepetition)
	s.mu.Lock()
	s.bricks = bricks
	s.brickTable = table
	s.brickIndex = brick.NewIndex(bricks)
	s.roster.RayWorkers = []string{"127.0.0.1:1"}
	s.mu.Unlock()

	server, clientConn := net.Pipe()
	defer server.Close()

	results := make(chan wire.PixelResult, 1)
	idle := NewReturnListener(results)

	done := make(chan error, 1)
	go func() {
		done <- s.ServeClient(context.Background(), server, results, idle)
	}()

	sphere := primitive.NewSphere(vec3.New(0, 0, -1), 0.5, material.NewLambertian(vec3.New(0.5, 0.5, 0.5)))
	if err := wire.WriteFrame(clientConn, wire.ClientRequest{Kind: wire.ClientAddObject, Primitive: sphere}); err != nil {
		t.Fatalf("write AddObject: %v", err)
	}
	var down wire.ClientDownstream
	if err := wire.ReadFrame(clientConn, &down); err != nil {
		t.Fatalf("read AddObject ack: %v", err)
	}
	if !down.Reply.Ack {
		t.Fatal("expected AddObject to be acked")
	}

	cam := camera.Default()
	cam.ImageWidth = 2
	cam.AspectRatio = 2
	cam.SamplesPerPixel = 1
	if err := wire.WriteFrame(clientConn, wire.ClientRequest{Kind: wire.ClientBeginRaytracing, Camera: cam}); err != nil {
		t.Fatalf("write BeginRaytracing: %v", err)
	}
	if err := wire.ReadFrame(clientConn, &down); err != nil {
		t.Fatalf("read BeginRaytracing ack: %v", err)
	}
	if !down.Reply.Ack {
		t.Fatal("expected BeginRaytracing to be acked")
	}

	clientConn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected ServeClient to return once the client disconnected")
	}

	select {
	case <-s.Terminated():
	default:
		t.Fatal("expected session to be terminated after client disconnect")
	}
}
