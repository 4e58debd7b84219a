package rayworker

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
	"github.com/brickrender/distraytracer/shared/raytrace"
	"github.com/brickrender/distraytracer/shared/vec3"
	"github.com/brickrender/distraytracer/shared/wire"
)

// startFakeObjectWorker runs a single-primitive object worker on a random
// loopback port and returns its address.
func startFakeObjectWorker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	sphere := primitive.NewSphere(vec3.New(0, 0, -3), 1, material.NewLambertian(vec3.New(0.5, 0.5, 0.5)))

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				for {
					var req wire.ObjectRequest
					if err := wire.ReadFrame(conn, &req); err != nil {
						return
					}
					if req.Kind != wire.ObjectCheckHit {
						wire.WriteFrame(conn, wire.ObjectReply{Kind: req.Kind, Ack: true})
						continue
					}
					state := req.State
					if state.DepthRemaining <= 0 {
						state.AccumulatedColor = vec3.New(0, 0, 0)
						wire.WriteFrame(conn, wire.ObjectReply{Kind: req.Kind, Outcome: camera.BounceOutcome{
							Finished: true, HitOrStopped: true, NewRayState: state,
						}})
						continue
					}
					rec, hit := sphere.Hit(state.Ray, raytrace.Interval{Min: 0.001, Max: 1e9})
					if !hit {
						wire.WriteFrame(conn, wire.ObjectReply{Kind: req.Kind, Outcome: camera.BounceOutcome{
							Finished: true, HitOrStopped: false, NewRayState: state,
						}})
						continue
					}
					scattered, atten, ok := material.Scatter(sphere.Material, state.Ray, rec)
					if !ok {
						state.AccumulatedColor = vec3.New(0, 0, 0)
						wire.WriteFrame(conn, wire.ObjectReply{Kind: req.Kind, Outcome: camera.BounceOutcome{
							Finished: true, HitOrStopped: true, NewRayState: state,
						}})
						continue
					}
					state.DepthRemaining--
					state.Attenuation = state.Attenuation.Mul(atten)
					state.Ray = scattered
					wire.WriteFrame(conn, wire.ObjectReply{Kind: req.Kind, Outcome: camera.BounceOutcome{
						Finished: false, HitOrStopped: true, NewRayState: state,
					}})
				}
			}()
		}
	}()

	return ln.Addr().String()
}

func TestBounceLoopReachesTerminationAndReportsResult(t *testing.T) {
	objAddr := startFakeObjectWorker(t)

	// A fake orchestrator return listener so sendPixelResult succeeds.
	returnLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	received := make(chan wire.PixelResult, 1)
	go func() {
		conn, err := returnLn.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var pr wire.PixelResult
		if err := wire.ReadFrame(conn, &pr); err == nil {
			received <- pr
		}
	}()

	cfg := config.Default()
	cfg.FailoverRetryDelay = 10 * time.Millisecond
	s := New(cfg, returnLn.Addr().String(), nil)

	b := brick.Brick{ID: 0, XMin: -10, XMax: 10, ZMin: -10, ZMax: 10}
	s.paramsMu.Lock()
	s.bricks = []brick.Brick{b}
	s.brickTable = map[int][]string{0: {objAddr}}
	s.cam = camera.Camera{MaxDepth: 3}
	s.haveParams = true
	s.paramsMu.Unlock()

	idx := camera.PixelIndex{I: 0, J: 0, Sample: 0}
	s.acceptPixel(idx, raytrace.Ray{Origin: vec3.New(0, 0, 0), Direction: vec3.New(0, 0, -1)})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.runBounceLoop(ctx, idx)

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a PixelResult to be sent to the orchestrator return listener")
	}
}

func TestBounceLoopRealizesSkyAfterCleanTransit(t *testing.T) {
	// The fake worker's only sphere sits at (0,0,-3); a ray pointed straight
	// up passes through the brick without hitting anything, so the worker
	// reports a clean transit and the ray worker must realize the sky
	// contribution itself.
	objAddr := startFakeObjectWorker(t)

	returnLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	received := make(chan wire.PixelResult, 1)
	go func() {
		conn, err := returnLn.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var pr wire.PixelResult
		if err := wire.ReadFrame(conn, &pr); err == nil {
			received <- pr
		}
	}()

	s := New(config.Default(), returnLn.Addr().String(), nil)
	b := brick.Brick{ID: 0, XMin: -10, XMax: 10, ZMin: -10, ZMax: 10}
	s.paramsMu.Lock()
	s.bricks = []brick.Brick{b}
	s.brickTable = map[int][]string{0: {objAddr}}
	s.cam = camera.Camera{MaxDepth: 3}
	s.haveParams = true
	s.paramsMu.Unlock()

	idx := camera.PixelIndex{I: 2, J: 3, Sample: 0}
	up := vec3.New(0, 1, 0)
	s.acceptPixel(idx, raytrace.Ray{Origin: vec3.New(0, 0, 0), Direction: up})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.runBounceLoop(ctx, idx)

	select {
	case pr := <-received:
		want := raytrace.Sky(up)
		if pr.Color != want {
			t.Fatalf("expected sky colour %v, got %v", want, pr.Color)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a PixelResult carrying the sky contribution")
	}
}

func TestBounceLoopKeepsDepthAcrossOverlappingBricks(t *testing.T) {
	// The real lattice's bricks overlap, so a camera ray starts inside
	// several of them at once. With an empty scene and the minimum depth of
	// 1, a ray must still come out as sky: transiting each overlapping
	// brick cleanly may not consume its single bounce.
	objAddr := startFakeObjectWorker(t)

	returnLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	received := make(chan wire.PixelResult, 1)
	go func() {
		conn, err := returnLn.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var pr wire.PixelResult
		if err := wire.ReadFrame(conn, &pr); err == nil {
			received <- pr
		}
	}()

	s := New(config.Default(), returnLn.Addr().String(), nil)
	bricks := []brick.Brick{
		{ID: 0, XMin: -8, XMax: 0, ZMin: -8, ZMax: 0},
		{ID: 1, XMin: -4, XMax: 4, ZMin: -4, ZMax: 4},
		{ID: 2, XMin: 0, XMax: 8, ZMin: 0, ZMax: 8},
	}
	s.paramsMu.Lock()
	s.bricks = bricks
	s.brickTable = map[int][]string{0: {objAddr}, 1: {objAddr}, 2: {objAddr}}
	s.cam = camera.Camera{MaxDepth: 1}
	s.haveParams = true
	s.paramsMu.Unlock()

	idx := camera.PixelIndex{I: 0, J: 0, Sample: 0}
	up := vec3.New(0, 1, 0)
	s.acceptPixel(idx, raytrace.Ray{Origin: vec3.New(0, 0, 0), Direction: up})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.runBounceLoop(ctx, idx)

	select {
	case pr := <-received:
		want := raytrace.Sky(up)
		if pr.Color != want {
			t.Fatalf("expected sky colour %v after transiting every brick, got %v", want, pr.Color)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a PixelResult carrying the sky contribution")
	}
}

func TestAcceptPixelIsIdempotent(t *testing.T) {
	s := New(config.Default(), "127.0.0.1:1", nil)
	s.paramsMu.Lock()
	s.cam = camera.Camera{MaxDepth: 7}
	s.haveParams = true
	s.paramsMu.Unlock()

	idx := camera.PixelIndex{I: 1, J: 1, Sample: 0}
	r := raytrace.Ray{Origin: vec3.New(0, 0, 0), Direction: vec3.New(0, 0, -1)}
	s.acceptPixel(idx, r)
	s.acceptPixel(idx, r)

	p := s.partitionFor(idx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.states) != 1 {
		t.Fatalf("expected exactly one RayState entry, got %v", len(p.states))
	}
}
