package orchestrator

import (
	"context"
	"log"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/brickrender/distraytracer/shared/camera"
	"github.com/brickrender/distraytracer/shared/raytrace"
	"github.com/brickrender/distraytracer/shared/wire"
)

// ShareParams broadcasts the brick lattice, brick->workers table, and camera
// to every ray worker, waiting up to cfg.ShareParamsTimeout for each to
// acknowledge before proceeding with whichever subset responded in time.
func (s *Session) ShareParams(ctx context.Context, cam camera.Camera) []string {
	s.mu.Lock()
	bricks := s.bricks
	table := s.brickTable
	workers := append([]string(nil), s.roster.RayWorkers...)
	s.mu.Unlock()

	s.setState(ParamBroadcast)

	acked := make(chan string, len(workers))
	var wg sync.WaitGroup
	for _, addr := range workers {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			conn, err := net.DialTimeout("tcp", addr, s.cfg.ConnectTimeout)
			if err != nil {
				log.Printf("orchestrator: ShareParams dial %s failed: %v", addr, err)
				return
			}
			defer conn.Close()
			conn.SetDeadline(time.Now().Add(s.cfg.ShareParamsTimeout))

			req := wire.RayRequest{Kind: wire.RayShareParams, Bricks: bricks, BrickTable: table, Camera: cam}
			if err := wire.WriteFrame(conn, req); err != nil {
				log.Printf("orchestrator: ShareParams to %s failed: %v", addr, err)
				return
			}
			var reply wire.RayReply
			if err := wire.ReadFrame(conn, &reply); err != nil {
				log.Printf("orchestrator: ShareParams ack from %s failed: %v", addr, err)
				return
			}
			acked <- addr
		}(addr)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	timer := time.NewTimer(s.cfg.ShareParamsTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	case <-ctx.Done():
	}

	// acked is never closed: a worker whose ack lands after the wait still
	// has buffer room to send into, and is simply not counted as ready.
	var readyWorkers []string
drain:
	for {
		select {
		case addr := <-acked:
			readyWorkers = append(readyWorkers, addr)
		default:
			break drain
		}
	}

	s.setState(RayDispatch)
	return readyWorkers
}

// DispatchRays iterates every pixel sample in a fresh Fisher-Yates shuffle
// per sample pass, computes its camera ray, and pushes a SendPixel to a ray
// worker chosen by (i+j+sample) mod |ray_workers|. Each SendPixel's ack is
// read before the next sample is sent; the ray worker acks on receipt,
// before tracing the pixel, so dispatch never waits for a finished sample.
func (s *Session) DispatchRays(ctx context.Context, cam *camera.Camera, rayWorkers []string) {
	if len(rayWorkers) == 0 {
		log.Printf("orchestrator: no ray workers acknowledged ShareParams, aborting dispatch")
		return
	}

	// One persistent connection per ray worker for the whole dispatch pass;
	// a failed worker is redialed on its next sample.
	conns := make(map[string]net.Conn, len(rayWorkers))
	defer func() {
		for _, conn := range conns {
			conn.Close()
		}
	}()

	w, h := cam.ImageWidth, cam.ImageHeight
	for sample := 0; sample < cam.SamplesPerPixel; sample++ {
		order := camera.ScanOrder(w, h, rand.Float64)
		for _, flat := range order {
			select {
			case <-ctx.Done():
				return
			default:
			}

			i, j := flat%w, flat/w
			ray := cam.GetRay(i, j)
			idx := camera.PixelIndex{I: i, J: j, Sample: sample}
			target := rayWorkers[(i+j+sample)%len(rayWorkers)]
			s.sendPixel(conns, target, idx, ray)
			if s.metrics != nil {
				s.metrics.RaysDispatched.Inc()
			}
		}
	}

	s.setState(Draining)
}

// sendPixel pushes one SendPixel to target over its cached connection,
// dialing one if needed. A transport failure is logged and the sample is
// dropped, never retried; the dead connection is discarded so the worker's
// next sample redials.
func (s *Session) sendPixel(conns map[string]net.Conn, target string, idx camera.PixelIndex, ray raytrace.Ray) {
	conn := conns[target]
	if conn == nil {
		c, err := net.DialTimeout("tcp", target, s.cfg.ConnectTimeout)
		if err != nil {
			log.Printf("orchestrator: SendPixel dial %s failed: %v", target, err)
			return
		}
		conns[target] = c
		conn = c
	}
	conn.SetDeadline(time.Now().Add(s.cfg.IOTimeout))

	req := wire.RayRequest{Kind: wire.RaySendPixel, PixelIdx: idx, Ray: ray}
	if err := wire.WriteFrame(conn, req); err != nil {
		log.Printf("orchestrator: SendPixel to %s failed: %v", target, err)
		conn.Close()
		delete(conns, target)
		return
	}
	var reply wire.RayReply
	if err := wire.ReadFrame(conn, &reply); err != nil {
		log.Printf("orchestrator: SendPixel ack from %s failed: %v", target, err)
		conn.Close()
		delete(conns, target)
	}
}
