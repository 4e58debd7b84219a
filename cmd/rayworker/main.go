// Command rayworker runs a single ray worker process: it announces itself
// on the discovery multicast group, receives the brick lattice and camera
// via ShareParams, then drives the bounce loop for every SendPixel it
// accepts, reporting finished samples back to the orchestrator.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/brickrender/distraytracer/config"
	"github.com/brickrender/distraytracer/rayworker"
	"github.com/brickrender/distraytracer/shared/discovery"
	"github.com/brickrender/distraytracer/shared/metrics"
	"github.com/brickrender/distraytracer/shared/wire"
	"golang.org/x/sync/errgroup"
)

func main() {
	orchestratorHost := flag.String("orchestrator", "127.0.0.1", "host running the orchestrator's worker-return listener")
	metricsAddr := flag.String("metrics", "127.0.0.1:0", "address to expose /metrics on")
	flag.Parse()

	cfg := config.Default()
	returnAddr := net.JoinHostPort(*orchestratorHost, strconv.Itoa(cfg.OrchestratorReturnPort))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := cfg.ListenWorkerPort()
	if err != nil {
		log.Fatalf("rayworker: listen: %v", err)
	}
	defer ln.Close()
	addr := discovery.AdvertiseAddr(ln.Addr())

	reg := metrics.New("ray_worker")
	if maddr, err := reg.Serve(ctx, *metricsAddr); err != nil {
		log.Fatalf("rayworker: metrics listen: %v", err)
	} else {
		log.Printf("rayworker: metrics on %s", maddr)
	}

	srv := rayworker.New(cfg, returnAddr, reg)
	ann := discovery.NewAnnouncer()
	srv.AttachAnnouncer(ann)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ann.Run(gctx, cfg, wire.RoleRay, addr)
	})
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})

	log.Printf("rayworker: listening on %s, reporting results to %s", addr, returnAddr)
	if err := g.Wait(); err != nil && gctx.Err() == nil {
		log.Printf("rayworker: exited: %v", err)
	}
	log.Printf("rayworker: shutdown complete")
}
