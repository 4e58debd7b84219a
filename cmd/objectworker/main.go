// Command objectworker runs a single object worker process: it announces
// itself on the discovery multicast group, then serves AddObject/CheckHit
// requests until the process is signalled to stop.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/brickrender/distraytracer/config"
	"github.com/brickrender/distraytracer/objectworker"
	"github.com/brickrender/distraytracer/shared/discovery"
	"github.com/brickrender/distraytracer/shared/metrics"
	"github.com/brickrender/distraytracer/shared/wire"
	"golang.org/x/sync/errgroup"
)

func main() {
	metricsAddr := flag.String("metrics", "127.0.0.1:0", "address to expose /metrics on")
	flag.Parse()

	cfg := config.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := cfg.ListenWorkerPort()
	if err != nil {
		log.Fatalf("objectworker: listen: %v", err)
	}
	defer ln.Close()
	addr := discovery.AdvertiseAddr(ln.Addr())

	reg := metrics.New("object_worker")
	if maddr, err := reg.Serve(ctx, *metricsAddr); err != nil {
		log.Fatalf("objectworker: metrics listen: %v", err)
	} else {
		log.Printf("objectworker: metrics on %s", maddr)
	}

	srv := objectworker.New(reg)
	ann := discovery.NewAnnouncer()
	srv.AttachAnnouncer(ann)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ann.Run(gctx, cfg, wire.RoleObject, addr)
	})
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})

	log.Printf("objectworker: listening on %s", addr)
	if err := g.Wait(); err != nil && gctx.Err() == nil {
		log.Printf("objectworker: exited: %v", err)
	}
	log.Printf("objectworker: shutdown complete")
}
