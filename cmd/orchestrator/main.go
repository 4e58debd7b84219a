// Command orchestrator runs the session orchestrator: it discovers the
// worker roster, builds the brick lattice, then serves a single client
// session end to end (scene upload, ray dispatch, and relaying finished
// samples back to the client).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/brickrender/distraytracer/config"
	"github.com/brickrender/distraytracer/orchestrator"
	"github.com/brickrender/distraytracer/shared/metrics"
	"github.com/brickrender/distraytracer/shared/wire"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

func main() {
	metricsAddr := flag.String("metrics", "127.0.0.1:0", "address to expose /metrics on")
	flag.Parse()

	cfg := config.Default()
	sessionID := uuid.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.New("orchestrator")
	if maddr, err := reg.Serve(ctx, *metricsAddr); err != nil {
		log.Fatalf("orchestrator: metrics listen: %v", err)
	} else {
		log.Printf("orchestrator: metrics on %s", maddr)
	}

	clientLn, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.OrchestratorClientPort))
	if err != nil {
		log.Fatalf("orchestrator: client listen: %v", err)
	}
	defer clientLn.Close()

	returnLn, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.OrchestratorReturnPort))
	if err != nil {
		log.Fatalf("orchestrator: return listen: %v", err)
	}
	defer returnLn.Close()

	log.Printf("orchestrator: session %s starting discovery window", sessionID)
	sess := orchestrator.New(cfg, reg)
	if err := sess.RunDiscovery(ctx); err != nil {
		log.Printf("orchestrator: session %s discovery failed: %v", sessionID, err)
		if conn, acceptErr := clientLn.Accept(); acceptErr == nil {
			orchestrator.SendSessionError(conn, err.Error())
			conn.Close()
		}
		return
	}

	results := make(chan wire.PixelResult, 4096)
	idle := orchestrator.NewReturnListener(results)

	g, gctx := errgroup.WithContext(ctx)
	go func() {
		<-gctx.Done()
		clientLn.Close()
	}()

	g.Go(func() error {
		return idle.Serve(gctx, returnLn)
	})
	g.Go(func() error {
		conn, err := clientLn.Accept()
		if err != nil {
			return err
		}
		defer conn.Close()
		log.Printf("orchestrator: session %s accepted client %s", sessionID, conn.RemoteAddr())
		return sess.ServeClient(gctx, conn, results, idle)
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		log.Printf("orchestrator: session %s ended: %v", sessionID, err)
	}
	log.Printf("orchestrator: session %s terminated", sessionID)
}
