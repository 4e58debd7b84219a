package orchestrator

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/brickrender/distraytracer/shared/wire"
)

// ReturnListener accepts ray-worker-origin PixelResult pushes on a dedicated
// port and forwards each one verbatim to the session's connected client.
// Ordering across pixels is not preserved; each arrival is forwarded as soon
// as it's decoded.
type ReturnListener struct {
	mu      sync.Mutex
	client  chan<- wire.PixelResult
	lastHit time.Time
}

// NewReturnListener builds a ReturnListener that forwards decoded results
// onto client.
func NewReturnListener(client chan<- wire.PixelResult) *ReturnListener {
	return &ReturnListener{client: client, lastHit: time.Now()}
}

// Serve accepts connections on ln until ctx is cancelled. Each connection
// carries one PixelResult push, matching the ray worker's one-shot dial.
func (r *ReturnListener) Serve(ctx context.Context, ln net.Listener) error {
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
		go r.handle(conn)
	}
}

func (r *ReturnListener) handle(conn net.Conn) {
	defer conn.Close()
	var pr wire.PixelResult
	if err := wire.ReadFrame(conn, &pr); err != nil {
		log.Printf("orchestrator: malformed pixel result dropped: %v", err)
		return
	}
	r.mu.Lock()
	r.lastHit = time.Now()
	r.mu.Unlock()

	select {
	case r.client <- pr:
	default:
		// The client stream's forwarding goroutine is behind; drop rather
		// than block the return-path acceptor.
		log.Printf("orchestrator: dropped pixel result %+v, client channel full", pr.Idx)
	}
}

// IdleSince reports how long it's been since the last PixelResult arrived,
// used to detect the Draining -> Terminated idle timeout.
func (r *ReturnListener) IdleSince() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Since(r.lastHit)
}
