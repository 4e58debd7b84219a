// Command client builds a scene and camera, submits them to an orchestrator,
// and progressively accumulates the returned pixel samples into a
// Framebuffer, logging convergence progress. Displaying the Framebuffer in
// a window is left to a GUI frontend.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"

	"github.com/brickrender/distraytracer/client"
	"github.com/brickrender/distraytracer/config"
	"github.com/brickrender/distraytracer/shared/camera"
	"github.com/brickrender/distraytracer/shared/primitive"
)

func main() {
	orchestratorHost := flag.String("orchestrator", "127.0.0.1", "host running the orchestrator")
	scene := flag.String("scene", "two-sphere", "scene to render: empty, two-sphere, or book")
	width := flag.Int("width", 400, "image width (ignored by the book scene)")
	height := flag.Int("height", 225, "image height (ignored by the book scene)")
	samples := flag.Int("samples", 32, "samples per pixel (ignored by the book scene)")
	maxDepth := flag.Int("max-depth", 16, "max bounce depth (ignored by the book scene)")
	flag.Parse()

	cfg := config.Default()
	addr := net.JoinHostPort(*orchestratorHost, strconv.Itoa(cfg.OrchestratorClientPort))

	var spheres []primitive.Sphere
	var cam camera.Camera
	switch *scene {
	case "empty":
		spheres, cam = client.EmptyScene(*width, *height, *samples, *maxDepth)
	case "book":
		spheres, cam = client.BookScene()
	default:
		spheres, cam = client.TwoSphereScene(*width, *height, *samples, *maxDepth)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := client.Dial(cfg, addr)
	if err != nil {
		log.Fatalf("client: dial %s: %v", addr, err)
	}
	defer sess.Close()

	for _, sp := range spheres {
		if err := sess.PushPrimitive(sp); err != nil {
			log.Fatalf("client: push primitive: %v", err)
		}
	}
	log.Printf("client: pushed %d primitives, beginning %dx%d render at %d spp", len(spheres), cam.ImageWidth, cam.ImageHeight, cam.SamplesPerPixel)

	if err := sess.Begin(cam); err != nil {
		log.Fatalf("client: begin raytracing: %v", err)
	}

	total := int64(cam.ImageWidth) * int64(cam.ImageHeight) * int64(cam.SamplesPerPixel)
	var received int64
	onSample := func(fb *client.Framebuffer) {
		n := atomic.AddInt64(&received, 1)
		if n%1000 == 0 || n == total {
			log.Printf("client: %d/%d samples received (%.1f%%)", n, total, 100*float64(n)/float64(total))
		}
	}

	if err := sess.Run(ctx, cam.SamplesPerPixel, onSample); err != nil {
		log.Fatalf("client: render session ended: %v", err)
	}

	fb := sess.Framebuffer()
	cx, cy := cam.ImageWidth/2, cam.ImageHeight/2
	color, count := fb.At(cx, cy)
	log.Printf("client: render complete; center pixel (%d,%d) = %v after %d samples", cx, cy, color, count)
}
