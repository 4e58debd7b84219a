// Package client implements the client role: scene and camera construction,
// the session that pushes a scene to the orchestrator and begins rendering,
// and the progressive Framebuffer the returned PixelResults accumulate into.
package client

import (
	"sync"

	"github.com/brickrender/distraytracer/shared/camera"
	"github.com/brickrender/distraytracer/shared/raytrace"
	"github.com/brickrender/distraytracer/shared/vec3"
)

// cell accumulates every sample contribution received for one pixel.
type cell struct {
	sum   vec3.Vec3
	count int
}

// Framebuffer is the client's progressive accumulation buffer: one cell per
// pixel, mutated only as PixelResults arrive. Ordering across pixels is
// arbitrary; only additive accumulation occurs, so display monotonically
// converges regardless of arrival order.
type Framebuffer struct {
	mu     sync.RWMutex
	width  int
	height int
	cells  []cell
}

// NewFramebuffer allocates a zeroed Framebuffer for a width x height image.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{width: width, height: height, cells: make([]cell, width*height)}
}

// Add accumulates one pixel sample's contribution: sum[idx] += color,
// count[idx] += 1.
func (f *Framebuffer) Add(idx camera.PixelIndex, color vec3.Vec3) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &f.cells[idx.J*f.width+idx.I]
	c.sum = c.sum.Add(color)
	c.count++
}

// At returns the gamma-corrected display colour for pixel (i, j) and the
// number of samples accumulated into it so far.
func (f *Framebuffer) At(i, j int) (vec3.Vec3, int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c := f.cells[j*f.width+i]
	if c.count == 0 {
		return vec3.Vec3{}, 0
	}
	avg := c.sum.Scale(1.0 / float64(c.count))
	return raytrace.Gamma(avg), c.count
}

// Count reports how many samples pixel (i, j) has received.
func (f *Framebuffer) Count(i, j int) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cells[j*f.width+i].count
}

// Converged reports whether every pixel has received at least
// samplesPerPixel contributions, i.e. the image is fully rendered.
func (f *Framebuffer) Converged(samplesPerPixel int) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, c := range f.cells {
		if c.count < samplesPerPixel {
			return false
		}
	}
	return true
}

// Dimensions returns the framebuffer's width and height.
func (f *Framebuffer) Dimensions() (int, int) {
	return f.width, f.height
}
