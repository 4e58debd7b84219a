// Package metrics exposes a per-process Prometheus registry so each
// orchestrator, object worker, and ray worker reports its own counters on a
// local /metrics endpoint without any cross-process coordination.
package metrics

import (
	"context"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds one role's counters. Role is a constant label
// (object_worker, ray_worker, orchestrator) so the three processes' series
// are distinguishable if ever scraped through a shared pushgateway.
type Registry struct {
	reg *prometheus.Registry

	ChecksHandled   prometheus.Counter
	BouncesFailed   prometheus.Counter
	PixelsCompleted prometheus.Counter
	FailoverRetries prometheus.Counter

	PrimitivesRouted prometheus.Counter
	RaysDispatched   prometheus.Counter
	SamplesForwarded prometheus.Counter
}

// New builds a Registry for role.
func New(role string) *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"role": role}

	return &Registry{
		reg: reg,
		ChecksHandled: factory.NewCounter(prometheus.CounterOpts{
			Name:        "distraytracer_check_hits_total",
			Help:        "CheckHit requests handled by this object worker.",
			ConstLabels: constLabels,
		}),
		BouncesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name:        "distraytracer_bounce_transport_failures_total",
			Help:        "CheckHit attempts that failed due to a transport error.",
			ConstLabels: constLabels,
		}),
		PixelsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name:        "distraytracer_pixels_completed_total",
			Help:        "Pixel samples that reached a terminal PixelResult.",
			ConstLabels: constLabels,
		}),
		FailoverRetries: factory.NewCounter(prometheus.CounterOpts{
			Name:        "distraytracer_failover_retries_total",
			Help:        "Times a ray worker exhausted a brick's worker list and restarted from index 0.",
			ConstLabels: constLabels,
		}),
		PrimitivesRouted: factory.NewCounter(prometheus.CounterOpts{
			Name:        "distraytracer_primitives_routed_total",
			Help:        "Primitives the orchestrator forwarded to at least one object worker.",
			ConstLabels: constLabels,
		}),
		RaysDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name:        "distraytracer_rays_dispatched_total",
			Help:        "Camera rays the orchestrator pushed to ray workers.",
			ConstLabels: constLabels,
		}),
		SamplesForwarded: factory.NewCounter(prometheus.CounterOpts{
			Name:        "distraytracer_samples_forwarded_total",
			Help:        "PixelResults the orchestrator relayed to the client.",
			ConstLabels: constLabels,
		}),
	}
}

// Serve starts an HTTP server exposing /metrics on addr, stopping when ctx
// is cancelled. It returns once the listener is bound; serving happens on a
// background goroutine.
func (r *Registry) Serve(ctx context.Context, addr string) (net.Addr, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	go srv.Serve(ln)
	return ln.Addr(), nil
}
