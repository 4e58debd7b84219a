// Package orchestrator coordinates a single rendering session: it runs
// discovery, builds the brick lattice, routes primitives to object workers,
// dispatches camera rays to ray workers, and relays finished pixel samples
// back to the client.
package orchestrator

// State is a session's position in its lifecycle.
type State int

const (
	Discovery State = iota
	SceneUpload
	ParamBroadcast
	RayDispatch
	Draining
	Terminated
)

func (s State) String() string {
	switch s {
	case Discovery:
		return "discovery"
	case SceneUpload:
		return "scene_upload"
	case ParamBroadcast:
		return "param_broadcast"
	case RayDispatch:
		return "ray_dispatch"
	case Draining:
		return "draining"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
