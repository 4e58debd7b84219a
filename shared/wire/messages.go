// Package wire defines every message exchanged between session components
// and the framing discipline used to put them on the network: a 4-byte
// little-endian length prefix followed by a gob-encoded tagged union.
package wire

import (
	"github.com/brickrender/distraytracer/shared/brick"
	"github.com/brickrender/distraytracer/shared/camera"
	"github.com/brickrender/distraytracer/shared/primitive"
	"github.com/brickrender/distraytracer/shared/raytrace"
	"github.com/brickrender/distraytracer/shared/vec3"
)

// Role distinguishes the two worker kinds in a discovery announcement.
type Role uint8

const (
	RoleRay Role = iota
	RoleObject
)

func (r Role) String() string {
	if r == RoleObject {
		return "object"
	}
	return "ray"
}

// Announcement is the payload of a discovery multicast datagram.
type Announcement struct {
	Role Role
	Addr string // host:port of the announcing worker's TCP endpoint
}

// ObjectRequestKind discriminates the messages an object worker accepts,
// whether from the orchestrator (control-plane) or a ray worker (CheckHit).
type ObjectRequestKind int

const (
	ObjectDeregistration ObjectRequestKind = iota
	ObjectRegistration
	ObjectAddObject
	ObjectPrintObjects
	ObjectCheckHit
)

// ObjectRequest is a tagged union of every message sent to an object
// worker's TCP endpoint.
type ObjectRequest struct {
	Kind ObjectRequestKind

	// ObjectAddObject
	Primitive primitive.Sphere

	// ObjectCheckHit
	State camera.RayState
}

// ObjectReply echoes the request Kind together with whatever result it
// produced.
type ObjectReply struct {
	Kind ObjectRequestKind

	// Acknowledges Deregistration/Registration/AddObject/PrintObjects.
	Ack bool

	// ObjectCheckHit
	Outcome camera.BounceOutcome
}

// RayRequestKind discriminates the messages a ray worker accepts from the
// orchestrator.
type RayRequestKind int

const (
	RayDeregistration RayRequestKind = iota
	RayRegistration
	RayShareParams
	RaySendPixel
)

// RayRequest is a tagged union of every message sent to a ray worker's TCP
// endpoint by the orchestrator.
type RayRequest struct {
	Kind RayRequestKind

	// RayShareParams
	Bricks     []brick.Brick
	BrickTable map[int][]string // brick ID -> ordered object-worker addresses
	Camera     camera.Camera

	// RaySendPixel
	PixelIdx camera.PixelIndex
	Ray      raytrace.Ray
}

// RayReply echoes the request Kind, acknowledging it.
type RayReply struct {
	Kind RayRequestKind
	Ack  bool
}

// ClientRequestKind discriminates the messages a client sends to the
// orchestrator.
type ClientRequestKind int

const (
	ClientAddObject ClientRequestKind = iota
	ClientBeginRaytracing
)

// ClientRequest is a tagged union of the client->orchestrator messages.
type ClientRequest struct {
	Kind ClientRequestKind

	// ClientAddObject
	Primitive primitive.Sphere

	// ClientBeginRaytracing
	Camera camera.Camera
}

// ClientReply acknowledges a ClientRequest. The opaque ack mirrors the
// source's reuse of one ack shape for every AddObject response.
type ClientReply struct {
	Kind  ClientRequestKind
	Ack   bool
	Error string // non-empty only for a session-aborting error (e.g. NoWorkers)
}

// PixelResult carries one finished pixel sample from a ray worker to the
// orchestrator's worker-return listener, which relays it to the client
// inside a ClientDownstream frame.
type PixelResult struct {
	Idx   camera.PixelIndex
	Color vec3.Vec3
}

// ClientDownstreamKind discriminates the two shapes of message the
// orchestrator sends to the client over the session connection: a
// request ack, and an asynchronously arriving PixelResult. Both travel on
// the same connection, so they share one gob-decodable envelope rather than
// being read as two independently-typed frame streams.
type ClientDownstreamKind int

const (
	ClientDownstreamReply ClientDownstreamKind = iota
	ClientDownstreamPixelResult
)

// ClientDownstream is the tagged union of every orchestrator->client frame.
type ClientDownstream struct {
	Kind   ClientDownstreamKind
	Reply  ClientReply
	Result PixelResult
}
