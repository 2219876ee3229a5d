package pathsvc

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Garsondee/Arena-Sense/internal/nav"
)

// Kind tags a wire message.
type Kind string

const (
	KindUpdateWall Kind = "updateWall"
	KindFindPath   Kind = "findPath"
	KindPathResult Kind = "pathResult"
)

// Wall is a static obstacle footprint in world units on the ground plane.
type Wall struct {
	CenterX   float64
	CenterZ   float64
	HalfWidth float64
	HalfDepth float64
}

// Request asks for a path from Start to Goal on behalf of RequesterID.
// Seq increases with every request the same requester issues; results
// carry it back so the requester can ignore superseded answers.
type Request struct {
	Start       nav.Cell
	Goal        nav.Cell
	RequesterID uuid.UUID
	Seq         uint64
	IssuedAt    float64
}

// Result is the answer to one Request. An empty Path means no route.
type Result struct {
	RequesterID uuid.UUID
	Seq         uint64
	Path        []nav.Cell
}

// Point is a grid cell on the wire.
type Point struct {
	X int `msgpack:"x"`
	Y int `msgpack:"y"`
}

// Message is the single envelope for every kind that crosses the
// service boundary.
type Message struct {
	Kind Kind `msgpack:"kind"`

	CenterX   float64 `msgpack:"centerX,omitempty"`
	CenterZ   float64 `msgpack:"centerZ,omitempty"`
	HalfWidth float64 `msgpack:"halfWidth,omitempty"`
	HalfDepth float64 `msgpack:"halfDepth,omitempty"`

	StartX   int     `msgpack:"startX"`
	StartY   int     `msgpack:"startY"`
	EndX     int     `msgpack:"endX"`
	EndY     int     `msgpack:"endY"`
	IssuedAt float64 `msgpack:"issuedAt,omitempty"`

	RequesterID string  `msgpack:"requesterId,omitempty"`
	Seq         uint64  `msgpack:"seq,omitempty"`
	Path        []Point `msgpack:"path"`
}

// WallMessage wraps w as an updateWall message.
func WallMessage(w Wall) Message {
	return Message{
		Kind:      KindUpdateWall,
		CenterX:   w.CenterX,
		CenterZ:   w.CenterZ,
		HalfWidth: w.HalfWidth,
		HalfDepth: w.HalfDepth,
	}
}

// RequestMessage wraps r as a findPath message.
func RequestMessage(r Request) Message {
	return Message{
		Kind:        KindFindPath,
		StartX:      r.Start.X,
		StartY:      r.Start.Y,
		EndX:        r.Goal.X,
		EndY:        r.Goal.Y,
		IssuedAt:    r.IssuedAt,
		RequesterID: r.RequesterID.String(),
		Seq:         r.Seq,
	}
}

// ResultMessage wraps r as a pathResult message.
func ResultMessage(r Result) Message {
	pts := make([]Point, len(r.Path))
	for i, c := range r.Path {
		pts[i] = Point{X: c.X, Y: c.Y}
	}
	return Message{
		Kind:        KindPathResult,
		RequesterID: r.RequesterID.String(),
		Seq:         r.Seq,
		Path:        pts,
	}
}

// Wall returns the obstacle carried by an updateWall message.
func (m Message) Wall() (Wall, error) {
	if m.Kind != KindUpdateWall {
		return Wall{}, fmt.Errorf("%w: want %s, got %q", ErrUnexpectedKind, KindUpdateWall, m.Kind)
	}
	return Wall{CenterX: m.CenterX, CenterZ: m.CenterZ, HalfWidth: m.HalfWidth, HalfDepth: m.HalfDepth}, nil
}

// Request returns the path request carried by a findPath message.
func (m Message) Request() (Request, error) {
	if m.Kind != KindFindPath {
		return Request{}, fmt.Errorf("%w: want %s, got %q", ErrUnexpectedKind, KindFindPath, m.Kind)
	}
	id, err := uuid.Parse(m.RequesterID)
	if err != nil {
		return Request{}, fmt.Errorf("pathsvc: requester id: %w", err)
	}
	return Request{
		Start:       nav.Cell{X: m.StartX, Y: m.StartY},
		Goal:        nav.Cell{X: m.EndX, Y: m.EndY},
		RequesterID: id,
		Seq:         m.Seq,
		IssuedAt:    m.IssuedAt,
	}, nil
}

// Result returns the path result carried by a pathResult message.
func (m Message) Result() (Result, error) {
	if m.Kind != KindPathResult {
		return Result{}, fmt.Errorf("%w: want %s, got %q", ErrUnexpectedKind, KindPathResult, m.Kind)
	}
	id, err := uuid.Parse(m.RequesterID)
	if err != nil {
		return Result{}, fmt.Errorf("pathsvc: requester id: %w", err)
	}
	path := make([]nav.Cell, len(m.Path))
	for i, p := range m.Path {
		path[i] = nav.Cell{X: p.X, Y: p.Y}
	}
	return Result{RequesterID: id, Seq: m.Seq, Path: path}, nil
}
