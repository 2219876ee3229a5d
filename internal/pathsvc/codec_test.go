package pathsvc

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Garsondee/Arena-Sense/internal/nav"
)

func TestCodec_RequestSurvivesWire(t *testing.T) {
	req := Request{
		Start:       nav.Cell{X: 3, Y: 7},
		Goal:        nav.Cell{X: 40, Y: 12},
		RequesterID: uuid.New(),
		Seq:         9,
		IssuedAt:    12.5,
	}
	data, err := Encode(RequestMessage(req))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	m, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, err := m.Request()
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got != req {
		t.Fatalf("request changed on the wire: %+v -> %+v", req, got)
	}
}

func TestCodec_EmptyPathMeansNoRoute(t *testing.T) {
	data, err := Encode(ResultMessage(Result{RequesterID: uuid.New(), Seq: 2}))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	m, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	res, err := m.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(res.Path) != 0 {
		t.Fatalf("expected empty path, got %v", res.Path)
	}
}

func TestCodec_WireFieldNames(t *testing.T) {
	data, err := Encode(WallMessage(Wall{CenterX: 1, CenterZ: -2, HalfWidth: 3, HalfDepth: 0.5}))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var raw map[string]any
	if err := msgpack.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["kind"] != string(KindUpdateWall) {
		t.Fatalf("kind = %v", raw["kind"])
	}
	for _, key := range []string{"centerX", "centerZ", "halfWidth", "halfDepth"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing wire field %q in %v", key, raw)
		}
	}
}

func TestCodec_RejectsUnknownKind(t *testing.T) {
	data, err := msgpack.Marshal(map[string]any{"kind": "teleport"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(data); !errors.Is(err, ErrUnexpectedKind) {
		t.Fatalf("expected ErrUnexpectedKind, got %v", err)
	}
	if _, err := Decode([]byte{0xc1}); err == nil {
		t.Fatal("expected error decoding garbage")
	}
}

func TestMessage_WrongKindAccessors(t *testing.T) {
	m := WallMessage(Wall{})
	if _, err := m.Request(); !errors.Is(err, ErrUnexpectedKind) {
		t.Fatalf("expected ErrUnexpectedKind, got %v", err)
	}
	if _, err := m.Result(); !errors.Is(err, ErrUnexpectedKind) {
		t.Fatalf("expected ErrUnexpectedKind, got %v", err)
	}
	bad := RequestMessage(Request{})
	bad.RequesterID = "not-a-uuid"
	if _, err := bad.Request(); err == nil {
		t.Fatal("expected error for malformed requester id")
	}
}
