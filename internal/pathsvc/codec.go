package pathsvc

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrQueueFull is returned by Submit when the inbox has no room. The
	// caller is expected to try again on a later tick.
	ErrQueueFull = errors.New("pathsvc: queue full")
	// ErrClosed is returned once the service has been shut down.
	ErrClosed = errors.New("pathsvc: closed")
	// ErrUnexpectedKind is returned when a message is read as the wrong kind.
	ErrUnexpectedKind = errors.New("pathsvc: unexpected message kind")
)

// Encode serialises m with msgpack.
func Encode(m Message) ([]byte, error) {
	data, err := msgpack.Marshal(&m)
	if err != nil {
		return nil, fmt.Errorf("pathsvc: encode %s: %w", m.Kind, err)
	}
	return data, nil
}

// Decode parses a msgpack payload produced by Encode.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("pathsvc: decode: %w", err)
	}
	switch m.Kind {
	case KindUpdateWall, KindFindPath, KindPathResult:
		return m, nil
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnexpectedKind, m.Kind)
	}
}
