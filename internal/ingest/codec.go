package ingest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"

	"github.com/tablerank/tablerank/internal/restaurant"
	"github.com/tablerank/tablerank/internal/review"
)

// Event kinds carried on the collector stream.
const (
	KindReview     = "review"
	KindRestaurant = "restaurant"
)

// Codec errors.
var (
	ErrEmptyPayload   = errors.New("empty event payload")
	ErrUnknownKind    = errors.New("unknown event kind")
	ErrMissingPayload = errors.New("event carries no record for its kind")
)

// Event is one collector message: a review or restaurant record.
// Text frames carry JSON, binary frames carry CBOR of the same shape.
type Event struct {
	Kind       string                 `json:"kind"`
	Review     *review.Review         `json:"review,omitempty"`
	Restaurant *restaurant.Restaurant `json:"restaurant,omitempty"`
}

// EntityID returns a stream-unique key for the event's entity.
func (e *Event) EntityID() string {
	switch e.Kind {
	case KindReview:
		return KindReview + "/" + e.Review.ID
	case KindRestaurant:
		return KindRestaurant + "/" + e.Restaurant.ID
	default:
		return ""
	}
}

// DecodeEvent decodes a stream frame by its WebSocket message type:
// JSON for text frames, CBOR for binary frames.
func DecodeEvent(messageType int, payload []byte) (*Event, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	var event Event
	switch messageType {
	case websocket.BinaryMessage:
		if err := cbor.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("decode cbor event: %w", err)
		}
	default:
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("decode json event: %w", err)
		}
	}

	switch event.Kind {
	case KindReview:
		if event.Review == nil {
			return nil, ErrMissingPayload
		}
	case KindRestaurant:
		if event.Restaurant == nil {
			return nil, ErrMissingPayload
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, event.Kind)
	}
	return &event, nil
}

// EncodeEventCBOR encodes an event as CBOR. Used by tests and tools
// that replay captured streams.
func EncodeEventCBOR(e *Event) ([]byte, error) {
	data, err := cbor.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode cbor event: %w", err)
	}
	return data, nil
}
