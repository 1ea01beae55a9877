package kafka

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
)

// EnvelopeVersion adalah satu-satunya versi envelope yang dipahami consumer.
const EnvelopeVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported envelope version")

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// UnmarshalEnvelope juga menolak envelope tanpa event id atau dengan versi lain.
func UnmarshalEnvelope(b []byte) (orders.Envelope, error) {
	var env orders.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventVersion != EnvelopeVersion {
		return env, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.EventVersion)
	}
	if env.EventID == "" {
		return env, errors.New("decode envelope: missing event_id")
	}
	return env, nil
}

// UnwrapPayload: decode payload spesifik dari envelope.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
