package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/registrar/internal/ir"
)

// marshalPayload converts a payload to canonical JSON TEXT for storage.
func marshalPayload(p ir.Payload) (string, error) {
	data, err := ir.MarshalCanonical(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// unmarshalPayload parses canonical JSON TEXT to a payload.
func unmarshalPayload(data string) (ir.Payload, error) {
	var p ir.Payload
	if data == "" || data == "{}" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return ir.Payload{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return p, nil
}
