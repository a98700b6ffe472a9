package cache

import (
	"encoding/json"
	"fmt"
)

// Envelope is the serialized response stored under a cache key.
type Envelope struct {
	Status int                 `json:"status"`
	Header map[string][]string `json:"header,omitempty"`
	Body   json.RawMessage     `json:"body"`
}

// Encode serializes the envelope for storage.
func (e *Envelope) Encode() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("cache: encode envelope: %w", err)
	}
	return raw, nil
}

// DecodeEnvelope deserializes a stored envelope.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("cache: decode envelope: %w", err)
	}
	return &e, nil
}
