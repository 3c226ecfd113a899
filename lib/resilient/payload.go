package resilient

import (
	"encoding/json"
	"fmt"
)

// Payload is the body of the first successful attempt. It is either decoded
// JSON or, when the body was not valid JSON, the raw text. Callers must
// handle both shapes, Decode does that for the common case.
type Payload struct {
	// Raw is the response body exactly as received.
	Raw []byte
	// Value is the decoded JSON document, nil for text payloads.
	Value any

	text bool
}

func newPayload(body []byte) Payload {
	var value any
	err := json.Unmarshal(body, &value)
	if err != nil {
		return Payload{Raw: body, text: true}
	}
	return Payload{Raw: body, Value: value}
}

// IsText reports whether the body failed to parse as JSON.
func (p Payload) IsText() bool {
	return p.text
}

// Text returns the body as a string regardless of shape.
func (p Payload) Text() string {
	return string(p.Raw)
}

// Decode unmarshals the payload into v. Some relays wrap a JSON document in a
// JSON string, in which case the inner document is decoded.
func (p Payload) Decode(v any) error {
	if p.text {
		err := json.Unmarshal(p.Raw, v)
		if err != nil {
			return fmt.Errorf("decode text payload: %w", err)
		}
		return nil
	}
	if inner, ok := p.Value.(string); ok {
		err := json.Unmarshal([]byte(inner), v)
		if err == nil {
			return nil
		}
	}
	return json.Unmarshal(p.Raw, v)
}
