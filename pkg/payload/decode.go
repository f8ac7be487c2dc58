package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type (
	DecodeOption func(*decodeConfig)
	decodeConfig struct {
		maxBytes int
	}
)

// WithMaxBytes overrides the size ceiling. Values <= 0 keep the default.
func WithMaxBytes(n int) DecodeOption {
	return func(c *decodeConfig) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// Decode turns untrusted bytes into a payload. The size ceiling is checked
// first, then the version discriminator selects the schema to apply.
func Decode(data []byte, opts ...DecodeOption) (Payload, error) {
	cfg := decodeConfig{maxBytes: MaxBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := CheckSize(data, cfg.maxBytes); err != nil {
		return nil, err
	}
	// encoding/json parses floats with strconv, which keeps rounded
	// coordinates bit-identical across a round trip.
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &ValidationError{Violations: []Violation{
			{Path: root(), Message: fmt.Sprintf("malformed JSON: %v", err)},
		}}
	}
	return DecodeValue(v)
}

// DecodeValue dispatches an already parsed JSON value on its version field.
// No size check is done here.
func DecodeValue(v any) (Payload, error) {
	c := &checker{}
	m, ok := c.object(root(), v)
	if !ok {
		return nil, c.result(0, nil)
	}
	ver, p, ok := c.field(root(), m, "version")
	if !ok {
		return nil, c.result(0, ErrUnsupportedVersion)
	}
	n, isNum := toNumber(ver)
	switch {
	case isNum && n == Version1:
		return ValidateV1(v)
	case isNum && n == Version2:
		return ValidateV2(v)
	case isNum:
		c.fail(p, "unsupported version %v, expected %d | %d", n, Version1, Version2)
	default:
		c.fail(p, "expected number, received %s", kind(ver))
	}
	return nil, c.result(0, ErrUnsupportedVersion)
}

// CheckSize fails with a *SizeError when data exceeds limit bytes. Bodies
// carrying insignificant whitespace are measured in their compact form.
func CheckSize(data []byte, limit int) error {
	if len(data) <= limit {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err == nil && buf.Len() <= limit {
		return nil
	}
	return &SizeError{Size: len(data), Limit: limit}
}
