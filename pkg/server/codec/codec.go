// Package codec provides the connect codec used for the plain Go message
// types of the diagram and user services.
package codec

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Name matches the default JSON codec so that requests with
// Content-Type application/json are routed here.
const Name = "json"

type jsonCodec struct{}

var _ connect.Codec = (*jsonCodec)(nil)

func New() connect.Codec {
	return &jsonCodec{}
}

// WithJSON replaces the protobuf based JSON codec on handlers and clients.
func WithJSON() connect.Option {
	return connect.WithCodec(New())
}

func (c *jsonCodec) Name() string { return Name }

func (c *jsonCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (c *jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		// connect sends an empty body for empty messages
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal into %T: %w", msg, err)
	}
	return nil
}
