// Package api defines the tabsplit RPC surface: procedure names, request and
// response messages, and connect handler and client constructors. Messages
// are plain Go structs carried as JSON.
package api

import (
	"encoding/json"
	"fmt"
)

// CodecName is registered under the same name as connect's protojson codec,
// so "application/json" and "application/connect+json" requests use it.
const CodecName = "json"

// Codec marshals messages with encoding/json.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string {
	return CodecName
}

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", msg, err)
	}
	return data, nil
}

// Unmarshal implements connect.Codec. An empty body decodes as the zero
// message.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", msg, err)
	}
	return nil
}
