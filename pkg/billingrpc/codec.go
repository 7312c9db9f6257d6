// Package billingrpc defines the billpay Connect RPC API: procedure names,
// request and response messages, and handler and client constructors for
// PaymentService and AuthService.
//
// Messages are plain Go structs carried as JSON, so every handler and client
// is built with JSONCodec.
package billingrpc

import (
	"encoding/json"
	"fmt"
)

// JSONCodec marshals messages with encoding/json. It registers under the
// "json" name, replacing Connect's protobuf JSON codec.
type JSONCodec struct{}

// Name implements connect.Codec.
func (JSONCodec) Name() string {
	return "json"
}

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", msg, err)
	}
	return data, nil
}

// Unmarshal implements connect.Codec. An empty body leaves msg zeroed.
func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", msg, err)
	}
	return nil
}
