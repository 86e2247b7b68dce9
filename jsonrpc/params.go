package jsonrpc

import (
	"bytes"
	"fmt"

	"github.com/mezonai/lightsync/jsonx"
)

// genSyncSpecParams accepts both [raw] and {"raw": raw}.
type genSyncSpecParams struct {
	Raw bool `json:"raw"`
}

func (p *genSyncSpecParams) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("missing raw parameter")
	}

	switch data[0] {
	case '[':
		var positional []jsonx.RawMessage
		if err := jsonx.Unmarshal(data, &positional); err != nil {
			return err
		}
		if len(positional) != 1 {
			return fmt.Errorf("expected 1 parameter, got %d", len(positional))
		}
		return jsonx.Unmarshal(positional[0], &p.Raw)
	case '{':
		var named map[string]jsonx.RawMessage
		if err := jsonx.Unmarshal(data, &named); err != nil {
			return err
		}
		raw, ok := named["raw"]
		if !ok {
			return fmt.Errorf("missing raw parameter")
		}
		for key := range named {
			if key != "raw" {
				return fmt.Errorf("unknown parameter %q", key)
			}
		}
		return jsonx.Unmarshal(raw, &p.Raw)
	default:
		return fmt.Errorf("parameters must be an array or an object")
	}
}

type rpcMethodsResponse struct {
	Methods []string `json:"methods"`
}

type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
