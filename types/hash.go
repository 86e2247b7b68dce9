package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const HashLength = 32

// Hash is a 32 byte block hash.
type Hash [HashLength]byte

// BlockNumber is the height of a block.
type BlockNumber uint32

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) Bytes() []byte {
	out := make([]byte, HashLength)
	copy(out, h[:])
	return out
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := HashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// BytesToHash copies b into a Hash, left padding or truncating from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HashFromHex parses a 0x prefixed (or bare) 64 character hex string.
func HashFromHex(s string) (Hash, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != HashLength*2 {
		return Hash{}, fmt.Errorf("invalid hash length: %d hex chars", len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash hex: %w", err)
	}
	var h Hash
	copy(h[:], raw)
	return h, nil
}
