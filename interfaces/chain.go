package interfaces

import (
	"github.com/mezonai/lightsync/types"
)

// HeaderBackend exposes chain tips and header lookups by hash.
type HeaderBackend interface {
	// Info returns the current chain tips
	Info() types.ChainInfo
	// Header returns the header for hash, or nil when it is not stored
	Header(hash types.Hash) (*types.Header, error)
}

// AuxEntry is one key/value pair of auxiliary storage.
type AuxEntry struct {
	Key   []byte
	Value []byte
}

// AuxReader reads consensus auxiliary data.
type AuxReader interface {
	// GetAux returns the value for key, or nil when it is not stored
	GetAux(key []byte) ([]byte, error)
}

// AuxStore is auxiliary storage with atomic writes.
type AuxStore interface {
	AuxReader
	// InsertAux applies inserts and deletes atomically
	InsertAux(insert []AuxEntry, deleteKeys [][]byte) error
}

// Backend is what the sync state builder reads from.
type Backend interface {
	HeaderBackend
	AuxReader
}
