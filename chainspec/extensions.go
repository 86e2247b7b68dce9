package chainspec

import (
	"bytes"
	"sort"

	"github.com/mezonai/lightsync/jsonx"
)

// ExtensionKind is the top level key an extension is stored under.
type ExtensionKind string

// LightSyncStateKind holds the light client bootstrap state.
const LightSyncStateKind ExtensionKind = "lightSyncState"

// Extensions keeps every non core top level value of a chain spec verbatim.
// A key whose value is null is still present.
type Extensions struct {
	values map[ExtensionKind]jsonx.RawMessage
}

func newExtensions() Extensions {
	return Extensions{values: make(map[ExtensionKind]jsonx.RawMessage)}
}

// Has reports whether the slot for kind is declared.
func (e *Extensions) Has(kind ExtensionKind) bool {
	_, ok := e.values[kind]
	return ok
}

// Get returns the raw value of kind and whether the slot is declared.
func (e *Extensions) Get(kind ExtensionKind) (jsonx.RawMessage, bool) {
	v, ok := e.values[kind]
	if !ok {
		return nil, false
	}
	return bytes.Clone(v), true
}

// Replace overwrites the whole value of an already declared slot. It returns
// false and changes nothing when the slot is absent.
func (e *Extensions) Replace(kind ExtensionKind, value jsonx.RawMessage) bool {
	if !e.Has(kind) {
		return false
	}
	e.values[kind] = bytes.Clone(value)
	return true
}

// Declare adds the slot for kind, set to value, replacing any previous value.
func (e *Extensions) Declare(kind ExtensionKind, value jsonx.RawMessage) {
	if e.values == nil {
		e.values = make(map[ExtensionKind]jsonx.RawMessage)
	}
	if len(value) == 0 {
		value = jsonx.Null
	}
	e.values[kind] = bytes.Clone(value)
}

// Kinds lists declared slots in key order.
func (e *Extensions) Kinds() []ExtensionKind {
	kinds := make([]ExtensionKind, 0, len(e.values))
	for k := range e.values {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (e *Extensions) Len() int {
	return len(e.values)
}

func (e *Extensions) clone() Extensions {
	out := Extensions{values: make(map[ExtensionKind]jsonx.RawMessage, len(e.values))}
	for k, v := range e.values {
		out.values[k] = bytes.Clone(v)
	}
	return out
}
