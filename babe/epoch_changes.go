package babe

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/ChainSafe/gossamer/pkg/scale"

	"github.com/mezonai/lightsync/forktree"
	"github.com/mezonai/lightsync/types"
)

// EpochIdentifier is the block that announced an epoch.
type EpochIdentifier struct {
	Hash   types.Hash
	Number types.BlockNumber
}

type EpochEntry struct {
	Position EpochIdentifier
	Epoch    PersistedEpoch
}

// EpochChanges is the tree of epoch announcements plus the full epoch data
// for every node. Epochs stays sorted by (number, hash) so its encoding never
// depends on insertion order.
type EpochChanges struct {
	Inner  forktree.Tree[PersistedEpochHeader]
	Epochs []EpochEntry
}

func NewEpochChanges() *EpochChanges {
	return &EpochChanges{
		Inner:  forktree.New[PersistedEpochHeader](),
		Epochs: []EpochEntry{},
	}
}

// Import records an epoch announced at (hash, number).
func (ec *EpochChanges) Import(isDescendentOf forktree.IsDescendentOf, hash types.Hash, number types.BlockNumber, epoch PersistedEpoch) error {
	if _, err := ec.Inner.Import(hash, number, epoch.Header(), isDescendentOf); err != nil {
		return fmt.Errorf("import epoch at %s: %w", hash, err)
	}

	entry := EpochEntry{Position: EpochIdentifier{Hash: hash, Number: number}, Epoch: epoch.Clone()}
	i := sort.Search(len(ec.Epochs), func(i int) bool {
		return !lessIdentifier(ec.Epochs[i].Position, entry.Position)
	})
	ec.Epochs = append(ec.Epochs, EpochEntry{})
	copy(ec.Epochs[i+1:], ec.Epochs[i:])
	ec.Epochs[i] = entry
	return nil
}

func lessIdentifier(a, b EpochIdentifier) bool {
	if a.Number != b.Number {
		return a.Number < b.Number
	}
	return bytes.Compare(a.Hash[:], b.Hash[:]) < 0
}

// Epoch returns the epoch announced at id.
func (ec *EpochChanges) Epoch(id EpochIdentifier) (PersistedEpoch, bool) {
	i := sort.Search(len(ec.Epochs), func(i int) bool {
		return !lessIdentifier(ec.Epochs[i].Position, id)
	})
	if i < len(ec.Epochs) && ec.Epochs[i].Position == id {
		return ec.Epochs[i].Epoch, true
	}
	return PersistedEpoch{}, false
}

// Len is the number of stored epochs.
func (ec *EpochChanges) Len() int {
	return len(ec.Epochs)
}

// Clone returns a deep copy sharing no memory with ec.
func (ec *EpochChanges) Clone() *EpochChanges {
	out := &EpochChanges{
		Inner:  ec.Inner.Clone(PersistedEpochHeader.Clone),
		Epochs: make([]EpochEntry, len(ec.Epochs)),
	}
	for i, e := range ec.Epochs {
		out.Epochs[i] = EpochEntry{Position: e.Position, Epoch: e.Epoch.Clone()}
	}
	return out
}

func (ec *EpochChanges) Encode() ([]byte, error) {
	return scale.Marshal(*ec)
}

func DecodeEpochChanges(data []byte) (*EpochChanges, error) {
	ec := EpochChanges{}
	if err := scale.Unmarshal(data, &ec); err != nil {
		return nil, fmt.Errorf("decode epoch changes: %w", err)
	}
	return &ec, nil
}

// SharedEpochChanges guards the live epoch changes of the node.
type SharedEpochChanges struct {
	mu    sync.RWMutex
	inner *EpochChanges
}

func NewSharedEpochChanges(ec *EpochChanges) *SharedEpochChanges {
	if ec == nil {
		ec = NewEpochChanges()
	}
	return &SharedEpochChanges{inner: ec}
}

// Snapshot deep copies the current value under a read lock.
func (s *SharedEpochChanges) Snapshot() *EpochChanges {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Clone()
}

// Update runs fn with exclusive access.
func (s *SharedEpochChanges) Update(fn func(ec *EpochChanges) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.inner)
}
