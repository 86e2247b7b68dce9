package babe

import (
	"github.com/holiman/uint256"

	"github.com/mezonai/lightsync/types"
)

// BlockWeight is the fork-choice weight BABE records for every imported block.
type BlockWeight uint32

type Slot uint64

// AllowedSlots selects which slot claims are valid within an epoch.
type AllowedSlots uint8

const (
	PrimarySlots AllowedSlots = iota
	PrimaryAndSecondaryPlainSlots
	PrimaryAndSecondaryVRFSlots
)

// EpochConfiguration holds the (C1, C2) primary slot probability and the allowed slot kinds.
type EpochConfiguration struct {
	C1           uint64
	C2           uint64
	AllowedSlots AllowedSlots
}

type Authority struct {
	ID     types.AuthorityID
	Weight uint64
}

type Epoch struct {
	EpochIndex  uint64
	StartSlot   Slot
	Duration    uint64
	Authorities []Authority
	Randomness  [32]byte
	Config      EpochConfiguration
}

// EndSlot is the first slot after the epoch.
func (e *Epoch) EndSlot() Slot {
	return e.StartSlot + Slot(e.Duration)
}

func (e *Epoch) Header() EpochHeader {
	return EpochHeader{StartSlot: e.StartSlot, EndSlot: e.EndSlot()}
}

func (e *Epoch) TotalWeight() *uint256.Int {
	total := uint256.NewInt(0)
	for _, a := range e.Authorities {
		total.Add(total, uint256.NewInt(a.Weight))
	}
	return total
}

func (e Epoch) Clone() Epoch {
	out := e
	if e.Authorities != nil {
		out.Authorities = make([]Authority, len(e.Authorities))
		copy(out.Authorities, e.Authorities)
	}
	return out
}

// EpochHeader is the part of an epoch kept in the fork tree.
type EpochHeader struct {
	StartSlot Slot
	EndSlot   Slot
}

type PersistedKind uint8

const (
	// PersistedGenesis nodes carry epoch 0 and epoch 1, both announced by the genesis block.
	PersistedGenesis PersistedKind = iota
	PersistedRegular
)

type PersistedEpochHeader struct {
	Kind   PersistedKind
	First  EpochHeader
	Second *EpochHeader
}

func (h PersistedEpochHeader) Clone() PersistedEpochHeader {
	out := h
	if h.Second != nil {
		second := *h.Second
		out.Second = &second
	}
	return out
}

type PersistedEpoch struct {
	Kind   PersistedKind
	First  Epoch
	Second *Epoch
}

func NewGenesisEpochs(first, second Epoch) PersistedEpoch {
	return PersistedEpoch{Kind: PersistedGenesis, First: first, Second: &second}
}

func NewRegularEpoch(epoch Epoch) PersistedEpoch {
	return PersistedEpoch{Kind: PersistedRegular, First: epoch}
}

func (p PersistedEpoch) Header() PersistedEpochHeader {
	h := PersistedEpochHeader{Kind: p.Kind, First: p.First.Header()}
	if p.Second != nil {
		second := p.Second.Header()
		h.Second = &second
	}
	return h
}

func (p PersistedEpoch) Clone() PersistedEpoch {
	out := PersistedEpoch{Kind: p.Kind, First: p.First.Clone()}
	if p.Second != nil {
		second := p.Second.Clone()
		out.Second = &second
	}
	return out
}
