package syncstate

import (
	"github.com/mezonai/lightsync/babe"
	lserrors "github.com/mezonai/lightsync/errors"
	"github.com/mezonai/lightsync/grandpa"
	"github.com/mezonai/lightsync/interfaces"
	"github.com/mezonai/lightsync/types"
)

// EpochChangesSource hands out deep copies of the BABE epoch change tree.
type EpochChangesSource interface {
	Snapshot() *babe.EpochChanges
}

// AuthoritySetSource hands out deep copies of the GRANDPA authority set.
type AuthoritySetSource interface {
	CloneInner() *grandpa.AuthoritySet
}

// LightSyncState is what a light client needs to start syncing from the
// finalized block instead of genesis.
type LightSyncState struct {
	FinalizedBlockHeader     *types.Header
	BabeEpochChanges         *babe.EpochChanges
	BabeFinalizedBlockWeight babe.BlockWeight
	GrandpaAuthoritySet      *grandpa.AuthoritySet
}

type builder struct {
	backend      interfaces.Backend
	epochChanges EpochChangesSource
	authoritySet AuthoritySetSource
}

// build captures a snapshot. The weight is read for the same hash the header
// was read for. The epoch tree and the authority set are copied under their
// own locks, so they are not guaranteed to describe the same instant.
func (b *builder) build() (*LightSyncState, error) {
	finalized := b.backend.Info().FinalizedHash

	header, err := b.backend.Header(finalized)
	if err != nil {
		return nil, lserrors.Wrap(lserrors.ErrCodeBackend, err, "Failed to read finalized header")
	}
	if header == nil {
		return nil, lserrors.MissingFinalizedHeader(finalized)
	}

	weight, found, err := babe.LoadBlockWeight(b.backend, finalized)
	if err != nil {
		return nil, lserrors.Wrap(lserrors.ErrCodeBackend, err, "Failed to read block weight")
	}
	if !found {
		return nil, lserrors.BlockWeightMissing(finalized)
	}

	return &LightSyncState{
		FinalizedBlockHeader:     header,
		BabeEpochChanges:         b.epochChanges.Snapshot(),
		BabeFinalizedBlockWeight: weight,
		GrandpaAuthoritySet:      b.authoritySet.CloneInner(),
	}, nil
}
