package babe

import (
	"fmt"

	"github.com/ChainSafe/gossamer/pkg/scale"

	"github.com/mezonai/lightsync/interfaces"
	"github.com/mezonai/lightsync/types"
)

// Aux storage keys
const (
	blockWeightPrefix          = "block_weight"
	EpochChangesKey            = "babe_epoch_changes"
	EpochChangesVersionKey     = "babe_epoch_changes_version"
	EpochChangesCurrentVersion = uint32(3)
)

// BlockWeightKey is the aux key of the weight of the block with the given hash.
func BlockWeightKey(hash types.Hash) []byte {
	key := make([]byte, 0, len(blockWeightPrefix)+types.HashLength)
	key = append(key, blockWeightPrefix...)
	return append(key, hash[:]...)
}

// LoadBlockWeight returns the weight stored for hash. found is false when no entry exists.
func LoadBlockWeight(aux interfaces.AuxReader, hash types.Hash) (weight BlockWeight, found bool, err error) {
	value, err := aux.GetAux(BlockWeightKey(hash))
	if err != nil {
		return 0, false, fmt.Errorf("read block weight for %s: %w", hash, err)
	}
	if value == nil {
		return 0, false, nil
	}
	if len(value) != 4 {
		return 0, false, fmt.Errorf("decode block weight for %s: expected 4 bytes, got %d", hash, len(value))
	}
	if err := scale.Unmarshal(value, &weight); err != nil {
		return 0, false, fmt.Errorf("decode block weight for %s: %w", hash, err)
	}
	return weight, true, nil
}

// BlockWeightEntry is the aux entry to write for hash.
func BlockWeightEntry(hash types.Hash, weight BlockWeight) (interfaces.AuxEntry, error) {
	value, err := scale.Marshal(weight)
	if err != nil {
		return interfaces.AuxEntry{}, fmt.Errorf("encode block weight: %w", err)
	}
	return interfaces.AuxEntry{Key: BlockWeightKey(hash), Value: value}, nil
}

// LoadEpochChanges reads the persisted epoch changes. A store without them yields an empty tree.
func LoadEpochChanges(aux interfaces.AuxReader) (*EpochChanges, error) {
	rawVersion, err := aux.GetAux([]byte(EpochChangesVersionKey))
	if err != nil {
		return nil, fmt.Errorf("read epoch changes version: %w", err)
	}
	value, err := aux.GetAux([]byte(EpochChangesKey))
	if err != nil {
		return nil, fmt.Errorf("read epoch changes: %w", err)
	}
	if value == nil {
		return NewEpochChanges(), nil
	}

	if rawVersion != nil {
		var version uint32
		if err := scale.Unmarshal(rawVersion, &version); err != nil {
			return nil, fmt.Errorf("decode epoch changes version: %w", err)
		}
		if version != EpochChangesCurrentVersion {
			return nil, fmt.Errorf("unsupported epoch changes version %d", version)
		}
	}
	return DecodeEpochChanges(value)
}

// EpochChangesEntries are the aux entries persisting ec at the current version.
func EpochChangesEntries(ec *EpochChanges) ([]interfaces.AuxEntry, error) {
	value, err := ec.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode epoch changes: %w", err)
	}
	version, err := scale.Marshal(EpochChangesCurrentVersion)
	if err != nil {
		return nil, fmt.Errorf("encode epoch changes version: %w", err)
	}
	return []interfaces.AuxEntry{
		{Key: []byte(EpochChangesVersionKey), Value: version},
		{Key: []byte(EpochChangesKey), Value: value},
	}, nil
}
