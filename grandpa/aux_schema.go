package grandpa

import (
	"fmt"

	"github.com/ChainSafe/gossamer/pkg/scale"

	"github.com/mezonai/lightsync/interfaces"
)

// Aux storage keys
const (
	AuthoritySetKey      = "grandpa_voters"
	VersionKey           = "grandpa_schema_version"
	CurrentSchemaVersion = uint32(3)
)

// LoadAuthoritySet reads the persisted authority set. found is false when none is stored.
func LoadAuthoritySet(aux interfaces.AuxReader) (set *AuthoritySet, found bool, err error) {
	rawVersion, err := aux.GetAux([]byte(VersionKey))
	if err != nil {
		return nil, false, fmt.Errorf("read grandpa schema version: %w", err)
	}
	if rawVersion != nil {
		var version uint32
		if err := scale.Unmarshal(rawVersion, &version); err != nil {
			return nil, false, fmt.Errorf("decode grandpa schema version: %w", err)
		}
		if version != CurrentSchemaVersion {
			return nil, false, fmt.Errorf("unsupported grandpa schema version %d", version)
		}
	}

	value, err := aux.GetAux([]byte(AuthoritySetKey))
	if err != nil {
		return nil, false, fmt.Errorf("read authority set: %w", err)
	}
	if value == nil {
		return nil, false, nil
	}
	set, err = DecodeAuthoritySet(value)
	if err != nil {
		return nil, false, err
	}
	return set, true, nil
}

// AuthoritySetEntries are the aux entries persisting set at the current schema version.
func AuthoritySetEntries(set *AuthoritySet) ([]interfaces.AuxEntry, error) {
	value, err := set.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode authority set: %w", err)
	}
	version, err := scale.Marshal(CurrentSchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("encode grandpa schema version: %w", err)
	}
	return []interfaces.AuxEntry{
		{Key: []byte(VersionKey), Value: version},
		{Key: []byte(AuthoritySetKey), Value: value},
	}, nil
}
