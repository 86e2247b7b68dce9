package grandpa

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezonai/lightsync/forktree"
	"github.com/mezonai/lightsync/interfaces"
	"github.com/mezonai/lightsync/types"
)

type memAux map[string][]byte

func (m memAux) GetAux(key []byte) ([]byte, error) {
	return m[string(key)], nil
}

func (m memAux) InsertAux(insert []interfaces.AuxEntry, deleteKeys [][]byte) error {
	for _, e := range insert {
		m[string(e.Key)] = e.Value
	}
	for _, k := range deleteKeys {
		delete(m, string(k))
	}
	return nil
}

func linearDescent(base, block types.Hash) (bool, error) {
	return block[0] > base[0], nil
}

func voters(weights ...uint64) []Authority {
	out := make([]Authority, len(weights))
	for i, w := range weights {
		out[i] = Authority{ID: types.AuthorityID{byte(i + 1)}, Weight: w}
	}
	return out
}

func testSet(t *testing.T) *AuthoritySet {
	set, err := NewGenesisAuthoritySet(voters(1, 2, 3))
	require.NoError(t, err)
	require.NoError(t, set.AddPendingChange(PendingChange{
		NextAuthorities: voters(5),
		Delay:           10,
		CanonHeight:     4,
		CanonHash:       types.Hash{4},
	}, linearDescent))
	require.NoError(t, set.AddPendingChange(PendingChange{
		NextAuthorities: voters(7, 7),
		CanonHeight:     6,
		CanonHash:       types.Hash{6},
		DelayKind:       DelayKind{Tag: DelayBest, MedianLastFinalized: 3},
	}, linearDescent))
	set.AuthoritySetChanges = append(set.AuthoritySetChanges, AuthoritySetChange{SetID: 0, BlockNumber: 0})
	return set
}

func TestNewAuthoritySetValidates(t *testing.T) {
	_, err := NewAuthoritySet(nil, 0)
	assert.ErrorIs(t, err, ErrEmptyAuthorities)

	_, err = NewAuthoritySet(voters(1, 0), 0)
	assert.ErrorIs(t, err, ErrZeroWeight)

	set, err := NewAuthoritySet(voters(1), 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), set.SetID)
}

func TestAddPendingChange(t *testing.T) {
	set := testSet(t)

	assert.Equal(t, 1, set.PendingStandardChanges.Len())
	require.Len(t, set.PendingForcedChanges, 1)
	assert.Equal(t, types.BlockNumber(14), set.PendingStandardChanges.Roots[0].Data.EffectiveNumber())

	err := set.AddPendingChange(PendingChange{
		NextAuthorities: voters(1),
		CanonHeight:     6,
		CanonHash:       types.Hash{6},
		DelayKind:       DelayKind{Tag: DelayBest},
	}, linearDescent)
	assert.ErrorIs(t, err, forktree.ErrDuplicate)

	err = set.AddPendingChange(PendingChange{CanonHash: types.Hash{8}, CanonHeight: 8}, linearDescent)
	assert.ErrorIs(t, err, ErrEmptyAuthorities)
}

func TestTotalWeight(t *testing.T) {
	set, err := NewGenesisAuthoritySet(voters(^uint64(0), ^uint64(0)))
	require.NoError(t, err)
	assert.Equal(t, "36893488147419103230", set.TotalWeight().Dec())
}

func TestCloneSharesNothing(t *testing.T) {
	set := testSet(t)
	clone := set.Clone()

	clone.CurrentAuthorities[0].Weight = 100
	clone.PendingForcedChanges[0].NextAuthorities[0].Weight = 100
	clone.PendingStandardChanges.Roots[0].Data.NextAuthorities[0].Weight = 100
	clone.AuthoritySetChanges[0].SetID = 100

	assert.Equal(t, uint64(1), set.CurrentAuthorities[0].Weight)
	assert.Equal(t, uint64(7), set.PendingForcedChanges[0].NextAuthorities[0].Weight)
	assert.Equal(t, uint64(5), set.PendingStandardChanges.Roots[0].Data.NextAuthorities[0].Weight)
	assert.Equal(t, uint64(0), set.AuthoritySetChanges[0].SetID)
}

func TestEncodeDecode(t *testing.T) {
	set := testSet(t)
	enc, err := set.Encode()
	require.NoError(t, err)

	decoded, err := DecodeAuthoritySet(enc)
	require.NoError(t, err)
	assert.Equal(t, set.SetID, decoded.SetID)
	assert.Len(t, decoded.CurrentAuthorities, 3)

	again, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, enc, again)
}

func TestSharedAuthoritySet(t *testing.T) {
	shared := NewSharedAuthoritySet(testSet(t))
	before := shared.CloneInner()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = shared.Update(func(set *AuthoritySet) error {
				set.SetID++
				return nil
			})
			_ = shared.CloneInner()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(0), before.SetID)
	assert.Equal(t, uint64(10), shared.SetID())
}

func TestAuthoritySetAux(t *testing.T) {
	aux := memAux{}

	_, found, err := LoadAuthoritySet(aux)
	require.NoError(t, err)
	assert.False(t, found)

	set := testSet(t)
	entries, err := AuthoritySetEntries(set)
	require.NoError(t, err)
	require.NoError(t, aux.InsertAux(entries, nil))

	loaded, found, err := LoadAuthoritySet(aux)
	require.NoError(t, err)
	require.True(t, found)
	want, _ := set.Encode()
	got, _ := loaded.Encode()
	assert.Equal(t, want, got)

	aux[VersionKey] = []byte{2, 0, 0, 0}
	_, _, err = LoadAuthoritySet(aux)
	assert.Error(t, err)
}
