package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezonai/lightsync/db"
	"github.com/mezonai/lightsync/interfaces"
	"github.com/mezonai/lightsync/types"
)

func newTestChainStore(t *testing.T) (*ChainStore, db.DatabaseProvider) {
	t.Helper()
	provider, err := db.NewMemLevelDBProvider()
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })

	cs, err := NewChainStore(provider)
	require.NoError(t, err)
	return cs, provider
}

func child(parent types.Hash, number uint) *types.Header {
	return &types.Header{ParentHash: parent, Number: number, StateRoot: types.Hash{byte(number)}}
}

func TestEmptyChainStore(t *testing.T) {
	cs, _ := newTestChainStore(t)

	assert.Equal(t, types.ChainInfo{}, cs.Info())
	header, err := cs.Header(types.Hash{1})
	require.NoError(t, err)
	assert.Nil(t, header)
}

func TestImportGenesisSetsAllTips(t *testing.T) {
	cs, _ := newTestChainStore(t)

	genesis, err := cs.ImportHeader(child(types.Hash{}, 0), false)
	require.NoError(t, err)

	info := cs.Info()
	assert.Equal(t, genesis, info.GenesisHash)
	assert.Equal(t, genesis, info.BestHash)
	assert.Equal(t, genesis, info.FinalizedHash)
	assert.Equal(t, types.BlockNumber(0), info.FinalizedNumber)
}

func TestImportRejectsNumberAboveBlockNumber(t *testing.T) {
	cs, _ := newTestChainStore(t)

	genesis, err := cs.ImportHeader(child(types.Hash{}, 0), false)
	require.NoError(t, err)

	top, err := cs.ImportHeader(child(genesis, types.MaxBlockNumber), false)
	require.NoError(t, err)
	assert.Equal(t, top, cs.Info().BestHash)
	assert.Equal(t, types.BlockNumber(types.MaxBlockNumber), cs.Info().BestNumber)

	over := uint(types.MaxBlockNumber)
	over++
	if over == 0 {
		t.Skip("uint is 32 bits wide")
	}
	_, err = cs.ImportHeader(child(top, over), false)
	require.Error(t, err)
	assert.Equal(t, top, cs.Info().BestHash)
}

func TestImportAndFinalize(t *testing.T) {
	cs, provider := newTestChainStore(t)

	genesis, err := cs.ImportHeader(child(types.Hash{}, 0), false)
	require.NoError(t, err)
	h1, err := cs.ImportHeader(child(genesis, 1), false)
	require.NoError(t, err)
	h2, err := cs.ImportHeader(child(h1, 2), false)
	require.NoError(t, err)

	info := cs.Info()
	assert.Equal(t, h2, info.BestHash)
	assert.Equal(t, types.BlockNumber(2), info.BestNumber)
	assert.Equal(t, genesis, info.FinalizedHash)

	require.NoError(t, cs.SetFinalized(h1))
	assert.Equal(t, h1, cs.Info().FinalizedHash)
	assert.Equal(t, types.BlockNumber(1), cs.Info().FinalizedNumber)

	assert.Error(t, cs.SetFinalized(genesis))
	assert.Error(t, cs.SetFinalized(types.Hash{0xee}))

	stored, err := cs.HeaderByNumber(2)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, h1, stored.ParentHash)

	// tips survive a reopen
	reopened, err := NewChainStore(provider)
	require.NoError(t, err)
	assert.Equal(t, cs.Info(), reopened.Info())
}

func TestAuxEntries(t *testing.T) {
	cs, _ := newTestChainStore(t)

	value, err := cs.GetAux([]byte("block_weight"))
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, cs.InsertAux([]interfaces.AuxEntry{
		{Key: []byte("a"), Value: []byte{1}},
		{Key: []byte("b"), Value: []byte{2}},
	}, nil))
	require.NoError(t, cs.InsertAux(nil, [][]byte{[]byte("a")}))

	value, err = cs.GetAux([]byte("a"))
	require.NoError(t, err)
	assert.Nil(t, value)
	value, err = cs.GetAux([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, value)
}

func TestStoreConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  StoreConfig
		wantErr bool
	}{
		{"leveldb", StoreConfig{Type: LevelDBStoreType, Directory: "data"}, false},
		{"leveldb without directory", StoreConfig{Type: LevelDBStoreType}, true},
		{"redis", StoreConfig{Type: RedisStoreType, RedisAddress: "localhost:6379"}, false},
		{"redis without address", StoreConfig{Type: RedisStoreType}, true},
		{"memory", StoreConfig{Type: MemoryStoreType}, false},
		{"empty", StoreConfig{}, true},
		{"unknown", StoreConfig{Type: "bolt", Directory: "data"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateStoreFromFactory(t *testing.T) {
	cs, err := CreateStore(&StoreConfig{Type: LevelDBStoreType, Directory: t.TempDir()})
	require.NoError(t, err)
	defer cs.Close()

	_, err = cs.ImportHeader(child(types.Hash{}, 0), false)
	require.NoError(t, err)
	assert.False(t, cs.Info().GenesisHash.IsZero())
}
