package store

import (
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"

	"github.com/mezonai/lightsync/db"
	"github.com/mezonai/lightsync/interfaces"
	"github.com/mezonai/lightsync/logx"
	"github.com/mezonai/lightsync/types"
)

// ChainStore keeps block headers, chain tips and consensus auxiliary data on a
// DatabaseProvider. It implements interfaces.Backend and interfaces.AuxStore.
type ChainStore struct {
	provider db.DatabaseProvider
	txm      *db.DBTxManager
	mu       sync.RWMutex
	info     types.ChainInfo
}

var (
	_ interfaces.Backend  = (*ChainStore)(nil)
	_ interfaces.AuxStore = (*ChainStore)(nil)
)

// NewChainStore creates a chain store and loads the stored chain tips
func NewChainStore(provider db.DatabaseProvider) (*ChainStore, error) {
	if provider == nil {
		return nil, errors.New("provider cannot be nil")
	}

	cs := &ChainStore{
		provider: provider,
		txm:      db.NewDBTxManager(provider),
	}
	if err := cs.loadChainInfo(); err != nil {
		return nil, errors.Wrap(err, "failed to load chain info")
	}
	return cs, nil
}

func headerKey(hash types.Hash) []byte {
	return append([]byte(PrefixHeader), hash[:]...)
}

func numberKey(number types.BlockNumber) []byte {
	key := make([]byte, len(PrefixNumber)+4)
	copy(key, PrefixNumber)
	binary.BigEndian.PutUint32(key[len(PrefixNumber):], uint32(number))
	return key
}

func metaKey(name string) []byte {
	return []byte(PrefixChainMeta + name)
}

func auxKey(key []byte) []byte {
	return append([]byte(PrefixAux), key...)
}

// loadTip reads the tip hash stored under meta key name together with its block number
func (cs *ChainStore) loadTip(name string) (types.Hash, types.BlockNumber, error) {
	value, err := cs.provider.Get(metaKey(name))
	if err != nil {
		return types.Hash{}, 0, errors.Wrapf(err, "failed to get %s tip", name)
	}
	if value == nil {
		return types.Hash{}, 0, nil
	}
	if len(value) != types.HashLength {
		return types.Hash{}, 0, errors.Errorf("invalid %s tip length: %d", name, len(value))
	}

	hash := types.BytesToHash(value)
	header, err := cs.readHeader(hash)
	if err != nil {
		return types.Hash{}, 0, err
	}
	if header == nil {
		return types.Hash{}, 0, errors.Errorf("%s tip %s has no stored header", name, hash)
	}
	return hash, header.BlockNumber(), nil
}

func (cs *ChainStore) loadChainInfo() error {
	var info types.ChainInfo
	var err error

	if info.GenesisHash, _, err = cs.loadTip(ChainMetaKeyGenesis); err != nil {
		return err
	}
	if info.BestHash, info.BestNumber, err = cs.loadTip(ChainMetaKeyBest); err != nil {
		return err
	}
	if info.FinalizedHash, info.FinalizedNumber, err = cs.loadTip(ChainMetaKeyFinalized); err != nil {
		return err
	}

	cs.info = info
	return nil
}

func (cs *ChainStore) readHeader(hash types.Hash) (*types.Header, error) {
	value, err := cs.provider.Get(headerKey(hash))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get header %s", hash)
	}
	if value == nil {
		return nil, nil
	}
	header, err := types.DecodeHeader(value)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode header %s", hash)
	}
	return header, nil
}

// Info returns the current chain tips
func (cs *ChainStore) Info() types.ChainInfo {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.info
}

// Header returns the header stored for hash, or nil when unknown
func (cs *ChainStore) Header(hash types.Hash) (*types.Header, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.readHeader(hash)
}

// HeaderByNumber returns the canonical header at number, or nil when unknown
func (cs *ChainStore) HeaderByNumber(number types.BlockNumber) (*types.Header, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	value, err := cs.provider.Get(numberKey(number))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get canonical hash at %d", number)
	}
	if value == nil {
		return nil, nil
	}
	return cs.readHeader(types.BytesToHash(value))
}

// ImportHeader stores header. The genesis header (number 0) also becomes the
// genesis, best and finalized tip. Other headers become best when setBest is
// set or when they extend past the current best number.
func (cs *ChainStore) ImportHeader(header *types.Header, setBest bool) (types.Hash, error) {
	if header == nil {
		return types.Hash{}, errors.New("header cannot be nil")
	}
	if header.Number > types.MaxBlockNumber {
		return types.Hash{}, errors.Errorf("header number %d exceeds %d", header.Number, uint64(types.MaxBlockNumber))
	}

	hash, err := header.Hash()
	if err != nil {
		return types.Hash{}, errors.Wrap(err, "failed to hash header")
	}
	encoded, err := header.Encode()
	if err != nil {
		return types.Hash{}, errors.Wrap(err, "failed to encode header")
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	number := header.BlockNumber()
	info := cs.info
	genesis := number == 0 && info.GenesisHash.IsZero()
	best := genesis || setBest || number > info.BestNumber

	err = cs.txm.WithBatch(func(batch db.DatabaseBatch) error {
		batch.Put(headerKey(hash), encoded)
		if best {
			batch.Put(numberKey(number), hash[:])
			batch.Put(metaKey(ChainMetaKeyBest), hash[:])
		}
		if genesis {
			batch.Put(metaKey(ChainMetaKeyGenesis), hash[:])
			batch.Put(metaKey(ChainMetaKeyFinalized), hash[:])
		}
		return nil
	})
	if err != nil {
		return types.Hash{}, errors.Wrapf(err, "failed to import header %s", hash)
	}

	if best {
		info.BestHash, info.BestNumber = hash, number
	}
	if genesis {
		info.GenesisHash = hash
		info.FinalizedHash, info.FinalizedNumber = hash, 0
	}
	cs.info = info

	logx.Debug("CHAINSTORE", "Imported header", number, hash.String())
	return hash, nil
}

// SetFinalized marks a stored header as the finalized tip
func (cs *ChainStore) SetFinalized(hash types.Hash) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	header, err := cs.readHeader(hash)
	if err != nil {
		return err
	}
	if header == nil {
		return errors.Errorf("cannot finalize unknown block %s", hash)
	}
	number := header.BlockNumber()
	if number < cs.info.FinalizedNumber {
		return errors.Errorf("cannot finalize block %d below finalized block %d", number, cs.info.FinalizedNumber)
	}

	err = cs.txm.WithBatch(func(batch db.DatabaseBatch) error {
		batch.Put(numberKey(number), hash[:])
		batch.Put(metaKey(ChainMetaKeyFinalized), hash[:])
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to finalize %s", hash)
	}

	cs.info.FinalizedHash, cs.info.FinalizedNumber = hash, number
	logx.Info("CHAINSTORE", "Finalized block", number, hash.String())
	return nil
}

// GetAux returns the auxiliary value for key, or nil when it is not stored
func (cs *ChainStore) GetAux(key []byte) ([]byte, error) {
	value, err := cs.provider.Get(auxKey(key))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get aux %q", key)
	}
	return value, nil
}

// InsertAux writes inserts and deletes in one batch
func (cs *ChainStore) InsertAux(insert []interfaces.AuxEntry, deleteKeys [][]byte) error {
	err := cs.txm.WithBatch(func(batch db.DatabaseBatch) error {
		for _, entry := range insert {
			batch.Put(auxKey(entry.Key), entry.Value)
		}
		for _, key := range deleteKeys {
			batch.Delete(auxKey(key))
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to write aux entries")
	}
	return nil
}

// Close closes the underlying provider
func (cs *ChainStore) Close() error {
	return cs.provider.Close()
}
