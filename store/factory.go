package store

import (
	"fmt"

	"github.com/mezonai/lightsync/db"
)

// StoreType represents the type of store implementation
type StoreType string

const (
	// LevelDBStoreType uses the LevelDB implementation
	LevelDBStoreType StoreType = "leveldb"

	// RocksDBStoreType uses the RocksDB implementation
	RocksDBStoreType StoreType = "rocksdb"

	// RedisStoreType uses the Redis implementation
	RedisStoreType StoreType = "redis"

	// MemoryStoreType keeps LevelDB tables in memory, mostly for tests and dev chains
	MemoryStoreType StoreType = "memory"
)

// StoreConfig holds configuration for creating store instances
type StoreConfig struct {
	// Type specifies which store implementation to use
	Type StoreType `ini:"type" json:"type" yaml:"type"`

	// Directory is the database directory path (for file-based databases)
	Directory string `ini:"directory" json:"directory" yaml:"directory"`

	// RedisAddress and RedisDB select the Redis server for RedisStoreType
	RedisAddress string `ini:"redis_address" json:"redis_address" yaml:"redis_address"`
	RedisDB      int    `ini:"redis_db" json:"redis_db" yaml:"redis_db"`
}

// Validate validates the store configuration
func (sc *StoreConfig) Validate() error {
	switch sc.Type {
	case "":
		return fmt.Errorf("store type cannot be empty")
	case LevelDBStoreType, RocksDBStoreType:
		if sc.Directory == "" {
			return fmt.Errorf("directory cannot be empty")
		}
		return nil
	case RedisStoreType:
		if sc.RedisAddress == "" {
			return fmt.Errorf("redis address cannot be empty")
		}
		return nil
	case MemoryStoreType:
		return nil
	default:
		return fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}

// StoreFactory take responsibility to create store instances
type StoreFactory struct{}

// NewStoreFactory creates a new store factory
func NewStoreFactory() *StoreFactory {
	return &StoreFactory{}
}

// CreateChainStore opens the configured provider and loads a ChainStore over it
func (sf *StoreFactory) CreateChainStore(config *StoreConfig) (*ChainStore, error) {
	provider, err := sf.CreateProvider(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	cs, err := NewChainStore(provider)
	if err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("failed to create chain store: %w", err)
	}
	return cs, nil
}

// CreateProvider creates a database provider based on the configuration
func (sf *StoreFactory) CreateProvider(config *StoreConfig) (db.DatabaseProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch config.Type {
	case LevelDBStoreType:
		return db.NewLevelDBProvider(config.Directory)

	case RocksDBStoreType:
		return db.NewRocksDBProvider(config.Directory)

	case RedisStoreType:
		return db.NewRedisProvider(config.RedisAddress, config.RedisDB)

	case MemoryStoreType:
		return db.NewMemLevelDBProvider()

	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// Global factory instance
var globalFactory = NewStoreFactory()

// CreateStore opens a ChainStore using the global factory
func CreateStore(config *StoreConfig) (*ChainStore, error) {
	return globalFactory.CreateChainStore(config)
}
