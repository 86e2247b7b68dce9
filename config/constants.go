package config

import "time"

const (
	DefaultConfigPath    = "config/config.ini"
	DefaultGenesisPath   = "config/genesis.yml"
	DefaultChainSpecPath = "config/chain_spec.json"

	DefaultListenAddr = "127.0.0.1:9933"
	DefaultRPCMethods = "auto"

	DefaultRateLimitMaxRequests = 10
	DefaultRateLimitWindow      = time.Second

	DefaultStoreType      = "leveldb"
	DefaultStoreDirectory = "data/chain"

	DefaultLogFile       = "./logs/lightsync.log"
	DefaultLogMaxSizeMB  = 100
	DefaultLogMaxAgeDays = 7
)
