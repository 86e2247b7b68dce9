package config

import (
	"time"

	"github.com/mezonai/lightsync/store"
)

// RPCConfig is the [rpc] section of the node config
type RPCConfig struct {
	ListenAddr string `ini:"listen_addr"`
	// RPCMethods is safe, unsafe or auto
	RPCMethods           string        `ini:"rpc_methods"`
	RateLimitMaxRequests int           `ini:"rate_limit_max_requests"`
	RateLimitWindow      time.Duration `ini:"rate_limit_window"`
	CORSAllowedOrigins   string        `ini:"cors_allowed_origins"`
	CORSAllowedMethods   string        `ini:"cors_allowed_methods"`
	CORSAllowedHeaders   string        `ini:"cors_allowed_headers"`
	CORSMaxAge           int           `ini:"cors_max_age"`
}

// LogConfig is the [log] section of the node config
type LogConfig struct {
	File       string `ini:"file"`
	MaxSizeMB  int    `ini:"max_size_mb"`
	MaxAgeDays int    `ini:"max_age_days"`
}

// NodeConfig is the whole node config file
type NodeConfig struct {
	RPC   RPCConfig
	Store store.StoreConfig
	Log   LogConfig
	// ChainSpecPath is read from the top level chain_spec key
	ChainSpecPath string
}

// ChainConfig describes the chain spec skeleton of a dev chain
type ChainConfig struct {
	Name       string                 `yaml:"name"`
	ID         string                 `yaml:"id"`
	ChainType  string                 `yaml:"chain_type"`
	ProtocolID string                 `yaml:"protocol_id"`
	BootNodes  []string               `yaml:"boot_nodes"`
	Properties map[string]interface{} `yaml:"properties"`
}

// BabeConfig holds the BABE epoch parameters of a dev chain
type BabeConfig struct {
	EpochDuration uint64 `yaml:"epoch_duration"`
	C1            uint64 `yaml:"c1"`
	C2            uint64 `yaml:"c2"`
	// AllowedSlots is primary, primary_and_secondary_plain or primary_and_secondary_vrf
	AllowedSlots string `yaml:"allowed_slots"`
	// Randomness is 0x prefixed hex of 32 bytes, zero when empty
	Randomness string `yaml:"randomness"`
}

// AuthorityConfig is one dev authority, its id in base58
type AuthorityConfig struct {
	ID            string `yaml:"id"`
	BabeWeight    uint64 `yaml:"babe_weight"`
	GrandpaWeight uint64 `yaml:"grandpa_weight"`
}

// GenesisConfig holds the configuration from genesis.yml
type GenesisConfig struct {
	Chain       ChainConfig       `yaml:"chain"`
	Babe        BabeConfig        `yaml:"babe"`
	Authorities []AuthorityConfig `yaml:"authorities"`
	// Blocks is the number of headers seeded after genesis, Finalized the number of the finalized one
	Blocks    uint32 `yaml:"blocks"`
	Finalized uint32 `yaml:"finalized"`
}

// ConfigFile is the top-level structure for genesis.yml
type ConfigFile struct {
	Config GenesisConfig `yaml:"config"`
}
