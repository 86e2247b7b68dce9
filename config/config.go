package config

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/mezonai/lightsync/babe"
	"github.com/mezonai/lightsync/grandpa"
	"github.com/mezonai/lightsync/logx"
	"github.com/mezonai/lightsync/security/ratelimit"
	"github.com/mezonai/lightsync/store"
	"github.com/mezonai/lightsync/types"
)

// DefaultNodeConfig is used for values the config file leaves out
func DefaultNodeConfig() *NodeConfig {
	return &NodeConfig{
		RPC: RPCConfig{
			ListenAddr:           DefaultListenAddr,
			RPCMethods:           DefaultRPCMethods,
			RateLimitMaxRequests: DefaultRateLimitMaxRequests,
			RateLimitWindow:      DefaultRateLimitWindow,
		},
		Store: store.StoreConfig{
			Type:      DefaultStoreType,
			Directory: DefaultStoreDirectory,
		},
		Log: LogConfig{
			File:       DefaultLogFile,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
		ChainSpecPath: DefaultChainSpecPath,
	}
}

// LoadNodeConfig reads the [rpc], [store] and [log] sections of an .ini file
func LoadNodeConfig(path string) (*NodeConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load node config %s", path)
	}

	nodeCfg := DefaultNodeConfig()
	if key, err := cfg.Section(ini.DefaultSection).GetKey("chain_spec"); err == nil {
		nodeCfg.ChainSpecPath = key.String()
	}
	if err := cfg.Section("rpc").MapTo(&nodeCfg.RPC); err != nil {
		return nil, errors.Wrap(err, "invalid [rpc] section")
	}
	if err := cfg.Section("store").MapTo(&nodeCfg.Store); err != nil {
		return nil, errors.Wrap(err, "invalid [store] section")
	}
	if err := cfg.Section("log").MapTo(&nodeCfg.Log); err != nil {
		return nil, errors.Wrap(err, "invalid [log] section")
	}
	if err := nodeCfg.Store.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid [store] section")
	}
	return nodeCfg, nil
}

// RateLimiterConfig returns nil when rate limiting is disabled
func (c *RPCConfig) RateLimiterConfig() *ratelimit.RateLimiterConfig {
	if c.RateLimitMaxRequests <= 0 {
		return nil
	}
	rl := ratelimit.DefaultConfig()
	rl.MaxRequests = c.RateLimitMaxRequests
	if c.RateLimitWindow > 0 {
		rl.WindowSize = c.RateLimitWindow
	}
	return rl
}

// LoadGenesisConfig reads and parses the genesis.yml file
func LoadGenesisConfig(path string) (*GenesisConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open genesis config %s", path)
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, errors.Wrapf(err, "failed to decode genesis config %s", path)
	}
	if err := cfgFile.Config.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "genesis config %s", path)
	}
	logx.Info("CONFIG", "Loaded genesis config:", cfgFile.Config.Chain.Name, "authorities:", len(cfgFile.Config.Authorities))
	return &cfgFile.Config, nil
}

// Validate checks ids, weights and chain bounds
func (g *GenesisConfig) Validate() error {
	if g.Chain.Name == "" || g.Chain.ID == "" {
		return errors.New("chain name and id are required")
	}
	if len(g.Authorities) == 0 {
		return errors.New("at least one authority is required")
	}
	for i, a := range g.Authorities {
		if _, err := types.ParseAuthorityID(a.ID); err != nil {
			return errors.Wrapf(err, "authority %d", i)
		}
		if a.BabeWeight == 0 || a.GrandpaWeight == 0 {
			return errors.Errorf("authority %d must have non zero weights", i)
		}
	}
	if g.Finalized > g.Blocks {
		return errors.Errorf("finalized block %d is beyond the last block %d", g.Finalized, g.Blocks)
	}
	if g.Babe.EpochDuration == 0 {
		return errors.New("babe epoch_duration must be positive")
	}
	if _, err := parseAllowedSlots(g.Babe.AllowedSlots); err != nil {
		return err
	}
	if _, err := g.randomness(); err != nil {
		return err
	}
	return nil
}

func parseAllowedSlots(s string) (babe.AllowedSlots, error) {
	switch strings.ToLower(s) {
	case "primary":
		return babe.PrimarySlots, nil
	case "primary_and_secondary_plain":
		return babe.PrimaryAndSecondaryPlainSlots, nil
	case "", "primary_and_secondary_vrf":
		return babe.PrimaryAndSecondaryVRFSlots, nil
	default:
		return 0, errors.Errorf("unknown babe allowed_slots %q", s)
	}
}

func (g *GenesisConfig) randomness() ([32]byte, error) {
	var out [32]byte
	if g.Babe.Randomness == "" {
		return out, nil
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(g.Babe.Randomness, "0x"))
	if err != nil {
		return out, errors.Wrap(err, "babe randomness")
	}
	if len(raw) != len(out) {
		return out, errors.Errorf("babe randomness must be 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// GenesisEpoch builds the BABE epoch with the given index starting at startSlot
func (g *GenesisConfig) GenesisEpoch(index uint64, startSlot babe.Slot) (babe.Epoch, error) {
	allowed, err := parseAllowedSlots(g.Babe.AllowedSlots)
	if err != nil {
		return babe.Epoch{}, err
	}
	randomness, err := g.randomness()
	if err != nil {
		return babe.Epoch{}, err
	}

	authorities := make([]babe.Authority, 0, len(g.Authorities))
	for _, a := range g.Authorities {
		id, err := types.ParseAuthorityID(a.ID)
		if err != nil {
			return babe.Epoch{}, err
		}
		authorities = append(authorities, babe.Authority{ID: id, Weight: a.BabeWeight})
	}

	return babe.Epoch{
		EpochIndex:  index,
		StartSlot:   startSlot,
		Duration:    g.Babe.EpochDuration,
		Authorities: authorities,
		Randomness:  randomness,
		Config: babe.EpochConfiguration{
			C1:           g.Babe.C1,
			C2:           g.Babe.C2,
			AllowedSlots: allowed,
		},
	}, nil
}

// GrandpaAuthorities returns the GRANDPA voters of the dev chain
func (g *GenesisConfig) GrandpaAuthorities() ([]grandpa.Authority, error) {
	voters := make([]grandpa.Authority, 0, len(g.Authorities))
	for _, a := range g.Authorities {
		id, err := types.ParseAuthorityID(a.ID)
		if err != nil {
			return nil, err
		}
		voters = append(voters, grandpa.Authority{ID: id, Weight: a.GrandpaWeight})
	}
	return voters, nil
}
