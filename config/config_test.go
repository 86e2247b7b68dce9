package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezonai/lightsync/babe"
	"github.com/mezonai/lightsync/store"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadNodeConfig(t *testing.T) {
	path := writeFile(t, "config.ini", `
chain_spec = /tmp/spec.json

[rpc]
listen_addr = 0.0.0.0:9944
rpc_methods = unsafe
rate_limit_max_requests = 3
rate_limit_window = 2s

[store]
type = memory
`)

	cfg, err := LoadNodeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/spec.json", cfg.ChainSpecPath)
	assert.Equal(t, "0.0.0.0:9944", cfg.RPC.ListenAddr)
	assert.Equal(t, "unsafe", cfg.RPC.RPCMethods)
	assert.Equal(t, store.MemoryStoreType, cfg.Store.Type)
	assert.Equal(t, DefaultLogFile, cfg.Log.File)

	rl := cfg.RPC.RateLimiterConfig()
	require.NotNil(t, rl)
	assert.Equal(t, 3, rl.MaxRequests)
	assert.Equal(t, 2*time.Second, rl.WindowSize)
}

func TestRateLimitDisabled(t *testing.T) {
	rpc := RPCConfig{RateLimitMaxRequests: 0}
	assert.Nil(t, rpc.RateLimiterConfig())
}

func TestLoadNodeConfigErrors(t *testing.T) {
	_, err := LoadNodeConfig(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)

	path := writeFile(t, "bad.ini", "[store]\ntype = bolt\n")
	_, err = LoadNodeConfig(path)
	assert.Error(t, err)
}

func TestLoadSampleConfigs(t *testing.T) {
	cfg, err := LoadNodeConfig("config.ini")
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, cfg.RPC.ListenAddr)

	genesis, err := LoadGenesisConfig("genesis.yml")
	require.NoError(t, err)
	assert.Len(t, genesis.Authorities, 3)
	assert.Equal(t, uint32(12), genesis.Finalized)
}

const genesisYAML = `
config:
  chain:
    name: Test
    id: test
  babe:
    epoch_duration: 10
    c1: 1
    c2: 4
    allowed_slots: primary
    randomness: "0x0101010101010101010101010101010101010101010101010101010101010101"
  authorities:
    - id: 3x9az88Dkbxa6tkKByxqEn7jBTJCJCD4dVvou49L24ET
      babe_weight: 2
      grandpa_weight: 3
  blocks: 4
  finalized: 2
`

func TestGenesisEpochAndVoters(t *testing.T) {
	g, err := LoadGenesisConfig(writeFile(t, "genesis.yml", genesisYAML))
	require.NoError(t, err)

	epoch, err := g.GenesisEpoch(1, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch.EpochIndex)
	assert.Equal(t, babe.Slot(10), epoch.StartSlot)
	assert.Equal(t, babe.PrimarySlots, epoch.Config.AllowedSlots)
	assert.Equal(t, byte(1), epoch.Randomness[31])
	require.Len(t, epoch.Authorities, 1)
	assert.Equal(t, uint64(2), epoch.Authorities[0].Weight)

	voters, err := g.GrandpaAuthorities()
	require.NoError(t, err)
	require.Len(t, voters, 1)
	assert.Equal(t, uint64(3), voters[0].Weight)
	assert.Equal(t, "3x9az88Dkbxa6tkKByxqEn7jBTJCJCD4dVvou49L24ET", voters[0].ID.String())
}

func TestGenesisValidate(t *testing.T) {
	valid := func() GenesisConfig {
		return GenesisConfig{
			Chain:       ChainConfig{Name: "n", ID: "i"},
			Babe:        BabeConfig{EpochDuration: 1},
			Authorities: []AuthorityConfig{{ID: "3x9az88Dkbxa6tkKByxqEn7jBTJCJCD4dVvou49L24ET", BabeWeight: 1, GrandpaWeight: 1}},
			Blocks:      2,
			Finalized:   1,
		}
	}

	tests := []struct {
		name   string
		mutate func(g *GenesisConfig)
	}{
		{"no name", func(g *GenesisConfig) { g.Chain.Name = "" }},
		{"no authorities", func(g *GenesisConfig) { g.Authorities = nil }},
		{"bad id", func(g *GenesisConfig) { g.Authorities[0].ID = "0OIl" }},
		{"zero weight", func(g *GenesisConfig) { g.Authorities[0].GrandpaWeight = 0 }},
		{"finalized beyond tip", func(g *GenesisConfig) { g.Finalized = 3 }},
		{"zero epoch", func(g *GenesisConfig) { g.Babe.EpochDuration = 0 }},
		{"bad slots", func(g *GenesisConfig) { g.Babe.AllowedSlots = "secondary" }},
		{"short randomness", func(g *GenesisConfig) { g.Babe.Randomness = "0x01" }},
	}

	ok := valid()
	require.NoError(t, ok.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid()
			tt.mutate(&g)
			assert.Error(t, g.Validate())
		})
	}
}
