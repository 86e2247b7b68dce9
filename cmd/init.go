package cmd

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/blake2b"

	"github.com/mezonai/lightsync/babe"
	"github.com/mezonai/lightsync/chainspec"
	"github.com/mezonai/lightsync/config"
	"github.com/mezonai/lightsync/grandpa"
	"github.com/mezonai/lightsync/interfaces"
	"github.com/mezonai/lightsync/jsonx"
	"github.com/mezonai/lightsync/logx"
	"github.com/mezonai/lightsync/monitoring"
	"github.com/mezonai/lightsync/store"
	"github.com/mezonai/lightsync/types"
)

// raw genesis storage keys, hex of ":code" and ":grandpa_authorities"
const (
	codeStorageKey               = "0x3a636f6465"
	grandpaAuthoritiesStorageKey = "0x3a6772616e6470615f617574686f726974696573"
)

var (
	// Init command specific variables
	initGenesisPath   string
	initChainSpecPath string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a dev chain store and its chain spec",
	Long: `Initialize a development chain by:
- Seeding the configured store with genesis and dev headers
- Recording BABE block weights, epoch changes and the GRANDPA authority set
- Writing a chain spec that declares an empty lightSyncState slot`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initializeNode()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initGenesisPath, "genesis", config.DefaultGenesisPath, "Path to genesis configuration file")
	initCmd.Flags().StringVar(&initChainSpecPath, "chain-spec", "", "Where to write the chain spec (defaults to the config chain_spec)")
}

func initializeNode() error {
	nodeCfg, err := loadNodeConfig()
	if err != nil {
		return err
	}
	monitoring.InitMetrics()

	genesis, err := config.LoadGenesisConfig(initGenesisPath)
	if err != nil {
		return err
	}

	if nodeCfg.Store.Directory != "" {
		if err := os.MkdirAll(nodeCfg.Store.Directory, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	cs, err := store.CreateStore(&nodeCfg.Store)
	if err != nil {
		return err
	}
	defer cs.Close()

	if !cs.Info().GenesisHash.IsZero() {
		logx.Warn("INIT", "Store already initialized with genesis", cs.Info().GenesisHash.String())
		return fmt.Errorf("store %s is already initialized", nodeCfg.Store.Directory)
	}

	spec, err := seedDevChain(genesis, cs)
	if err != nil {
		return err
	}

	out, err := spec.AsJSON(false)
	if err != nil {
		return err
	}
	specPath := initChainSpecPath
	if specPath == "" {
		specPath = nodeCfg.ChainSpecPath
	}
	if err := os.MkdirAll(filepath.Dir(specPath), 0o755); err != nil {
		return fmt.Errorf("create chain spec directory: %w", err)
	}
	if err := os.WriteFile(specPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write chain spec: %w", err)
	}

	info := cs.Info()
	logx.Info("INIT", "Initialized chain", genesis.Chain.ID, "genesis", info.GenesisHash.String(),
		"finalized", info.FinalizedNumber, "best", info.BestNumber, "chain spec", specPath)
	fmt.Printf("Initialized %s: genesis %s, finalized #%d, chain spec %s\n",
		genesis.Chain.ID, info.GenesisHash, info.FinalizedNumber, specPath)
	return nil
}

// seedDevChain writes a linear dev chain into cs and returns its chain spec.
// Every block is a BABE primary block on its own slot, so weights grow by one.
func seedDevChain(genesis *config.GenesisConfig, cs *store.ChainStore) (*chainspec.ChainSpec, error) {
	numbers := map[types.Hash]types.BlockNumber{}
	isDescendentOf := func(base, block types.Hash) (bool, error) {
		b, ok := numbers[base]
		if !ok {
			return false, fmt.Errorf("unknown block %s", base)
		}
		n, ok := numbers[block]
		if !ok {
			return false, fmt.Errorf("unknown block %s", block)
		}
		return n > b, nil
	}

	genesisHeader := &types.Header{
		Number:    0,
		StateRoot: types.Hash(blake2b.Sum256([]byte(genesis.Chain.ID))),
	}
	parent, err := cs.ImportHeader(genesisHeader, true)
	if err != nil {
		return nil, err
	}
	numbers[parent] = 0

	weights := []interfaces.AuxEntry{}
	entry, err := babe.BlockWeightEntry(parent, 0)
	if err != nil {
		return nil, err
	}
	weights = append(weights, entry)

	epochChanges := babe.NewEpochChanges()
	voters, err := genesis.GrandpaAuthorities()
	if err != nil {
		return nil, err
	}
	authoritySet, err := grandpa.NewGenesisAuthoritySet(voters)
	if err != nil {
		return nil, err
	}

	var finalized types.Hash
	if genesis.Finalized == 0 {
		finalized = parent
	}
	duration := genesis.Babe.EpochDuration
	for n := uint32(1); n <= genesis.Blocks; n++ {
		slot := uint64(n)
		header := &types.Header{
			ParentHash: parent,
			Number:     uint(n),
			StateRoot:  types.Hash(blake2b.Sum256(binary.LittleEndian.AppendUint32(nil, n))),
			Digest: types.Digest{Logs: []types.DigestItem{{
				Kind:   types.DigestItemPreRuntime,
				Engine: types.BabeEngineID,
				Data:   binary.LittleEndian.AppendUint64(nil, slot),
			}}},
		}
		hash, err := cs.ImportHeader(header, true)
		if err != nil {
			return nil, err
		}
		numbers[hash] = types.BlockNumber(n)

		entry, err := babe.BlockWeightEntry(hash, babe.BlockWeight(n))
		if err != nil {
			return nil, err
		}
		weights = append(weights, entry)

		// block #1 announces the two genesis epochs, the first block of each
		// later epoch announces the one after it
		switch {
		case n == 1:
			first, err := genesis.GenesisEpoch(0, babe.Slot(slot))
			if err != nil {
				return nil, err
			}
			second, err := genesis.GenesisEpoch(1, babe.Slot(slot+duration))
			if err != nil {
				return nil, err
			}
			if err := epochChanges.Import(isDescendentOf, hash, types.BlockNumber(n), babe.NewGenesisEpochs(first, second)); err != nil {
				return nil, err
			}
		case (slot-1)%duration == 0:
			index := (slot-1)/duration + 1
			next, err := genesis.GenesisEpoch(index, babe.Slot(1+index*duration))
			if err != nil {
				return nil, err
			}
			if err := epochChanges.Import(isDescendentOf, hash, types.BlockNumber(n), babe.NewRegularEpoch(next)); err != nil {
				return nil, err
			}
		}

		if n == genesis.Finalized {
			finalized = hash
		}
		parent = hash
	}

	if err := cs.SetFinalized(finalized); err != nil {
		return nil, err
	}
	epochChanges.Inner.SetBestFinalized(cs.Info().FinalizedNumber)

	aux := weights
	epochEntries, err := babe.EpochChangesEntries(epochChanges)
	if err != nil {
		return nil, err
	}
	aux = append(aux, epochEntries...)
	setEntries, err := grandpa.AuthoritySetEntries(authoritySet)
	if err != nil {
		return nil, err
	}
	aux = append(aux, setEntries...)
	if err := cs.InsertAux(aux, nil); err != nil {
		return nil, err
	}

	return buildDevChainSpec(genesis, voters)
}

type runtimeAuthority struct {
	ID     string `json:"id"`
	Weight uint64 `json:"weight"`
}

type runtimeGenesis struct {
	Babe struct {
		Authorities []runtimeAuthority `json:"authorities"`
		EpochConfig struct {
			C             [2]uint64 `json:"c"`
			AllowedSlots  string    `json:"allowed_slots"`
			EpochDuration uint64    `json:"epoch_duration"`
		} `json:"epochConfig"`
	} `json:"babe"`
	Grandpa struct {
		Authorities []runtimeAuthority `json:"authorities"`
	} `json:"grandpa"`
}

func buildDevChainSpec(genesis *config.GenesisConfig, voters []grandpa.Authority) (*chainspec.ChainSpec, error) {
	chainType := chainspec.ChainType(genesis.Chain.ChainType)
	if chainType == "" {
		chainType = chainspec.ChainTypeDevelopment
	}
	spec := chainspec.New(genesis.Chain.Name, genesis.Chain.ID, chainType)
	if genesis.Chain.ProtocolID != "" {
		protocolID := genesis.Chain.ProtocolID
		spec.ProtocolID = &protocolID
	}
	spec.BootNodes = append(spec.BootNodes, genesis.Chain.BootNodes...)

	if len(genesis.Chain.Properties) > 0 {
		spec.Properties = make(map[string]jsonx.RawMessage, len(genesis.Chain.Properties))
		for k, v := range genesis.Chain.Properties {
			raw, err := jsonx.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", k, err)
			}
			spec.Properties[k] = raw
		}
	}

	var rt runtimeGenesis
	for _, a := range genesis.Authorities {
		rt.Babe.Authorities = append(rt.Babe.Authorities, runtimeAuthority{ID: a.ID, Weight: a.BabeWeight})
		rt.Grandpa.Authorities = append(rt.Grandpa.Authorities, runtimeAuthority{ID: a.ID, Weight: a.GrandpaWeight})
	}
	rt.Babe.EpochConfig.C = [2]uint64{genesis.Babe.C1, genesis.Babe.C2}
	rt.Babe.EpochConfig.AllowedSlots = genesis.Babe.AllowedSlots
	rt.Babe.EpochConfig.EpochDuration = genesis.Babe.EpochDuration
	runtime, err := jsonx.Marshal(rt)
	if err != nil {
		return nil, fmt.Errorf("encode runtime genesis: %w", err)
	}
	spec.Genesis.Runtime = runtime

	encodedVoters, err := scale.Marshal(voters)
	if err != nil {
		return nil, fmt.Errorf("encode grandpa authorities: %w", err)
	}
	spec.Genesis.Raw = &chainspec.RawGenesis{
		Top: map[string]string{
			codeStorageKey:               "0x00",
			grandpaAuthoritiesStorageKey: fmt.Sprintf("0x%x", encodedVoters),
		},
		ChildrenDefault: map[string]map[string]string{},
	}

	spec.Extensions().Declare(chainspec.LightSyncStateKind, jsonx.Null)
	return spec, nil
}
