package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mezonai/lightsync/chainspec"
	"github.com/mezonai/lightsync/jsonx"
	"github.com/mezonai/lightsync/syncstate"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect-sync-spec [path]",
	Short: "Print a summary of the light sync state in a chain spec",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := chainspec.Load(args[0])
		if err != nil {
			return err
		}
		return printSyncState(cmd.OutOrStdout(), spec)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func printSyncState(w io.Writer, spec *chainspec.ChainSpec) error {
	value, ok := spec.Extensions().Get(chainspec.LightSyncStateKind)
	if !ok {
		return fmt.Errorf("chain spec %s has no %s extension", spec.ID, chainspec.LightSyncStateKind)
	}
	if jsonx.IsNull(value) {
		fmt.Fprintf(w, "Chain %s (%s): light sync state not generated\n", spec.Name, spec.ID)
		return nil
	}

	state, err := syncstate.DecodeLightSyncState(value)
	if err != nil {
		return err
	}
	hash, err := state.FinalizedBlockHeader.Hash()
	if err != nil {
		return err
	}
	set := state.GrandpaAuthoritySet

	fmt.Fprintf(w, "Chain %s (%s)\n", spec.Name, spec.ID)
	fmt.Fprintf(w, "  finalized:    #%d %s\n", state.FinalizedBlockHeader.Number, hash)
	fmt.Fprintf(w, "  babe weight:  %d\n", state.BabeFinalizedBlockWeight)
	fmt.Fprintf(w, "  babe epochs:  %d\n", state.BabeEpochChanges.Len())
	fmt.Fprintf(w, "  grandpa set:  %d, total weight %s\n", set.SetID, set.TotalWeight().Dec())
	for _, a := range set.CurrentAuthorities {
		fmt.Fprintf(w, "    %s weight %d\n", a.ID, a.Weight)
	}
	return nil
}
