package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mezonai/lightsync/babe"
	"github.com/mezonai/lightsync/chainspec"
	"github.com/mezonai/lightsync/grandpa"
	"github.com/mezonai/lightsync/jsonrpc"
	"github.com/mezonai/lightsync/logx"
	"github.com/mezonai/lightsync/monitoring"
	"github.com/mezonai/lightsync/security/ratelimit"
	"github.com/mezonai/lightsync/security/rpcmethods"
	"github.com/mezonai/lightsync/store"
	"github.com/mezonai/lightsync/syncstate"
)

const shutdownTimeout = 10 * time.Second

var (
	listenAddr string
	rpcMethods string
	chainSpec  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync state RPC node",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runNode(); err != nil {
			logx.Error("NODE", "Node stopped with error:", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&listenAddr, "listen-addr", "", "JSON-RPC listen address (overrides config)")
	runCmd.Flags().StringVar(&rpcMethods, "rpc-methods", "", "RPC methods to expose: safe, unsafe or auto (overrides config)")
	runCmd.Flags().StringVar(&chainSpec, "chain-spec", "", "Path to the chain spec (overrides config)")
}

func runNode() error {
	cfg, err := loadNodeConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.RPC.ListenAddr = listenAddr
	}
	if rpcMethods != "" {
		cfg.RPC.RPCMethods = rpcMethods
	}
	if chainSpec != "" {
		cfg.ChainSpecPath = chainSpec
	}

	policy, err := rpcmethods.ParsePolicy(cfg.RPC.RPCMethods)
	if err != nil {
		return err
	}
	monitoring.InitMetrics()

	cs, err := store.CreateStore(&cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := cs.Close(); err != nil {
			logx.Error("NODE", "Failed to close store:", err)
		}
	}()
	if cs.Info().GenesisHash.IsZero() {
		return fmt.Errorf("store %s has no genesis, run init first", cfg.Store.Directory)
	}

	spec, err := chainspec.Load(cfg.ChainSpecPath)
	if err != nil {
		return err
	}

	epochChanges, err := babe.LoadEpochChanges(cs)
	if err != nil {
		return err
	}
	authoritySet, found, err := grandpa.LoadAuthoritySet(cs)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no GRANDPA authority set in store %s", cfg.Store.Directory)
	}

	gate := rpcmethods.Resolve(policy, cfg.RPC.ListenAddr)
	svc, err := syncstate.New(spec, cs,
		babe.NewSharedEpochChanges(epochChanges),
		grandpa.NewSharedAuthoritySet(authoritySet),
		gate,
	)
	if err != nil {
		return err
	}

	var limiter *ratelimit.RateLimiter
	if rlCfg := cfg.RPC.RateLimiterConfig(); rlCfg != nil {
		limiter = ratelimit.NewRateLimiter(rlCfg)
		defer limiter.Stop()
	}

	server := jsonrpc.NewServer(cfg.RPC.ListenAddr, svc, limiter)
	if cors, ok := jsonrpc.CORSFromConfig(cfg.RPC.CORSAllowedOrigins, cfg.RPC.CORSAllowedMethods,
		cfg.RPC.CORSAllowedHeaders, cfg.RPC.CORSMaxAge); ok {
		server.SetCORSConfig(cors)
	} else if cors, ok := jsonrpc.CORSFromEnv(); ok {
		server.SetCORSConfig(cors)
	}

	if err := server.Start(); err != nil {
		return err
	}
	info := cs.Info()
	logx.Info("NODE", "Serving sync specs for", spec.ID, "on", server.Addr(),
		"finalized", info.FinalizedNumber, "deny unsafe", bool(gate))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logx.Info("NODE", "Received signal", sig.String(), "shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
