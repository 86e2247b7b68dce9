package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mezonai/lightsync/config"
	"github.com/mezonai/lightsync/logx"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "lightsync",
	Short: "Light sync state node CLI",
	Long:  "Command line interface for serving and inspecting light client sync specs.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to node configuration file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}

// loadNodeConfig loads the node config and points the file logger at its [log] section
func loadNodeConfig() (*config.NodeConfig, error) {
	cfg, err := config.LoadNodeConfig(configPath)
	if err != nil {
		return nil, err
	}
	logx.Configure(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxAgeDays)
	return cfg, nil
}
