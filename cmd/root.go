// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/pcaplens/internal/config"
	"firestige.xyz/pcaplens/internal/log"
)

var (
	// Global flags
	configFile  string
	profileFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pcaplens",
	Short: "pcaplens - offline packet capture analysis engine",
	Long: `pcaplens reads a pcap or pcapng capture file, classifies every frame,
aggregates protocol/endpoint/timing statistics in a single pass, and reports
detected anomalies (TCP resets, DNS failures, deauth floods, weak signal, ...).

Wired and 802.11 monitor-mode captures are handled by separate pipelines,
selected automatically from the first frames of the file.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (built-in defaults when omitted)")
	rootCmd.PersistentFlags().StringVarP(&profileFile, "profile", "p", "",
		"analysis profile YAML overlaying the analysis section")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the effective configuration: file or defaults, then
// the optional analysis profile, then the initialized logger.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	profile := profileFile
	if profile == "" {
		profile = cfg.Analysis.Profile
	}
	if profile != "" {
		if err := config.ApplyProfile(cfg, profile); err != nil {
			return nil, err
		}
	}

	if err := log.Init(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
