package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/pcaplens/internal/metrics"
	"firestige.xyz/pcaplens/internal/report"
	"firestige.xyz/pcaplens/internal/service"
)

var (
	analyzeJSON       bool
	analyzeMaxPackets int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <capture-file>",
	Short: "Analyze a pcap/pcapng capture file and print the report",
	Args:  cobra.ExactArgs(1),
	Run:   runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false,
		"emit the raw summary as JSON instead of the Markdown report")
	analyzeCmd.Flags().IntVar(&analyzeMaxPackets, "max-packets", 0,
		"override the configured frame bound (must be > 0)")
}

func runAnalyze(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitWithError("failed to load config", err)
	}
	if analyzeMaxPackets != 0 {
		cfg.Analysis.MaxPackets = analyzeMaxPackets
	}

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(); err != nil {
			exitWithError("failed to start metrics server", err)
		}
		defer srv.Stop(context.Background())
	}

	analyzer, err := service.NewAnalyzer(cfg)
	if err != nil {
		exitWithError("failed to initialize analyzer", err)
	}
	defer analyzer.Close()

	summary, err := analyzer.AnalyzeFile(cmd.Context(), args[0])
	if err != nil {
		exitWithError("analysis failed", err)
	}

	if analyzeJSON {
		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			exitWithError("failed to serialize summary", err)
		}
		fmt.Println(string(out))
		return
	}
	fmt.Print(report.RenderMarkdown(summary))
}
