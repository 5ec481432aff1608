package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"linkguard/internal/logger"
	"linkguard/internal/xray"
	"linkguard/internal/xray/parser"

	"github.com/spf13/cobra"
)

var projectXray bool
var projectFull bool
var projectVerify bool

var projectCmd = &cobra.Command{
	Use:   "project [link]",
	Short: "Print the outbound record for a link",
	Long: `Print the normalized outbound record of a link. --xray prints the Xray outbound object instead,
--full a complete Xray config with the configured local inbound.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d, err := parser.Parse(strings.TrimSpace(args[0]))
		if err != nil {
			logger.Log.Fatalf("❌ Rejected: %v", err)
		}
		out, err := xray.Project(d)
		if err != nil {
			logger.Log.Fatalf("Projection failed: %v", err)
		}

		if projectVerify {
			if err := xray.Verify(out); err != nil {
				logger.Log.Fatalf("❌ Xray rejected the outbound: %v", err)
			}
			logger.Log.Info("✅ Xray accepts the outbound")
		}

		var doc interface{} = out
		switch {
		case projectFull:
			cfg := mustLoadConfig()
			doc, err = xray.BuildConfig(out, engineOptions(cfg))
		case projectXray:
			doc, err = out.Document()
		}
		if err != nil {
			logger.Log.Fatalf("Error building config: %v", err)
		}

		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			logger.Log.Fatalf("Error encoding config: %v", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
	},
}

func init() {
	projectCmd.Flags().BoolVar(&projectXray, "xray", false, "Print the Xray outbound object")
	projectCmd.Flags().BoolVar(&projectFull, "full", false, "Print a complete Xray config")
	projectCmd.Flags().BoolVar(&projectVerify, "verify", false, "Check that Xray accepts the outbound")
	rootCmd.AddCommand(projectCmd)
}
