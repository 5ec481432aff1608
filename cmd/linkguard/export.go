package main

import (
	"linkguard/internal/config"
	"linkguard/internal/db"
	"linkguard/internal/logger"
	"linkguard/internal/publishers"

	"github.com/spf13/cobra"
)

var exportBase64 bool
var exportProtocol string

var exportCmd = &cobra.Command{
	Use:   "export [publisher_names...]",
	Short: "Publish stored links as a subscription",
	Long:  `Without arguments the subscription is printed to stdout. Named publishers from the config (stdout, file, github) are run in order.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		targets := []config.PublisherConfig{{Name: "stdout", Type: "stdout", Protocol: exportProtocol}}
		if len(args) > 0 {
			cfg.FilterPublishers(args)
			targets = cfg.Publishers
			if len(targets) == 0 {
				logger.Log.Warn("No publishers matched the provided names.")
				return
			}
		}

		database, err := db.Connect(cfg.Database.Path)
		if err != nil {
			logger.Log.Fatalf("Error connecting to DB: %v", err)
		}
		defer db.Close(database)
		if err := db.Migrate(database); err != nil {
			logger.Log.Fatalf("Error migrating DB: %v", err)
		}

		for _, pCfg := range targets {
			protocol := pCfg.Protocol
			if exportProtocol != "" {
				protocol = exportProtocol
			}
			links, err := db.ListLinks(database, protocol)
			if err != nil {
				logger.Log.Errorf("Error reading links: %v", err)
				continue
			}

			pub, err := publishers.Get(pCfg.Type)
			if err != nil {
				logger.Log.Warnf("Skipping: %v", err)
				continue
			}

			params := make(map[string]interface{}, len(pCfg.Params)+1)
			for k, v := range pCfg.Params {
				params[k] = v
			}
			if exportBase64 {
				params["base64"] = true
			}

			if err := pub.Publish(links, params); err != nil {
				logger.Log.Errorf("Publisher %s failed: %v", pCfg.Name, err)
				continue
			}
			logger.Log.Debugf("📤 Publisher %s wrote %d links", pCfg.Name, len(links))
		}
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportBase64, "base64", false, "Base64-encode the subscription")
	exportCmd.Flags().StringVar(&exportProtocol, "protocol", "", "Only export links of this protocol")
	rootCmd.AddCommand(exportCmd)
}
