package main

import (
	"context"
	"strconv"
	"time"

	"linkguard/internal/collectors"
	"linkguard/internal/db"
	"linkguard/internal/logger"
	"linkguard/internal/metrics"
	"linkguard/internal/model"
	"linkguard/internal/xray/parser"

	"github.com/spf13/cobra"
)

var importParams map[string]string
var importResolve bool

var importCmd = &cobra.Command{
	Use:   "import [collector_names...]",
	Short: "Run collectors and store the links that pass validation",
	Long:  `Run all collectors defined in config, or specify specific ones by name. Use --param to override configuration parameters.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		if len(args) > 0 {
			cfg.FilterCollectors(args)
		}

		if len(cfg.Collectors) == 0 {
			logger.Log.Warn("No collectors matched the provided names.")
			return
		}

		for i := range cfg.Collectors {
			if cfg.Collectors[i].Params == nil {
				cfg.Collectors[i].Params = make(map[string]interface{})
			}
			for k, v := range importParams {
				if intVal, err := strconv.Atoi(v); err == nil {
					cfg.Collectors[i].Params[k] = intVal
				} else {
					cfg.Collectors[i].Params[k] = v
				}
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

		var e *enricher
		if importResolve {
			e = newEnricher(cfg)
			defer e.Close()
		}

		for _, cCfg := range cfg.Collectors {
			logger.Log.Infof("🏃 Running collector: %s (%s)...", cCfg.Name, cCfg.Type)

			collector, err := collectors.Get(cCfg.Type)
			if err != nil {
				logger.Log.Warnf("Skipping: %v", err)
				continue
			}

			rawLinks, err := collector.Collect(cCfg.Params)
			if err != nil {
				logger.Log.Errorf("Error running collector: %v", err)
				continue
			}

			stats := metrics.New()
			batch := buildBatch(context.Background(), rawLinks, cCfg.Name, e, stats)

			inserted, err := db.SaveLinks(database, batch)
			if err != nil {
				logger.Log.Errorf("Error saving links: %v", err)
				continue
			}
			if err := db.RecordRejections(database, cCfg.Name, stats.RejectionCounts()); err != nil {
				logger.Log.Warnf("Error saving rejection counts: %v", err)
			}

			s := stats.Snapshot()
			logger.Log.Infof("✅ Collector %s finished. %d found, %d valid, %d new, %d rejected.",
				cCfg.Name, len(rawLinks), s.TotalOK, inserted, s.TotalError)
		}
	},
}

// buildBatch validates raw links into storable rows, recording outcomes in stats.
func buildBatch(ctx context.Context, rawLinks []string, source string, e *enricher, stats *metrics.Collector) []model.Link {
	var batch []model.Link
	for _, raw := range rawLinks {
		d, err := parser.Parse(raw)
		if err != nil {
			stats.RecordRejection(err)
			logger.Log.Debugf("Rejected link from %s: %v", source, err)
			continue
		}
		stats.RecordAccepted(d.Protocol())

		link := model.Link{
			Raw:       raw,
			Hash:      parser.Hash(d),
			Protocol:  string(d.Protocol()),
			Source:    source,
			CreatedAt: time.Now(),
			Address:   d.Server().Address,
			Port:      d.Server().Port,
		}
		if e != nil {
			e.enrich(ctx, &link)
		}
		batch = append(batch, link)
	}
	return batch
}

func init() {
	importCmd.Flags().StringToStringVarP(&importParams, "param", "p", nil, "Override collector params")
	importCmd.Flags().BoolVar(&importResolve, "resolve", false, "Resolve addresses and tag them with GeoIP data")
	rootCmd.AddCommand(importCmd)
}
