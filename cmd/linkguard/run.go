package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"linkguard/internal/config"
	"linkguard/internal/logger"
	"linkguard/internal/xray"
	"linkguard/internal/xray/parser"

	"github.com/spf13/cobra"
)

var runResolve bool

var runCmd = &cobra.Command{
	Use:   "run [link]",
	Short: "Run a local Xray proxy for a link until interrupted",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		d, err := parser.Parse(strings.TrimSpace(args[0]))
		if err != nil {
			logger.Log.Fatalf("❌ Rejected: %v", err)
		}
		out, err := xray.Project(d)
		if err != nil {
			logger.Log.Fatalf("Projection failed: %v", err)
		}

		if runResolve {
			e := newEnricher(cfg)
			if addrs := e.resolve(context.Background(), out.Address); len(addrs) > 0 && addrs[0] != out.Address {
				logger.Log.Infof("🔎 %s resolved to %s", out.Address, addrs[0])
				// Keep the name for TLS once the address is an IP.
				if out.Protocol == parser.ProtocolVMess && out.Host == "" {
					out.Host = out.Address
				} else if out.Protocol != parser.ProtocolVMess && out.SNI == "" {
					out.SNI = out.Address
				}
				out.Address = addrs[0]
			}
			e.Close()
		}

		engineCfg, err := xray.BuildConfig(out, engineOptions(cfg))
		if err != nil {
			logger.Log.Fatalf("Error building config: %v", err)
		}
		path, err := xray.WriteConfig(cfg.Engine.ConfigDir, engineCfg)
		if err != nil {
			logger.Log.Fatalf("Error writing config: %v", err)
		}
		logger.Log.Debugf("Config generated: %s", path)

		engine := xray.NewEngine(path)
		if err := engine.Start(); err != nil {
			engine.Stop()
			logger.Log.Fatalf("Error starting Xray: %v", err)
		}
		logger.Log.Infof("🚀 %s proxy to %s:%d listening on %s:%d (%s)",
			out.Protocol, out.Address, out.Port, cfg.Engine.Inbound.Listen, engineCfg.InboundPort(), cfg.Engine.Inbound.Protocol)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		logger.Log.Info("🛑 Shutting down...")
		if err := engine.Stop(); err != nil {
			logger.Log.Warnf("Error stopping Xray: %v", err)
		}
	},
}

func engineOptions(cfg *config.Config) xray.EngineOptions {
	return xray.EngineOptions{
		LogLevel:        cfg.Engine.LogLevel,
		InboundProtocol: cfg.Engine.Inbound.Protocol,
		Listen:          cfg.Engine.Inbound.Listen,
		Port:            cfg.Engine.Inbound.Port,
	}
}

func init() {
	runCmd.Flags().BoolVar(&runResolve, "resolve", false, "Resolve the server address before starting (uses the dns config)")
	rootCmd.AddCommand(runCmd)
}
