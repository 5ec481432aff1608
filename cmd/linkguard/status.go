package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"linkguard/internal/db"
	"linkguard/internal/logger"
	"linkguard/internal/model"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database statistics",
	Long:  `Displays the stored link inventory by protocol, top entry countries and rejection counts per source.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		database, err := db.Connect(cfg.Database.Path)
		if err != nil {
			logger.Log.Fatalf("Error connecting to DB: %v", err)
		}
		defer db.Close(database)
		if err := db.Migrate(database); err != nil {
			logger.Log.Fatalf("Error migrating DB: %v", err)
		}

		var total int64
		database.Model(&model.Link{}).Count(&total)

		protocols, err := db.CountByProtocol(database)
		if err != nil {
			logger.Log.Fatalf("Error reading inventory: %v", err)
		}
		countries, err := db.TopCountries(database, 5)
		if err != nil {
			logger.Log.Fatalf("Error reading locations: %v", err)
		}
		rejections, err := db.ListRejections(database)
		if err != nil {
			logger.Log.Fatalf("Error reading rejections: %v", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

		fmt.Println("\n📊 \033[1mLINKGUARD STATUS\033[0m")
		fmt.Println("────────────────────────────────────────")

		fmt.Fprintln(w, "\033[1;36m[ SYSTEM ]\033[0m\t")
		fmt.Fprintf(w, "  Database Path:\t%s\n", cfg.Database.Path)
		fmt.Fprintf(w, "  DB Size:\t%s\n", formatBytes(getFileSize(cfg.Database.Path)))
		if walSize := getFileSize(cfg.Database.Path + "-wal"); walSize > 0 {
			fmt.Fprintf(w, "  WAL Size:\t%s (pending checkpoint)\n", formatBytes(walSize))
		}
		fmt.Fprintf(w, "  Total Links:\t%d\n", total)
		fmt.Fprintln(w, "\t")

		fmt.Fprintln(w, "\033[1;36m[ INVENTORY ]\033[0m\t")
		for _, p := range protocols {
			fmt.Fprintf(w, "  %s:\t%d\n", p.Protocol, p.Count)
		}
		fmt.Fprintln(w, "\t")

		if len(countries) > 0 {
			fmt.Fprintln(w, "\033[1;36m[ TOP LOCATIONS ]\033[0m\t")
			for _, c := range countries {
				fmt.Fprintf(w, "  %s %s:\t%d\n", getFlagEmoji(c.Country), c.Country, c.Count)
			}
			fmt.Fprintln(w, "\t")
		}

		fmt.Fprintln(w, "\033[1;36m[ REJECTIONS ]\033[0m\t")
		if len(rejections) == 0 {
			fmt.Fprintln(w, "  (none recorded)")
		}
		for _, r := range rejections {
			fmt.Fprintf(w, "  %s / %s:\t%d\n", r.Source, r.Kind, r.Count)
		}

		w.Flush()
		fmt.Println("")
	},
}

func getFileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func getFlagEmoji(countryCode string) string {
	if len(countryCode) != 2 {
		return "🌐"
	}
	countryCode = strings.ToUpper(countryCode)
	return string(rune(countryCode[0])+127397) + string(rune(countryCode[1])+127397)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
