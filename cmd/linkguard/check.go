package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"linkguard/internal/logger"
	"linkguard/internal/metrics"
	"linkguard/internal/xray"
	"linkguard/internal/xray/parser"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var checkFile string
var checkResolve bool
var checkJSON bool

// checkResult is one line of --json output.
type checkResult struct {
	Link      string         `json:"link"`
	OK        bool           `json:"ok"`
	Outbound  *xray.Outbound `json:"outbound,omitempty"`
	Addresses []string       `json:"addresses,omitempty"`
	Error     *checkError    `json:"error,omitempty"`
}

type checkError struct {
	Kind     string `json:"kind"`
	Protocol string `json:"protocol,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

var checkCmd = &cobra.Command{
	Use:   "check [links...]",
	Short: "Validate share links and report why rejected ones fail",
	Long:  `Validate links given as arguments or read from --file ("-" for stdin). Files may be plain text or base64 subscriptions. Exits with status 1 when any link is rejected.`,
	Run: func(cmd *cobra.Command, args []string) {
		var links []string
		for _, arg := range args {
			if arg = strings.TrimSpace(arg); arg != "" {
				links = append(links, arg)
			}
		}
		if checkFile != "" {
			fileLinks, err := readLinkFile(checkFile)
			if err != nil {
				logger.Log.Fatalf("Error reading links: %v", err)
			}
			links = append(links, fileLinks...)
		}
		if len(links) == 0 {
			logger.Log.Fatal("No links given. Pass them as arguments or use --file.")
		}

		var e *enricher
		if checkResolve {
			e = newEnricher(mustLoadConfig())
			defer e.Close()
		}

		results, stats := runCheck(cmd.Context(), links, e, len(links) > 1)

		out := cmd.OutOrStdout()
		for _, r := range results {
			printResult(out, r)
		}
		if len(links) > 1 && !checkJSON {
			stats.PrintReport(out)
		}

		if stats.Snapshot().TotalError > 0 {
			logger.Sync()
			os.Exit(1)
		}
	},
}

func runCheck(ctx context.Context, links []string, e *enricher, showProgress bool) ([]checkResult, *metrics.Collector) {
	if ctx == nil {
		ctx = context.Background()
	}
	stats := metrics.New()

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.NewOptions(len(links),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(15),
			progressbar.OptionSetDescription("[cyan]Checking...[reset]"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}

	results := make([]checkResult, 0, len(links))
	for _, link := range links {
		results = append(results, checkOne(ctx, link, e, stats))
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return results, stats
}

func checkOne(ctx context.Context, link string, e *enricher, stats *metrics.Collector) checkResult {
	res := checkResult{Link: link}

	d, err := parser.Parse(link)
	if err == nil {
		res.Outbound, err = xray.Project(d)
	}
	if err != nil {
		stats.RecordRejection(err)
		res.Error = toCheckError(err)
		logger.Log.Debugf("Rejected %q: %v", truncateLink(link), err)
		return res
	}

	stats.RecordAccepted(d.Protocol())
	res.OK = true
	if e != nil {
		res.Addresses = e.resolve(ctx, d.Server().Address)
	}
	return res
}

func toCheckError(err error) *checkError {
	ce := &checkError{Kind: metrics.KindLabel(err), Message: err.Error()}
	var perr *parser.Error
	if errors.As(err, &perr) {
		ce.Protocol = string(perr.Protocol)
		ce.Field = perr.Field
	}
	return ce
}

func printResult(out io.Writer, r checkResult) {
	if checkJSON {
		b, _ := json.Marshal(r)
		fmt.Fprintln(out, string(b))
		return
	}
	if !r.OK {
		fmt.Fprintf(out, "❌ %s\n   %s\n", truncateLink(r.Link), r.Error.Message)
		return
	}
	o := r.Outbound
	line := fmt.Sprintf("✅ %-7s %s:%d", o.Protocol, o.Address, o.Port)
	if len(r.Addresses) > 0 {
		line += " → " + strings.Join(r.Addresses, ", ")
	}
	fmt.Fprintln(out, line)
}

func readLinkFile(path string) ([]string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	text := xray.DecodeSubscription(string(data))

	// One candidate per non-empty line, so rejected schemes are reported too.
	var links []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
			links = append(links, line)
		}
	}
	return links, nil
}

func truncateLink(s string) string {
	const n = 60
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func init() {
	checkCmd.Flags().StringVarP(&checkFile, "file", "f", "", "Read links from a file, one per line (\"-\" for stdin)")
	checkCmd.Flags().BoolVar(&checkResolve, "resolve", false, "Resolve accepted addresses using the configured DNS mode")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print one JSON object per link")
	rootCmd.AddCommand(checkCmd)
}
