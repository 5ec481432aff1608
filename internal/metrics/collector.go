package metrics

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"linkguard/internal/xray/parser"
)

// Collector tallies validation outcomes. It is safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	started time.Time

	acceptedByProtocol map[parser.Protocol]int
	totalAccepted      int

	rejectedByKind map[string]int
	totalRejected  int
}

func New() *Collector {
	return &Collector{
		started:            time.Now(),
		acceptedByProtocol: make(map[parser.Protocol]int),
		rejectedByKind:     make(map[string]int),
	}
}

func (c *Collector) RecordAccepted(p parser.Protocol) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.acceptedByProtocol[p]++
	c.totalAccepted++
}

func (c *Collector) RecordRejection(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRejected++
	c.rejectedByKind[KindLabel(err)]++
}

// KindLabel names the rejection kind of err, "other" when unclassified.
func KindLabel(err error) string {
	if kind := parser.KindOf(err); kind != nil {
		return kind.Error()
	}
	return "other"
}

type Snapshot struct {
	Accepted   map[parser.Protocol]int
	Rejected   map[string]int
	TotalOK    int
	TotalError int
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Accepted:   make(map[parser.Protocol]int, len(c.acceptedByProtocol)),
		Rejected:   make(map[string]int, len(c.rejectedByKind)),
		TotalOK:    c.totalAccepted,
		TotalError: c.totalRejected,
	}
	for k, v := range c.acceptedByProtocol {
		s.Accepted[k] = v
	}
	for k, v := range c.rejectedByKind {
		s.Rejected[k] = v
	}
	return s
}

// RejectionCounts is the per-kind tally in the shape the store persists.
func (c *Collector) RejectionCounts() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int64, len(c.rejectedByKind))
	for k, v := range c.rejectedByKind {
		out[k] = int64(v)
	}
	return out
}

func (c *Collector) PrintReport(out io.Writer) {
	s := c.Snapshot()
	elapsed := time.Since(c.started)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(out, "\n📊 \033[1mVALIDATION REPORT\033[0m")
	fmt.Fprintln(out, "────────────────────────────────────────")

	total := s.TotalOK + s.TotalError
	fmt.Fprintf(w, "  Links Checked:\t%d (%v)\n", total, elapsed.Round(time.Millisecond))
	fmt.Fprintln(w, "")

	// 1. Accepted
	fmt.Fprintln(w, "\033[1;36m[ ACCEPTED ]\033[0m")
	fmt.Fprintf(w, "  Total:\t%d\n", s.TotalOK)
	protos := make([]string, 0, len(s.Accepted))
	for p := range s.Accepted {
		protos = append(protos, string(p))
	}
	sort.Strings(protos)
	for _, p := range protos {
		fmt.Fprintf(w, "  %s:\t%d\n", p, s.Accepted[parser.Protocol(p)])
	}
	fmt.Fprintln(w, "")

	// 2. Rejected, most frequent first
	fmt.Fprintln(w, "\033[1;36m[ REJECTED ]\033[0m")
	fmt.Fprintf(w, "  Total:\t%d\n", s.TotalError)
	kinds := make([]string, 0, len(s.Rejected))
	for k := range s.Rejected {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if s.Rejected[kinds[i]] != s.Rejected[kinds[j]] {
			return s.Rejected[kinds[i]] > s.Rejected[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})
	for _, k := range kinds {
		pct := float64(s.Rejected[k]) / float64(total) * 100
		fmt.Fprintf(w, "  %s:\t%d (%.1f%%)\n", k, s.Rejected[k], pct)
	}

	w.Flush()
	fmt.Fprintln(out, "")
}
