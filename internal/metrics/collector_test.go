package metrics

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"linkguard/internal/xray/parser"

	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				c.RecordAccepted(parser.ProtocolVLESS)
				return
			}
			_, err := parser.Parse("vless://bad@example.com")
			c.RecordRejection(err)
		}(i)
	}
	wg.Wait()
	c.RecordRejection(errors.New("boom"))

	s := c.Snapshot()
	assert.Equal(t, 25, s.TotalOK)
	assert.Equal(t, 26, s.TotalError)
	assert.Equal(t, 25, s.Accepted[parser.ProtocolVLESS])
	assert.Equal(t, 25, s.Rejected["invalid identifier"])
	assert.Equal(t, 1, s.Rejected["other"])
	assert.Equal(t, map[string]int64{"invalid identifier": 25, "other": 1}, c.RejectionCounts())
}

func TestPrintReport(t *testing.T) {
	c := New()
	c.RecordAccepted(parser.ProtocolTrojan)
	c.RecordAccepted(parser.ProtocolReality)
	_, err := parser.Parse("ss://abc")
	c.RecordRejection(err)

	var buf bytes.Buffer
	c.PrintReport(&buf)
	out := buf.String()
	assert.Contains(t, out, "VALIDATION REPORT")
	assert.Contains(t, out, "trojan:")
	assert.Contains(t, out, "reality:")
	assert.Contains(t, out, "unsupported protocol:")
	assert.Contains(t, out, "33.3%")
}
