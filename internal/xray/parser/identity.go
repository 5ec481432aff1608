package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash generates a stable identifier for a descriptor. Two links that
// differ only in remarks or parameter order hash the same.
func Hash(d Descriptor) string {
	ep := d.Server()

	// --- 1. Protocol & Endpoint ---
	parts := []string{
		string(d.Protocol()),
		strings.ToLower(ep.Address),
		fmt.Sprintf("%d", ep.Port),
	}

	// --- 2. Credentials & Protocol Specifics ---
	// UUIDs are case-insensitive; passwords and keys are not.
	switch v := d.(type) {
	case VMess:
		parts = append(parts, strings.ToLower(v.ID), strings.ToLower(v.Security), normalizeNetwork(v.TransportType), v.Host)
	case VLESS:
		parts = append(parts, strings.ToLower(v.ID), v.Flow, strings.ToLower(v.Security), normalizeNetwork(v.TransportType), v.SNI)
	case Trojan:
		parts = append(parts, v.Password, strings.ToLower(v.Security), normalizeNetwork(v.TransportType), v.SNI)
	case Reality:
		parts = append(parts, strings.ToLower(v.ID), v.PublicKey, strings.ToLower(v.ShortID), v.SNI, v.SpiderX, v.Flow)
	}

	signature := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(signature))
	return hex.EncodeToString(hash[:])
}

// Network: empty implies "tcp".
func normalizeNetwork(n string) string {
	n = strings.ToLower(n)
	if n == "" {
		return "tcp"
	}
	return n
}
