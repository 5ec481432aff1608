package publishers

import (
	"encoding/base64"
	"strings"

	"linkguard/internal/logger"
	"linkguard/internal/model"
	"linkguard/internal/xray/parser"
)

// GenerateSubscriptionPayload re-serializes links in canonical form, one per
// line, each named "[flag] [country] [protocol]". config["base64"] wraps the
// result.
func GenerateSubscriptionPayload(links []model.Link, config map[string]interface{}) (string, error) {
	seen := make(map[string]bool)
	var lines []string

	for _, link := range links {
		d, err := parser.Parse(link.Raw)
		if err != nil {
			logger.Log.Debugf("⚠️ Publisher dropped link (Parse Error): %s | Err: %v", truncate(link.Raw, 20), err)
			continue
		}
		hash := parser.Hash(d)
		if seen[hash] {
			continue
		}
		seen[hash] = true

		remarks := string(d.Protocol())
		if link.EntryCountry != "" {
			remarks = getFlagEmoji(link.EntryCountry) + " " + link.EntryCountry + " " + remarks
		}
		lines = append(lines, parser.ToURIWithRemarks(d, remarks))
	}

	finalText := strings.Join(lines, "\n")

	useBase64, _ := config["base64"].(bool)
	if useBase64 {
		return base64.StdEncoding.EncodeToString([]byte(finalText)), nil
	}

	return finalText, nil
}

func getFlagEmoji(countryCode string) string {
	if len(countryCode) != 2 {
		return "🌐"
	}
	countryCode = strings.ToUpper(countryCode)
	return string(rune(countryCode[0])+127397) + string(rune(countryCode[1])+127397)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
