package xray

import (
	"bufio"
	"regexp"
	"strings"

	"linkguard/internal/xray/parser"
)

var regexLink = regexp.MustCompile(`(vmess|vless|trojan|reality)://[a-zA-Z0-9_\-\.\:@\?=&%#+/\[\]~]+`)

// ExtractLinks finds share links of the supported schemes in free text,
// preserving first-seen order.
func ExtractLinks(text string) []string {
	var links []string
	text = strings.ReplaceAll(text, "\r\n", "\n")
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		matches := regexLink.FindAllString(line, -1)
		for _, match := range matches {
			clean := strings.TrimRight(match, ".,;)\"")
			if clean != "" {
				links = append(links, clean)
			}
		}
	}
	return deduplicate(links)
}

// DecodeSubscription unwraps a base64 subscription body. Bodies that are
// already plain text, or do not decode, are returned unchanged.
func DecodeSubscription(body string) string {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || strings.Contains(trimmed, "://") {
		return body
	}
	compact := strings.Join(strings.Fields(trimmed), "")
	decoded, err := parser.DecodeBase64(compact)
	if err != nil || !strings.Contains(decoded, "://") {
		return body
	}
	return decoded
}

func deduplicate(input []string) []string {
	keys := make(map[string]bool)
	list := []string{}
	for _, entry := range input {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}
