package parser

import (
	"strings"
	"unicode/utf8"
)

type pipeline func(raw string) (Descriptor, error)

type scheme struct {
	prefix string
	proto  Protocol
	parse  pipeline
}

// schemes is checked in order; each prefix maps to its protocol pipeline.
var schemes = []scheme{
	{"vmess://", ProtocolVMess, parseVMess},
	{"vless://", ProtocolVLESS, parseVLESS},
	{"trojan://", ProtocolTrojan, parseTrojan},
	{"reality://", ProtocolReality, parseReality},
}

// Parse validates an untrusted share link and returns its descriptor.
// The link is taken as given: surrounding whitespace is not trimmed.
// The returned error is always a *Error wrapping one of the Err* kinds.
func Parse(raw string) (Descriptor, error) {
	if n := utf8.RuneCountInString(raw); n > MaxLinkLength {
		return nil, reject("", "", ErrLinkTooLong, "%d chars, limit %d", n, MaxLinkLength)
	}

	s, ok := lookupScheme(raw)
	if i := strings.IndexFunc(raw, isControl); i >= 0 {
		return nil, reject(s.proto, "", ErrMalformedLink, "control character at offset %d", i)
	}
	if !ok {
		return nil, reject("", "", ErrUnsupportedProtocol, "scheme %q", schemeOf(raw))
	}
	return s.parse(raw)
}

func lookupScheme(raw string) (scheme, bool) {
	for _, s := range schemes {
		if strings.HasPrefix(raw, s.prefix) {
			return s, true
		}
	}
	return scheme{}, false
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

func schemeOf(raw string) string {
	scheme, _, found := strings.Cut(raw, "://")
	if !found || len(scheme) > 16 {
		return ""
	}
	return scheme
}
