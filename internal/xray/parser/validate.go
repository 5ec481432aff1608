package parser

import (
	"net"
	"regexp"
	"strconv"
	"unicode/utf8"
)

const (
	MaxLinkLength    = 2048
	MinVMessBody     = 10
	MaxVMessBody     = 1024
	MaxVMessPayload  = 1024
	MinPasswordChars = 4
	MaxPasswordChars = 100
	DefaultPort      = 443
)

var (
	uuidRegex      = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	portRegex      = regexp.MustCompile(`^[0-9]{1,5}$`)
	flowRegex      = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	sniRegex       = regexp.MustCompile(`^[A-Za-z0-9.\-]+$`)
	publicKeyRegex = regexp.MustCompile(`^[A-Za-z0-9+/]{43}=$`)
	shortIDRegex   = regexp.MustCompile(`(?i)^[0-9a-f]{1,16}$`)
	hostnameRegex  = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*\.?$`)
)

const maxHostnameLength = 253

// ValidUUID reports whether s is a hyphenated 36-char UUID (any case).
func ValidUUID(s string) bool {
	return uuidRegex.MatchString(s)
}

// ValidPort reports whether p is a usable TCP/UDP port.
func ValidPort(p int) bool {
	return p >= 1 && p <= 65535
}

// ParsePort accepts only plain decimal digits; signs, spaces and
// hex forms are rejected.
func ParsePort(s string) (int, bool) {
	if !portRegex.MatchString(s) {
		return 0, false
	}
	p, err := strconv.Atoi(s)
	if err != nil || !ValidPort(p) {
		return 0, false
	}
	return p, true
}

// ValidAddress reports whether s is an IP literal or a DNS hostname
// (letters, digits, '-', '_' in dot-separated labels).
func ValidAddress(s string) bool {
	if net.ParseIP(s) != nil {
		return true
	}
	return len(s) <= maxHostnameLength && hostnameRegex.MatchString(s)
}

// ValidFlow allows the empty flow.
func ValidFlow(s string) bool {
	return s == "" || flowRegex.MatchString(s)
}

// ValidSNI allows the empty server name.
func ValidSNI(s string) bool {
	return s == "" || sniRegex.MatchString(s)
}

func ValidPublicKey(s string) bool {
	return publicKeyRegex.MatchString(s)
}

// ValidShortID allows the empty short id.
func ValidShortID(s string) bool {
	return s == "" || shortIDRegex.MatchString(s)
}

// ValidBase64Body bounds the raw vmess body before decoding.
func ValidBase64Body(s string) bool {
	return len(s) >= MinVMessBody && len(s) <= MaxVMessBody
}

// ValidPasswordLength counts characters, not bytes.
func ValidPasswordLength(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= MinPasswordChars && n <= MaxPasswordChars
}
