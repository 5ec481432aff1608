package parser

import (
	"strings"
)

const defaultRealityFlow = "xtls-rprx-vision"

// parseReality handles reality://<uuid>@<address>[:<port>]?pbk=...&sid=...#<remarks>.
// The layout is split by hand rather than with net/url.
func parseReality(raw string) (Descriptor, error) {
	rest := strings.TrimPrefix(raw, "reality://")
	rest, _, _ = strings.Cut(rest, "#")
	head, rawQuery, _ := strings.Cut(rest, "?")

	id, hostPort, found := strings.Cut(head, "@")
	if !found || id == "" || hostPort == "" {
		return nil, reject(ProtocolReality, "", ErrMalformedLink, "want <uuid>@<address>[:<port>]")
	}

	address, portStr, hasPort := splitRealityHost(hostPort)
	if address == "" {
		return nil, reject(ProtocolReality, "address", ErrMalformedLink, "")
	}
	if !ValidAddress(address) {
		return nil, reject(ProtocolReality, "address", ErrMalformedLink, "%q is not a hostname or IP", address)
	}
	port := DefaultPort
	if hasPort {
		p, ok := ParsePort(portStr)
		if !ok {
			return nil, reject(ProtocolReality, "port", ErrInvalidPort, "%q", portStr)
		}
		port = p
	}

	if !ValidUUID(id) {
		return nil, reject(ProtocolReality, "id", ErrInvalidIdentifier, "")
	}

	q, err := parseQuery(rawQuery)
	if err != nil {
		return nil, reject(ProtocolReality, "query", ErrDecode, "%v", err)
	}

	pbk := q.Get("pbk")
	if !ValidPublicKey(pbk) {
		return nil, reject(ProtocolReality, "pbk", ErrInvalidPublicKey, "")
	}
	sid := q.Get("sid")
	if !ValidShortID(sid) {
		return nil, reject(ProtocolReality, "sid", ErrInvalidShortID, "")
	}

	return Reality{
		Endpoint:  Endpoint{Address: address, Port: port},
		ID:        id,
		PublicKey: pbk,
		SNI:       q.Get("sni"),
		ShortID:   sid,
		SpiderX:   q.Get("spx"),
		Flow:      queryDefault(q, "flow", defaultRealityFlow),
	}, nil
}

// splitRealityHost splits once on ':'; a bracketed IPv6 literal keeps its colons.
func splitRealityHost(s string) (host, port string, hasPort bool) {
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return "", "", false
		}
		host = s[1:end]
		rest := s[end+1:]
		if rest == "" {
			return host, "", false
		}
		if !strings.HasPrefix(rest, ":") {
			return "", "", false
		}
		return host, rest[1:], true
	}
	return strings.Cut(s, ":")
}
