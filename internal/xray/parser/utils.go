package parser

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

// DecodeBase64 decodes standard or URL-safe base64, fixing missing padding.
func DecodeBase64(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if n := len(s) % 4; n != 0 {
		s += strings.Repeat("=", 4-n)
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return string(b), nil
	}

	b, err = base64.URLEncoding.DecodeString(s)
	if err == nil {
		return string(b), nil
	}

	return "", err
}

// parseURI parses a userinfo@host:port?query link and classifies failures.
func parseURI(proto Protocol, raw string) (*url.URL, url.Values, error) {
	u, err := url.Parse(raw)
	if err != nil {
		var escErr url.EscapeError
		switch {
		case errors.As(err, &escErr):
			return nil, nil, reject(proto, "", ErrDecode, "%v", escErr)
		case strings.Contains(err.Error(), "invalid port"):
			return nil, nil, reject(proto, "port", ErrInvalidPort, "")
		default:
			return nil, nil, reject(proto, "", ErrMalformedLink, "")
		}
	}
	if u.Opaque != "" || u.Host == "" || u.Hostname() == "" {
		return nil, nil, reject(proto, "address", ErrMalformedLink, "missing host")
	}

	q, err := parseQuery(u.RawQuery)
	if err != nil {
		return nil, nil, reject(proto, "query", ErrDecode, "%v", err)
	}
	return u, q, nil
}

// parseQuery splits on '&' only; ';' is an ordinary value character.
// Only a bad percent escape is an error.
func parseQuery(raw string) (url.Values, error) {
	q := url.Values{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, err
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, err
		}
		q.Add(key, value)
	}
	return q, nil
}

// endpointOf applies the default port when the authority has none.
func endpointOf(proto Protocol, u *url.URL) (Endpoint, error) {
	ep := Endpoint{Address: u.Hostname(), Port: DefaultPort}
	if p := u.Port(); p != "" {
		port, ok := ParsePort(p)
		if !ok {
			return Endpoint{}, reject(proto, "port", ErrInvalidPort, "%q", p)
		}
		ep.Port = port
	}
	return ep, nil
}

// queryDefault returns the first value for key, or def when absent or empty.
func queryDefault(q url.Values, key, def string) string {
	if v := q.Get(key); v != "" {
		return v
	}
	return def
}
