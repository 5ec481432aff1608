package parser

import (
	"encoding/base64"
	"encoding/json"
	"net"
	"net/url"
	"strconv"
)

// ToURI converts a descriptor back into its native link format.
// Parsing the result yields an equal descriptor.
func ToURI(d Descriptor) string {
	return ToURIWithRemarks(d, "")
}

// ToURIWithRemarks is ToURI with a display name: the "ps" key for vmess,
// the fragment for the others. Parse ignores both.
func ToURIWithRemarks(d Descriptor, remarks string) string {
	uri := toURI(d, remarks)
	if _, isVMess := d.(VMess); remarks != "" && uri != "" && !isVMess {
		uri += "#" + url.PathEscape(remarks)
	}
	return uri
}

func toURI(d Descriptor, remarks string) string {
	switch v := d.(type) {
	case VMess:
		return toVMessURI(v, remarks)
	case VLESS:
		q := url.Values{}
		q.Set("security", v.Security)
		setNonEmpty(q, "type", v.TransportType)
		setNonEmpty(q, "flow", v.Flow)
		setNonEmpty(q, "sni", v.SNI)
		return toGenericURI("vless", v.ID, v.Endpoint, q)
	case Trojan:
		q := url.Values{}
		q.Set("security", v.Security)
		setNonEmpty(q, "type", v.TransportType)
		setNonEmpty(q, "sni", v.SNI)
		return toGenericURI("trojan", v.Password, v.Endpoint, q)
	case Reality:
		q := url.Values{}
		q.Set("pbk", v.PublicKey)
		setNonEmpty(q, "sid", v.ShortID)
		setNonEmpty(q, "sni", v.SNI)
		setNonEmpty(q, "spx", v.SpiderX)
		q.Set("flow", v.Flow)
		return "reality://" + v.ID + "@" + hostPort(v.Endpoint) + "?" + q.Encode()
	default:
		return ""
	}
}

type vmessJSON struct {
	V    string `json:"v"`
	PS   string `json:"ps,omitempty"`
	Add  string `json:"add"`
	Port string `json:"port"`
	ID   string `json:"id"`
	TLS  string `json:"tls,omitempty"`
	Type string `json:"type,omitempty"`
	Host string `json:"host,omitempty"`
}

// toVMessURI shortens remarks until the encoded body fits MaxVMessBody,
// so the link stays parseable.
func toVMessURI(v VMess, remarks string) string {
	doc := vmessJSON{
		V:    "2",
		Add:  v.Address,
		Port: strconv.Itoa(v.Port),
		ID:   v.ID,
		TLS:  v.Security,
		Type: v.TransportType,
		Host: v.Host,
	}
	ps := []rune(remarks)
	for {
		doc.PS = string(ps)
		b, _ := json.Marshal(doc)
		body := base64.StdEncoding.EncodeToString(b)
		if len(body) <= MaxVMessBody || len(ps) == 0 {
			return "vmess://" + body
		}
		over := (len(body)-MaxVMessBody)*3/4 + 1
		ps = ps[:max(len(ps)-over, 0)]
	}
}

func toGenericURI(scheme, user string, ep Endpoint, q url.Values) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.User(user),
		Host:     hostPort(ep),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func hostPort(ep Endpoint) string {
	return net.JoinHostPort(ep.Address, strconv.Itoa(ep.Port))
}

func setNonEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
