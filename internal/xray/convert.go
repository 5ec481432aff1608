package xray

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"linkguard/internal/xray/parser"

	"github.com/xtls/xray-core/infra/conf"
)

// ToXrayConfig converts a raw link string into an Xray outbound config.
func ToXrayConfig(raw string) (*conf.OutboundDetourConfig, error) {
	d, err := parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	out, err := Project(d)
	if err != nil {
		return nil, err
	}
	return out.ToXray()
}

// ToXray renders the outbound in the engine's own config format.
func (o *Outbound) ToXray() (*conf.OutboundDetourConfig, error) {
	doc, err := o.Document()
	if err != nil {
		return nil, err
	}

	cfg := new(conf.OutboundDetourConfig)
	if err := json.Unmarshal(doc, cfg); err != nil {
		return nil, fmt.Errorf("decode %s outbound: %w", o.Protocol, err)
	}
	return cfg, nil
}

// Document is the JSON outbound object as it appears in an Xray config file.
func (o *Outbound) Document() (json.RawMessage, error) {
	var protocol string
	var settings json.RawMessage

	switch o.Protocol {
	case parser.ProtocolVMess:
		protocol = "vmess"
		settings = buildVMess(o)
	case parser.ProtocolVLESS, parser.ProtocolReality:
		protocol = "vless"
		settings = buildVLESS(o)
	case parser.ProtocolTrojan:
		protocol = "trojan"
		settings = buildTrojan(o)
	default:
		return nil, fmt.Errorf("protocol conversion not implemented: %s", o.Protocol)
	}

	stream, err := buildStreamSettings(o)
	if err != nil {
		return nil, err
	}

	return jsonRaw(map[string]interface{}{
		"tag":            "proxy",
		"protocol":       protocol,
		"settings":       settings,
		"streamSettings": stream,
	}), nil
}

// ProtocolOf recovers the link protocol from an engine outbound.
// Reality travels as vless with reality stream security.
func ProtocolOf(cfg *conf.OutboundDetourConfig) (parser.Protocol, error) {
	if cfg == nil {
		return "", fmt.Errorf("nil outbound")
	}
	switch strings.ToLower(cfg.Protocol) {
	case "vmess":
		return parser.ProtocolVMess, nil
	case "trojan":
		return parser.ProtocolTrojan, nil
	case "vless":
		if cfg.StreamSetting != nil && strings.EqualFold(cfg.StreamSetting.Security, "reality") {
			return parser.ProtocolReality, nil
		}
		return parser.ProtocolVLESS, nil
	default:
		return "", &parser.Error{Kind: parser.ErrUnsupportedProtocol, Detail: fmt.Sprintf("engine protocol %q", cfg.Protocol)}
	}
}

// --- JSON Builders ---

func buildVMess(o *Outbound) json.RawMessage {
	return jsonRaw(map[string]interface{}{
		"vnext": []interface{}{
			map[string]interface{}{
				"address": o.Address,
				"port":    o.Port,
				"users": []interface{}{
					map[string]interface{}{
						"id":       o.ID,
						"alterId":  0,
						"security": "auto",
					},
				},
			},
		},
	})
}

func buildVLESS(o *Outbound) json.RawMessage {
	user := map[string]interface{}{
		"id":         o.ID,
		"encryption": "none",
	}
	if o.Flow != "" {
		user["flow"] = o.Flow
	}
	return jsonRaw(map[string]interface{}{
		"vnext": []interface{}{
			map[string]interface{}{
				"address": o.Address,
				"port":    o.Port,
				"users":   []interface{}{user},
			},
		},
	})
}

func buildTrojan(o *Outbound) json.RawMessage {
	return jsonRaw(map[string]interface{}{
		"servers": []interface{}{
			map[string]interface{}{
				"address":  o.Address,
				"port":     o.Port,
				"password": o.Password,
			},
		},
	})
}

func buildStreamSettings(o *Outbound) (map[string]interface{}, error) {
	if o.Protocol == parser.ProtocolReality {
		key, err := rawURLKey(o.PublicKey)
		if err != nil {
			return nil, err
		}
		reality := map[string]interface{}{
			"fingerprint": "chrome",
			"serverName":  o.SNI,
			"publicKey":   key,
			"shortId":     o.ShortID,
		}
		if o.SpiderX != "" {
			reality["spiderX"] = o.SpiderX
		}
		return map[string]interface{}{
			"network":         "tcp",
			"security":        "reality",
			"realitySettings": reality,
		}, nil
	}

	// VMess carries the TLS server name in host; the others use sni.
	serverName := o.SNI
	if o.Protocol == parser.ProtocolVMess {
		serverName = o.Host
	}
	host := o.Host
	if host == "" {
		host = o.SNI
	}

	security := strings.ToLower(o.Security)
	if security == "" {
		security = "none"
	}
	sc := map[string]interface{}{
		"security": security,
	}
	if security == "tls" {
		tls := map[string]interface{}{}
		if serverName != "" {
			tls["serverName"] = serverName
		}
		sc["tlsSettings"] = tls
	}

	// Transports
	network, headerType := transportOf(o.TransportType)
	sc["network"] = network
	switch network {
	case "ws":
		ws := map[string]interface{}{}
		if host != "" {
			ws["host"] = host
		}
		sc["wsSettings"] = ws
	case "grpc":
		sc["grpcSettings"] = map[string]interface{}{}
	case "tcp":
		if headerType == "http" {
			request := map[string]interface{}{"path": []string{"/"}}
			if host != "" {
				request["headers"] = map[string]interface{}{"Host": []string{host}}
			}
			sc["tcpSettings"] = map[string]interface{}{
				"header": map[string]interface{}{
					"type":    "http",
					"request": request,
				},
			}
		}
	}
	return sc, nil
}

// transportOf maps a link transport onto an engine network. Empty and
// "none" mean plain tcp; "http" is tcp with HTTP header obfuscation.
func transportOf(t string) (network, headerType string) {
	switch t = strings.ToLower(t); t {
	case "", "none", "tcp", "raw":
		return "tcp", ""
	case "http":
		return "tcp", "http"
	case "websocket":
		return "ws", ""
	default:
		return t, ""
	}
}

// rawURLKey re-encodes a padded standard base64 key into the
// unpadded URL-safe form the engine expects.
func rawURLKey(key string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("reality public key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// --- Internal Helper Functions ---

func jsonRaw(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return json.RawMessage(b)
}

func toRawMessagePtr(s string) *json.RawMessage {
	msg := json.RawMessage(s)
	return &msg
}
