package xray

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"linkguard/internal/xray/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vmessLink(t *testing.T, fields map[string]interface{}) string {
	t.Helper()
	b, err := json.Marshal(fields)
	require.NoError(t, err)
	return "vmess://" + base64.StdEncoding.EncodeToString(b)
}

type vnextSettings struct {
	Vnext []struct {
		Address string `json:"address"`
		Port    int    `json:"port"`
		Users   []struct {
			ID         string `json:"id"`
			Flow       string `json:"flow"`
			Encryption string `json:"encryption"`
		} `json:"users"`
	} `json:"vnext"`
}

func TestToXrayProtocolRoundTrip(t *testing.T) {
	links := map[parser.Protocol]string{
		parser.ProtocolVMess:   vmessLink(t, map[string]interface{}{"v": "2", "add": "vm.example.com", "port": 443, "id": testUUID}),
		parser.ProtocolVLESS:   "vless://" + testUUID + "@example.com:443?security=tls",
		parser.ProtocolTrojan:  "trojan://secret@example.com:443",
		parser.ProtocolReality: "reality://" + testUUID + "@edge.example:443?pbk=" + testPublicKey,
	}
	for want, link := range links {
		cfg, err := ToXrayConfig(link)
		require.NoError(t, err, link)
		got, err := ProtocolOf(cfg)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestToXrayInvalidLink(t *testing.T) {
	_, err := ToXrayConfig("vless://bad@example.com")
	assert.ErrorIs(t, err, parser.ErrInvalidIdentifier)
}

func TestToXrayVLESS(t *testing.T) {
	cfg, err := mustProject(t, "vless://"+testUUID+"@example.com:8443?security=tls&flow=xtls-rprx-vision&sni=sni.example").ToXray()
	require.NoError(t, err)

	assert.Equal(t, "vless", cfg.Protocol)
	require.NotNil(t, cfg.Settings)
	var s vnextSettings
	require.NoError(t, json.Unmarshal(*cfg.Settings, &s))
	require.Len(t, s.Vnext, 1)
	assert.Equal(t, "example.com", s.Vnext[0].Address)
	assert.Equal(t, 8443, s.Vnext[0].Port)
	require.Len(t, s.Vnext[0].Users, 1)
	assert.Equal(t, testUUID, s.Vnext[0].Users[0].ID)
	assert.Equal(t, "xtls-rprx-vision", s.Vnext[0].Users[0].Flow)
	assert.Equal(t, "none", s.Vnext[0].Users[0].Encryption)

	require.NotNil(t, cfg.StreamSetting)
	assert.Equal(t, "tls", cfg.StreamSetting.Security)
	require.NotNil(t, cfg.StreamSetting.TLSSettings)
	assert.Equal(t, "sni.example", cfg.StreamSetting.TLSSettings.ServerName)
	require.NotNil(t, cfg.StreamSetting.Network)
	assert.Equal(t, "tcp", string(*cfg.StreamSetting.Network))
}

func TestToXrayReality(t *testing.T) {
	cfg, err := mustProject(t, "reality://"+testUUID+"@edge.example:443?pbk="+testPublicKey+"&sid=ab12&sni=www.example.com&spx=%2F").ToXray()
	require.NoError(t, err)

	assert.Equal(t, "vless", cfg.Protocol)
	require.NotNil(t, cfg.StreamSetting)
	assert.Equal(t, "reality", cfg.StreamSetting.Security)
	r := cfg.StreamSetting.REALITYSettings
	require.NotNil(t, r)
	assert.Equal(t, "www.example.com", r.ServerName)
	assert.Equal(t, "ab12", r.ShortId)
	assert.Equal(t, "/", r.SpiderX)

	key, err := base64.RawURLEncoding.DecodeString(r.PublicKey)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	var s vnextSettings
	require.NoError(t, json.Unmarshal(*cfg.Settings, &s))
	assert.Equal(t, "xtls-rprx-vision", s.Vnext[0].Users[0].Flow)
}

func TestToXrayTransports(t *testing.T) {
	cfg, err := mustProject(t, "vless://"+testUUID+"@example.com:443?type=ws&sni=cdn.example").ToXray()
	require.NoError(t, err)
	assert.Equal(t, "ws", string(*cfg.StreamSetting.Network))
	require.NotNil(t, cfg.StreamSetting.WSSettings)
	assert.Equal(t, "cdn.example", cfg.StreamSetting.WSSettings.Host)

	cfg, err = mustProject(t, "trojan://secret@example.com:443?type=none&security=none").ToXray()
	require.NoError(t, err)
	assert.Equal(t, "tcp", string(*cfg.StreamSetting.Network))
	assert.Equal(t, "none", cfg.StreamSetting.Security)
	assert.Nil(t, cfg.StreamSetting.TLSSettings)

	// VMess "type": "http" is tcp with an HTTP header.
	cfg, err = ToXrayConfig(vmessLink(t, map[string]interface{}{"v": "2", "add": "vm.example.com", "port": "80", "id": testUUID, "type": "http", "host": "speedtest.net"}))
	require.NoError(t, err)
	assert.Equal(t, "tcp", string(*cfg.StreamSetting.Network))
	require.NotNil(t, cfg.StreamSetting.TCPSettings)
	assert.Contains(t, string(cfg.StreamSetting.TCPSettings.HeaderConfig), "speedtest.net")
}

func TestVerify(t *testing.T) {
	links := []string{
		vmessLink(t, map[string]interface{}{"v": "2", "add": "vm.example.com", "port": "443", "id": testUUID, "tls": "tls", "type": "ws", "host": "cdn.example"}),
		"vless://" + testUUID + "@example.com:443?security=tls&sni=example.com",
		"trojan://secret@example.com:443?sni=example.com",
	}
	for _, link := range links {
		assert.NoError(t, Verify(mustProject(t, link)), link)
	}
}

func TestProtocolOfUnknown(t *testing.T) {
	_, err := ProtocolOf(nil)
	assert.Error(t, err)

	cfg, err := ToXrayConfig("trojan://secret@example.com:443")
	require.NoError(t, err)
	cfg.Protocol = "freedom"
	_, err = ProtocolOf(cfg)
	assert.ErrorIs(t, err, parser.ErrUnsupportedProtocol)
}
