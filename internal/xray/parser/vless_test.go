package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVLESS(t *testing.T) {
	d, err := Parse("vless://" + testUUID + "@example.com:443?security=tls&flow=xtls-rprx-vision")
	require.NoError(t, err)

	assert.Equal(t, VLESS{
		Endpoint:      Endpoint{Address: "example.com", Port: 443},
		ID:            testUUID,
		Flow:          "xtls-rprx-vision",
		Security:      "tls",
		TransportType: "tcp",
		SNI:           "",
	}, d)
}

func TestParseVLESSDefaults(t *testing.T) {
	d, err := Parse("vless://" + testUUID + "@example.com#remarks")
	require.NoError(t, err)

	v := d.(VLESS)
	assert.Equal(t, 443, v.Port)
	assert.Equal(t, "tls", v.Security)
	assert.Equal(t, "tcp", v.TransportType)
	assert.Empty(t, v.Flow)

	d, err = Parse("vless://" + testUUID + "@example.com:2053?security=&type=ws&sni=cdn.example")
	require.NoError(t, err)
	v = d.(VLESS)
	assert.Equal(t, "tls", v.Security)
	assert.Equal(t, "ws", v.TransportType)
	assert.Equal(t, "cdn.example", v.SNI)
}

func TestParseVLESSIPv6(t *testing.T) {
	d, err := Parse("vless://" + testUUID + "@[2001:db8::1]:8443?security=none")
	require.NoError(t, err)
	assert.Equal(t, Endpoint{Address: "2001:db8::1", Port: 8443}, d.Server())
	assert.Equal(t, "none", d.(VLESS).Security)
}

func TestParseVLESSRejections(t *testing.T) {
	tests := []struct {
		name  string
		link  string
		kind  error
		field string
	}{
		{"bad uuid", "vless://nope@example.com:443", ErrInvalidIdentifier, "id"},
		{"missing uuid", "vless://example.com:443", ErrInvalidIdentifier, "id"},
		{"bad flow", "vless://" + testUUID + "@example.com:443?flow=xtls%20vision", ErrInvalidParameter, "flow"},
		{"port text", "vless://" + testUUID + "@example.com:https", ErrInvalidPort, "port"},
		{"port too big", "vless://" + testUUID + "@example.com:70000", ErrInvalidPort, "port"},
		{"bad escape", "vless://" + testUUID + "@example.com:443?sni=%zz", ErrDecode, "query"},
		{"no host", "vless://" + testUUID + "@:443", ErrMalformedLink, "address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.link)
			require.ErrorIs(t, err, tt.kind)
			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, ProtocolVLESS, perr.Protocol)
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestParseVLESSSemicolonInQuery(t *testing.T) {
	d, err := Parse("vless://" + testUUID + "@example.com:443?security=tls&path=/a;b&sni=example.com")
	require.NoError(t, err)

	v := d.(VLESS)
	assert.Equal(t, "tls", v.Security)
	assert.Equal(t, "example.com", v.SNI)
}
