package parser

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUUID      = "a906a218-c30c-473d-8b1c-ded049654917"
	testPublicKey = "SbVKOEMjK0sIlbwg4akyBg5mL5KZwwBxed4eEE7YnRc="
)

func vmessLink(t *testing.T, fields map[string]any) string {
	t.Helper()
	b, err := json.Marshal(fields)
	require.NoError(t, err)
	return "vmess://" + base64.StdEncoding.EncodeToString(b)
}

func validVMessFields() map[string]any {
	return map[string]any{
		"v":    "2",
		"add":  "vm.example.com",
		"port": "443",
		"id":   testUUID,
	}
}

func TestParseDispatch(t *testing.T) {
	tests := []struct {
		name string
		link string
		want Protocol
	}{
		{"vmess", vmessLink(t, validVMessFields()), ProtocolVMess},
		{"vless", "vless://" + testUUID + "@example.com:443", ProtocolVLESS},
		{"trojan", "trojan://secret@example.com:443", ProtocolTrojan},
		{"reality", "reality://" + testUUID + "@example.com:443?pbk=" + testPublicKey, ProtocolReality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.link)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Protocol())
		})
	}
}

func TestParseUnsupportedProtocol(t *testing.T) {
	links := []string{
		"",
		"ss://YWVzLTI1Ni1nY206cGFzcw@example.com:8388",
		"http://example.com",
		"VLESS://" + testUUID + "@example.com:443",
		"vless:" + testUUID + "@example.com",
		"just some text",
	}
	for _, link := range links {
		_, err := Parse(link)
		assert.ErrorIs(t, err, ErrUnsupportedProtocol, "link %q", link)
	}
}

func TestParseRejectsControlCharacters(t *testing.T) {
	tests := []struct {
		name  string
		link  string
		proto Protocol
	}{
		{"newline in host", "vless://" + testUUID + "@exa\nmple.com:443", ProtocolVLESS},
		{"crlf in password", "trojan://pa\r\nss@host.example:443", ProtocolTrojan},
		{"trailing crlf", "vless://" + testUUID + "@example.com:443\r\n", ProtocolVLESS},
		{"tab in reality host", "reality://" + testUUID + "@edge\t.example:443?pbk=" + testPublicKey, ProtocolReality},
		{"newline in vmess body", vmessLink(t, validVMessFields())[:20] + "\n" + vmessLink(t, validVMessFields())[20:], ProtocolVMess},
		{"leading tab", "\t vless://" + testUUID + "@example.com:443", ""},
		{"delete char", "trojan://pass\x7f@host.example:443", ProtocolTrojan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.link)
			assert.Nil(t, d)
			require.ErrorIs(t, err, ErrMalformedLink)
			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.proto, perr.Protocol)
		})
	}
}

func TestParseDoesNotTrim(t *testing.T) {
	_, err := Parse("  vless://" + testUUID + "@example.com:443")
	assert.ErrorIs(t, err, ErrUnsupportedProtocol)

	_, err = Parse("vless://" + testUUID + "@example.com:443 ")
	assert.Error(t, err)
}

func TestParseLinkTooLong(t *testing.T) {
	valid := "vless://" + testUUID + "@example.com:443?security=tls"

	// Well-formed content followed by padding past the limit.
	long := valid + "&sni=" + strings.Repeat("a", MaxLinkLength)
	_, err := Parse(long)
	assert.ErrorIs(t, err, ErrLinkTooLong)

	// The limit applies before scheme detection.
	_, err = Parse(strings.Repeat("x", MaxLinkLength+1))
	assert.ErrorIs(t, err, ErrLinkTooLong)
	_, err = Parse(strings.Repeat(" ", MaxLinkLength+1))
	assert.ErrorIs(t, err, ErrLinkTooLong)

	exact := valid + "&sni=" + strings.Repeat("a", MaxLinkLength-len(valid)-len("&sni="))
	require.Len(t, exact, MaxLinkLength)
	_, err = Parse(exact)
	assert.NoError(t, err)
}

func TestParseLinkLengthCountsCharacters(t *testing.T) {
	valid := "vless://" + testUUID + "@example.com:443?security=tls#"

	// Multi-byte remark: more than MaxLinkLength bytes, exactly MaxLinkLength characters.
	remark := strings.Repeat("é", MaxLinkLength-len(valid))
	link := valid + remark
	require.Greater(t, len(link), MaxLinkLength)
	_, err := Parse(link)
	assert.NoError(t, err)

	_, err = Parse(link + "é")
	assert.ErrorIs(t, err, ErrLinkTooLong)
}

func TestParseVLESSProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	hosts := []string{"example.com", "10.0.0.1", "a.b-c.example", "localhost"}
	for i := 0; i < 200; i++ {
		id := uuid.NewString()
		port := rng.Intn(65535) + 1
		host := hosts[rng.Intn(len(hosts))]

		d, err := Parse(fmt.Sprintf("vless://%s@%s:%d?security=tls", id, host, port))
		require.NoError(t, err)
		v, ok := d.(VLESS)
		require.True(t, ok)
		assert.Equal(t, id, v.ID)
		assert.Equal(t, host, v.Address)
		assert.Equal(t, port, v.Port)
	}
}

func TestParseIdempotent(t *testing.T) {
	links := []string{
		vmessLink(t, validVMessFields()),
		"vless://" + testUUID + "@example.com:443?security=tls&flow=xtls-rprx-vision",
		"trojan://p%40ss@host.example:8443?sni=host.example",
		"reality://" + testUUID + "@example.com:8443?pbk=" + testPublicKey + "&sid=ab12",
	}
	for _, link := range links {
		a, err := Parse(link)
		require.NoError(t, err)
		b, err := Parse(link)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestParsePortBoundaries(t *testing.T) {
	for _, port := range []string{"0", "65536"} {
		_, err := Parse("vless://" + testUUID + "@example.com:" + port)
		assert.ErrorIs(t, err, ErrInvalidPort, "vless port %s", port)

		_, err = Parse("trojan://secret@example.com:" + port)
		assert.ErrorIs(t, err, ErrInvalidPort, "trojan port %s", port)

		_, err = Parse("reality://" + testUUID + "@example.com:" + port + "?pbk=" + testPublicKey)
		assert.ErrorIs(t, err, ErrInvalidPort, "reality port %s", port)

		fields := validVMessFields()
		fields["port"] = port
		_, err = Parse(vmessLink(t, fields))
		assert.ErrorIs(t, err, ErrInvalidPort, "vmess port %s", port)
	}

	for _, port := range []int{1, 65535} {
		d, err := Parse(fmt.Sprintf("vless://%s@example.com:%d", testUUID, port))
		require.NoError(t, err)
		assert.Equal(t, port, d.Server().Port)

		d, err = Parse(fmt.Sprintf("trojan://secret@example.com:%d", port))
		require.NoError(t, err)
		assert.Equal(t, port, d.Server().Port)

		d, err = Parse(fmt.Sprintf("reality://%s@example.com:%d?pbk=%s", testUUID, port, testPublicKey))
		require.NoError(t, err)
		assert.Equal(t, port, d.Server().Port)

		fields := validVMessFields()
		fields["port"] = port
		d, err = Parse(vmessLink(t, fields))
		require.NoError(t, err)
		assert.Equal(t, port, d.Server().Port)
	}
}

func TestErrorClassification(t *testing.T) {
	_, err := Parse("vless://not-a-uuid@example.com:443")
	require.Error(t, err)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ProtocolVLESS, perr.Protocol)
	assert.Equal(t, "id", perr.Field)
	assert.Equal(t, ErrInvalidIdentifier, KindOf(err))
	assert.Equal(t, "vless: id: invalid identifier", err.Error())

	assert.Nil(t, KindOf(errors.New("other")))
	assert.Equal(t, ErrDecode, KindOf(fmt.Errorf("wrapped: %w", &Error{Kind: ErrDecode})))
}

func TestLookupScheme(t *testing.T) {
	s, ok := lookupScheme("trojan://x@y")
	assert.True(t, ok)
	assert.Equal(t, ProtocolTrojan, s.proto)

	_, ok = lookupScheme(" trojan://x@y")
	assert.False(t, ok)
	_, ok = lookupScheme("ss://abc")
	assert.False(t, ok)
}
