package parser

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func FuzzParse(f *testing.F) {
	f.Add(sampleVMess)
	f.Add("vless://" + testUUID + "@example.com:443?security=tls&flow=xtls-rprx-vision")
	f.Add("trojan://p%40ss@host.example:8443?sni=host.example")
	f.Add("reality://" + testUUID + "@[::1]:443?pbk=" + testPublicKey + "&sid=ab")
	f.Add("vmess://AAAAAAAAAA")
	f.Add("ss://")

	f.Fuzz(func(t *testing.T, raw string) {
		d, err := Parse(raw)
		if err != nil {
			if d != nil {
				t.Fatalf("descriptor returned with error %v", err)
			}
			if KindOf(err) == nil {
				t.Fatalf("unclassified error %v", err)
			}
			return
		}

		if n := utf8.RuneCountInString(raw); n > MaxLinkLength {
			t.Fatalf("accepted %d-char link", n)
		}
		if strings.IndexFunc(raw, isControl) >= 0 {
			t.Fatalf("accepted link with control characters %q", raw)
		}
		if !ValidPort(d.Server().Port) {
			t.Fatalf("accepted port %d", d.Server().Port)
		}
		if d.Server().Address == "" {
			t.Fatal("accepted empty address")
		}

		switch v := d.(type) {
		case VMess:
			if !ValidUUID(v.ID) || !ValidAddress(v.Address) {
				t.Fatalf("accepted id %q", v.ID)
			}
		case VLESS:
			if !ValidUUID(v.ID) || !ValidFlow(v.Flow) {
				t.Fatalf("accepted %+v", v)
			}
		case Trojan:
			if n := utf8.RuneCountInString(v.Password); n < MinPasswordChars || n > MaxPasswordChars {
				t.Fatalf("accepted password of %d chars", n)
			}
			if !ValidSNI(v.SNI) {
				t.Fatalf("accepted sni %q", v.SNI)
			}
		case Reality:
			if !ValidUUID(v.ID) || !ValidAddress(v.Address) || !ValidPublicKey(v.PublicKey) || !ValidShortID(v.ShortID) {
				t.Fatalf("accepted %+v", v)
			}
		}

		again, err := Parse(raw)
		if err != nil || again != d {
			t.Fatalf("parse is not deterministic: %v", err)
		}
	})
}
