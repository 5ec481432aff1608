package parser

// parseTrojan handles trojan://<password>@<host>[:<port>]?<query>#<remarks>.
// The password is percent-decoded by the URI parser.
func parseTrojan(raw string) (Descriptor, error) {
	u, q, err := parseURI(ProtocolTrojan, raw)
	if err != nil {
		return nil, err
	}

	password := ""
	if u.User != nil {
		password = u.User.Username()
	}
	if !ValidPasswordLength(password) {
		return nil, reject(ProtocolTrojan, "password", ErrInvalidLength, "want %d-%d chars", MinPasswordChars, MaxPasswordChars)
	}

	ep, err := endpointOf(ProtocolTrojan, u)
	if err != nil {
		return nil, err
	}

	sni := q.Get("sni")
	if !ValidSNI(sni) {
		return nil, reject(ProtocolTrojan, "sni", ErrInvalidParameter, "")
	}

	return Trojan{
		Endpoint:      ep,
		Password:      password,
		Security:      queryDefault(q, "security", "tls"),
		SNI:           sni,
		TransportType: queryDefault(q, "type", "tcp"),
	}, nil
}
