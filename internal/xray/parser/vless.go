package parser

// parseVLESS handles vless://<uuid>@<host>[:<port>]?<query>#<remarks>.
func parseVLESS(raw string) (Descriptor, error) {
	u, q, err := parseURI(ProtocolVLESS, raw)
	if err != nil {
		return nil, err
	}

	id := ""
	if u.User != nil {
		id = u.User.Username()
	}
	if !ValidUUID(id) {
		return nil, reject(ProtocolVLESS, "id", ErrInvalidIdentifier, "")
	}

	ep, err := endpointOf(ProtocolVLESS, u)
	if err != nil {
		return nil, err
	}

	flow := q.Get("flow")
	if !ValidFlow(flow) {
		return nil, reject(ProtocolVLESS, "flow", ErrInvalidParameter, "")
	}

	return VLESS{
		Endpoint:      ep,
		ID:            id,
		Flow:          flow,
		Security:      queryDefault(q, "security", "tls"),
		TransportType: queryDefault(q, "type", "tcp"),
		SNI:           q.Get("sni"),
	}, nil
}
