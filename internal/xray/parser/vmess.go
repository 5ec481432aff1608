package parser

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"
)

var vmessRequired = []string{"v", "add", "port", "id"}

// parseVMess handles the base64-JSON form: vmess://<base64(json)>[?...][#...].
func parseVMess(raw string) (Descriptor, error) {
	body := strings.TrimPrefix(raw, "vmess://")
	body, _, _ = strings.Cut(body, "#")
	body, _, _ = strings.Cut(body, "?")

	if !ValidBase64Body(body) {
		return nil, reject(ProtocolVMess, "body", ErrInvalidLength, "%d chars, want %d-%d", len(body), MinVMessBody, MaxVMessBody)
	}

	payload, err := DecodeBase64(body)
	if err != nil {
		return nil, reject(ProtocolVMess, "body", ErrDecode, "")
	}
	if !utf8.ValidString(payload) {
		return nil, reject(ProtocolVMess, "body", ErrDecode, "payload is not UTF-8")
	}
	if n := utf8.RuneCountInString(payload); n > MaxVMessPayload {
		return nil, reject(ProtocolVMess, "body", ErrPayloadTooLarge, "%d chars decoded", n)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil || fields == nil {
		return nil, reject(ProtocolVMess, "body", ErrMalformedPayload, "")
	}
	for _, key := range vmessRequired {
		if _, ok := fields[key]; !ok {
			return nil, reject(ProtocolVMess, key, ErrMissingField, "")
		}
	}

	if !vmessVersionOK(fields["v"]) {
		return nil, reject(ProtocolVMess, "v", ErrUnsupportedVersion, "")
	}

	id, ok := jsonString(fields["id"])
	if !ok || !ValidUUID(id) {
		return nil, reject(ProtocolVMess, "id", ErrInvalidIdentifier, "")
	}

	port, ok := vmessPort(fields["port"])
	if !ok {
		return nil, reject(ProtocolVMess, "port", ErrInvalidPort, "")
	}

	add, ok := jsonString(fields["add"])
	add = strings.TrimSpace(add)
	if !ok || add == "" {
		return nil, reject(ProtocolVMess, "add", ErrMissingField, "empty address")
	}
	if !ValidAddress(add) {
		return nil, reject(ProtocolVMess, "add", ErrInvalidParameter, "%q is not a hostname or IP", add)
	}

	d := VMess{
		Endpoint: Endpoint{Address: add, Port: port},
		ID:       id,
	}
	if d.Security, err = optionalString(fields, "tls", ""); err != nil {
		return nil, err
	}
	if d.TransportType, err = optionalString(fields, "type", "tcp"); err != nil {
		return nil, err
	}
	if d.Host, err = optionalString(fields, "host", ""); err != nil {
		return nil, err
	}
	return d, nil
}

// vmessVersionOK accepts only the JSON string "2".
func vmessVersionOK(raw json.RawMessage) bool {
	s, ok := jsonString(raw)
	return ok && s == "2"
}

// vmessPort accepts a decimal string or an integral JSON number.
func vmessPort(raw json.RawMessage) (int, bool) {
	if s, ok := jsonString(raw); ok {
		return ParsePort(strings.TrimSpace(s))
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	p, err := strconv.Atoi(n.String())
	if err != nil || !ValidPort(p) {
		return 0, false
	}
	return p, true
}

func jsonString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// optionalString treats absent, null and "" as def; other non-strings are malformed.
func optionalString(fields map[string]json.RawMessage, key, def string) (string, error) {
	raw, ok := fields[key]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return def, nil
	}
	s, ok := jsonString(raw)
	if !ok {
		return "", reject(ProtocolVMess, key, ErrMalformedPayload, "not a string")
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}
