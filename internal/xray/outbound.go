package xray

import (
	"encoding/json"
	"fmt"

	"linkguard/internal/xray/parser"
)

// Outbound is the flat, engine-agnostic view of a validated link.
// Only the fields belonging to Protocol are meaningful.
type Outbound struct {
	Protocol      parser.Protocol
	Address       string
	Port          int
	ID            string
	Security      string
	TransportType string
	Host          string
	Flow          string
	SNI           string
	Password      string
	PublicKey     string
	ShortID       string
	SpiderX       string
}

// Project maps a descriptor onto the outbound record. It never fails for
// descriptors produced by parser.Parse.
func Project(d parser.Descriptor) (*Outbound, error) {
	switch v := d.(type) {
	case parser.VMess:
		return &Outbound{
			Protocol:      parser.ProtocolVMess,
			Address:       v.Address,
			Port:          v.Port,
			ID:            v.ID,
			Security:      v.Security,
			TransportType: v.TransportType,
			Host:          v.Host,
		}, nil
	case parser.VLESS:
		return &Outbound{
			Protocol:      parser.ProtocolVLESS,
			Address:       v.Address,
			Port:          v.Port,
			ID:            v.ID,
			Flow:          v.Flow,
			Security:      v.Security,
			TransportType: v.TransportType,
			SNI:           v.SNI,
		}, nil
	case parser.Trojan:
		return &Outbound{
			Protocol:      parser.ProtocolTrojan,
			Address:       v.Address,
			Port:          v.Port,
			Password:      v.Password,
			Security:      v.Security,
			SNI:           v.SNI,
			TransportType: v.TransportType,
		}, nil
	case parser.Reality:
		return &Outbound{
			Protocol:  parser.ProtocolReality,
			Address:   v.Address,
			Port:      v.Port,
			ID:        v.ID,
			PublicKey: v.PublicKey,
			SNI:       v.SNI,
			ShortID:   v.ShortID,
			SpiderX:   v.SpiderX,
			Flow:      v.Flow,
		}, nil
	default:
		return nil, &parser.Error{Kind: parser.ErrUnsupportedProtocol, Detail: fmt.Sprintf("descriptor %T", d)}
	}
}

// MarshalJSON emits the common fields plus the ones owned by the protocol.
func (o *Outbound) MarshalJSON() ([]byte, error) {
	type common struct {
		Protocol parser.Protocol `json:"protocol"`
		Address  string          `json:"address"`
		Port     int             `json:"port"`
	}
	c := common{Protocol: o.Protocol, Address: o.Address, Port: o.Port}

	switch o.Protocol {
	case parser.ProtocolVMess:
		return json.Marshal(struct {
			common
			ID            string `json:"id"`
			Security      string `json:"security"`
			TransportType string `json:"transport_type"`
			Host          string `json:"host"`
		}{c, o.ID, o.Security, o.TransportType, o.Host})
	case parser.ProtocolVLESS:
		return json.Marshal(struct {
			common
			ID            string `json:"id"`
			Flow          string `json:"flow"`
			Security      string `json:"security"`
			TransportType string `json:"transport_type"`
			SNI           string `json:"sni"`
		}{c, o.ID, o.Flow, o.Security, o.TransportType, o.SNI})
	case parser.ProtocolTrojan:
		return json.Marshal(struct {
			common
			Password      string `json:"password"`
			Security      string `json:"security"`
			SNI           string `json:"sni"`
			TransportType string `json:"transport_type"`
		}{c, o.Password, o.Security, o.SNI, o.TransportType})
	case parser.ProtocolReality:
		return json.Marshal(struct {
			common
			ID        string `json:"id"`
			PublicKey string `json:"public_key"`
			SNI       string `json:"sni"`
			ShortID   string `json:"short_id"`
			SpiderX   string `json:"spider_x"`
			Flow      string `json:"flow"`
		}{c, o.ID, o.PublicKey, o.SNI, o.ShortID, o.SpiderX, o.Flow})
	default:
		return nil, fmt.Errorf("outbound: unknown protocol %q", o.Protocol)
	}
}
