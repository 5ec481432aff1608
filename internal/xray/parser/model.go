package parser

// Protocol tags the variant of a Descriptor.
type Protocol string

const (
	ProtocolVMess   Protocol = "vmess"
	ProtocolVLESS   Protocol = "vless"
	ProtocolTrojan  Protocol = "trojan"
	ProtocolReality Protocol = "reality"
)

// Descriptor is a validated, normalized share link.
// The set of implementations is closed: VMess, VLESS, Trojan and Reality.
type Descriptor interface {
	Protocol() Protocol
	Server() Endpoint
	descriptor()
}

// Endpoint is the server every variant connects to.
type Endpoint struct {
	Address string // hostname or IP literal
	Port    int
}

type VMess struct {
	Endpoint
	ID            string
	Security      string // "tls" key, may be empty
	TransportType string // "type" key
	Host          string
}

type VLESS struct {
	Endpoint
	ID            string
	Flow          string
	Security      string
	TransportType string
	SNI           string
}

type Trojan struct {
	Endpoint
	Password      string
	Security      string
	SNI           string
	TransportType string
}

type Reality struct {
	Endpoint
	ID        string
	PublicKey string // pbk
	SNI       string
	ShortID   string // sid
	SpiderX   string // spx
	Flow      string
}

func (VMess) Protocol() Protocol   { return ProtocolVMess }
func (VLESS) Protocol() Protocol   { return ProtocolVLESS }
func (Trojan) Protocol() Protocol  { return ProtocolTrojan }
func (Reality) Protocol() Protocol { return ProtocolReality }

func (d VMess) Server() Endpoint   { return d.Endpoint }
func (d VLESS) Server() Endpoint   { return d.Endpoint }
func (d Trojan) Server() Endpoint  { return d.Endpoint }
func (d Reality) Server() Endpoint { return d.Endpoint }

func (VMess) descriptor()   {}
func (VLESS) descriptor()   {}
func (Trojan) descriptor()  {}
func (Reality) descriptor() {}
