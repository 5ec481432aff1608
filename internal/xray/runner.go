package xray

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"linkguard/internal/logger"

	"github.com/xtls/xray-core/core"
	"github.com/xtls/xray-core/infra/conf"

	// Import distro to register all protocols/transports
	_ "github.com/xtls/xray-core/main/distro/all"
)

const (
	InboundSocks    = "socks"
	InboundDokodemo = "dokodemo-door"
)

// EngineOptions controls the parts of the engine config that do not come
// from the link.
type EngineOptions struct {
	LogLevel        string
	InboundProtocol string
	Listen          string
	Port            int
}

// DefaultEngineOptions mirrors the stock local setup: a SOCKS inbound on
// 127.0.0.1:1080 and warning-level engine logs.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		LogLevel:        "warning",
		InboundProtocol: InboundSocks,
		Listen:          "127.0.0.1",
		Port:            1080,
	}
}

// Config is a complete engine config document.
type Config struct {
	Log       map[string]string `json:"log"`
	Inbounds  []json.RawMessage `json:"inbounds"`
	Outbounds []json.RawMessage `json:"outbounds"`
}

// BuildConfig wraps the outbound with a local inbound. Port 0 picks a free
// loopback port.
func BuildConfig(out *Outbound, opts EngineOptions) (*Config, error) {
	outbound, err := out.Document()
	if err != nil {
		return nil, err
	}

	port := opts.Port
	if port == 0 {
		ports, err := GetFreePorts(1)
		if err != nil {
			return nil, err
		}
		port = ports[0]
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("inbound port %d out of range", port)
	}

	var settings json.RawMessage
	switch opts.InboundProtocol {
	case "", InboundSocks:
		opts.InboundProtocol = InboundSocks
		settings = *toRawMessagePtr(`{"auth": "noauth", "udp": true}`)
	case InboundDokodemo:
		settings = *toRawMessagePtr(`{"network": "tcp,udp"}`)
	default:
		return nil, fmt.Errorf("unsupported inbound protocol %q", opts.InboundProtocol)
	}

	listen := opts.Listen
	if listen == "" {
		listen = "127.0.0.1"
	}
	logLevel := opts.LogLevel
	if logLevel == "" {
		logLevel = "warning"
	}

	inbound := jsonRaw(map[string]interface{}{
		"tag":      "in",
		"protocol": opts.InboundProtocol,
		"listen":   listen,
		"port":     port,
		"settings": settings,
	})

	return &Config{
		Log:       map[string]string{"loglevel": logLevel},
		Inbounds:  []json.RawMessage{inbound},
		Outbounds: []json.RawMessage{outbound},
	}, nil
}

// InboundPort reports the port the first inbound listens on.
func (c *Config) InboundPort() int {
	if len(c.Inbounds) == 0 {
		return 0
	}
	var in struct {
		Port int `json:"port"`
	}
	_ = json.Unmarshal(c.Inbounds[0], &in)
	return in.Port
}

// WriteConfig persists the config to a new temp file in dir (the system
// temp dir when empty) and returns its path.
func WriteConfig(dir string, cfg *Config) (string, error) {
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(dir, "linkguard-*.json")
	if err != nil {
		return "", fmt.Errorf("create config file: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write config file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Verify checks that the engine accepts the outbound.
func Verify(out *Outbound) error {
	cfg, err := out.ToXray()
	if err != nil {
		return err
	}
	var buildErr error
	func() {
		restore := muteLogs()
		defer restore()
		_, buildErr = cfg.Build()
	}()
	return buildErr
}

// Engine runs an in-process Xray instance from a config file written by
// WriteConfig.
type Engine struct {
	path string

	mu       sync.Mutex
	instance *core.Instance
}

func NewEngine(configPath string) *Engine {
	return &Engine{path: configPath}
}

func (e *Engine) ConfigPath() string {
	return e.path
}

// Start loads the config file and starts the instance.
func (e *Engine) Start() (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.instance != nil {
		return errors.New("engine already running")
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("CRITICAL: Xray Core Panic recovered: %v", r)
			err = fmt.Errorf("xray core panic: %v", r)
			if e.instance != nil {
				e.instance.Close()
				e.instance = nil
			}
		}
	}()

	raw, err := os.ReadFile(e.path)
	if err != nil {
		return fmt.Errorf("config file missing: %w", err)
	}

	var doc conf.Config
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode engine config: %w", err)
	}
	pbConfig, err := doc.Build()
	if err != nil {
		return fmt.Errorf("build engine config: %w", err)
	}

	instance, err := core.New(pbConfig)
	if err != nil {
		return err
	}
	if err := instance.Start(); err != nil {
		instance.Close()
		return err
	}

	e.instance = instance
	logger.Log.Debugf("Xray engine started from %s", e.path)
	return nil
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.instance != nil
}

// Stop closes the instance and removes the config file. It is safe to
// call more than once.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if e.instance != nil {
		err = e.instance.Close()
		e.instance = nil
	}
	if rmErr := os.Remove(e.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		err = errors.Join(err, rmErr)
	}
	return err
}

func GetFreePorts(count int) ([]int, error) {
	var listeners []net.Listener
	var ports []int

	for i := 0; i < count; i++ {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			for _, l := range listeners {
				l.Close()
			}
			return nil, fmt.Errorf("failed to allocate ports: %w", err)
		}
		listeners = append(listeners, l)
		ports = append(ports, l.Addr().(*net.TCPAddr).Port)
	}

	for _, l := range listeners {
		l.Close()
	}

	return ports, nil
}

func muteLogs() func() {
	origStdout := os.Stdout
	origStderr := os.Stderr

	devNull, _ := os.Open(os.DevNull)
	if devNull != nil {
		os.Stdout = devNull
		os.Stderr = devNull
	}

	return func() {
		os.Stdout = origStdout
		os.Stderr = origStderr
		if devNull != nil {
			devNull.Close()
		}
	}
}
