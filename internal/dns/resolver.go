// Package dns resolves link addresses, preferring DNS-over-HTTPS (RFC 8484)
// and falling back to the system resolver.
package dns

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"linkguard/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/miekg/dns"
	gocache "github.com/patrickmn/go-cache"
)

const (
	ModeDoH    = "doh"
	ModeSystem = "system"
	ModeNone   = "none"

	mimeDNSMessage = "application/dns-message"
	maxResponse    = 64 * 1024
)

// LookupFunc resolves a host to addresses, like net.Resolver.LookupHost.
type LookupFunc func(ctx context.Context, host string) ([]string, error)

type Options struct {
	Mode          string
	URL           string
	Timeout       time.Duration
	Retries       int
	RetryInterval time.Duration
	CacheTTL      time.Duration

	// Optional overrides.
	HTTPClient *http.Client
	System     LookupFunc
}

type Resolver struct {
	opts   Options
	client *http.Client
	system LookupFunc
	cache  *gocache.Cache
}

func New(opts Options) (*Resolver, error) {
	switch opts.Mode {
	case "":
		opts.Mode = ModeDoH
	case ModeDoH, ModeSystem, ModeNone:
	default:
		return nil, fmt.Errorf("unsupported dns mode: %s", opts.Mode)
	}
	if opts.Mode == ModeDoH && opts.URL == "" {
		return nil, errors.New("doh mode requires a server url")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 200 * time.Millisecond
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	r := &Resolver{
		opts:   opts,
		client: opts.HTTPClient,
		system: opts.System,
		cache:  gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: opts.Timeout}
	}
	if r.system == nil {
		r.system = net.DefaultResolver.LookupHost
	}
	return r, nil
}

func (r *Resolver) Mode() string {
	return r.opts.Mode
}

// Resolve returns the addresses for host. IP literals and mode "none"
// return host unchanged.
func (r *Resolver) Resolve(ctx context.Context, host string) ([]string, error) {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return nil, errors.New("empty host")
	}
	if net.ParseIP(host) != nil || r.opts.Mode == ModeNone {
		return []string{host}, nil
	}

	if cached, ok := r.cache.Get(host); ok {
		return cached.([]string), nil
	}

	if r.opts.Mode == ModeSystem {
		return r.lookupSystem(ctx, host)
	}

	addrs, ttl, err := r.lookupDoH(ctx, host)
	if err != nil {
		logger.Log.Warnf("DoH failed for %s: %v, falling back to system DNS", host, err)
		return r.lookupSystem(ctx, host)
	}
	r.cache.Set(host, addrs, ttl)
	return addrs, nil
}

func (r *Resolver) lookupSystem(ctx context.Context, host string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	addrs, err := r.system(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("system lookup %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("system lookup %s: no addresses", host)
	}
	r.cache.SetDefault(host, addrs)
	return addrs, nil
}

// lookupDoH asks for A and AAAA records. The cache TTL is the smallest
// answer TTL, capped by the configured TTL.
func (r *Resolver) lookupDoH(ctx context.Context, host string) ([]string, time.Duration, error) {
	var addrs []string
	ttl := r.opts.CacheTTL

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		reply, err := r.exchangeWithRetry(ctx, host, qtype)
		if err != nil {
			return nil, 0, err
		}
		for _, rr := range reply.Answer {
			switch rec := rr.(type) {
			case *dns.A:
				addrs = append(addrs, rec.A.String())
			case *dns.AAAA:
				addrs = append(addrs, rec.AAAA.String())
			default:
				continue
			}
			if d := time.Duration(rr.Header().Ttl) * time.Second; d > 0 && d < ttl {
				ttl = d
			}
		}
	}

	if len(addrs) == 0 {
		return nil, 0, fmt.Errorf("no A/AAAA answers for %s", host)
	}
	return addrs, ttl, nil
}

func (r *Resolver) exchangeWithRetry(ctx context.Context, host string, qtype uint16) (*dns.Msg, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.opts.RetryInterval
	b.MaxElapsedTime = 0

	var reply *dns.Msg
	op := func() error {
		var err error
		reply, err = r.exchange(ctx, host, qtype)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(r.opts.Retries, 0))), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return reply, nil
}

// exchange performs one RFC 8484 POST round trip.
func (r *Resolver) exchange(ctx context.Context, host string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)
	m.Id = 0

	packed, err := m.Pack()
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("pack query: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.URL, bytes.NewReader(packed))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", mimeDNSMessage)
	req.Header.Set("Accept", mimeDNSMessage)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("doh server status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("doh server status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, err
	}
	reply := new(dns.Msg)
	if err := reply.Unpack(body); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("unpack reply: %w", err))
	}
	if reply.Rcode != dns.RcodeSuccess {
		return nil, backoff.Permanent(fmt.Errorf("%s: %s", host, dns.RcodeToString[reply.Rcode]))
	}
	return reply, nil
}
