package main

import (
	"context"
	"net"

	"linkguard/internal/config"
	"linkguard/internal/dns"
	"linkguard/internal/geoip"
	"linkguard/internal/logger"
	"linkguard/internal/model"
)

// enricher resolves link addresses and tags them with geo data.
type enricher struct {
	resolver *dns.Resolver
	geo      *geoip.DB
}

func newEnricher(cfg *config.Config) *enricher {
	r, err := dns.New(dns.Options{
		Mode:     cfg.DNS.Mode,
		URL:      cfg.DNS.DoHURL,
		Timeout:  cfg.DNS.Timeout,
		Retries:  cfg.DNS.Retries,
		CacheTTL: cfg.DNS.CacheTTL,
	})
	if err != nil {
		logger.Log.Fatalf("Error creating resolver: %v", err)
	}

	e := &enricher{resolver: r}
	if cfg.GeoIP.ASNPath != "" || cfg.GeoIP.CountryPath != "" {
		geo, err := geoip.Open(cfg.GeoIP.ASNPath, cfg.GeoIP.CountryPath)
		if err != nil {
			logger.Log.Warnf("GeoIP disabled: %v", err)
		} else {
			e.geo = geo
		}
	}
	return e
}

func (e *enricher) resolve(ctx context.Context, host string) []string {
	addrs, err := e.resolver.Resolve(ctx, host)
	if err != nil {
		logger.Log.Debugf("Resolve %s failed: %v", host, err)
		return nil
	}
	return addrs
}

// enrich fills the entry metadata of link in place.
func (e *enricher) enrich(ctx context.Context, link *model.Link) {
	for _, addr := range e.resolve(ctx, link.Address) {
		if net.ParseIP(addr) != nil {
			link.EntryIP = addr
			break
		}
	}
	if link.EntryIP == "" {
		return
	}

	if e.geo == nil {
		return
	}
	if geo, err := e.geo.Lookup(link.EntryIP); err == nil {
		link.EntryISP = geo.ISP
		link.EntryCountry = geo.Country
	}
}

func (e *enricher) Close() {
	if e.geo != nil {
		e.geo.Close()
	}
}
