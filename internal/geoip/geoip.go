package geoip

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// DB wraps the optional MaxMind ASN and Country readers.
type DB struct {
	asn     *geoip2.Reader
	country *geoip2.Reader
}

type GeoResult struct {
	ISP     string
	Country string
}

// Open loads whichever MMDB paths are non-empty. At least one is required.
func Open(asnPath, countryPath string) (*DB, error) {
	if asnPath == "" && countryPath == "" {
		return nil, errors.New("no geoip database configured")
	}

	db := &DB{}
	if asnPath != "" {
		r, err := geoip2.Open(asnPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open ASN DB at %s: %w", asnPath, err)
		}
		db.asn = r
	}
	if countryPath != "" {
		r, err := geoip2.Open(countryPath)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to open Country DB at %s: %w", countryPath, err)
		}
		db.country = r
	}
	return db, nil
}

// Lookup returns "Unknown"/"XX" for fields the loaded databases cannot answer.
func (db *DB) Lookup(ipStr string) (*GeoResult, error) {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return nil, fmt.Errorf("invalid ip: %s", ipStr)
	}

	res := &GeoResult{ISP: "Unknown", Country: "XX"}

	if db.asn != nil {
		if asn, err := db.asn.ASN(ip); err == nil && asn.AutonomousSystemOrganization != "" {
			res.ISP = asn.AutonomousSystemOrganization
		}
	}
	if db.country != nil {
		if c, err := db.country.Country(ip); err == nil && c.Country.IsoCode != "" {
			res.Country = c.Country.IsoCode
		}
	}
	return res, nil
}

func (db *DB) Close() {
	if db.asn != nil {
		db.asn.Close()
	}
	if db.country != nil {
		db.country.Close()
	}
}
