package parser

import (
	"errors"
	"fmt"
)

// Rejection kinds. Every error returned by Parse wraps exactly one of these.
var (
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrLinkTooLong         = errors.New("link too long")
	ErrMalformedLink       = errors.New("malformed link")
	ErrDecode              = errors.New("decode error")
	ErrPayloadTooLarge     = errors.New("payload too large")
	ErrMalformedPayload    = errors.New("malformed payload")
	ErrMissingField        = errors.New("missing field")
	ErrUnsupportedVersion  = errors.New("unsupported version")
	ErrInvalidIdentifier   = errors.New("invalid identifier")
	ErrInvalidPort         = errors.New("invalid port")
	ErrInvalidLength       = errors.New("invalid length")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrInvalidPublicKey    = errors.New("invalid public key")
	ErrInvalidShortID      = errors.New("invalid short id")
)

var kinds = []error{
	ErrUnsupportedProtocol,
	ErrLinkTooLong,
	ErrMalformedLink,
	ErrDecode,
	ErrPayloadTooLarge,
	ErrMalformedPayload,
	ErrMissingField,
	ErrUnsupportedVersion,
	ErrInvalidIdentifier,
	ErrInvalidPort,
	ErrInvalidLength,
	ErrInvalidParameter,
	ErrInvalidPublicKey,
	ErrInvalidShortID,
}

// Error is a classified rejection of a share link.
type Error struct {
	Protocol Protocol // empty when the scheme was not recognized
	Field    string   // offending field, if any
	Kind     error    // one of the Err* sentinels
	Detail   string
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Protocol != "" {
		msg = string(e.Protocol) + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

// KindOf returns the rejection sentinel carried by err, or nil when err
// did not come from this package.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

func reject(proto Protocol, field string, kind error, format string, args ...any) *Error {
	e := &Error{Protocol: proto, Field: field, Kind: kind}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	return e
}
