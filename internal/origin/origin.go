// Package origin describes where a request came from. Callers that sit behind
// proxies populate the forwarded chain so audit records and rate limit keys
// reflect the real client instead of the proxy.
package origin

import (
	"strings"
)

// Origin identifies the network source of a request.
type Origin struct {
	// PeerAddress is the address of the direct peer (the connecting socket).
	PeerAddress string
	// ForwardedFor is the forwarded address chain, ordered from the
	// original client to the nearest proxy.
	ForwardedFor []string
	// UserAgent is the client-reported user agent string, if any.
	UserAgent string
}

// ClientAddress returns the best-effort client address: the first non-empty
// entry of the forwarded chain, falling back to the peer address.
func (o Origin) ClientAddress() string {
	for _, addr := range o.ForwardedFor {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			return trimmed
		}
	}
	return o.PeerAddress
}

// ParseForwardedFor splits a comma-separated forwarded header value into a
// trimmed address chain. Empty segments are dropped.
func ParseForwardedFor(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	chain := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			chain = append(chain, trimmed)
		}
	}
	return chain
}
