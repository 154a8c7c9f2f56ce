// Package geo maps client IP addresses to country codes for session
// provenance. The engine only needs a best-effort answer; a resolver that
// cannot place an address returns UnknownCountry rather than an error.
package geo

import "context"

// UnknownCountry is recorded when no resolver is configured or the address
// cannot be placed.
const UnknownCountry = "ZZ"

// Resolver turns an IP address into an ISO 3166-1 alpha-2 country code.
type Resolver interface {
	Country(ctx context.Context, ip string) string
}

// NoopResolver always answers UnknownCountry.
type NoopResolver struct{}

// Country implements Resolver.
func (NoopResolver) Country(context.Context, string) string { return UnknownCountry }

// StaticResolver answers from a fixed table, handy for tests and for
// deployments that front the engine with a geo-aware proxy.
type StaticResolver struct {
	byIP map[string]string
}

// NewStaticResolver copies the given ip-to-country table.
func NewStaticResolver(byIP map[string]string) *StaticResolver {
	m := make(map[string]string, len(byIP))
	for k, v := range byIP {
		m[k] = v
	}
	return &StaticResolver{byIP: m}
}

// Country implements Resolver.
func (r *StaticResolver) Country(_ context.Context, ip string) string {
	if c, ok := r.byIP[ip]; ok {
		return c
	}
	return UnknownCountry
}
