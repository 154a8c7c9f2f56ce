package geo

import (
	"context"
	"testing"
)

func TestNoopResolver(t *testing.T) {
	if got := (NoopResolver{}).Country(context.Background(), "203.0.113.5"); got != UnknownCountry {
		t.Fatalf("Country = %q, want %q", got, UnknownCountry)
	}
}

func TestStaticResolver(t *testing.T) {
	table := map[string]string{"203.0.113.5": "DE"}
	r := NewStaticResolver(table)

	// Mutating the source table after construction must not leak through.
	table["203.0.113.5"] = "FR"

	if got := r.Country(context.Background(), "203.0.113.5"); got != "DE" {
		t.Fatalf("Country = %q, want DE", got)
	}
	if got := r.Country(context.Background(), "198.51.100.9"); got != UnknownCountry {
		t.Fatalf("Country = %q, want %q", got, UnknownCountry)
	}
}
