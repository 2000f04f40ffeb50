package models

import "strings"

// Tier is a bitmask of persistence tiers.
type Tier uint8

const (
	// TierCache is the app-local SQLite cache.
	TierCache Tier = 1 << iota
	// TierFile is the local bill file.
	TierFile
	// TierRemote is the backup server.
	TierRemote
)

// AllTiers names every persistence tier.
const AllTiers = TierCache | TierFile | TierRemote

// Has reports whether every tier in x is set in t.
func (t Tier) Has(x Tier) bool {
	return t&x == x
}

// Missing returns the tiers of want that t lacks.
func (t Tier) Missing(want Tier) Tier {
	return want &^ t
}

func (t Tier) String() string {
	if t == 0 {
		return "none"
	}
	var parts []string
	if t&TierCache != 0 {
		parts = append(parts, "cache")
	}
	if t&TierFile != 0 {
		parts = append(parts, "file")
	}
	if t&TierRemote != 0 {
		parts = append(parts, "remote")
	}
	return strings.Join(parts, "+")
}
