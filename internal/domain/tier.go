package domain

import "strings"

// Tier and branch identifiers seeded by the initial migration.
const (
	TierBasic   = 1
	TierPremium = 2
	TierVIP     = 3

	BranchDowntown = 1
	BranchWestside = 2
	BranchAirport  = 3
	BranchBellevue = 4
)

var tierIDs = map[string]int{
	"basic":   TierBasic,
	"premium": TierPremium,
	"vip":     TierVIP,
}

var branchIDs = map[string]int{
	"downtown": BranchDowntown,
	"westside": BranchWestside,
	"airport":  BranchAirport,
	"bellevue": BranchBellevue,
}

// TierID maps a tier name to its identifier.
// Unknown or empty names map to the Basic tier.
func TierID(name string) int {
	if id, ok := tierIDs[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id
	}
	return TierBasic
}

// BranchID maps a branch name to its identifier.
// Unknown or empty names map to the Downtown branch.
func BranchID(name string) int {
	if id, ok := branchIDs[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id
	}
	return BranchDowntown
}
