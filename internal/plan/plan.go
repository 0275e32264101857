// Package plan defines the subscription plan catalogue. Capacity limits are
// resolved here once at onboarding time and frozen onto the organization, so
// later catalogue changes never resize an existing tenant.
package plan

import "strings"

type Plan string

const (
	Free       Plan = "FREE"
	Tier1      Plan = "TIER1"
	Tier2      Plan = "TIER2"
	Tier3      Plan = "TIER3"
	Enterprise Plan = "ENTERPRISE"
)

type Interval string

const (
	Monthly Interval = "MONTHLY"
	Yearly  Interval = "YEARLY"
)

// Capacity holds the limits a plan grants at signup time.
type Capacity struct {
	MaxFacilities int
	TotalSeats    int
}

var catalogue = map[Plan]Capacity{
	Free:       {MaxFacilities: 1, TotalSeats: 10},
	Tier1:      {MaxFacilities: 3, TotalSeats: 50},
	Tier2:      {MaxFacilities: 10, TotalSeats: 200},
	Tier3:      {MaxFacilities: 25, TotalSeats: 500},
	Enterprise: {MaxFacilities: 100, TotalSeats: 5000},
}

func Parse(raw string) (Plan, bool) {
	p := Plan(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := catalogue[p]
	return p, ok
}

func ParseInterval(raw string) (Interval, bool) {
	switch Interval(strings.ToUpper(strings.TrimSpace(raw))) {
	case Monthly:
		return Monthly, true
	case Yearly:
		return Yearly, true
	default:
		return "", false
	}
}

// CapacityFor returns the catalogue limits for a plan. The second return is
// false for unknown plans.
func CapacityFor(p Plan) (Capacity, bool) {
	c, ok := catalogue[p]
	return c, ok
}

func (p Plan) IsPaid() bool {
	return p != Free
}
