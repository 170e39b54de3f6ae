// Package types provides type definitions for structured data used throughout the internship matcher.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// Sector is the industry sector an opportunity belongs to.
type Sector string

// Sector values accepted for opportunities and sector preferences.
const (
	SectorTechnology    Sector = "technology"
	SectorHealthcare    Sector = "healthcare"
	SectorEducation     Sector = "education"
	SectorAgriculture   Sector = "agriculture"
	SectorManufacturing Sector = "manufacturing"
	SectorRetail        Sector = "retail"
	SectorFinance       Sector = "finance"
	SectorGovernment    Sector = "government"
	SectorOther         Sector = "other"
)

// Sectors lists every known sector in display order.
var Sectors = []Sector{
	SectorTechnology,
	SectorHealthcare,
	SectorEducation,
	SectorAgriculture,
	SectorManufacturing,
	SectorRetail,
	SectorFinance,
	SectorGovernment,
	SectorOther,
}

// Valid reports whether s is one of the known sectors.
func (s Sector) Valid() bool {
	for _, known := range Sectors {
		if s == known {
			return true
		}
	}
	return false
}

// EngagementType is the working arrangement of an opportunity.
type EngagementType string

// EngagementType values.
const (
	EngagementFullTime EngagementType = "full_time"
	EngagementPartTime EngagementType = "part_time"
	EngagementRemote   EngagementType = "remote"
	EngagementHybrid   EngagementType = "hybrid"
)

// EngagementTypes lists every known engagement type.
var EngagementTypes = []EngagementType{
	EngagementFullTime,
	EngagementPartTime,
	EngagementRemote,
	EngagementHybrid,
}

// Valid reports whether e is one of the known engagement types.
func (e EngagementType) Valid() bool {
	for _, known := range EngagementTypes {
		if e == known {
			return true
		}
	}
	return false
}

// SectorNames returns the sector values as plain strings, joined by sep.
func SectorNames(sep string) string {
	names := make([]string, len(Sectors))
	for i, s := range Sectors {
		names[i] = string(s)
	}
	return strings.Join(names, sep)
}
