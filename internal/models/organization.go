package models

import "github.com/shopspring/decimal"

// Organization is one node in the five-level merchant hierarchy.
type Organization struct {
	// ID is the unique identifier for the organization (UUID format).
	ID string

	// Code is the short path segment used in entity paths.
	Code string

	// Name is the display name.
	Name string

	// OrgType is the hierarchy level of this organization.
	OrgType EntityType

	// Path is the dot-delimited chain of codes from the root down to this
	// organization.
	Path string

	// Status gates settlement: only ACTIVE organizations may appear in an
	// ancestor chain.
	Status EntityStatus

	// CreatedAt is the Unix timestamp when the organization was created.
	CreatedAt int64
}

// FeeConfig is the fee/margin rate applied at one hierarchy level for one
// payment method.
type FeeConfig struct {
	// ID is the unique identifier for the configuration (UUID format).
	ID string

	// EntityID and EntityType select the organization the rate applies to.
	EntityID   string
	EntityType EntityType

	// PaymentMethod is the gateway payment method code the rate covers.
	PaymentMethod string

	// FeeRate is the fraction of the remaining base deducted at this
	// level (e.g. 0.02 for 2%).
	FeeRate decimal.Decimal

	// MarginRate is the informational margin over the next level's rate.
	MarginRate decimal.Decimal

	// Status gates resolution: only ACTIVE configurations resolve.
	Status EntityStatus

	// CreatedAt is the Unix timestamp when the configuration was created.
	CreatedAt int64
}

// ChainLink pairs one organization on a merchant's ancestor path with the
// fee configuration resolved for it. The settlement allocator consumes an
// ordered slice of links.
type ChainLink struct {
	Entity    *Organization
	FeeConfig *FeeConfig
}
