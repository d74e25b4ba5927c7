// Package appeal implements the comparable-evidence pipeline for a property
// tax value appeal: subject resolution, comparable-sales search, case-strength
// scoring, case state, and narrative/packet synthesis.
package appeal

import "time"

type PropertyType string

const (
	TypeSingleFamily PropertyType = "single_family"
	TypeCondo        PropertyType = "condo"
	TypeTownhouse    PropertyType = "townhouse"
	TypeLiveWork     PropertyType = "live_work"
	TypeCoop         PropertyType = "co_op"
)

type Tone string

const (
	ToneFormal  Tone = "formal"
	ToneNeutral Tone = "neutral"
	ToneConcise Tone = "concise"
)

type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Property is the subject of the appeal. At most one is active per case; it
// is replaced wholesale on re-resolution.
type Property struct {
	Address        string       `json:"address"`
	ParcelID       string       `json:"parcel_id"`
	PropertyType   PropertyType `json:"property_type"`
	AssessedValue  float64      `json:"assessed_value"`
	ReferenceValue float64      `json:"reference_value"`
	Area           float64      `json:"area,omitempty"`
	Bedrooms       float64      `json:"bedrooms,omitempty"`
	Bathrooms      float64      `json:"bathrooms,omitempty"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	Zone           string       `json:"zone,omitempty"`
}

// Comparable is one candidate supporting sale. Distance is frozen at the
// value computed against the subject active at insertion time.
type Comparable struct {
	ID            string    `json:"id"`
	Address       string    `json:"address"`
	SaleDate      time.Time `json:"sale_date"`
	SalePrice     float64   `json:"sale_price"`
	Area          float64   `json:"area,omitempty"`
	Bedrooms      float64   `json:"bedrooms,omitempty"`
	Bathrooms     float64   `json:"bathrooms,omitempty"`
	DistanceMiles float64   `json:"distance_miles"`
	Included      bool      `json:"included"`
	Notes         string    `json:"notes,omitempty"`
}

// ComparablePatch is a partial update; nil fields keep the stored value.
// DistanceMiles is patchable so manually entered rows can be corrected;
// discovered rows keep their frozen value unless explicitly overridden.
type ComparablePatch struct {
	Address       *string    `json:"address,omitempty"`
	SaleDate      *time.Time `json:"sale_date,omitempty"`
	SalePrice     *float64   `json:"sale_price,omitempty"`
	Area          *float64   `json:"area,omitempty"`
	Bedrooms      *float64   `json:"bedrooms,omitempty"`
	Bathrooms     *float64   `json:"bathrooms,omitempty"`
	DistanceMiles *float64   `json:"distance_miles,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

// Argument is the drafted narrative. DeclaredValue is recomputed only by an
// explicit draft operation, never silently by comparable mutation.
type Argument struct {
	Narrative     string  `json:"narrative"`
	DeclaredValue float64 `json:"declared_value"`
	Tone          Tone    `json:"tone"`
}

// Candidate is one row of a disambiguation list returned when a lookup
// matches several roll records.
type Candidate struct {
	Address       string       `json:"address"`
	ParcelID      string       `json:"parcel_id"`
	PropertyType  PropertyType `json:"property_type"`
	AssessedValue float64      `json:"assessed_value"`
}

// CaseView is the full projection every operation returns so the boundary
// layer never recomputes aggregates. Mean price and strength are derived
// from current comparable state on every read.
type CaseView struct {
	Property          *Property    `json:"property,omitempty"`
	Comparables       []Comparable `json:"comparables"`
	Argument          *Argument    `json:"argument,omitempty"`
	IncludedCount     int          `json:"included_count"`
	MeanIncludedPrice float64      `json:"mean_included_price"`
	Strength          Strength     `json:"strength,omitempty"`
}

// Resolution is the outcome of a subject lookup: exactly one of Property
// (single match, case mutated) or Candidates (ambiguous, case untouched).
type Resolution struct {
	Property   *Property   `json:"property,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// SearchResult reports a comparable search: the rows newly merged into the
// case, the radius that produced them, and the refreshed projection.
type SearchResult struct {
	Added       []Comparable `json:"added"`
	RadiusMiles float64      `json:"radius_miles"`
	View        CaseView     `json:"case"`
}
