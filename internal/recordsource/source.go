// Package recordsource abstracts the government assessment-roll feed behind a
// narrow query interface so matching and normalization logic can be tested
// against fixture rows without a live data connection.
package recordsource

import (
	"context"
	"time"
)

// Row is one raw roll record. Numeric fields stay text exactly as the feed
// delivers them; callers parse what they need.
type Row struct {
	ParcelID         string `json:"parcel_number" db:"parcel_id"`
	Block            string `json:"block" db:"block"`
	Lot              string `json:"lot" db:"lot"`
	Address          string `json:"property_location" db:"address"`
	UseCode          string `json:"use_code" db:"use_code"`
	ClassText        string `json:"use_definition" db:"class_text"`
	Bedrooms         string `json:"number_of_bedrooms" db:"bedrooms"`
	Bathrooms        string `json:"number_of_bathrooms" db:"bathrooms"`
	Area             string `json:"property_area" db:"area"`
	LandValue        string `json:"assessed_land_value" db:"land_value"`
	ImprovementValue string `json:"assessed_improvement_value" db:"improvement_value"`
	SaleDate         string `json:"sale_date" db:"sale_date"`
	Latitude         string `json:"latitude" db:"latitude"`
	Longitude        string `json:"longitude" db:"longitude"`
	RollYear         string `json:"closed_roll_year" db:"roll_year"`
}

// Circle is a geo-radius predicate centered on a coordinate pair.
type Circle struct {
	Lat         float64
	Lon         float64
	RadiusMiles float64
}

// Filter is the structured predicate a query runs with. Zero-valued fields
// are not applied. AddressContains terms must all appear as substrings of the
// raw address field.
type Filter struct {
	RollYear        string
	UseCodes        []string
	AddressContains []string
	Block           string
	Lot             string
	Within          *Circle
	SoldAfter       *time.Time
	ExcludeParcel   string
}

// Order sorts results by a Row field.
type Order struct {
	Field string
	Desc  bool
}

// Sortable field names accepted by Order.
const (
	FieldSaleDate = "sale_date"
	FieldAddress  = "address"
)

// Query bundles a filter with ordering and a row cap.
type Query struct {
	Filter Filter
	Order  *Order
	Limit  int
}

// Source executes roll queries. Implementations surface transport failures
// verbatim; callers decide retry policy.
type Source interface {
	Query(ctx context.Context, q Query) ([]Row, error)
}

// MilesToMeters converts the domain's statute miles to the meters geo
// predicates are expressed in remotely.
func MilesToMeters(miles float64) float64 {
	return miles * 1609.344
}
