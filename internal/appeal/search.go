package appeal

import (
	"context"
	"sort"

	"github.com/parcelworks/appealdesk/internal/address"
	"github.com/parcelworks/appealdesk/internal/geo"
	"github.com/parcelworks/appealdesk/internal/recordsource"
)

// Radius checkpoints the search ladder climbs through, in miles. The
// ceiling bounds how far auto-expansion will reach in sparse areas.
var radiusCheckpoints = []float64{0.75, 1.0, 1.5, 2.0}

const radiusCeilingMiles = 2.0

// FindComparables searches the roll for recently sold residential
// properties around the subject, expanding the radius through the ladder
// until a radius yields results. Discovered rows merge into the case
// without duplicating existing identifiers; reaching the ceiling with
// nothing found is an empty outcome, not a failure, so the caller can fall
// back to manual entry.
func (s *Service) FindComparables(ctx context.Context, radiusMiles float64, recencyMonths, limit int) (SearchResult, error) {
	prop := s.store.Property()
	if prop == nil {
		return SearchResult{}, newError(CodeNoActiveProperty, "resolve a subject property before searching for comparables")
	}
	if prop.Coordinates == nil {
		return SearchResult{}, newError(CodeMissingCoordinates, "subject property %s has no coordinates", prop.ParcelID)
	}

	if radiusMiles <= 0 {
		radiusMiles = defaultRadiusMiles
	}
	if radiusMiles > radiusCeilingMiles {
		radiusMiles = radiusCeilingMiles
	}
	if recencyMonths <= 0 {
		recencyMonths = defaultRecencyMonths
	}
	if limit <= 0 {
		limit = defaultResultLimit
	}
	cutoff := s.now().AddDate(0, -recencyMonths, 0)

	for _, radius := range radiusLadder(radiusMiles) {
		rows, err := s.source.Query(ctx, recordsource.Query{
			Filter: recordsource.Filter{
				RollYear: s.rollYear,
				UseCodes: residentialUseCodes,
				Within: &recordsource.Circle{
					Lat:         prop.Coordinates.Lat,
					Lon:         prop.Coordinates.Lon,
					RadiusMiles: radius,
				},
				SoldAfter:     &cutoff,
				ExcludeParcel: prop.ParcelID,
			},
			Order: &recordsource.Order{Field: recordsource.FieldSaleDate, Desc: true},
			Limit: limit,
		})
		if err != nil {
			return SearchResult{}, newError(CodeSourceUnavailable, "comparable search failed: %v", err)
		}
		if len(rows) == 0 {
			continue
		}

		found := make([]Comparable, 0, len(rows))
		for _, row := range rows {
			if c, ok := comparableFromRow(row, *prop.Coordinates); ok {
				found = append(found, c)
			}
		}
		added, view := s.store.Merge(found)
		return SearchResult{Added: added, RadiusMiles: radius, View: view}, nil
	}

	return SearchResult{RadiusMiles: radiusCeilingMiles, View: s.store.View()}, nil
}

// radiusLadder returns the requested radius plus every checkpoint at or
// above it, deduplicated and ascending.
func radiusLadder(requested float64) []float64 {
	ladder := []float64{requested}
	for _, checkpoint := range radiusCheckpoints {
		if checkpoint > requested {
			ladder = append(ladder, checkpoint)
		}
	}
	sort.Float64s(ladder)
	return ladder
}

// comparableFromRow transforms one sale row. Rows without a usable price
// are discarded; the distance is computed against the subject coordinates
// active right now and frozen on the record.
func comparableFromRow(row recordsource.Row, subject Coordinates) (Comparable, bool) {
	price := assessedTotal(row)
	if price <= 0 {
		return Comparable{}, false
	}
	saleDate, ok := parseSaleDate(row.SaleDate)
	if !ok {
		return Comparable{}, false
	}

	c := Comparable{
		ID:        "cmp-" + row.ParcelID,
		Address:   address.Canonical(row.Address),
		SaleDate:  saleDate,
		SalePrice: price,
		Area:      parseNumeric(row.Area),
		Bedrooms:  parseNumeric(row.Bedrooms),
		Bathrooms: parseNumeric(row.Bathrooms),
		Included:  true,
		Notes:     row.ClassText,
	}
	if lat, lon, ok := parseCoordinates(row.Latitude, row.Longitude); ok {
		c.DistanceMiles = geo.RoundMiles(geo.DistanceMiles(subject.Lat, subject.Lon, lat, lon))
	}
	return c, true
}
