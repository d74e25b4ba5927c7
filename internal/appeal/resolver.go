package appeal

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/parcelworks/appealdesk/internal/address"
	"github.com/parcelworks/appealdesk/internal/recordsource"
)

// Block/lot identifiers look like "0595/021", "0595-021", or "0595 021",
// optionally with a letter suffix on either part.
var blockLotRe = regexp.MustCompile(`^(\d{3,5}[A-Z]?)[\s/-](\d{1,4}[A-Z]?)$`)

// ResolveProperty resolves the appeal subject from a free-text address
// fragment or a block/lot identifier. Exactly one roll match replaces the
// active subject; several matches return a disambiguation list without
// mutating the case; zero matches report NotFound so the caller can
// reformat the query.
func (s *Service) ResolveProperty(ctx context.Context, query string, referenceValue float64) (Resolution, error) {
	query = strings.TrimSpace(strings.ToUpper(query))
	if query == "" {
		return Resolution{}, newError(CodeUnparseableQuery, "empty lookup query")
	}

	filter := recordsource.Filter{
		RollYear: s.rollYear,
		UseCodes: residentialUseCodes,
	}
	if m := blockLotRe.FindStringSubmatch(query); m != nil {
		filter.Block = m[1]
		filter.Lot = m[2]
	} else {
		tokens := address.QueryTokens(query)
		if len(tokens) == 0 {
			return Resolution{}, newError(CodeUnparseableQuery, "query %q has no usable search terms", query)
		}
		filter.AddressContains = tokens
	}

	rows, err := s.source.Query(ctx, recordsource.Query{
		Filter: filter,
		Order:  &recordsource.Order{Field: recordsource.FieldAddress},
		Limit:  resolveRowLimit,
	})
	if err != nil {
		return Resolution{}, newError(CodeSourceUnavailable, "record feed lookup failed: %v", err)
	}

	switch len(rows) {
	case 0:
		return Resolution{}, newError(CodeNotFound, "no roll records matched %q; try reformatting the address", query)
	case 1:
		prop := propertyFromRow(rows[0])
		if referenceValue > 0 {
			prop.ReferenceValue = referenceValue
		}
		s.store.SetProperty(prop)
		return Resolution{Property: &prop}, nil
	default:
		candidates := make([]Candidate, 0, len(rows))
		for _, r := range rows {
			candidates = append(candidates, Candidate{
				Address:       address.Canonical(r.Address),
				ParcelID:      r.ParcelID,
				PropertyType:  propertyTypeFromClass(r.ClassText),
				AssessedValue: assessedTotal(r),
			})
		}
		return Resolution{Candidates: candidates}, nil
	}
}

// propertyFromRow builds the subject from a single roll record. The
// reference value starts as the assessed value; an owner estimate replaces
// it only when explicitly supplied.
func propertyFromRow(r recordsource.Row) Property {
	p := Property{
		Address:        address.Canonical(r.Address),
		ParcelID:       r.ParcelID,
		PropertyType:   propertyTypeFromClass(r.ClassText),
		AssessedValue:  assessedTotal(r),
		Area:           parseNumeric(r.Area),
		Bedrooms:       parseNumeric(r.Bedrooms),
		Bathrooms:      parseNumeric(r.Bathrooms),
	}
	p.ReferenceValue = p.AssessedValue
	if lat, lon, ok := parseCoordinates(r.Latitude, r.Longitude); ok {
		p.Coordinates = &Coordinates{Lat: lat, Lon: lon}
	}
	return p
}

// propertyTypeFromClass maps roll land-use/class text onto the fixed
// residential categories. Planned-unit and generic dwelling classes fall
// through to single-family.
func propertyTypeFromClass(classText string) PropertyType {
	t := strings.ToUpper(classText)
	switch {
	case strings.Contains(t, "CONDO") && strings.Contains(t, "LIVE") && strings.Contains(t, "WORK"):
		return TypeLiveWork
	case strings.Contains(t, "CONDO"):
		return TypeCondo
	case strings.Contains(t, "TOWN HOUSE") || strings.Contains(t, "TOWNHOUSE"):
		return TypeTownhouse
	case strings.Contains(t, "CO-OP") || strings.Contains(t, "COOP") || strings.Contains(t, "COOPERATIVE"):
		return TypeCoop
	default:
		return TypeSingleFamily
	}
}

// assessedTotal sums the two assessed-value components the feed reports.
func assessedTotal(r recordsource.Row) float64 {
	return parseNumeric(r.LandValue) + parseNumeric(r.ImprovementValue)
}

func parseNumeric(raw string) float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(raw, "$"), ",", ""))
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseCoordinates(latRaw, lonRaw string) (lat, lon float64, ok bool) {
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if errLat != nil || errLon != nil || (lat == 0 && lon == 0) {
		return 0, 0, false
	}
	return lat, lon, true
}

// Sale dates arrive either as bare dates or SODA floating timestamps.
var saleDateLayouts = []string{"2006-01-02", "2006-01-02T15:04:05", time.RFC3339}

func parseSaleDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range saleDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
