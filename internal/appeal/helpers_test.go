package appeal

import (
	"context"
	"time"

	"github.com/parcelworks/appealdesk/internal/recordsource"
)

// fakeSource records queries and answers from a canned responder.
type fakeSource struct {
	queries []recordsource.Query
	respond func(q recordsource.Query) ([]recordsource.Row, error)
}

func (f *fakeSource) Query(_ context.Context, q recordsource.Query) ([]recordsource.Row, error) {
	f.queries = append(f.queries, q)
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(q)
}

// testClock pins "today" to August 1, 2025: inside the default filing
// window, with a 12-month recency cutoff of August 1, 2024.
func testClock() time.Time {
	return time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC)
}

func newTestService(src recordsource.Source) *Service {
	return NewService(Config{
		Source:   src,
		RollYear: "2025",
		Clock:    testClock,
	})
}

func subjectProperty() Property {
	return Property{
		Address:        "990 GREEN ST",
		ParcelID:       "0100-001",
		PropertyType:   TypeCondo,
		AssessedValue:  1200000,
		ReferenceValue: 1200000,
		Coordinates:    &Coordinates{Lat: 37.7980, Lon: -122.4180},
	}
}

func saleRow(parcel, addr, saleDate, land, imprv, lat, lon string) recordsource.Row {
	return recordsource.Row{
		ParcelID:         parcel,
		Address:          addr,
		UseCode:          "SRES",
		ClassText:        "Condominium",
		LandValue:        land,
		ImprovementValue: imprv,
		SaleDate:         saleDate,
		Latitude:         lat,
		Longitude:        lon,
		RollYear:         "2025",
	}
}
