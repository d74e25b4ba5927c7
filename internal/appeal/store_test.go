package appeal

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func comparableFixture(id string, price float64) Comparable {
	return Comparable{
		ID:        id,
		Address:   "1625 PACIFIC AV #7",
		SaleDate:  time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		SalePrice: price,
		Included:  true,
	}
}

func TestAddComparableValidation(t *testing.T) {
	store := NewStore()

	missing := []Comparable{
		{SaleDate: time.Now(), SalePrice: 900000},           // no address
		{Address: "X ST", SalePrice: 900000},                // no sale date
		{Address: "X ST", SaleDate: time.Now()},             // no price
		{Address: "X ST", SaleDate: time.Now(), SalePrice: -1}, // negative price
	}
	for _, c := range missing {
		if _, err := store.AddComparable(c); err == nil {
			t.Fatalf("expected InvalidComparable for %+v", c)
		} else {
			var ae *Error
			if !errors.As(err, &ae) || ae.Code != CodeInvalidComparable {
				t.Fatalf("wrong error: %v", err)
			}
		}
	}
	if view := store.View(); len(view.Comparables) != 0 {
		t.Fatal("failed adds must not mutate the list")
	}
}

func TestAddComparableGeneratesID(t *testing.T) {
	store := NewStore()
	view, err := store.AddComparable(Comparable{Address: "X ST", SaleDate: time.Now(), SalePrice: 900000, Included: true})
	if err != nil {
		t.Fatal(err)
	}
	if view.Comparables[0].ID != "manual-1" {
		t.Fatalf("got id %q", view.Comparables[0].ID)
	}
}

func TestAddComparableDuplicateID(t *testing.T) {
	store := NewStore()
	if _, err := store.AddComparable(comparableFixture("c1", 900000)); err != nil {
		t.Fatal(err)
	}
	_, err := store.AddComparable(comparableFixture("c1", 950000))
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeInvalidComparable {
		t.Fatalf("expected InvalidComparable for duplicate id, got %v", err)
	}
}

func TestToggleSelfInverse(t *testing.T) {
	store := NewStore()
	store.SetProperty(subjectProperty())
	store.AddComparable(comparableFixture("c1", 900000))
	store.AddComparable(comparableFixture("c2", 1000000))

	before := store.View()

	mid, err := store.ToggleComparable("c2")
	if err != nil {
		t.Fatal(err)
	}
	if mid.MeanIncludedPrice != 900000 {
		t.Fatalf("mean after exclude = %f", mid.MeanIncludedPrice)
	}

	after, err := store.ToggleComparable("c2")
	if err != nil {
		t.Fatal(err)
	}
	if after.MeanIncludedPrice != before.MeanIncludedPrice {
		t.Fatalf("mean not restored: %f vs %f", after.MeanIncludedPrice, before.MeanIncludedPrice)
	}
	if !after.Comparables[1].Included {
		t.Fatal("included flag not restored")
	}
}

func TestRemoveUnknownLeavesListUnchanged(t *testing.T) {
	store := NewStore()
	store.AddComparable(comparableFixture("c1", 900000))
	snapshot := store.View().Comparables

	_, err := store.RemoveComparable("nope")
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if !reflect.DeepEqual(store.View().Comparables, snapshot) {
		t.Fatal("comparable list changed on failed remove")
	}
}

func TestUpdatePartialMerge(t *testing.T) {
	store := NewStore()
	store.AddComparable(comparableFixture("c1", 900000))

	notes := "corner unit, same floor plan"
	view, err := store.UpdateComparable("c1", ComparablePatch{Notes: &notes})
	if err != nil {
		t.Fatal(err)
	}
	got := view.Comparables[0]
	if got.Notes != notes {
		t.Fatalf("notes not updated: %q", got.Notes)
	}
	if got.SalePrice != 900000 || got.Address != "1625 PACIFIC AV #7" {
		t.Fatalf("omitted fields changed: %+v", got)
	}
}

func TestUpdateRejectsNonPositivePrice(t *testing.T) {
	store := NewStore()
	store.AddComparable(comparableFixture("c1", 900000))
	bad := -5.0
	if _, err := store.UpdateComparable("c1", ComparablePatch{SalePrice: &bad}); err == nil {
		t.Fatal("expected error for non-positive price")
	}
}

func TestUpdateFailedPatchLeavesRecordUnchanged(t *testing.T) {
	store := NewStore()
	store.AddComparable(comparableFixture("c1", 900000))
	snapshot := store.View().Comparables

	// One valid field alongside one invalid field: nothing may stick.
	addr := "999 BOGUS ST"
	bad := -5.0
	_, err := store.UpdateComparable("c1", ComparablePatch{Address: &addr, SalePrice: &bad})
	var ae *Error
	if !errors.As(err, &ae) || ae.Code != CodeInvalidComparable {
		t.Fatalf("expected InvalidComparable, got %v", err)
	}
	if !reflect.DeepEqual(store.View().Comparables, snapshot) {
		t.Fatalf("failed update mutated the record: %+v", store.View().Comparables[0])
	}

	empty := ""
	price := 950000.0
	if _, err := store.UpdateComparable("c1", ComparablePatch{Address: &empty, SalePrice: &price}); err == nil {
		t.Fatal("expected error for empty address")
	}
	if !reflect.DeepEqual(store.View().Comparables, snapshot) {
		t.Fatal("rejected empty-address patch mutated the record")
	}
}

func TestUpdateDistance(t *testing.T) {
	store := NewStore()
	store.AddComparable(comparableFixture("c1", 900000))

	d := 0.55
	view, err := store.UpdateComparable("c1", ComparablePatch{DistanceMiles: &d})
	if err != nil {
		t.Fatal(err)
	}
	if view.Comparables[0].DistanceMiles != 0.55 {
		t.Fatalf("distance = %f", view.Comparables[0].DistanceMiles)
	}

	neg := -0.1
	if _, err := store.UpdateComparable("c1", ComparablePatch{DistanceMiles: &neg}); err == nil {
		t.Fatal("expected error for negative distance")
	}
}

func TestAddComparableAlwaysIncluded(t *testing.T) {
	store := NewStore()
	view, err := store.AddComparable(Comparable{Address: "X ST", SaleDate: time.Now(), SalePrice: 900000})
	if err != nil {
		t.Fatal(err)
	}
	if !view.Comparables[0].Included || view.IncludedCount != 1 {
		t.Fatalf("manual add must count toward aggregates: %+v", view)
	}
}

func TestAddManualComparableComputesDistance(t *testing.T) {
	svc := newTestService(&fakeSource{})
	if _, err := svc.SetProperty(subjectProperty()); err != nil {
		t.Fatal(err)
	}

	view, err := svc.AddManualComparable(
		comparableFixture("c1", 900000),
		&Coordinates{Lat: 37.7945, Lon: -122.4235},
	)
	if err != nil {
		t.Fatal(err)
	}
	if view.Comparables[0].DistanceMiles != 0.39 {
		t.Fatalf("distance = %f", view.Comparables[0].DistanceMiles)
	}

	// Without sale coordinates the caller-supplied distance stands.
	manual := comparableFixture("c2", 950000)
	manual.DistanceMiles = 0.8
	view, err = svc.AddManualComparable(manual, nil)
	if err != nil {
		t.Fatal(err)
	}
	if view.Comparables[1].DistanceMiles != 0.8 {
		t.Fatalf("distance = %f", view.Comparables[1].DistanceMiles)
	}
}

func TestMergeFirstWriteWins(t *testing.T) {
	store := NewStore()
	store.AddComparable(comparableFixture("c1", 900000))

	added, view := store.Merge([]Comparable{
		comparableFixture("c1", 111111), // collision: skipped, not overwritten
		comparableFixture("c2", 1000000),
	})
	if len(added) != 1 || added[0].ID != "c2" {
		t.Fatalf("added = %+v", added)
	}
	if view.Comparables[0].SalePrice != 900000 {
		t.Fatal("existing comparable was overwritten")
	}
}

func TestStrengthFallsBackToPropertyReference(t *testing.T) {
	store := NewStore()
	p := subjectProperty()
	p.AssessedValue = 500000
	p.ReferenceValue = 425000
	store.SetProperty(p)

	view := store.View()
	if view.Strength != StrengthStrong {
		t.Fatalf("strength = %s, want strong from stored reference", view.Strength)
	}

	// Included comparables take over as the scoring reference.
	store.AddComparable(Comparable{ID: "c1", Address: "X", SaleDate: time.Now(), SalePrice: 490000, Included: true})
	if got := store.View().Strength; got != StrengthWeak {
		t.Fatalf("strength = %s, want weak from comparable mean", got)
	}
}

func TestResetClearsCase(t *testing.T) {
	store := NewStore()
	store.SetProperty(subjectProperty())
	store.AddComparable(comparableFixture("c1", 900000))
	store.SetArgument(Argument{Narrative: "x", DeclaredValue: 900000, Tone: ToneNeutral})

	view := store.Reset()
	if view.Property != nil || len(view.Comparables) != 0 || view.Argument != nil {
		t.Fatalf("reset left state behind: %+v", view)
	}
}
