package appeal

import (
	"fmt"
	"math"
	"sync"
)

// Store holds the single mutable case: subject property, comparable list,
// drafted argument. Mutations are serialized by a mutex so concurrent
// invocations from the hosting environment cannot interleave partial
// updates; each mutation is all-or-nothing.
type Store struct {
	mu          sync.Mutex
	property    *Property
	comparables []Comparable
	argument    *Argument
	nextManual  int
}

func NewStore() *Store {
	return &Store{}
}

// SetProperty replaces the active subject wholesale. The comparable list is
// untouched: distances stay frozen at their insertion-time values.
func (s *Store) SetProperty(p Property) CaseView {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.property = &cp
	return s.viewLocked()
}

// Property returns a copy of the active subject, or nil.
func (s *Store) Property() *Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.property == nil {
		return nil
	}
	cp := *s.property
	return &cp
}

// Reset clears the case for a fresh appeal.
func (s *Store) Reset() CaseView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.property = nil
	s.comparables = nil
	s.argument = nil
	s.nextManual = 0
	return s.viewLocked()
}

// AddComparable appends a manually entered comparable. Address, sale date,
// and a positive sale price are required; a missing ID gets a generated one.
// New entries always count toward aggregates; exclusion is a later toggle.
func (s *Store) AddComparable(c Comparable) (CaseView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Address == "" {
		return CaseView{}, newError(CodeInvalidComparable, "comparable is missing required field: address")
	}
	if c.SaleDate.IsZero() {
		return CaseView{}, newError(CodeInvalidComparable, "comparable is missing required field: sale_date")
	}
	if c.SalePrice <= 0 {
		return CaseView{}, newError(CodeInvalidComparable, "comparable is missing required field: sale_price")
	}
	if c.ID == "" {
		s.nextManual++
		c.ID = fmt.Sprintf("manual-%d", s.nextManual)
	}
	if s.indexOfLocked(c.ID) >= 0 {
		return CaseView{}, newError(CodeInvalidComparable, "comparable id %q already exists", c.ID)
	}
	c.Included = true
	s.comparables = append(s.comparables, c)
	return s.viewLocked(), nil
}

// Merge inserts discovered comparables, skipping IDs already present.
// First write wins; existing rows are never overwritten.
func (s *Store) Merge(found []Comparable) ([]Comparable, CaseView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []Comparable
	for _, c := range found {
		if s.indexOfLocked(c.ID) >= 0 {
			continue
		}
		s.comparables = append(s.comparables, c)
		added = append(added, c)
	}
	return added, s.viewLocked()
}

// UpdateComparable merges a partial patch onto an existing comparable.
// Omitted fields are retained unchanged. The whole patch is validated
// before anything is written, so a rejected update leaves the record
// exactly as it was.
func (s *Store) UpdateComparable(id string, patch ComparablePatch) (CaseView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return CaseView{}, newError(CodeNotFound, "no comparable with id %q", id)
	}
	if patch.Address != nil && *patch.Address == "" {
		return CaseView{}, newError(CodeInvalidComparable, "address must not be empty")
	}
	if patch.SaleDate != nil && patch.SaleDate.IsZero() {
		return CaseView{}, newError(CodeInvalidComparable, "sale_date must not be zero")
	}
	if patch.SalePrice != nil && *patch.SalePrice <= 0 {
		return CaseView{}, newError(CodeInvalidComparable, "sale_price must be positive")
	}
	if patch.DistanceMiles != nil && *patch.DistanceMiles < 0 {
		return CaseView{}, newError(CodeInvalidComparable, "distance_miles must not be negative")
	}

	c := s.comparables[i]
	if patch.Address != nil {
		c.Address = *patch.Address
	}
	if patch.SaleDate != nil {
		c.SaleDate = *patch.SaleDate
	}
	if patch.SalePrice != nil {
		c.SalePrice = *patch.SalePrice
	}
	if patch.Area != nil {
		c.Area = *patch.Area
	}
	if patch.Bedrooms != nil {
		c.Bedrooms = *patch.Bedrooms
	}
	if patch.Bathrooms != nil {
		c.Bathrooms = *patch.Bathrooms
	}
	if patch.DistanceMiles != nil {
		c.DistanceMiles = *patch.DistanceMiles
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}
	s.comparables[i] = c
	return s.viewLocked(), nil
}

// RemoveComparable deletes by ID. Removing an unknown ID reports NotFound
// and leaves the list unchanged.
func (s *Store) RemoveComparable(id string) (CaseView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return CaseView{}, newError(CodeNotFound, "no comparable with id %q", id)
	}
	s.comparables = append(s.comparables[:i], s.comparables[i+1:]...)
	return s.viewLocked(), nil
}

// ToggleComparable flips inclusion with no other side effect.
func (s *Store) ToggleComparable(id string) (CaseView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return CaseView{}, newError(CodeNotFound, "no comparable with id %q", id)
	}
	s.comparables[i].Included = !s.comparables[i].Included
	return s.viewLocked(), nil
}

// SetArgument stores the drafted narrative.
func (s *Store) SetArgument(a Argument) CaseView {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := a
	s.argument = &cp
	return s.viewLocked()
}

// Argument returns a copy of the drafted argument, or nil.
func (s *Store) Argument() *Argument {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.argument == nil {
		return nil
	}
	cp := *s.argument
	return &cp
}

// IncludedComparables returns the included rows in insertion order.
func (s *Store) IncludedComparables() []Comparable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return includedLocked(s.comparables)
}

// View recomputes the full case projection.
func (s *Store) View() CaseView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Store) indexOfLocked(id string) int {
	for i := range s.comparables {
		if s.comparables[i].ID == id {
			return i
		}
	}
	return -1
}

func includedLocked(comparables []Comparable) []Comparable {
	var out []Comparable
	for _, c := range comparables {
		if c.Included {
			out = append(out, c)
		}
	}
	return out
}

// viewLocked derives the projection from current state. The scoring
// reference defaults to the mean included price and falls back to the
// subject's stored reference value when nothing is included.
func (s *Store) viewLocked() CaseView {
	view := CaseView{
		Comparables: append([]Comparable(nil), s.comparables...),
	}
	if s.property != nil {
		cp := *s.property
		view.Property = &cp
	}
	if s.argument != nil {
		cp := *s.argument
		view.Argument = &cp
	}

	included := includedLocked(s.comparables)
	view.IncludedCount = len(included)
	if len(included) > 0 {
		sum := 0.0
		for _, c := range included {
			sum += c.SalePrice
		}
		view.MeanIncludedPrice = math.Round(sum/float64(len(included))*100) / 100
	}

	if s.property != nil && s.property.AssessedValue > 0 {
		reference := view.MeanIncludedPrice
		if reference <= 0 {
			reference = s.property.ReferenceValue
		}
		if reference > 0 {
			view.Strength = Score(s.property.AssessedValue, reference)
		}
	}
	return view
}
