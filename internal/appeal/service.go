package appeal

import (
	"time"

	"github.com/parcelworks/appealdesk/internal/geo"
	"github.com/parcelworks/appealdesk/internal/recordsource"
)

// Property-use categories treated as residential on the roll.
var residentialUseCodes = []string{"SRES", "MRES"}

// Default search parameters applied when the caller passes zero values.
const (
	defaultRadiusMiles   = 0.5
	defaultRecencyMonths = 12
	defaultResultLimit   = 10
	resolveRowLimit      = 10
)

type Config struct {
	Source   recordsource.Source
	RollYear string
	Policy   EligibilityPolicy
	Clock    func() time.Time
}

// Service wires the pipeline stages around one case store. It owns no
// retry policy: record-feed failures surface to the caller, which may retry
// with different parameters.
type Service struct {
	source   recordsource.Source
	store    *Store
	policy   EligibilityPolicy
	rollYear string
	now      func() time.Time
}

func NewService(cfg Config) *Service {
	if cfg.RollYear == "" {
		cfg.RollYear = "2025"
	}
	if cfg.Policy.WindowOpenMonth == 0 {
		cfg.Policy = DefaultEligibilityPolicy()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{
		source:   cfg.Source,
		store:    NewStore(),
		policy:   cfg.Policy,
		rollYear: cfg.RollYear,
		now:      cfg.Clock,
	}
}

// Store exposes the case store for direct comparable management.
func (s *Service) Store() *Store {
	return s.store
}

// View returns the current case projection.
func (s *Service) View() CaseView {
	return s.store.View()
}

// Reset clears the case.
func (s *Service) Reset() CaseView {
	return s.store.Reset()
}

// AddManualComparable stores a manually entered comparable. When the entry
// carries sale coordinates and the subject has its own, the distance is
// computed and frozen the same way a discovered row's is; otherwise any
// caller-supplied distance stands.
func (s *Service) AddManualComparable(c Comparable, coords *Coordinates) (CaseView, error) {
	if coords != nil {
		if prop := s.store.Property(); prop != nil && prop.Coordinates != nil {
			c.DistanceMiles = geo.RoundMiles(geo.DistanceMiles(
				prop.Coordinates.Lat, prop.Coordinates.Lon, coords.Lat, coords.Lon))
		}
	}
	return s.store.AddComparable(c)
}

// SetProperty stores a caller-supplied subject wholesale. The reference
// value defaults to the assessed value when absent.
func (s *Service) SetProperty(p Property) (CaseView, error) {
	if p.Address == "" || p.ParcelID == "" {
		return CaseView{}, newError(CodeValidation, "property requires address and parcel_id")
	}
	if p.AssessedValue <= 0 {
		return CaseView{}, newError(CodeValidation, "assessed_value must be positive")
	}
	if p.ReferenceValue <= 0 {
		p.ReferenceValue = p.AssessedValue
	}
	if p.PropertyType == "" {
		p.PropertyType = TypeSingleFamily
	}
	return s.store.SetProperty(p), nil
}
