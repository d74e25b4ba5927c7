package appeal

import "time"

// EligibilityPolicy holds the jurisdiction's fiscal-calendar filing window
// and the set of appealable property types. These are fixed business rules,
// injected rather than computed, so a correctness review of the calendar
// never touches the pipeline.
type EligibilityPolicy struct {
	WindowOpenMonth  time.Month
	WindowOpenDay    int
	WindowCloseMonth time.Month
	WindowCloseDay   int
	AppealableTypes  map[PropertyType]bool
}

// DefaultEligibilityPolicy is the regular assessment-appeal window,
// July 2 through September 15, open to all residential categories.
func DefaultEligibilityPolicy() EligibilityPolicy {
	return EligibilityPolicy{
		WindowOpenMonth:  time.July,
		WindowOpenDay:    2,
		WindowCloseMonth: time.September,
		WindowCloseDay:   15,
		AppealableTypes: map[PropertyType]bool{
			TypeSingleFamily: true,
			TypeCondo:        true,
			TypeTownhouse:    true,
			TypeLiveWork:     true,
			TypeCoop:         true,
		},
	}
}

type EligibilityReport struct {
	Eligible       bool     `json:"eligible"`
	WindowOpen     bool     `json:"window_open"`
	WindowOpensOn  string   `json:"window_opens_on"`
	WindowClosesOn string   `json:"window_closes_on"`
	DaysRemaining  int      `json:"days_remaining,omitempty"`
	Strength       Strength `json:"strength"`
	Reason         string   `json:"reason,omitempty"`
}

// CheckEligibility judges whether an appeal for the given type and values is
// worth filing right now: appealable type, window state, and the strength
// tier the supplied values would score.
func (s *Service) CheckEligibility(propertyType PropertyType, assessedValue, referenceValue float64) (EligibilityReport, error) {
	if assessedValue <= 0 {
		return EligibilityReport{}, newError(CodeValidation, "assessed_value must be positive")
	}
	if referenceValue <= 0 {
		return EligibilityReport{}, newError(CodeValidation, "reference_value must be positive")
	}

	report := EligibilityReport{
		Strength: Score(assessedValue, referenceValue),
	}

	now := s.now()
	opens := time.Date(now.Year(), s.policy.WindowOpenMonth, s.policy.WindowOpenDay, 0, 0, 0, 0, now.Location())
	closes := time.Date(now.Year(), s.policy.WindowCloseMonth, s.policy.WindowCloseDay, 23, 59, 59, 0, now.Location())
	if now.After(closes) {
		opens = opens.AddDate(1, 0, 0)
		closes = closes.AddDate(1, 0, 0)
	}
	report.WindowOpensOn = opens.Format("2006-01-02")
	report.WindowClosesOn = closes.Format("2006-01-02")
	report.WindowOpen = !now.Before(opens) && !now.After(closes)
	if report.WindowOpen {
		report.DaysRemaining = int(closes.Sub(now).Hours() / 24)
	}

	if propertyType != "" && !s.policy.AppealableTypes[propertyType] {
		report.Reason = "property type " + string(propertyType) + " is not appealable under the regular filing process"
		return report, nil
	}
	report.Eligible = true
	if !report.WindowOpen {
		report.Reason = "the filing window is currently closed; prepare evidence for the next window"
	}
	return report, nil
}
