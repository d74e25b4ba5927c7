package appeal

import (
	"fmt"
	"math"
	"strings"
)

// narrativeFacts is the shared data-assembly step all three tone renderers
// draw from, so the value-gap computation lives in one place.
type narrativeFacts struct {
	property   Property
	included   []Comparable
	declared   float64
	gapAmount  float64
	gapPercent float64
}

// DraftArgument composes the appeal narrative for the active subject from
// the currently included comparables. A zero declared value defaults to the
// rounded mean included sale price.
func (s *Service) DraftArgument(tone Tone, declaredValue float64) (CaseView, error) {
	prop := s.store.Property()
	if prop == nil {
		return CaseView{}, newError(CodeNoActiveProperty, "resolve a subject property before drafting the argument")
	}
	included := s.store.IncludedComparables()

	arg, err := ComposeArgument(*prop, included, tone, declaredValue)
	if err != nil {
		return CaseView{}, err
	}
	return s.store.SetArgument(arg), nil
}

// ComposeArgument is the pure composition step: (property, included
// comparables, tone, declared value) -> Argument.
func ComposeArgument(prop Property, included []Comparable, tone Tone, declaredValue float64) (Argument, error) {
	if tone == "" {
		tone = ToneNeutral
	}
	switch tone {
	case ToneFormal, ToneNeutral, ToneConcise:
	default:
		return Argument{}, newError(CodeValidation, "unknown tone %q", tone)
	}

	if declaredValue <= 0 {
		if len(included) == 0 {
			return Argument{}, newError(CodeSequencing, "no included comparables to derive a declared value; supply one explicitly or add comparables first")
		}
		declaredValue = math.Round(meanSalePrice(included))
	}

	facts := narrativeFacts{
		property:   prop,
		included:   included,
		declared:   declaredValue,
		gapAmount:  prop.AssessedValue - declaredValue,
		gapPercent: (prop.AssessedValue - declaredValue) / prop.AssessedValue * 100,
	}

	var narrative string
	switch tone {
	case ToneFormal:
		narrative = renderFormal(facts)
	case ToneConcise:
		narrative = renderConcise(facts)
	default:
		narrative = renderNeutral(facts)
	}
	return Argument{Narrative: narrative, DeclaredValue: declaredValue, Tone: tone}, nil
}

func meanSalePrice(comparables []Comparable) float64 {
	sum := 0.0
	for _, c := range comparables {
		sum += c.SalePrice
	}
	return sum / float64(len(comparables))
}

func renderFormal(f narrativeFacts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RE: Assessment Appeal for %s (Parcel %s)\n\n", f.property.Address, f.property.ParcelID)
	fmt.Fprintf(&b, "To the Assessment Appeals Board:\n\n")
	fmt.Fprintf(&b, "The undersigned respectfully contests the current assessed value of the %s property located at %s. ",
		propertyTypeLabel(f.property.PropertyType), f.property.Address)
	fmt.Fprintf(&b, "The property is presently assessed at %s. Based on the market evidence enumerated below, its fair market value does not exceed %s, a difference of %s (%.1f%%).\n\n",
		fmtUSD(f.property.AssessedValue), fmtUSD(f.declared), fmtUSD(f.gapAmount), f.gapPercent)
	writeComparableEnumeration(&b, f.included, "In support of this opinion of value, the following recent arms-length sales of comparable properties are submitted:")
	fmt.Fprintf(&b, "\nAccordingly, the undersigned requests that the assessed value be reduced to %s.\n", fmtUSD(f.declared))
	return b.String()
}

func renderNeutral(f narrativeFacts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assessment appeal for %s (parcel %s).\n\n", f.property.Address, f.property.ParcelID)
	fmt.Fprintf(&b, "The property is assessed at %s. Recent comparable sales indicate a market value of about %s, which puts the assessment %s (%.1f%%) above market.\n\n",
		fmtUSD(f.property.AssessedValue), fmtUSD(f.declared), fmtUSD(f.gapAmount), f.gapPercent)
	writeComparableEnumeration(&b, f.included, "Supporting sales:")
	fmt.Fprintf(&b, "\nRequested value: %s.\n", fmtUSD(f.declared))
	return b.String()
}

func renderConcise(f narrativeFacts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, parcel %s.\n", f.property.Address, f.property.ParcelID)
	fmt.Fprintf(&b, "Assessed %s; market %s; gap %s (%.1f%%).\n",
		fmtUSD(f.property.AssessedValue), fmtUSD(f.declared), fmtUSD(f.gapAmount), f.gapPercent)
	writeComparableEnumeration(&b, f.included, "Comparables:")
	fmt.Fprintf(&b, "Requested value: %s.\n", fmtUSD(f.declared))
	return b.String()
}

// writeComparableEnumeration lists the included comparables in their
// original insertion order, which is the stable presentation order.
func writeComparableEnumeration(b *strings.Builder, included []Comparable, heading string) {
	if len(included) == 0 {
		return
	}
	fmt.Fprintf(b, "%s\n", heading)
	for i, c := range included {
		fmt.Fprintf(b, "%d. %s sold %s for %s (%.2f mi away)\n",
			i+1, c.Address, c.SaleDate.Format("January 2, 2006"), fmtUSD(c.SalePrice), c.DistanceMiles)
	}
}

func propertyTypeLabel(t PropertyType) string {
	switch t {
	case TypeCondo:
		return "condominium"
	case TypeTownhouse:
		return "townhouse"
	case TypeLiveWork:
		return "live/work"
	case TypeCoop:
		return "co-op"
	default:
		return "single-family"
	}
}

// fmtUSD renders a dollar amount with thousands separators and no cents.
func fmtUSD(v float64) string {
	neg := v < 0
	n := int64(math.Round(math.Abs(v)))
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := "$" + strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
