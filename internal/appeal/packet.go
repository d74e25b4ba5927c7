package appeal

import (
	"fmt"
	"strings"
)

// Fixed procedural guidance appended to every packet.
var filingChecklist = []string{
	"Confirm the parcel number on the packet matches your assessment notice.",
	"File the appeal application before the filing window closes.",
	"Attach this packet as supporting evidence for your opinion of value.",
	"Keep a copy of everything you submit.",
	"Respond promptly if the assessor's office requests additional information.",
}

const submissionInstructions = "Submit the completed appeal application with this evidence packet to the " +
	"Assessment Appeals Board, either through the board's online filing portal or by mail to the clerk of " +
	"the board. A filing fee may apply. Hearings are typically scheduled several months after filing; you " +
	"will be notified of the date in writing."

// BuildPacket assembles the exportable appeal document: property summary,
// comparable table, the drafted narrative verbatim, the filing checklist,
// and submission instructions. Preconditions are sequencing, not transient
// state: subject resolved, at least one comparable included, argument
// drafted.
func (s *Service) BuildPacket() (string, error) {
	prop := s.store.Property()
	if prop == nil {
		return "", newError(CodeSequencing, "no subject property resolved; resolve the property first")
	}
	included := s.store.IncludedComparables()
	if len(included) == 0 {
		return "", newError(CodeSequencing, "no comparables are included; find or add comparables first")
	}
	arg := s.store.Argument()
	if arg == nil {
		return "", newError(CodeSequencing, "no argument drafted; draft the argument first")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Assessment Appeal Evidence Packet\n\n")

	fmt.Fprintf(&b, "## Subject Property\n\n")
	fmt.Fprintf(&b, "| Field | Value |\n|-------|-------|\n")
	fmt.Fprintf(&b, "| Address | %s |\n", prop.Address)
	fmt.Fprintf(&b, "| Parcel | %s |\n", prop.ParcelID)
	fmt.Fprintf(&b, "| Type | %s |\n", propertyTypeLabel(prop.PropertyType))
	fmt.Fprintf(&b, "| Assessed value | %s |\n", fmtUSD(prop.AssessedValue))
	fmt.Fprintf(&b, "| Requested value | %s |\n", fmtUSD(arg.DeclaredValue))
	if prop.Area > 0 {
		fmt.Fprintf(&b, "| Area | %.0f sq ft |\n", prop.Area)
	}
	if prop.Bedrooms > 0 || prop.Bathrooms > 0 {
		fmt.Fprintf(&b, "| Bed/Bath | %.0f / %.1f |\n", prop.Bedrooms, prop.Bathrooms)
	}
	if prop.Zone != "" {
		fmt.Fprintf(&b, "| Zone | %s |\n", prop.Zone)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Comparable Sales\n\n")
	fmt.Fprintf(&b, "| # | Address | Sale Date | Sale Price | Distance (mi) | Area | Bed/Bath | Notes |\n")
	fmt.Fprintf(&b, "|---|---------|-----------|------------|---------------|------|----------|-------|\n")
	for i, c := range included {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %.2f | %s | %s | %s |\n",
			i+1, tableCell(c.Address), c.SaleDate.Format("2006-01-02"), fmtUSD(c.SalePrice),
			c.DistanceMiles, fmtArea(c.Area), fmtBedBath(c.Bedrooms, c.Bathrooms), tableCell(c.Notes))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Appeal Narrative\n\n")
	b.WriteString(arg.Narrative)
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Filing Checklist\n\n")
	for _, item := range filingChecklist {
		fmt.Fprintf(&b, "- [ ] %s\n", item)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## How to Submit\n\n")
	b.WriteString(submissionInstructions)
	b.WriteString("\n")

	return b.String(), nil
}

func fmtArea(area float64) string {
	if area <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f", area)
}

func fmtBedBath(bed, bath float64) string {
	if bed <= 0 && bath <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f/%.1f", bed, bath)
}

// tableCell keeps cell text from breaking the markdown table.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	s = strings.ReplaceAll(s, "\n", " ")
	if s == "" {
		return "-"
	}
	return s
}
