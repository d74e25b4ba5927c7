// Package address normalizes the positional situs-address strings found on
// assessment-roll extracts and tokenizes free-text lookup queries.
//
// Roll rows carry addresses in a fixed-width style: a zero-padded secondary
// number, a zero-padded primary number, a street name padded with internal
// spaces, and a street-type code glued to a zero-padded unit code, e.g.
//
//	"0000 1625 PACIFIC             AV0007"
//
// Canonical form is "<number> <name> <suffix>[ #<unit>]".
package address

import (
	"regexp"
	"strconv"
	"strings"
)

// Street-type codes seen on roll extracts plus their spelled-out forms.
// Matching one of these anchors the positional parse.
var suffixVocabulary = map[string]struct{}{
	"AV": {}, "AVE": {}, "AVENUE": {},
	"ST": {}, "STREET": {},
	"BL": {}, "BLVD": {}, "BOULEVARD": {},
	"DR": {}, "DRIVE": {},
	"CT": {}, "COURT": {},
	"RD": {}, "ROAD": {},
	"LN": {}, "LANE": {},
	"PL": {}, "PLACE": {},
	"WY": {}, "WAY": {},
	"TER": {}, "TERR": {}, "TERRACE": {},
	"HY": {}, "HWY": {}, "HIGHWAY": {},
	"CR": {}, "CIR": {}, "CIRCLE": {},
	"AL": {}, "ALLEY": {},
	"SQ": {}, "SQUARE": {},
	"PK": {}, "PARK": {},
	"PZ": {}, "PLAZA": {},
	"WK": {}, "WALK": {},
	"RW": {}, "ROW": {},
	"HL": {}, "HILL": {},
	"EX": {}, "EXPY": {},
	"STWY": {}, "LOOP": {},
}

var (
	quadRe     = regexp.MustCompile(`\d{4}`)
	tokenRe    = regexp.MustCompile(`^([A-Za-z]+)(\d*)$`)
	artifactRe = regexp.MustCompile(`^\d{1,2}[A-Za-z]?$|^[A-Za-z]$`)
	digitRunRe = regexp.MustCompile(`\d+`)
	unitJunkRe = regexp.MustCompile(`[^0-9A-Za-z]`)
)

// IsSuffixToken reports whether a word is a street-type token. Resolver query
// tokenization discards these; they are too broad to filter on.
func IsSuffixToken(word string) bool {
	_, ok := suffixVocabulary[strings.ToUpper(word)]
	return ok
}

// Canonical converts a raw roll address into its canonical human-readable
// form. It never fails: when no street-type token anchors the parse the input
// degrades to a trimmed form with the leading zero padding removed.
func Canonical(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return ""
	}

	pre, suffix, post, ok := splitOnSuffix(s)
	if !ok {
		return stripLeadingZeroRun(s)
	}

	number := firstPositiveQuad(pre)
	name := residualName(pre)
	unit := cleanUnit(post)

	parts := make([]string, 0, 3)
	if number != "" {
		parts = append(parts, number)
	}
	if name != "" {
		parts = append(parts, name)
	}
	parts = append(parts, suffix)
	out := strings.Join(parts, " ")
	if unit != "" {
		out += " #" + unit
	}
	return out
}

// splitOnSuffix finds the last token whose alphabetic head is a street-type
// code. The digit tail glued to that token (the unit code) joins the
// post-suffix text.
func splitOnSuffix(s string) (pre, suffix, post string, ok bool) {
	tokens := strings.Fields(s)
	for i := len(tokens) - 1; i >= 0; i-- {
		m := tokenRe.FindStringSubmatch(tokens[i])
		if m == nil {
			continue
		}
		head := strings.ToUpper(m[1])
		if _, found := suffixVocabulary[head]; !found {
			continue
		}
		rest := make([]string, 0, len(tokens)-i)
		if m[2] != "" {
			rest = append(rest, m[2])
		}
		rest = append(rest, tokens[i+1:]...)
		return strings.Join(tokens[:i], " "), head, strings.Join(rest, " "), true
	}
	return "", "", "", false
}

// firstPositiveQuad returns the first 4-digit group with a positive value,
// leading zeros stripped. Roll extracts prepend a zero-padded secondary
// number, so the first non-zero group is the primary street number.
func firstPositiveQuad(pre string) string {
	for _, g := range quadRe.FindAllString(pre, -1) {
		if v, err := strconv.Atoi(g); err == nil && v > 0 {
			return strconv.Itoa(v)
		}
	}
	return ""
}

// residualName removes the number groups from the pre-suffix text and strips
// the short alphanumeric artifact left behind when a secondary number was
// concatenated without a separator.
func residualName(pre string) string {
	cleaned := quadRe.ReplaceAllString(pre, " ")
	words := strings.Fields(cleaned)
	if len(words) > 1 && artifactRe.MatchString(words[0]) {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// cleanUnit strips punctuation and leading zeros from the trailing unit code.
// An all-zero code means no unit.
func cleanUnit(post string) string {
	unit := unitJunkRe.ReplaceAllString(post, "")
	unit = strings.TrimLeft(unit, "0")
	return strings.ToUpper(unit)
}

// stripLeadingZeroRun removes the zero prefix from the first digit run,
// leaving the rest of the string untouched.
func stripLeadingZeroRun(s string) string {
	loc := digitRunRe.FindStringIndex(s)
	if loc == nil {
		return s
	}
	run := s[loc[0]:loc[1]]
	trimmed := strings.TrimLeft(run, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return s[:loc[0]] + trimmed + s[loc[1]:]
}
