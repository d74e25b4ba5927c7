package address

import (
	"regexp"
	"strings"
)

// Jurisdiction, region, and state tokens that add no selectivity to a roll
// lookup. Postal codes are dropped separately.
var regionTokens = map[string]struct{}{
	"SAN": {}, "FRANCISCO": {}, "SF": {},
	"CA": {}, "CALIF": {}, "CALIFORNIA": {},
	"COUNTY": {}, "CITY": {},
}

var (
	punctRe = regexp.MustCompile(`[.,#'"()\-/]`)
	zipRe   = regexp.MustCompile(`^\d{5}(\d{4})?$`)
)

// QueryTokens reduces a free-text address query to the words worth matching
// against raw roll addresses: uppercased, punctuation removed, region and
// postal tokens dropped, street-type tokens dropped. An empty result means
// the query carried no usable search terms.
func QueryTokens(query string) []string {
	s := strings.ToUpper(query)
	s = punctRe.ReplaceAllString(s, " ")

	var words []string
	for _, w := range strings.Fields(s) {
		if _, ok := regionTokens[w]; ok {
			continue
		}
		if zipRe.MatchString(w) {
			continue
		}
		if IsSuffixToken(w) {
			continue
		}
		words = append(words, w)
	}
	return words
}
