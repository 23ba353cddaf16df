package normalize

import (
	"regexp"
	"strings"
)

// dosageRoute matches quantity+unit and route/form tokens commonly appended
// to drug surface strings in case-report free text, e.g. "500mg", "5 ml",
// "oral tablet".
var dosageRoute = regexp.MustCompile(
	`(?i)\b\d+(\.\d+)?\s*(mg|mcg|g|ml|mL|iu|units?)\b|\b(tablet|capsule|oral|injection|solution|suspension|patch|cream|ointment)\b`,
)

var whitespace = regexp.MustCompile(`\s+`)

// CanonicalizeDrugSurface lowercases, strips dosage/route tokens, and
// collapses whitespace, producing the normalized form fed to the synonym
// resolver.
func CanonicalizeDrugSurface(s string) string {
	s = strings.ToLower(s)
	s = dosageRoute.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CanonicalizeEventSurface lowercases and collapses whitespace. Events have
// no dosage/route tokens to strip.
func CanonicalizeEventSurface(s string) string {
	s = strings.ToLower(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
