package astro

import (
	"fmt"
	"strings"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
)

var dobLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	time.RFC3339,
}

// ParseDOB parses a birth date in one of the accepted layouts.
func ParseDOB(dob string) (time.Time, error) {
	dob = strings.TrimSpace(dob)
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, dob); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date of birth %q", dob)
}

// NakshatraFor returns the nakshatra for a birth date, selected by the
// date's day-of-year modulo the table size. Unparseable dates fall back to
// the first entry and report false.
func NakshatraFor(dob string) (domain.Nakshatra, bool) {
	t, err := ParseDOB(dob)
	if err != nil {
		return nakshatras[0], false
	}
	return nakshatras[t.YearDay()%len(nakshatras)], true
}
