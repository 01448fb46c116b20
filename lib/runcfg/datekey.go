package runcfg

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/samber/oops"
)

// Granularity is the period a date key covers.
type Granularity int

const (
	Year Granularity = iota + 1
	Month
	Day
)

func (g Granularity) String() string {
	switch g {
	case Year:
		return "Y"
	case Month:
		return "M"
	case Day:
		return "D"
	default:
		return "?"
	}
}

// ParseGranularity accepts the single-letter split codes used on the
// command line (Y, M, D), case-insensitively.
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "Y", "y":
		return Year, nil
	case "M", "m":
		return Month, nil
	case "D", "d":
		return Day, nil
	}
	return 0, oops.Errorf("unknown split %q, expected one of Y, M or D", s)
}

var dateKeyRe = regexp.MustCompile(`^([A-Za-z]{2})(\d{4}(?:\d{2}(?:\d{2})?)?)$`)

// DateKey identifies a date section: a two-letter site id followed by
// YYYY, YYYYMM or YYYYMMDD.
type DateKey struct {
	Site        string
	Year        int
	Month       int
	Day         int
	Granularity Granularity
}

// ParseDateKey validates s and splits it into its parts. The month and
// day, when given, must form a real calendar date.
func ParseDateKey(s string) (DateKey, error) {
	m := dateKeyRe.FindStringSubmatch(s)
	if m == nil {
		return DateKey{}, &InvalidDateKeyError{Key: s}
	}
	digits := m[2]
	k := DateKey{Site: m[1]}
	k.Year, _ = strconv.Atoi(digits[:4])
	switch len(digits) {
	case 4:
		k.Granularity = Year
	case 6:
		k.Month, _ = strconv.Atoi(digits[4:6])
		k.Granularity = Month
	case 8:
		k.Month, _ = strconv.Atoi(digits[4:6])
		k.Day, _ = strconv.Atoi(digits[6:8])
		k.Granularity = Day
	}
	if !k.valid() {
		return DateKey{}, &InvalidDateKeyError{Key: s}
	}
	return k, nil
}

func (k DateKey) valid() bool {
	switch k.Granularity {
	case Month:
		return k.Month >= 1 && k.Month <= 12
	case Day:
		t := time.Date(k.Year, time.Month(k.Month), k.Day, 0, 0, 0, 0, time.UTC)
		return k.Month >= 1 && k.Month <= 12 && t.Month() == time.Month(k.Month) && t.Day() == k.Day
	}
	return true
}

// NewDateKey builds the key for a date at the given granularity.
func NewDateKey(site string, year, month, day int, g Granularity) DateKey {
	k := DateKey{Site: site, Year: year, Granularity: g}
	if g >= Month {
		k.Month = month
	}
	if g == Day {
		k.Day = day
	}
	return k
}

func (k DateKey) String() string {
	switch k.Granularity {
	case Year:
		return fmt.Sprintf("%s%04d", k.Site, k.Year)
	case Month:
		return fmt.Sprintf("%s%04d%02d", k.Site, k.Year, k.Month)
	default:
		return fmt.Sprintf("%s%04d%02d%02d", k.Site, k.Year, k.Month, k.Day)
	}
}

// DateString is the key without its site prefix.
func (k DateKey) DateString() string {
	return k.String()[len(k.Site):]
}
