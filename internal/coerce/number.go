package coerce

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmpty      = errors.New("empty cell")
	ErrPercent    = errors.New("percentage cell")
	ErrNotNumeric = errors.New("not numeric")
)

var (
	reDotThousandsDecimal   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+,\d+$`)
	reCommaThousandsDecimal = regexp.MustCompile(`^\d{1,3}(,\d{3})+\.\d+$`)
	reDotGroups             = regexp.MustCompile(`^[1-9]\d{0,2}(\.\d{3})+$`)
	reCommaGroups           = regexp.MustCompile(`^[1-9]\d{0,2}(,\d{3})+$`)
	reDotDecimal            = regexp.MustCompile(`^\d+\.\d{1,4}$`)
	reCommaDecimal          = regexp.MustCompile(`^\d+,\d{1,4}$`)
	reNumberish             = regexp.MustCompile(`^[\d.,]*\d[\d.,]*$`)

	currency = strings.NewReplacer("R$", "", "US$", "", "$", "", "€", "", "BRL", "", " ", "", "\t", "")
)

// IsPercent reports whether the cell holds a percentage.
func IsPercent(raw string) bool { return strings.Contains(raw, "%") }

// ParseNumber reads a locale-formatted number. Anything it cannot read is 0.
func ParseNumber(raw string) float64 {
	v, err := ParseNumberStrict(raw)
	if err != nil {
		return 0
	}
	return v
}

// ParseNumberStrict reads a locale-formatted number and reports why a cell
// could not be read. Percent cells yield ErrPercent so callers can tell them
// apart from a real zero.
func ParseNumberStrict(raw string) (float64, error) {
	s := Clean(raw)
	if s == "" || s == "-" {
		return 0, ErrEmpty
	}
	if IsPercent(s) {
		return 0, ErrPercent
	}
	s = currency.Replace(s)

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "-") {
		neg = !neg
		s = s[1:]
	}
	if !reNumberish.MatchString(s) {
		return 0, ErrNotNumeric
	}
	if s[0] == '.' || s[0] == ',' {
		s = "0" + s
	}

	d, err := decimal.NewFromString(canonical(s))
	if err != nil {
		return 0, ErrNotNumeric
	}
	if neg {
		d = d.Neg()
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, ErrNotNumeric
	}
	return f, nil
}

// canonical rewrites a digits-and-separators string to "1234.56" form.
func canonical(s string) string {
	switch {
	case reDotThousandsDecimal.MatchString(s):
		return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	case reCommaThousandsDecimal.MatchString(s):
		return strings.ReplaceAll(s, ",", "")
	case reDotGroups.MatchString(s):
		return strings.ReplaceAll(s, ".", "")
	case reCommaGroups.MatchString(s):
		return strings.ReplaceAll(s, ",", "")
	case reDotDecimal.MatchString(s):
		return s
	case reCommaDecimal.MatchString(s):
		return strings.Replace(s, ",", ".", 1)
	}
	s = strings.ReplaceAll(s, ".", "")
	if i := strings.LastIndex(s, ","); i >= 0 {
		s = strings.ReplaceAll(s[:i], ",", "") + "." + s[i+1:]
	}
	if strings.HasSuffix(s, ".") {
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
