package coerce

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// YearRange bounds the years accepted from lot codes.
type YearRange struct {
	Min int
	Max int
}

// DefaultLotYears is the plausibility window for dates encoded in lot codes.
var DefaultLotYears = YearRange{Min: 2024, Max: 2026}

var (
	reISO      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
	reYMDSlash = regexp.MustCompile(`^(\d{4})[/.](\d{1,2})[/.](\d{1,2})(?:\D|$)`)
	reDMY      = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4}|\d{2})(?:\D|$)`)
	reSerial   = regexp.MustCompile(`^\d{1,5}(\.\d+)?$`)
	reToken    = regexp.MustCompile(`[a-z]+|\d+`)
	reMonthTag = regexp.MustCompile(`(?i)\b(jan|fev|mar|abr|mai|jun|jul|ago|set|out|nov|dez)/\d{4}\b`)

	excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
)

var ptMonths = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// month tokens in English and Portuguese, abbreviated and in full
var monthTokens = map[string]int{
	"jan": 1, "january": 1, "janeiro": 1,
	"fev": 2, "feb": 2, "february": 2, "fevereiro": 2,
	"mar": 3, "march": 3, "marco": 3,
	"abr": 4, "apr": 4, "april": 4, "abril": 4,
	"mai": 5, "may": 5, "maio": 5,
	"jun": 6, "june": 6, "junho": 6,
	"jul": 7, "july": 7, "julho": 7,
	"ago": 8, "aug": 8, "august": 8, "agosto": 8,
	"set": 9, "sep": 9, "sept": 9, "september": 9, "setembro": 9,
	"out": 10, "oct": 10, "october": 10, "outubro": 10,
	"nov": 11, "november": 11, "novembro": 11,
	"dez": 12, "dec": 12, "december": 12, "dezembro": 12,
}

var fillerTokens = map[string]bool{"de": true, "of": true, "the": true}

// MonthNumber maps a month name or abbreviation (English or Portuguese) to 1..12.
func MonthNumber(token string) (int, bool) {
	m, ok := monthTokens[Fold(token)]
	return m, ok
}

// MonthLabel turns "2025-08" into the sheet-style label "Ago/2025".
func MonthLabel(periodID string) string {
	if len(periodID) < 7 {
		return ""
	}
	y, err1 := strconv.Atoi(periodID[:4])
	m, err2 := strconv.Atoi(periodID[5:7])
	if err1 != nil || err2 != nil || m < 1 || m > 12 {
		return ""
	}
	return ptMonths[m-1] + "/" + strconv.Itoa(y)
}

// IsMonthLabel reports whether a header looks like "Ago/2025".
func IsMonthLabel(h string) bool { return reMonthTag.MatchString(h) }

// ParseDateISO is ParseDate rendered as YYYY-MM-DD, or "" when nothing matched.
func ParseDateISO(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}

// ParseDate reads ISO dates, day-first or month-first numeric dates, dates
// with English or Portuguese month names, spreadsheet serial numbers and lot
// codes. Results are UTC midnight.
func ParseDate(raw string) (time.Time, bool) {
	s := Clean(raw)
	if s == "" {
		return time.Time{}, false
	}
	if m := reISO.FindStringSubmatch(s); m != nil {
		return mk(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reYMDSlash.FindStringSubmatch(s); m != nil {
		return mk(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reDMY.FindStringSubmatch(s); m != nil {
		a, b, y := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if y < 100 {
			y += 2000
		}
		day, month := a, b
		if a <= 12 && b > 12 {
			day, month = b, a
		}
		return mk(y, month, day)
	}
	if t, ok := parseMonthName(s); ok {
		return t, true
	}
	if reSerial.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil && f >= 1 {
			return ExcelSerial(f), true
		}
	}
	return LotDate(s, DefaultLotYears)
}

// ExcelSerial converts a spreadsheet day number (days since 1899-12-30).
func ExcelSerial(days float64) time.Time {
	return excelEpoch.AddDate(0, 0, int(math.Floor(days)))
}

// LotDate reads a date embedded at the start of a lot code: DDMMYYYY from the
// first eight digits, or DDMMYY when there are exactly six. Years outside yr
// are rejected.
func LotDate(raw string, yr YearRange) (time.Time, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	var dd, mm, yyyy int
	switch {
	case len(digits) >= 8:
		dd, mm, yyyy = atoi(digits[0:2]), atoi(digits[2:4]), atoi(digits[4:8])
	case len(digits) == 6:
		dd, mm, yyyy = atoi(digits[0:2]), atoi(digits[2:4]), 2000+atoi(digits[4:6])
	default:
		return time.Time{}, false
	}
	if yyyy < yr.Min || yyyy > yr.Max {
		return time.Time{}, false
	}
	return mk(yyyy, mm, dd)
}

// PeriodID is the YYYY-MM prefix of an ISO date.
func PeriodID(iso string) string {
	if len(iso) < 7 {
		return ""
	}
	return iso[:7]
}

func parseMonthName(s string) (time.Time, bool) {
	tokens := reToken.FindAllString(strings.ToLower(stripAccents(s)), -1)
	month := 0
	var nums []int
	var numLens []int
	for _, tok := range tokens {
		if tok[0] >= '0' && tok[0] <= '9' {
			nums = append(nums, atoi(tok))
			numLens = append(numLens, len(tok))
			continue
		}
		if fillerTokens[tok] {
			continue
		}
		m, ok := monthTokens[tok]
		if !ok || month != 0 {
			return time.Time{}, false
		}
		month = m
	}
	if month == 0 {
		return time.Time{}, false
	}
	year := func(v, n int) int {
		if n <= 2 {
			return 2000 + v
		}
		return v
	}
	switch len(nums) {
	case 1:
		return mk(year(nums[0], numLens[0]), month, 1)
	case 2:
		if numLens[0] == 4 {
			return mk(nums[0], month, nums[1])
		}
		return mk(year(nums[1], numLens[1]), month, nums[0])
	}
	return time.Time{}, false
}

// mk builds a UTC date and rejects values time.Date would normalise.
func mk(y, m, d int) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
