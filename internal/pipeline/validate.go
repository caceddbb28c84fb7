package pipeline

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/internal/tabular"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateSource checks one source before anything is fetched.
func ValidateSource(src model.Source) error {
	if strings.TrimSpace(src.URL) == "" {
		return fmt.Errorf("source %q: missing url", src.Tag)
	}
	if u, err := url.Parse(src.URL); err != nil {
		return fmt.Errorf("source %q: %w", src.Tag, err)
	} else if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "file" {
		return fmt.Errorf("source %q: unsupported scheme %q", src.Tag, u.Scheme)
	}
	if src.PeriodID != "" && !periodPattern.MatchString(src.PeriodID) {
		return fmt.Errorf("source %q: period %q is not YYYY-MM", src.Tag, src.PeriodID)
	}
	if len(src.Hints.EntityAliases) == 0 && len(src.Hints.EntityFragments) == 0 {
		return fmt.Errorf("source %q: hints name no entity column", src.Tag)
	}
	if _, err := tabular.RulesFromHints(src.Hints); err != nil {
		return fmt.Errorf("source %q: %w", src.Tag, err)
	}
	return ValidateDateRange(src.Hints.DateRange)
}

func ValidateDateRange(dr *model.DateRange) error {
	if dr.IsZero() {
		return nil
	}
	for _, d := range []string{dr.StartISO, dr.EndISO} {
		if d != "" && !isoDate.MatchString(d) {
			return fmt.Errorf("date range: %q is not YYYY-MM-DD", d)
		}
	}
	if dr.StartISO != "" && dr.EndISO != "" && dr.StartISO > dr.EndISO {
		return fmt.Errorf("date range: start %s after end %s", dr.StartISO, dr.EndISO)
	}
	return nil
}

// ValidateRequest checks a load request; every problem is reported.
func ValidateRequest(req Request) error {
	if len(req.Sources) == 0 {
		return errors.New("request has no sources")
	}
	var errs []error
	tags := map[string]bool{}
	for _, s := range req.Sources {
		if err := ValidateSource(s); err != nil {
			errs = append(errs, err)
		}
		if tags[s.Tag+"|"+s.URL] {
			errs = append(errs, fmt.Errorf("source %q listed twice", s.Tag))
		}
		tags[s.Tag+"|"+s.URL] = true
	}
	if err := ValidateDateRange(req.DateRange); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseTransformations(req.Transformations); err != nil {
		errs = append(errs, err)
	}
	if req.TopN < 0 {
		errs = append(errs, fmt.Errorf("topN must not be negative"))
	}
	return errors.Join(errs...)
}
