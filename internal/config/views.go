package config

import (
	"errors"
	"fmt"
	"time"

	"go-sheet-pipeline/internal/model"
)

// ErrUnknownView is wrapped by ViewSpec for names not in the config.
var ErrUnknownView = errors.New("unknown view")

// ViewNames lists the configured views in file order.
func (c *Config) ViewNames() []string {
	out := make([]string, len(c.Views))
	for i, v := range c.Views {
		out[i] = v.Name
	}
	return out
}

func (c *Config) View(name string) (View, bool) {
	for _, v := range c.Views {
		if v.Name == name {
			return v, true
		}
	}
	return View{}, false
}

// ViewSpec expands a view into a run spec with its sources and hints
// resolved: preset, then view hints, then source hints.
func (c *Config) ViewSpec(name string) (model.RunSpec, error) {
	v, ok := c.View(name)
	if !ok {
		return model.RunSpec{}, fmt.Errorf("%w %q", ErrUnknownView, name)
	}
	srcs, err := v.Resolve()
	if err != nil {
		return model.RunSpec{}, err
	}
	return model.RunSpec{
		View:            v.Name,
		Sources:         srcs,
		Transformations: v.Transformations,
		TopN:            v.TopN,
		Dedup:           v.Dedup,
		DateRange:       v.DateRange,
		Concurrency:     model.ConcurrencyConfig{FetchWorkers: c.Fetch.Workers},
	}, nil
}

// Resolve builds the view's sources.
func (v View) Resolve() ([]model.Source, error) {
	out := make([]model.Source, 0, len(v.Sources))
	for _, s := range v.Sources {
		h, err := v.hints(s)
		if err != nil {
			return nil, err
		}
		tag := s.Tag
		if tag == "" {
			tag = s.Period
		}
		out = append(out, model.Source{Tag: tag, URL: s.URL, PeriodID: s.Period, Hints: h})
	}
	return out, nil
}

func (v View) hints(s SourceConfig) (model.Hints, error) {
	preset := s.Preset
	if preset == "" {
		preset = v.Preset
	}
	var h model.Hints
	if preset != "" {
		p, ok := model.Preset(preset)
		if !ok {
			return h, fmt.Errorf("source %q: unknown preset %q", s.URL, preset)
		}
		h = p
	}
	return h.Merge(v.Hints).Merge(s.Hints), nil
}

// Calendar lists the view's periods. Sources without a YYYY-MM period are
// keyed by tag and carry no bounds.
func (v View) Calendar() model.PeriodCalendar {
	cal := model.PeriodCalendar{}
	for _, s := range v.Sources {
		key := s.Period
		if key == "" {
			key = s.Tag
		}
		if key == "" {
			continue
		}
		p, ok := cal[key]
		if !ok {
			p = model.Period{Key: key}
			if start, err := time.Parse("2006-01", s.Period); err == nil {
				p.Start = start
				p.End = start.AddDate(0, 1, -1)
			}
		}
		p.SourceURLs = append(p.SourceURLs, s.URL)
		cal[key] = p
	}
	return cal
}
