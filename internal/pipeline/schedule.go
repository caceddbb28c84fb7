package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"go-sheet-pipeline/internal/model"
)

// Scheduler refreshes configured views on a cron spec so dashboards read
// warm caches.
type Scheduler struct {
	cron    *cron.Cron
	hub     *Hub
	views   ViewSource
	names   []string
	timeout time.Duration
}

// NewScheduler registers one refresh job covering names. spec is a standard
// five-field cron expression or a descriptor such as "@every 15m".
func NewScheduler(spec string, hub *Hub, views ViewSource, names []string, timeout time.Duration, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	s := &Scheduler{cron: cron.New(cron.WithLocation(loc)), hub: hub, views: views, names: names, timeout: timeout}
	if _, err := s.cron.AddFunc(spec, s.RefreshAll); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	slog.Info("⏰ scheduler started", "views", len(s.names))
	s.cron.Start()
}

// Stop waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RefreshAll loads every scheduled view once.
func (s *Scheduler) RefreshAll() {
	for _, name := range s.names {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		if err := s.Refresh(ctx, name); err != nil {
			slog.Warn("⏰ scheduled refresh failed", "view", name, "error", err)
		}
		cancel()
	}
}

// Refresh reloads one view through its orchestrator. A view that is already
// loading is skipped so the caller's load is not superseded.
func (s *Scheduler) Refresh(ctx context.Context, name string) error {
	spec, err := ExpandSpec(s.views, model.RunSpec{View: name})
	if err != nil {
		return err
	}
	orch := s.hub.For(name)
	if orch.Busy() {
		slog.Info("⏰ refresh skipped, view is loading", "view", name)
		return nil
	}
	res, err := orch.Load(ctx, RequestFromSpec(spec))
	if errors.Is(err, model.ErrStaleRequest) {
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("⏰ view refreshed", "view", name, "records", len(res.Records), "failed", len(res.Failures))
	return nil
}
