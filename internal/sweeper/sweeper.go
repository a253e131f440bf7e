package sweeper

import (
	"context"
	"sync"
	"time"

	"grue/internal/config"
	"grue/pkg/logger"
)

// Store is the slice of persistence the sweeper needs.
type Store interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper prunes expired links, gated to at most one pass per day inside a
// configured wall-clock minute. It stands in for an external cron the
// deployment may not have, so invoking it arbitrarily often is safe.
type Sweeper struct {
	store Store
	at    config.TimeOfDay

	mu      sync.Mutex
	lastRun time.Time
}

func New(store Store, at config.TimeOfDay) *Sweeper {
	return &Sweeper{store: store, at: at}
}

// RunIfDue deletes expired records when now falls in the configured minute
// and no pass has completed yet today. ran is false for out-of-window or
// already-done invocations. A failed pass does not count as done, so the
// next poll inside the window retries.
func (s *Sweeper) RunIfDue(ctx context.Context, now time.Time) (deleted int64, ran bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Hour() != s.at.Hour || now.Minute() != s.at.Minute {
		return 0, false, nil
	}
	if sameDay(s.lastRun, now) {
		return 0, false, nil
	}

	deleted, err = s.store.DeleteExpired(ctx, now)
	if err != nil {
		logger.Error().Err(err).Str("op", "delete_expired").Msg("cleanup pass failed")
		return 0, true, err
	}
	s.lastRun = now
	logger.Info().Int64("deleted", deleted).Str("window", s.at.String()).Msg("cleanup pass complete")
	return deleted, true, nil
}

// Poll invokes RunIfDue on a fixed interval until ctx is cancelled.
func (s *Sweeper) Poll(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			_, _, _ = s.RunIfDue(ctx, now)
		}
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
