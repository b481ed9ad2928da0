package stats

import (
	"context"
	"errors"
	"time"

	"github.com/ratrace-game/server/internal/dependencies/clock"
	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/storage"
)

// Aggregator maintains the hall of fame: one cumulative entry per
// username, updated when a game finishes
type Aggregator struct {
	storage storage.Storage
	clock   clock.Clock
}

// New creates a new stats aggregator
func New(storage storage.Storage, clock clock.Clock) *Aggregator {
	return &Aggregator{
		storage: storage,
		clock:   clock,
	}
}

// RecordResult folds one finished game into a username's entry. Missing
// entries are created on first use. Points is the player's final net
// worth; only positive results add to the lifetime score.
func (a *Aggregator) RecordResult(ctx context.Context, username string, won bool, points int64, playTime time.Duration) error {
	if username == "" {
		return nil // guests without a username leave no record
	}

	entry, err := a.storage.GetHallOfFameEntry(ctx, username)
	if err != nil {
		if !errors.Is(err, model.ErrPlayerNotFound) {
			return err
		}
		entry = &model.HallOfFameEntry{Username: username}
	}

	entry.Games++
	if won {
		entry.Wins++
	}
	if points > 0 {
		entry.Points += points
	}
	entry.TotalPlayTime += playTime
	entry.Recompute()
	entry.UpdatedAt = a.clock.Now()

	return a.storage.SaveHallOfFameEntry(ctx, entry)
}

// Get returns one username's entry
func (a *Aggregator) Get(ctx context.Context, username string) (*model.HallOfFameEntry, error) {
	return a.storage.GetHallOfFameEntry(ctx, username)
}

// Top returns the leaderboard truncated to limit entries; limit <= 0
// returns the full board
func (a *Aggregator) Top(ctx context.Context, limit int) ([]*model.HallOfFameEntry, error) {
	entries, err := a.storage.ListHallOfFame(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
