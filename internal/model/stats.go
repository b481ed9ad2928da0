package model

import "time"

// HallOfFameEntry is the per-username statistics aggregate, updated at
// game end. Derived fields are recomputed on every update, never stored
// independently.
type HallOfFameEntry struct {
	Username      string
	Games         int
	Wins          int
	Points        int64
	TotalPlayTime time.Duration

	// Derived
	AverageGameTime time.Duration
	WinRate         float64 // percent

	UpdatedAt time.Time
}

// Recompute refreshes the derived fields from the stored aggregates
func (e *HallOfFameEntry) Recompute() {
	if e.Games == 0 {
		e.AverageGameTime = 0
		e.WinRate = 0
		return
	}
	e.AverageGameTime = e.TotalPlayTime / time.Duration(e.Games)
	e.WinRate = float64(e.Wins) / float64(e.Games) * 100
}
