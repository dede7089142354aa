// Package status reports run progress to whoever is watching.
package status

import (
	"context"
	"fmt"
	"log"
)

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Terminal reports whether a run in state s has finished.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

const (
	MessageCompleted = "completed"
	MessageStopped   = "stopped by user"
)

// Status is one progress update of a run.
type Status struct {
	RunID          string `json:"runId"`
	State          State  `json:"state"`
	Message        string `json:"message,omitempty"`
	CurrentPage    int    `json:"currentPage"`
	TotalPages     int    `json:"totalPages"`
	ProcessedCount int    `json:"processedCount"`
	MatchedCount   int    `json:"matchedCount"`
	DuplicateCount int    `json:"duplicateCount"`
}

func (s Status) String() string {
	return fmt.Sprintf("page %d/%d, processed %d, matched %d, duplicates %d",
		s.CurrentPage, s.TotalPages, s.ProcessedCount, s.MatchedCount, s.DuplicateCount)
}

// Channel receives status updates. Nobody listening is not an error.
type Channel interface {
	Notify(ctx context.Context, s Status) error
}

// Log writes every update to the standard logger.
type Log struct{}

func (Log) Notify(_ context.Context, s Status) error {
	switch {
	case s.State == StateFailed:
		log.Printf("❌ Run %s failed: %s", s.RunID, s.Message)
	case s.State.Terminal():
		log.Printf("🏁 Run %s %s: %s", s.RunID, s.Message, s)
	case s.Message != "":
		log.Printf("📊 %s (%s)", s.Message, s)
	default:
		log.Printf("📊 %s", s)
	}
	return nil
}

// Fanout forwards updates to every channel. Failures are logged and
// swallowed so a broken observer never affects the run.
type Fanout []Channel

func (f Fanout) Notify(ctx context.Context, s Status) error {
	for _, ch := range f {
		if err := ch.Notify(ctx, s); err != nil {
			log.Printf("⚠️ Status channel %T failed: %v", ch, err)
		}
	}
	return nil
}
