package sink

import (
	"context"
	"log"

	"go-jobfilter-automation/internal/dedup"
	"go-jobfilter-automation/internal/scraper"
)

// SkipSeen drops records already appended by an earlier run. The listing is
// still processed and counted by the caller; only the write is skipped.
type SkipSeen struct {
	Sink
	history dedup.History
}

func NewSkipSeen(next Sink, history dedup.History) *SkipSeen {
	return &SkipSeen{Sink: next, history: history}
}

func (s *SkipSeen) AppendRecord(ctx context.Context, l scraper.Listing) error {
	seen, err := s.history.IsSeen(ctx, l.ID)
	if err != nil {
		log.Printf("⚠️ History lookup failed for %s: %v", l.ID, err)
	}
	if seen {
		log.Printf("      ⏭️ %s already exported by an earlier run", l.ID)
		return nil
	}

	if err := s.Sink.AppendRecord(ctx, l); err != nil {
		return err
	}
	if err := s.history.Add(ctx, l.ID); err != nil {
		log.Printf("⚠️ Failed to remember %s: %v", l.ID, err)
	}
	return nil
}
