// Package sink persists finalized listings.
package sink

import (
	"context"
	"errors"
	"time"

	"go-jobfilter-automation/internal/scraper"
)

// ErrNoDestination is returned when a record is appended before a
// destination was verified.
var ErrNoDestination = errors.New("no destination selected")

// Summary is the "run finished" signal handed to a sink.
type Summary struct {
	RunID      string
	State      string
	Message    string
	Pages      int
	Processed  int
	Matched    int
	Duplicates int
	SinkErrors int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Sink is a result store. CreateDestination is idempotent until Finish;
// VerifyAccess selects the destination later appends go to.
type Sink interface {
	CreateDestination(ctx context.Context) (string, error)
	VerifyAccess(ctx context.Context, id string) error
	AppendRecord(ctx context.Context, l scraper.Listing) error
	Finish(ctx context.Context, s Summary) error
}

var header = []string{"Match Criteria", "Title", "Company", "Location", "URL"}

func row(l scraper.Listing) []string {
	return []string{matchFlag(l.MatchCriteria), l.Title, l.Company, l.Location, scraper.ListingURL(l.ID)}
}

func matchFlag(match bool) string {
	if match {
		return "TRUE"
	}
	return "FALSE"
}
