package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-jobfilter-automation/internal/config"
	"go-jobfilter-automation/internal/dedup"
	"go-jobfilter-automation/internal/scraper"
	"go-jobfilter-automation/internal/session"
)

// pass is the page loop of a single run.
type pass struct {
	o          *Orchestrator
	ctx        context.Context
	sleepCtx   context.Context
	rc         config.RunConfig
	board      scraper.Board
	classifier Classifier
	sess       session.Session
	seen       *dedup.Set
}

// pages walks up to MaxPages pages. It reports whether the run was
// cancelled; an error means the page itself could not be read.
func (p *pass) pages() (bool, error) {
	o := p.o
	for page := 1; page <= p.rc.MaxPages; page++ {
		if o.isCancelled(p.ctx) {
			return true, nil
		}

		msg := fmt.Sprintf("Processing page %d of %d", page, p.rc.MaxPages)
		log.Printf("\n📄 %s", msg)
		o.mu.Lock()
		o.stats.CurrentPage = page
		o.stats.TotalPages = p.rc.MaxPages
		s := o.statusLocked(msg)
		o.mu.Unlock()
		o.notify(p.ctx, s)

		res, err := o.extractor.Extract(p.ctx, p.board, p.seen, p.rc.MaxListingsPerPage)
		if err != nil {
			if o.isCancelled(p.ctx) {
				return true, nil
			}
			return false, fmt.Errorf("page %d: %w", page, err)
		}
		o.update(func(st *RunStats) {
			st.Duplicates += res.Duplicates
			st.Skipped += res.Skipped
		})
		if res.Duplicates > 0 {
			log.Printf("    ♻️ %d duplicate listings skipped", res.Duplicates)
		}

		for i := range res.Listings {
			if o.isCancelled(p.ctx) {
				return true, nil
			}
			if !p.process(&res.Listings[i]) {
				return true, nil
			}
			if i < len(res.Listings)-1 && !p.wait(o.deps.Delay(p.rc.ItemDelayMin, p.rc.ItemDelayMax)) {
				return true, nil
			}
		}
		o.update(func(st *RunStats) { st.PagesProcessed++ })

		if page == p.rc.MaxPages {
			break
		}
		if o.isCancelled(p.ctx) {
			return true, nil
		}
		if !p.board.HasNextPage(p.ctx) || !p.board.Advance(p.ctx) {
			log.Println("⏹️ No next page")
			break
		}
		if !p.wait(p.rc.SettleDelay) {
			return true, nil
		}
	}
	return false, nil
}

// process enriches, classifies and sinks one listing. It returns false if
// the run was cancelled before the listing was classified.
func (p *pass) process(l *scraper.Listing) bool {
	o := p.o
	log.Printf("  🔎 %s @ %s (%s)", l.Title, l.Company, l.ID)

	detail, ok := o.deps.Details.FetchDetail(p.ctx, l.ID, p.sess)
	if ok {
		l.Apply(detail)
		if o.isCancelled(p.ctx) {
			return false
		}
		match, err := p.classifier.Classify(p.ctx, p.sleepCtx, l, p.rc)
		if err != nil {
			return false
		}
		l.MatchCriteria = match
	} else {
		l.MatchCriteria = false
	}
	l.Description = ""

	sinkFailed := false
	if err := o.deps.Sink.AppendRecord(p.ctx, *l); err != nil {
		log.Printf("      ⚠️ Failed to save %s: %v", l.ID, err)
		sinkFailed = true
	}

	s := o.update(func(st *RunStats) {
		st.Processed++
		if l.MatchCriteria {
			st.Matched++
		}
		if !ok {
			st.DetailMisses++
		}
		if sinkFailed {
			st.SinkErrors++
		}
	})
	if l.MatchCriteria {
		log.Printf("      ✅ Match: %s", l.Title)
	}
	o.notify(p.ctx, s)
	return true
}

// wait pauses for d unless the run is stopped first.
func (p *pass) wait(d time.Duration) bool {
	if err := p.o.deps.Clock.Sleep(p.sleepCtx, d); err != nil {
		return false
	}
	return !p.o.isCancelled(p.ctx)
}
