package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go-jobfilter-automation/internal/dedup"
	"go-jobfilter-automation/internal/normalize"
)

// ExtractResult is what one page yielded.
type ExtractResult struct {
	Listings   []Listing
	Duplicates int
	// Skipped counts cards that were incomplete or unreadable.
	Skipped int
}

// Extractor turns the cards of one page into partial listings.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

var requiredFields = []FieldKind{FieldTitle, FieldCompany, FieldLocation, FieldURL}

// Extract reads up to maxCount cards from src in page order. Cards missing a
// required field or failing to read are skipped; IDs already in seen are
// counted as duplicates. New IDs are added to seen. Only a failure to list
// the cards at all is returned as an error.
func (e *Extractor) Extract(ctx context.Context, src PageSource, seen *dedup.Set, maxCount int) (ExtractResult, error) {
	var res ExtractResult

	items, err := src.ListCandidateItems(ctx)
	if err != nil {
		return res, fmt.Errorf("list candidate items: %w", err)
	}

	limit := len(items)
	if maxCount > 0 && maxCount < limit {
		limit = maxCount
	}

	for i := 0; i < limit; i++ {
		listing, err := e.readListing(ctx, src, items[i])
		if err != nil {
			if errors.Is(err, ErrDetached) {
				log.Printf("    ⚠️ Card %d detached before it could be read, skipping", i+1)
			} else {
				log.Printf("    ⚠️ Skipping card %d: %v", i+1, err)
			}
			res.Skipped++
			continue
		}

		if !seen.Add(listing.ID) {
			res.Duplicates++
			continue
		}
		res.Listings = append(res.Listings, listing)
	}

	return res, nil
}

func (e *Extractor) readListing(ctx context.Context, src PageSource, item Item) (Listing, error) {
	id, err := src.ReadField(ctx, item, FieldID)
	if err != nil {
		return Listing{}, err
	}
	id = normalize.Text(id)
	if id == "" {
		return Listing{}, fmt.Errorf("missing %s", FieldID)
	}

	values := make(map[FieldKind]string, len(requiredFields))
	for _, kind := range requiredFields {
		v, err := src.ReadField(ctx, item, kind)
		if err != nil {
			return Listing{}, err
		}
		v = normalize.Text(v)
		if v == "" {
			return Listing{}, fmt.Errorf("missing %s", kind)
		}
		values[kind] = v
	}

	// The card link carries tracking params, so the stored URL is rebuilt
	// from the ID.
	return Listing{
		ID:       id,
		Title:    values[FieldTitle],
		Company:  values[FieldCompany],
		Location: values[FieldLocation],
		URL:      ListingURL(id),
	}, nil
}
