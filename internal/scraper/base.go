// Listing model and the page capabilities the pipeline scrapes through.

package scraper

import (
	"context"
	"errors"
	"fmt"
)

// JobViewURL is the canonical public URL of a listing.
const JobViewURL = "https://www.linkedin.com/jobs/view/%s/"

// ErrDetached is returned by a PageSource when an item left the page
// between discovery and read.
var ErrDetached = errors.New("item detached from page")

// Listing is one job posting as it moves through the pipeline.
type Listing struct {
	ID                      string `json:"id"`
	Title                   string `json:"title"`
	Company                 string `json:"company"`
	Location                string `json:"location"`
	URL                     string `json:"url"`
	Description             string `json:"description,omitempty"`
	OriginalPostedAt        string `json:"originalPostedAt,omitempty"`
	LastPostedAt            string `json:"lastPostedAt,omitempty"`
	EstimateTotalApplicants string `json:"estimateTotalApplicants,omitempty"`
	MatchCriteria           bool   `json:"matchCriteria"`
}

// ListingURL builds the view URL for a listing ID.
func ListingURL(id string) string {
	return fmt.Sprintf(JobViewURL, id)
}

// Detail holds the fields only available from the job detail endpoint.
type Detail struct {
	Description             string
	OriginalPostedAt        string
	LastPostedAt            string
	EstimateTotalApplicants string
}

// Apply copies the detail fields onto the listing.
func (l *Listing) Apply(d Detail) {
	l.Description = d.Description
	l.OriginalPostedAt = d.OriginalPostedAt
	l.LastPostedAt = d.LastPostedAt
	l.EstimateTotalApplicants = d.EstimateTotalApplicants
}

// FieldKind names a field read from a listing card.
type FieldKind int

const (
	FieldID FieldKind = iota
	FieldTitle
	FieldCompany
	FieldLocation
	FieldURL
)

func (k FieldKind) String() string {
	switch k {
	case FieldID:
		return "id"
	case FieldTitle:
		return "title"
	case FieldCompany:
		return "company"
	case FieldLocation:
		return "location"
	case FieldURL:
		return "url"
	}
	return fmt.Sprintf("field(%d)", int(k))
}

// Item is an opaque handle to one candidate card on the current page.
type Item interface{}

// PageSource reads listing cards from the current results page.
type PageSource interface {
	// ListCandidateItems returns the cards in page order.
	ListCandidateItems(ctx context.Context) ([]Item, error)
	// ReadField returns the trimmed text of one field, "" when absent.
	ReadField(ctx context.Context, item Item, kind FieldKind) (string, error)
}

// Paginator moves between results pages.
type Paginator interface {
	HasNextPage(ctx context.Context) bool
	// Advance triggers navigation and reports whether it was possible.
	Advance(ctx context.Context) bool
}

// Board is a results page that can be both read and paginated.
type Board interface {
	PageSource
	Paginator
}
