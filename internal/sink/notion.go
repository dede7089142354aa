package sink

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	gnt "github.com/dstotijn/go-notion"

	"go-jobfilter-automation/internal/scraper"
)

// Notion adds one page per listing to a Notion database. The database must
// already exist; its id is the destination.
type Notion struct {
	api *gnt.Client

	mu     sync.Mutex
	active string
}

func NewNotion(token string, httpClient *http.Client) *Notion {
	var opts []gnt.ClientOption
	if httpClient != nil {
		opts = append(opts, gnt.WithHTTPClient(httpClient))
	}
	return &Notion{api: gnt.NewClient(token, opts...)}
}

// CreateDestination cannot make a database out of nothing.
func (n *Notion) CreateDestination(_ context.Context) (string, error) {
	return "", fmt.Errorf("notion sink needs a destinationId: %w", ErrNoDestination)
}

// VerifyAccess runs a one-row query against the database.
func (n *Notion) VerifyAccess(ctx context.Context, id string) error {
	if _, err := n.api.QueryDatabase(ctx, id, &gnt.DatabaseQuery{PageSize: 1}); err != nil {
		return fmt.Errorf("notion database %s not accessible: %w", id, err)
	}
	n.mu.Lock()
	n.active = id
	n.mu.Unlock()
	return nil
}

func (n *Notion) AppendRecord(ctx context.Context, l scraper.Listing) error {
	n.mu.Lock()
	id := n.active
	n.mu.Unlock()
	if id == "" {
		return ErrNoDestination
	}

	props := listingProperties(l)
	_, err := n.api.CreatePage(ctx, gnt.CreatePageParams{
		ParentType:             gnt.ParentTypeDatabase,
		ParentID:               id,
		DatabasePageProperties: &props,
	})
	if err != nil {
		return fmt.Errorf("create notion page: %w", err)
	}
	return nil
}

func (n *Notion) Finish(_ context.Context, _ Summary) error {
	n.mu.Lock()
	n.active = ""
	n.mu.Unlock()
	return nil
}

// helper: build a rich_text slice from a plain string.
func richText(s string) []gnt.RichText {
	if s == "" {
		return nil
	}
	return []gnt.RichText{{Text: &gnt.Text{Content: s}}}
}

func listingProperties(l scraper.Listing) gnt.DatabasePageProperties {
	url := scraper.ListingURL(l.ID)
	match := l.MatchCriteria
	props := gnt.DatabasePageProperties{
		"Title":          gnt.DatabasePageProperty{Title: richText(l.Title)},
		"Company":        gnt.DatabasePageProperty{RichText: richText(l.Company)},
		"Location":       gnt.DatabasePageProperty{RichText: richText(l.Location)},
		"URL":            gnt.DatabasePageProperty{URL: &url},
		"Match Criteria": gnt.DatabasePageProperty{Checkbox: &match},
	}

	if l.EstimateTotalApplicants != "" {
		props["Applicants"] = gnt.DatabasePageProperty{RichText: richText(l.EstimateTotalApplicants)}
	}
	if t, err := time.Parse("2006-01-02", l.LastPostedAt); err == nil {
		props["Posted"] = gnt.DatabasePageProperty{
			Date: &gnt.Date{Start: gnt.NewDateTime(t, false)},
		}
	}
	return props
}
