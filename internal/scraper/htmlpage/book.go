// Package htmlpage replays saved LinkedIn search result pages so a run can be
// driven offline.
package htmlpage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-jobfilter-automation/internal/config"
	"go-jobfilter-automation/internal/scraper"
)

// Book is a sequence of saved result pages read in order.
type Book struct {
	pages   []*goquery.Document
	current int
	sel     config.Selectors
}

type card struct {
	page int
	s    *goquery.Selection
}

// Open parses each file in paths as one results page.
func Open(paths []string, sel config.Selectors) (*Book, error) {
	docs := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read page %s: %w", p, err)
		}
		docs = append(docs, string(data))
	}
	return New(docs, sel)
}

// New builds a book from raw HTML documents.
func New(htmls []string, sel config.Selectors) (*Book, error) {
	if len(htmls) == 0 {
		return nil, fmt.Errorf("no pages given")
	}
	b := &Book{sel: sel}
	for i, h := range htmls {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(h))
		if err != nil {
			return nil, fmt.Errorf("parse page %d: %w", i+1, err)
		}
		b.pages = append(b.pages, doc)
	}
	return b, nil
}

func (b *Book) ListCandidateItems(_ context.Context) ([]scraper.Item, error) {
	var items []scraper.Item
	b.pages[b.current].Find(b.sel.Card).Each(func(_ int, s *goquery.Selection) {
		items = append(items, card{page: b.current, s: s})
	})
	return items, nil
}

func (b *Book) ReadField(_ context.Context, item scraper.Item, kind scraper.FieldKind) (string, error) {
	c, ok := item.(card)
	if !ok {
		return "", fmt.Errorf("unexpected item %T", item)
	}
	// cards from a page we already left are gone
	if c.page != b.current {
		return "", scraper.ErrDetached
	}

	switch kind {
	case scraper.FieldID:
		return strings.TrimSpace(c.s.AttrOr(b.sel.CardIDAttr, "")), nil
	case scraper.FieldTitle:
		title := c.s.Find(b.sel.Title).First().Text()
		if strings.TrimSpace(title) == "" {
			title = c.s.Find(b.sel.TitleLink).First().Text()
		}
		return strings.TrimSpace(title), nil
	case scraper.FieldCompany:
		return strings.TrimSpace(c.s.Find(b.sel.Company).First().Text()), nil
	case scraper.FieldLocation:
		return strings.TrimSpace(c.s.Find(b.sel.Location).First().Text()), nil
	case scraper.FieldURL:
		return strings.TrimSpace(c.s.Find(b.sel.TitleLink).First().AttrOr("href", "")), nil
	}
	return "", fmt.Errorf("unknown field %s", kind)
}

// HasNextPage needs both a saved successor and an enabled next control on
// the current page.
func (b *Book) HasNextPage(_ context.Context) bool {
	if b.current+1 >= len(b.pages) {
		return false
	}
	next := b.pages[b.current].Find(b.sel.NextButton).First()
	if next.Length() == 0 {
		return false
	}
	_, disabled := next.Attr("disabled")
	return !disabled
}

func (b *Book) Advance(ctx context.Context) bool {
	if !b.HasNextPage(ctx) {
		return false
	}
	b.current++
	return true
}
