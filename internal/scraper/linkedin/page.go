package linkedin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-jobfilter-automation/internal/browser"
	"go-jobfilter-automation/internal/config"
	"go-jobfilter-automation/internal/scraper"
)

// ErrNotSearchPage is returned when the browser did not land on a job
// search page, usually because the session expired.
var ErrNotSearchPage = errors.New("not a linkedin job search page")

const (
	readTimeout  = 2000
	listTimeout  = 15000
	gotoTimeout  = 30000
	clickTimeout = 5000
)

// IsSearchPage reports whether url is a LinkedIn job search results page.
func IsSearchPage(url string) bool {
	return strings.Contains(url, "linkedin.com/jobs/search")
}

// Page is the live job search results page.
type Page struct {
	page     playwright.Page
	sel      config.Selectors
	debugger *browser.ScreenshotDebugger
	number   int
}

func NewPage(page playwright.Page, sel config.Selectors, debugger *browser.ScreenshotDebugger) *Page {
	return &Page{page: page, sel: sel, debugger: debugger, number: 1}
}

func (p *Page) capture(label, reason string) {
	if p.debugger != nil {
		_, _ = p.debugger.Capture(p.page, browser.Shot{Label: label, Page: p.number, Reason: reason})
	}
}

// Open navigates to searchURL and refuses to continue anywhere else.
func (p *Page) Open(ctx context.Context, searchURL string) error {
	log.Printf("🌐 Visiting Job Search: %s", searchURL)
	if _, err := p.page.Goto(searchURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(gotoTimeout),
	}); err != nil {
		return fmt.Errorf("failed to load job search page: %w", err)
	}
	if !IsSearchPage(p.page.URL()) {
		p.capture("not_search_page", "Landed outside job search")
		return fmt.Errorf("%w: %s", ErrNotSearchPage, p.page.URL())
	}
	return browser.RandomDelay(ctx, 2*time.Second, 3*time.Second)
}

// ListCandidateItems scrolls to the list footer so lazy cards render, then
// returns the cards in page order.
func (p *Page) ListCandidateItems(ctx context.Context) ([]scraper.Item, error) {
	footer := p.page.Locator(p.sel.ListFooter).First()
	if err := footer.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(readTimeout),
	}); err != nil {
		log.Printf("    ⚠️ List footer not found, scrolling instead: %v", err)
		if err := browser.HumanScroll(ctx, p.page); err != nil {
			return nil, err
		}
	}
	if err := browser.RandomDelay(ctx, time.Second, 2*time.Second); err != nil {
		return nil, err
	}

	if _, err := p.page.WaitForSelector(p.sel.Card, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(listTimeout),
	}); err != nil {
		log.Println("    ⚠️ Job list not found or empty.")
		p.capture("empty_list", "Job list empty")
		return nil, nil
	}

	locs, err := p.page.Locator(p.sel.Card).All()
	if err != nil {
		return nil, fmt.Errorf("error finding job cards: %w", err)
	}
	items := make([]scraper.Item, len(locs))
	for i, l := range locs {
		items[i] = l
	}
	log.Printf("    📄 Found %d job cards.", len(items))
	return items, nil
}

func (p *Page) ReadField(_ context.Context, item scraper.Item, kind scraper.FieldKind) (string, error) {
	card, ok := item.(playwright.Locator)
	if !ok {
		return "", fmt.Errorf("unexpected item %T", item)
	}
	if n, err := card.Count(); err != nil || n == 0 {
		return "", scraper.ErrDetached
	}

	switch kind {
	case scraper.FieldID:
		v, err := card.GetAttribute(p.sel.CardIDAttr, playwright.LocatorGetAttributeOptions{
			Timeout: playwright.Float(readTimeout),
		})
		return strings.TrimSpace(v), err
	case scraper.FieldTitle:
		title, err := text(card.Locator(p.sel.Title))
		if err != nil || title != "" {
			return title, err
		}
		return text(card.Locator(p.sel.TitleLink))
	case scraper.FieldCompany:
		return text(card.Locator(p.sel.Company))
	case scraper.FieldLocation:
		return text(card.Locator(p.sel.Location))
	case scraper.FieldURL:
		link := card.Locator(p.sel.TitleLink).First()
		if n, _ := link.Count(); n == 0 {
			return "", nil
		}
		v, err := link.GetAttribute("href", playwright.LocatorGetAttributeOptions{
			Timeout: playwright.Float(readTimeout),
		})
		return strings.TrimSpace(v), err
	}
	return "", fmt.Errorf("unknown field %s", kind)
}

// text is the trimmed text of the first match, "" when nothing matches.
func text(l playwright.Locator) (string, error) {
	first := l.First()
	if n, err := first.Count(); err != nil || n == 0 {
		return "", err
	}
	v, err := first.TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(readTimeout),
	})
	return strings.TrimSpace(v), err
}

func (p *Page) HasNextPage(_ context.Context) bool {
	next := p.page.Locator(p.sel.NextButton).First()
	if n, err := next.Count(); err != nil || n == 0 {
		return false
	}
	disabled, err := next.IsDisabled(playwright.LocatorIsDisabledOptions{
		Timeout: playwright.Float(readTimeout),
	})
	return err == nil && !disabled
}

func (p *Page) Advance(ctx context.Context) bool {
	if !p.HasNextPage(ctx) {
		return false
	}
	if err := p.page.Locator(p.sel.NextButton).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(clickTimeout),
	}); err != nil {
		log.Printf("    ⚠️ Next page click failed: %v", err)
		p.capture("next_page", "Next page click failed")
		return false
	}
	p.number++
	return true
}
