package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-jobfilter-automation/internal/normalize"
	"go-jobfilter-automation/internal/scraper"
	"go-jobfilter-automation/internal/session"
)

const (
	DefaultDetailBaseURL = "https://www.linkedin.com"
	// DefaultDetailTimeout is the ceiling for one detail request.
	DefaultDetailTimeout = 5 * time.Second

	detailPath = "/voyager/api/jobs/jobPostings/%s"
	maxBody    = 4 << 20
)

// DetailFetcher loads the description and posting metadata of a listing.
type DetailFetcher struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

func NewDetailFetcher(baseURL string, timeout time.Duration) *DetailFetcher {
	if baseURL == "" {
		baseURL = DefaultDetailBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultDetailTimeout
	}
	return &DetailFetcher{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		now:     time.Now,
	}
}

type jobPosting struct {
	Description struct {
		Text string `json:"text"`
	} `json:"description"`
	ListedAt         int64 `json:"listedAt"`
	OriginalListedAt int64 `json:"originalListedAt"`
	Applies          int   `json:"applies"`
}

// FetchDetail returns the detail of listing id. Any failure, including a
// timeout or a missing session, yields false.
func (f *DetailFetcher) FetchDetail(ctx context.Context, id string, sess session.Session) (scraper.Detail, bool) {
	if sess.Token == "" || sess.CSRF == "" {
		log.Printf("      ⚠️ No session for detail %s", id)
		return scraper.Detail{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	d, err := f.fetch(ctx, id, sess)
	if err != nil {
		log.Printf("      ⚠️ Detail %s unavailable: %v", id, err)
		return scraper.Detail{}, false
	}
	return d, true
}

func (f *DetailFetcher) fetch(ctx context.Context, id string, sess session.Session) (scraper.Detail, error) {
	url := f.baseURL + fmt.Sprintf(detailPath, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return scraper.Detail{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("csrf-token", sess.CSRF)
	req.AddCookie(&http.Cookie{Name: "li_at", Value: sess.Token})
	req.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: `"` + sess.CSRF + `"`})

	resp, err := f.client.Do(req)
	if err != nil {
		return scraper.Detail{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return scraper.Detail{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxBody)
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/html" {
		return f.parseHTML(body)
	}
	return parseJSON(body)
}

func parseJSON(r io.Reader) (scraper.Detail, error) {
	var jp jobPosting
	if err := json.NewDecoder(r).Decode(&jp); err != nil {
		return scraper.Detail{}, fmt.Errorf("decode posting: %w", err)
	}

	desc := normalize.Text(jp.Description.Text)
	if desc == "" {
		return scraper.Detail{}, fmt.Errorf("empty description")
	}

	d := scraper.Detail{
		Description:      desc,
		LastPostedAt:     normalize.EpochMillis(jp.ListedAt),
		OriginalPostedAt: normalize.EpochMillis(jp.OriginalListedAt),
	}
	if jp.Applies > 0 {
		d.EstimateTotalApplicants = fmt.Sprintf("%d applicants", jp.Applies)
	}
	return d, nil
}

// parseHTML reads either the public job posting fragment or the signed-in
// top card, whose meta line reads "Location · 2 weeks ago · 57 applicants".
func (f *DetailFetcher) parseHTML(r io.Reader) (scraper.Detail, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return scraper.Detail{}, fmt.Errorf("parse posting html: %w", err)
	}

	desc := normalize.Text(doc.Find(".show-more-less-html__markup, .description__text, .jobs-description-content").First().Text())
	if desc == "" {
		return scraper.Detail{}, fmt.Errorf("empty description")
	}

	d := scraper.Detail{
		Description:             desc,
		EstimateTotalApplicants: normalize.Text(doc.Find(".num-applicants__caption").First().Text()),
	}

	posted := doc.Find(".posted-time-ago__text").First()
	if dt, ok := posted.Attr("datetime"); ok {
		d.LastPostedAt = normalize.PostedDate(dt, f.now())
	} else {
		d.LastPostedAt = normalize.PostedDate(posted.Text(), f.now())
	}

	meta := normalize.MetaParts(doc.Find(".job-details-jobs-unified-top-card__tertiary-description-container").First().Text())
	if d.LastPostedAt == "" && len(meta) > 1 {
		d.LastPostedAt = normalize.PostedDate(meta[1], f.now())
	}
	if d.EstimateTotalApplicants == "" && len(meta) > 2 {
		d.EstimateTotalApplicants = meta[2]
	}
	return d, nil
}
