package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"go-jobfilter-automation/internal/scraper"
)

// Sheets appends rows to a Google spreadsheet.
type Sheets struct {
	svc *sheets.Service
	now func() time.Time

	mu      sync.Mutex
	created string
	active  string
}

// NewSheets authenticates with an OAuth access token obtained elsewhere.
// Extra options are passed to the Sheets client.
func NewSheets(ctx context.Context, accessToken string, opts ...option.ClientOption) (*Sheets, error) {
	if accessToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
		opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Sheets{svc: svc, now: time.Now}, nil
}

// CreateDestination creates a spreadsheet with the header row.
func (s *Sheets) CreateDestination(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created != "" {
		return s.created, nil
	}

	title := fmt.Sprintf("LinkedIn Jobs %s", s.now().Format("2006-01-02 15:04"))
	sp, err := s.svc.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create spreadsheet: %w", err)
	}

	values := []interface{}{}
	for _, h := range header {
		values = append(values, h)
	}
	if _, err := s.svc.Spreadsheets.Values.Update(sp.SpreadsheetId, "A1", &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	s.created = sp.SpreadsheetId
	return s.created, nil
}

func (s *Sheets) VerifyAccess(ctx context.Context, id string) error {
	if _, err := s.svc.Spreadsheets.Get(id).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return fmt.Errorf("spreadsheet %s not accessible: %w", id, err)
	}
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
	return nil
}

func (s *Sheets) AppendRecord(ctx context.Context, l scraper.Listing) error {
	s.mu.Lock()
	id := s.active
	s.mu.Unlock()
	if id == "" {
		return ErrNoDestination
	}

	r := row(l)
	values := make([]interface{}, len(r))
	for i, v := range r {
		values[i] = v
	}
	_, err := s.svc.Spreadsheets.Values.Append(id, "A1", &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

func (s *Sheets) Finish(_ context.Context, _ Summary) error {
	s.mu.Lock()
	s.created, s.active = "", ""
	s.mu.Unlock()
	return nil
}
