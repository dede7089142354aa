package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-jobfilter-automation/internal/scraper"
)

const schema = `
CREATE TABLE IF NOT EXISTS scrape_runs (
	id          UUID PRIMARY KEY,
	state       TEXT NOT NULL DEFAULT 'running',
	message     TEXT,
	pages       INT NOT NULL DEFAULT 0,
	processed   INT NOT NULL DEFAULT 0,
	matched     INT NOT NULL DEFAULT 0,
	duplicates  INT NOT NULL DEFAULT 0,
	sink_errors INT NOT NULL DEFAULT 0,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS job_listings (
	run_id                    UUID NOT NULL REFERENCES scrape_runs(id) ON DELETE CASCADE,
	job_id                    TEXT NOT NULL,
	title                     TEXT NOT NULL,
	company                   TEXT NOT NULL,
	location                  TEXT NOT NULL,
	url                       TEXT NOT NULL,
	original_posted_at        TEXT,
	last_posted_at            TEXT,
	estimate_total_applicants TEXT,
	match_criteria            BOOLEAN NOT NULL DEFAULT FALSE,
	created_at                TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, job_id)
);`

// querier is the part of pgxpool.Pool the sink uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores each run in scrape_runs and its listings in job_listings.
// The destination id is the run UUID.
type Postgres struct {
	db    querier
	close func()
	newID func() string

	mu      sync.Mutex
	created string
	active  string
}

func ConnectPostgres(ctx context.Context, connString string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	// Transaction-mode poolers reject prepared statements
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	p := newPostgres(pool)
	p.close = pool.Close
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func newPostgres(db querier) *Postgres {
	return &Postgres{
		db:    db,
		close: func() {},
		newID: func() string { return uuid.NewString() },
	}
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (p *Postgres) Close() {
	p.close()
}

func (p *Postgres) CreateDestination(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.created != "" {
		return p.created, nil
	}

	id := p.newID()
	if _, err := p.db.Exec(ctx, `INSERT INTO scrape_runs (id) VALUES ($1)`, id); err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	p.created = id
	return id, nil
}

func (p *Postgres) VerifyAccess(ctx context.Context, id string) error {
	var found string
	err := p.db.QueryRow(ctx, `SELECT id::text FROM scrape_runs WHERE id = $1`, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("failed to verify run: %w", err)
	}

	p.mu.Lock()
	p.active = id
	p.mu.Unlock()
	return nil
}

// AppendRecord upserts the listing, so a retried append is harmless.
func (p *Postgres) AppendRecord(ctx context.Context, l scraper.Listing) error {
	p.mu.Lock()
	runID := p.active
	p.mu.Unlock()
	if runID == "" {
		return ErrNoDestination
	}

	query := `
		INSERT INTO job_listings (run_id, job_id, title, company, location, url,
			original_posted_at, last_posted_at, estimate_total_applicants, match_criteria)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id, job_id)
		DO UPDATE SET match_criteria = EXCLUDED.match_criteria`
	_, err := p.db.Exec(ctx, query, runID, l.ID, l.Title, l.Company, l.Location, scraper.ListingURL(l.ID),
		l.OriginalPostedAt, l.LastPostedAt, l.EstimateTotalApplicants, l.MatchCriteria)
	if err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}
	return nil
}

func (p *Postgres) Finish(ctx context.Context, s Summary) error {
	p.mu.Lock()
	runID := p.active
	p.created, p.active = "", ""
	p.mu.Unlock()
	if runID == "" {
		return ErrNoDestination
	}

	query := `
		UPDATE scrape_runs
		SET state = $2, message = $3, pages = $4, processed = $5, matched = $6,
			duplicates = $7, sink_errors = $8, finished_at = $9
		WHERE id = $1`
	_, err := p.db.Exec(ctx, query, runID, s.State, s.Message, s.Pages, s.Processed, s.Matched,
		s.Duplicates, s.SinkErrors, s.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}
