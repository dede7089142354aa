package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go-jobfilter-automation/internal/scraper"
)

// file names use the ISO timestamp with ':' and '.' swapped for '-'
var fileStamp = strings.NewReplacer(":", "-", ".", "-")

// CSV writes one file per run, named linkedin-jobs-<timestamp>.csv.
// Rows are flushed as they arrive so a cancelled run keeps what it had.
type CSV struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	created string
	file    *os.File
	w       *csv.Writer
}

func NewCSV(dir string) *CSV {
	return &CSV{dir: dir, now: time.Now}
}

func (c *CSV) CreateDestination(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.created == "" {
		stamp := fileStamp.Replace(c.now().UTC().Format("2006-01-02T15:04:05.000Z"))
		name := fmt.Sprintf("linkedin-jobs-%s.csv", stamp)
		c.created = filepath.Join(c.dir, name)
	}
	return c.created, nil
}

// VerifyAccess opens the file at id and writes the header.
func (c *CSV) VerifyAccess(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file != nil {
		if c.file.Name() == id {
			return nil
		}
		c.closeLocked()
	}

	if err := os.MkdirAll(filepath.Dir(id), 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.OpenFile(id, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	c.file = f
	c.w = csv.NewWriter(f)
	if err := c.w.Write(header); err != nil {
		c.closeLocked()
		return fmt.Errorf("write header: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSV) AppendRecord(_ context.Context, l scraper.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w == nil {
		return ErrNoDestination
	}
	if err := c.w.Write(row(l)); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSV) Finish(_ context.Context, _ Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = ""
	return c.closeLocked()
}

func (c *CSV) closeLocked() error {
	if c.file == nil {
		return nil
	}
	c.w.Flush()
	werr := c.w.Error()
	cerr := c.file.Close()
	c.file, c.w = nil, nil
	if werr != nil {
		return werr
	}
	return cerr
}
