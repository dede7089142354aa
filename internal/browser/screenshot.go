package browser

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Screenshotter is the part of playwright.Page a debugger needs.
type Screenshotter interface {
	Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error)
}

// Shot names one debug capture.
type Shot struct {
	Label  string // e.g. "empty_list"
	Page   int    // results page number, 0 when unknown
	Reason string
}

// ScreenshotDebugger saves full-page screenshots when a results page looks
// wrong. Files are named <label>_p<page>_<time>_<seq>.png so captures of one
// run sort together and never overwrite each other.
type ScreenshotDebugger struct {
	outputDir string
	now       func() time.Time

	mu  sync.Mutex
	seq int
}

func NewScreenshotDebugger(baseDir string) *ScreenshotDebugger {
	dir := filepath.Join(baseDir, "screenshots")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("⚠️ Could not create screenshot dir: %v", err)
	}
	return &ScreenshotDebugger{outputDir: dir, now: time.Now}
}

// Capture saves a screenshot of page and returns its path.
func (s *ScreenshotDebugger) Capture(page Screenshotter, shot Shot) (string, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	name := fmt.Sprintf("%s_p%d_%s_%03d.png", shot.Label, shot.Page, s.now().Format("2006-01-02_15-04-05"), seq)
	path := filepath.Join(s.outputDir, name)
	log.Printf("📸 %s (page %d)", shot.Reason, shot.Page)

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		log.Printf("⚠️ Failed to capture screenshot: %v", err)
		return "", err
	}

	log.Printf("   Screenshot saved: %s", path)
	return path, nil
}
