// Package dedup tracks listing IDs: within one run (Set) and across runs
// (History), so a remote destination does not receive the same job twice.
package dedup

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Retention is how long an exported listing stays in the history.
const Retention = 30 * 24 * time.Hour

// History remembers listing IDs exported by previous runs.
type History interface {
	IsSeen(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, ids ...string) error
}

type seenEntry struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

// FileHistory keeps the history in a JSON file, loaded once and rewritten
// on every change. Entries older than Retention are dropped on load.
type FileHistory struct {
	mu       sync.Mutex
	filePath string
	seen     map[string]int64
	now      func() time.Time
}

// NewFileHistory creates or loads seen_jobs.json under cacheDir.
func NewFileHistory(cacheDir string) *FileHistory {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Printf("⚠️ Failed to create cache directory: %v", err)
	}
	h := &FileHistory{
		filePath: filepath.Join(cacheDir, "seen_jobs.json"),
		seen:     make(map[string]int64),
		now:      time.Now,
	}
	h.load()
	return h
}

func (h *FileHistory) IsSeen(_ context.Context, id string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, exists := h.seen[id]
	return exists, nil
}

func (h *FileHistory) Add(_ context.Context, ids ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now().UnixMilli()
	changed := false
	for _, id := range ids {
		if _, exists := h.seen[id]; !exists {
			h.seen[id] = now
			changed = true
		}
	}

	if changed {
		return h.save()
	}
	return nil
}

// load reads the history from disk into the in-memory map
func (h *FileHistory) load() {
	data, err := os.ReadFile(h.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Failed to read seen_jobs.json: %v", err)
		}
		return
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("⚠️ Failed to parse seen_jobs.json: %v", err)
		return
	}

	cutoff := h.now().Add(-Retention).UnixMilli()
	loaded := 0
	for _, e := range entries {
		if e.Timestamp > cutoff {
			h.seen[e.ID] = e.Timestamp
			loaded++
		}
	}
	log.Printf("📋 Loaded %d previously exported jobs (%d expired and removed)", loaded, len(entries)-loaded)
}

// save writes the current history to disk
func (h *FileHistory) save() error {
	entries := make([]seenEntry, 0, len(h.seen))
	for id, ts := range h.seen {
		entries = append(entries, seenEntry{ID: id, Timestamp: ts})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(h.filePath, data, 0644)
}
