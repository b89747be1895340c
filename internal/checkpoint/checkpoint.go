// Package checkpoint persists extraction progress: a per-book resume file
// rewritten atomically at intervals, and rotating whole-document backups
// that survive until a run completes. Writes go through a temp file and a
// rename so a crash can never leave a torn snapshot.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/azizmrsh/shamela-go/pkg/book"
)

// Snapshot is the resume file's content: the skeleton, every validated
// page so far, and the index bookkeeping the pool needs to skip work.
type Snapshot struct {
	Skeleton      *book.Document `json:"skeleton"`
	Pages         []book.Page    `json:"pages"`
	LoadedIndices []int          `json:"loaded_indices"`
	FailedIndices []int          `json:"failed_indices"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Store manages the checkpoint and backup files for one directory.
type Store struct {
	dir        string
	maxBackups int
}

// NewStore creates the directory if needed. maxBackups caps the retained
// backups per book (oldest evicted).
func NewStore(dir string, maxBackups int) (*Store, error) {
	if dir == "" {
		dir = "checkpoints"
	}
	if maxBackups <= 0 {
		maxBackups = 5
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint dir: %w", err)
	}
	return &Store{dir: dir, maxBackups: maxBackups}, nil
}

func (s *Store) checkpointPath(bookID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("checkpoint_%s.json", bookID))
}

// Save writes the snapshot atomically over any previous one.
func (s *Store) Save(bookID string, snap *Snapshot) error {
	snap.Timestamp = time.Now().UTC()
	return writeAtomic(s.checkpointPath(bookID), snap)
}

// Load reads the resume file for a book. ok is false when none exists; a
// corrupt file is treated the same way, resuming from nothing beats
// failing the run.
func (s *Store) Load(bookID string) (*Snapshot, bool) {
	data, err := os.ReadFile(s.checkpointPath(bookID))
	if err != nil {
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	if snap.Skeleton == nil {
		return nil, false
	}
	return &snap, true
}

// Cleanup removes the resume file after a successful run.
func (s *Store) Cleanup(bookID string) {
	os.Remove(s.checkpointPath(bookID))
}

// CreateBackup writes a rotating backup of the document and evicts the
// oldest ones past the cap.
func (s *Store) CreateBackup(doc *book.Document) (string, error) {
	name := fmt.Sprintf("backup_%s_%dpages_%d.json", doc.BookID, len(doc.Pages), time.Now().Unix())
	path := filepath.Join(s.dir, name)
	if err := writeAtomic(path, doc); err != nil {
		return "", err
	}
	s.rotateBackups(doc.BookID)
	return path, nil
}

// RestoreBackup returns the newest backup for a book whose pages cover its
// whole internal page count, or ok=false when there is none. Skeleton-only
// backups are skipped.
func (s *Store) RestoreBackup(bookID string) (*book.Document, bool) {
	paths := s.backupPaths(bookID)
	if len(paths) == 0 {
		return nil, false
	}
	// Newest first.
	for i := len(paths) - 1; i >= 0; i-- {
		data, err := os.ReadFile(paths[i])
		if err != nil {
			continue
		}
		var doc book.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		if doc.PageCountInternal < 1 || len(doc.Pages) != doc.PageCountInternal {
			continue
		}
		return &doc, true
	}
	return nil, false
}

// CleanupBackups removes every backup for a book once the run completed.
func (s *Store) CleanupBackups(bookID string) {
	for _, path := range s.backupPaths(bookID) {
		os.Remove(path)
	}
}

// backupPaths returns the book's backups sorted oldest to newest by file
// modification time; names are compared only when a file cannot be
// stat'ed.
func (s *Store) backupPaths(bookID string) []string {
	pattern := filepath.Join(s.dir, fmt.Sprintf("backup_%s_*.json", bookID))
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}
	sort.Slice(paths, func(i, j int) bool {
		fi, errI := os.Stat(paths[i])
		fj, errJ := os.Stat(paths[j])
		if errI != nil || errJ != nil {
			return paths[i] < paths[j]
		}
		return fi.ModTime().Before(fj.ModTime())
	})
	return paths
}

func (s *Store) rotateBackups(bookID string) {
	paths := s.backupPaths(bookID)
	for len(paths) > s.maxBackups {
		os.Remove(paths[0])
		paths = paths[1:]
	}
}

// writeAtomic marshals v and replaces path in one rename.
func writeAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
