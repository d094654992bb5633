// Package store persists building placements and the imported transaction
// pool for the settlement.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Garsondee/fincraft/internal/sim"
)

// ErrNotFound is returned when no placement is saved for an account.
var ErrNotFound = errors.New("store: not found")

// document is the on-disk layout of a File store.
type document struct {
	Placements   map[string]sim.Placement `json:"placements"`
	Transactions []sim.Transaction        `json:"transactions"`
}

// File keeps placements and the transaction pool in one JSON document.
// Every write replaces the file atomically through a temp file and rename.
type File struct {
	path string
	log  *slog.Logger

	mu  sync.Mutex
	doc document
}

// OpenFile loads the document at path. A missing file starts empty; a
// corrupt one is logged and treated as empty.
func OpenFile(path string, logger *slog.Logger) (*File, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f := &File{path: path, log: logger, doc: emptyDocument()}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}
	if len(data) == 0 {
		return f, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Warn("store file is corrupt, starting empty", "path", path, "error", err)
		return f, nil
	}
	if doc.Placements == nil {
		doc.Placements = make(map[string]sim.Placement)
	}
	f.doc = doc
	return f, nil
}

func emptyDocument() document {
	return document{Placements: make(map[string]sim.Placement)}
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Placement returns the saved placement for accountID or ErrNotFound.
func (f *File) Placement(accountID string) (sim.Placement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.doc.Placements[accountID]
	if !ok {
		return sim.Placement{}, ErrNotFound
	}
	return p, nil
}

// Placements lists every saved placement ordered by account id.
func (f *File) Placements() []sim.Placement {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sim.Placement, 0, len(f.doc.Placements))
	for _, p := range f.doc.Placements {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

func (f *File) LoadPlacement(ctx context.Context, accountID string) (sim.Placement, bool, error) {
	if err := ctx.Err(); err != nil {
		return sim.Placement{}, false, err
	}
	p, err := f.Placement(accountID)
	if errors.Is(err, ErrNotFound) {
		return sim.Placement{}, false, nil
	}
	return p, err == nil, err
}

func (f *File) SavePlacement(ctx context.Context, p sim.Placement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.AccountID == "" {
		return errors.New("store: placement without account id")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.doc.Placements[p.AccountID]
	f.doc.Placements[p.AccountID] = p
	if err := f.flushLocked(); err != nil {
		if had {
			f.doc.Placements[p.AccountID] = prev
		} else {
			delete(f.doc.Placements, p.AccountID)
		}
		return err
	}
	return nil
}

func (f *File) LoadTransactions(ctx context.Context) ([]sim.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sim.Transaction, len(f.doc.Transactions))
	copy(out, f.doc.Transactions)
	return out, nil
}

func (f *File) SaveTransactions(ctx context.Context, txs []sim.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := f.doc.Transactions
	f.doc.Transactions = append([]sim.Transaction(nil), txs...)
	if err := f.flushLocked(); err != nil {
		f.doc.Transactions = prev
		return err
	}
	return nil
}

// flushLocked writes the document next to its destination and renames it
// into place. f.mu must be held.
func (f *File) flushLocked() error {
	data, err := json.MarshalIndent(f.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
