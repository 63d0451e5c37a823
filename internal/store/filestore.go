package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"advisor/pkg/model"
)

const dateLayout = "2006-01-02"

// FileStore persists state as JSON files under a directory:
// latest.json, recon.json and history/<date>.json. All writes are
// serialized by a single mutex, which also serializes reconciliation
// updates per symbol.
type FileStore struct {
	mu     sync.RWMutex
	dir    string
	latest map[string]model.Recommendation
	recon  map[string]model.ReconciliationRecord // keyed by symbol|asOfDate
}

// NewFileStore opens or creates a file store in dir
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "history"), 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	fs := &FileStore{
		dir:    dir,
		latest: make(map[string]model.Recommendation),
		recon:  make(map[string]model.ReconciliationRecord),
	}
	if err := fs.loadFile("latest.json", &fs.latest); err != nil {
		return nil, err
	}
	if err := fs.loadFile("recon.json", &fs.recon); err != nil {
		return nil, err
	}

	log.Debug().
		Str("dir", dir).
		Int("latest", len(fs.latest)).
		Int("recon", len(fs.recon)).
		Msg("file store loaded")
	return fs, nil
}

func (fs *FileStore) loadFile(name string, target any) error {
	data, err := os.ReadFile(filepath.Join(fs.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

func (fs *FileStore) persistFile(name string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(fs.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return os.Rename(tmp, path)
}

func reconKey(symbol string, asOf time.Time) string {
	return symbol + "|" + asOf.Format(dateLayout)
}

// PutLatest implements Store
func (fs *FileStore) PutLatest(rec model.Recommendation) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.latest[rec.Symbol] = rec
	return fs.persistFile("latest.json", fs.latest)
}

// Latest implements Store
func (fs *FileStore) Latest(symbol string) (model.Recommendation, bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	rec, ok := fs.latest[symbol]
	return rec, ok, nil
}

// AllLatest implements Store
func (fs *FileStore) AllLatest() ([]model.Recommendation, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]model.Recommendation, 0, len(fs.latest))
	for _, rec := range fs.latest {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// PutHistory implements Store
func (fs *FileStore) PutHistory(date time.Time, recs []model.Recommendation) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	name := filepath.Join("history", date.Format(dateLayout)+".json")
	return fs.persistFile(name, recs)
}

// History implements Store
func (fs *FileStore) History(date time.Time) ([]model.Recommendation, bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var recs []model.Recommendation
	path := filepath.Join(fs.dir, "history", date.Format(dateLayout)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading history: %w", err)
	}
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, false, fmt.Errorf("parsing history: %w", err)
	}
	return recs, true, nil
}

// PutReconciliation implements Store. Terminal records are write-once: an
// attempt to change one is rejected with ErrTerminalRecord.
func (fs *FileStore) PutReconciliation(rec model.ReconciliationRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	key := reconKey(rec.Symbol, rec.AsOfDate)
	if existing, ok := fs.recon[key]; ok && existing.Status.Terminal() {
		if existing == rec {
			return nil
		}
		log.Warn().
			Str("symbol", rec.Symbol).
			Str("as_of", rec.AsOfDate.Format(dateLayout)).
			Str("status", string(existing.Status)).
			Msg("ignoring mutation of terminal reconciliation record")
		return ErrTerminalRecord
	}

	fs.recon[key] = rec
	return fs.persistFile("recon.json", fs.recon)
}

// Reconciliation implements Store
func (fs *FileStore) Reconciliation(symbol string, asOf time.Time) (model.ReconciliationRecord, bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	rec, ok := fs.recon[reconKey(symbol, asOf)]
	return rec, ok, nil
}

// Reconciliations implements Store
func (fs *FileStore) Reconciliations() ([]model.ReconciliationRecord, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]model.ReconciliationRecord, 0, len(fs.recon))
	for _, rec := range fs.recon {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].AsOfDate.Before(out[j].AsOfDate)
	})
	return out, nil
}

// Purge implements Store. Anything dated before the cutoff goes, regardless
// of status.
func (fs *FileStore) Purge(cutoff time.Time, dryRun bool) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var removed []string

	for sym, rec := range fs.latest {
		if rec.AsOfDate.Before(cutoff) {
			removed = append(removed, "latest:"+sym)
			if !dryRun {
				delete(fs.latest, sym)
			}
		}
	}
	for key, rec := range fs.recon {
		if rec.AsOfDate.Before(cutoff) {
			removed = append(removed, "recon:"+key)
			if !dryRun {
				delete(fs.recon, key)
			}
		}
	}

	historyDir := filepath.Join(fs.dir, "history")
	entries, err := os.ReadDir(historyDir)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		date, err := time.Parse(dateLayout, trimJSON(name))
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			removed = append(removed, "history:"+trimJSON(name))
			if !dryRun {
				if err := os.Remove(filepath.Join(historyDir, name)); err != nil {
					return removed, fmt.Errorf("removing %s: %w", name, err)
				}
			}
		}
	}

	sort.Strings(removed)
	if dryRun {
		return removed, nil
	}

	if err := fs.persistFile("latest.json", fs.latest); err != nil {
		return removed, err
	}
	if err := fs.persistFile("recon.json", fs.recon); err != nil {
		return removed, err
	}
	log.Info().Int("removed", len(removed)).Str("cutoff", cutoff.Format(dateLayout)).Msg("purge complete")
	return removed, nil
}

func trimJSON(name string) string {
	if len(name) > 5 && name[len(name)-5:] == ".json" {
		return name[:len(name)-5]
	}
	return name
}
