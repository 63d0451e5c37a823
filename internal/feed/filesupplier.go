package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"advisor/pkg/model"
)

// FileSupplier reads daily bars from JSON files, one file per symbol
// (<dir>/<SYMBOL>.json holding an array of bars). It backs local runs the
// way the hosted deployment is backed by an object store.
type FileSupplier struct {
	dir string
}

// NewFileSupplier creates a supplier over the given data directory
func NewFileSupplier(dir string) *FileSupplier {
	return &FileSupplier{dir: dir}
}

// Bars implements Supplier
func (f *FileSupplier) Bars(ctx context.Context, symbol string, lookback int) ([]model.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(f.dir, strings.ToUpper(symbol)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", symbol, ErrUnknownSymbol)
		}
		return nil, fmt.Errorf("reading bars for %s: %w", symbol, err)
	}

	var bars []model.PriceBar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("parsing bars for %s: %w", symbol, err)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	if lookback > 0 && len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}
	return bars, nil
}

// Symbols lists the symbols available in the data directory
func (f *FileSupplier) Symbols() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("listing data dir: %w", err)
	}
	var symbols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(symbols)
	return symbols, nil
}
