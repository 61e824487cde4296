package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	crawlerrors "sjsage522/steamcrawler/pkg/errors"
)

// Entry is an opaque product identifier read from the catalog
type Entry string

// Load reads the identifier column of a CSV catalog, preserving file order.
// Duplicates are passed through. A missing file or column is a catalog error.
func Load(path, column string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, crawlerrors.NewCatalog(fmt.Sprintf("cannot open %s", path), err)
	}
	defer f.Close()

	entries, err := Read(f, column)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Read parses a CSV catalog from r and returns the values of column
func Read(r io.Reader, column string) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, crawlerrors.NewCatalog("catalog is empty", err)
	}
	if err != nil {
		return nil, crawlerrors.NewCatalog("cannot read catalog header", err)
	}

	idx := -1
	for i, name := range header {
		// Strip a UTF-8 BOM left by spreadsheet exports
		if strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, crawlerrors.NewCatalog(fmt.Sprintf("column %q not found", column), nil)
	}

	var entries []Entry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, crawlerrors.NewCatalog("cannot read catalog row", err)
		}
		if idx >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[idx])
		if value == "" {
			continue
		}
		entries = append(entries, Entry(value))
	}

	return entries, nil
}
