package demodata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/forceplate/internal/adapters/source"
	"github.com/okian/forceplate/internal/domain/prepare"
)

// WriteDir writes cmj, imtp and roster files into dir in the given format
// and returns their paths in that order.
func (e *Export) WriteDir(dir string, format source.Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	tables := []struct {
		base string
		tbl  *prepare.Table
	}{{"cmj", e.CMJ}, {"imtp", e.IMTP}, {"roster", e.Roster}}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.base+"."+string(format))
		if err := writeTable(path, format, t.base, t.tbl); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeTable(path string, format source.Format, sheet string, tbl *prepare.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if format == source.XLSX {
		return source.WriteXLSX(f, strings.ToUpper(sheet), tbl.Header, tbl.Rows)
	}
	return source.WriteCSV(f, tbl.Header, tbl.Rows)
}
