// Package source reads vendor exports and rosters into raw tables.
//
// CSV files are read with encoding/csv; XLSX workbooks with excelize, using
// the first sheet. The first non-blank row is the header. Cell values are
// returned untouched; parsing belongs to the preparer.
package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/forceplate/internal/domain/prepare"
)

// Format is an input file encoding.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// utf8BOM is written by Excel at the start of "CSV UTF-8" exports.
const utf8BOM = "\ufeff"

// FormatOf picks the format from a file name's extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return CSV, nil
	case ".xlsx", ".xlsm":
		return XLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(name))
	}
}

// ReadFile opens path and reads it as a table named after the file.
func ReadFile(path string) (*prepare.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()
	return Read(filepath.Base(path), f)
}

// Read reads r in the format implied by name.
func Read(name string, r io.Reader) (*prepare.Table, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	switch format {
	case XLSX:
		rows, err = readXLSX(r)
	default:
		rows, err = readCSV(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, name, err)
	}
	return toTable(name, rows)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	return f.GetRows(sheets[0])
}

func toTable(name string, rows [][]string) (*prepare.Table, error) {
	for i, row := range rows {
		if blank(row) {
			continue
		}
		header := append([]string(nil), row...)
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
		return &prepare.Table{Source: name, Header: header, Rows: rows[i+1:]}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrEmptyFile, name)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes a header and rows as CSV. Used for synthetic exports.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX writes a header and rows to the first sheet of a new workbook.
func WriteXLSX(w io.Writer, sheet string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" && sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	} else {
		sheet = "Sheet1"
	}
	all := append([][]string{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// File is one input, read from Data when set and from Path otherwise.
type File struct {
	Name string
	Path string
	Data []byte
}

// Open reads the file as a table.
func (f File) Open() (*prepare.Table, error) {
	if f.Data != nil {
		if len(f.Data) == 0 {
			if _, err := FormatOf(f.Name); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", ErrEmptyFile, f.Name)
		}
		return Read(f.Name, bytes.NewReader(f.Data))
	}
	if f.Path == "" {
		return nil, fmt.Errorf("%w: %s has no path or data", ErrRead, f.Name)
	}
	tbl, err := ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	if f.Name != "" {
		tbl.Source = f.Name
	}
	return tbl, nil
}

// Label names the file for logs and QC output.
func (f File) Label() string {
	if f.Name != "" {
		return f.Name
	}
	return filepath.Base(f.Path)
}

// Files groups the inputs of one report run. Nil entries are absent.
type Files struct {
	CMJ    *File
	IMTP   *File
	Roster *File
}

// Labels lists the present files in CMJ, IMTP, roster order.
func (fs Files) Labels() []string {
	var out []string
	for _, f := range []*File{fs.CMJ, fs.IMTP, fs.Roster} {
		if f != nil {
			out = append(out, f.Label())
		}
	}
	return out
}
