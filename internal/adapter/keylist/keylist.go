// Package keylist reads component or map unit keys from list files.
package keylist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// IsList reports whether input names a key list file rather than a key.
func IsList(input string) bool {
	switch strings.ToLower(filepath.Ext(input)) {
	case ".csv", ".txt", ".xlsx":
		return true
	}
	return false
}

// Read returns the first column of every non-blank row of path. Spreadsheets
// are read from their first sheet.
func Read(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open key list: %w", err)
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var keys []string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read key list: %w", err)
		}
		keys = appendKey(keys, row)
	}
	return keys, nil
}

func readXLSX(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open key list: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read key list: %w", err)
	}
	var keys []string
	for _, row := range rows {
		keys = appendKey(keys, row)
	}
	return keys, nil
}

func appendKey(keys, row []string) []string {
	if len(row) == 0 {
		return keys
	}
	if k := strings.TrimSpace(row[0]); k != "" {
		return append(keys, k)
	}
	return keys
}
