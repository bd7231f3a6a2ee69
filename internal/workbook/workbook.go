// Package workbook loads xlsx workbooks into trimmed, read-only grids of text cells.
package workbook

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSheetNotFound is returned when a workbook has no sheet with the requested name.
var ErrSheetNotFound = errors.New("sheet not found")

// Sheet is a rectangular grid of trimmed cell values.
// Empty strings stand for absent cells.
type Sheet struct {
	Name    string
	Rows    int
	Columns int
	cells   [][]string
}

// NewSheet builds a sheet from raw rows. Values are trimmed and the grid is
// cut at the last non-empty row and column.
func NewSheet(name string, raw [][]string) *Sheet {
	lastRow, lastCol := dataBounds(raw)
	cells := make([][]string, lastRow+1)
	for r := 0; r <= lastRow; r++ {
		cells[r] = make([]string, lastCol+1)
		for c := 0; c <= lastCol && c < len(raw[r]); c++ {
			cells[r][c] = strings.TrimSpace(raw[r][c])
		}
	}
	return &Sheet{
		Name:    name,
		Rows:    lastRow + 1,
		Columns: lastCol + 1,
		cells:   cells,
	}
}

// Cell returns the trimmed value at (row, column), or "" when the cell is
// empty or outside the grid.
func (s *Sheet) Cell(row, column int) string {
	if row < 0 || row >= s.Rows || column < 0 || column >= s.Columns {
		return ""
	}
	return s.cells[row][column]
}

// dataBounds returns the 0-based indexes of the last row and last column
// holding a non-blank value, or -1 for an empty grid.
func dataBounds(raw [][]string) (lastRow, lastCol int) {
	lastRow, lastCol = -1, -1
	for r, row := range raw {
		for c, value := range row {
			if strings.TrimSpace(value) == "" {
				continue
			}
			if r > lastRow {
				lastRow = r
			}
			if c > lastCol {
				lastCol = c
			}
		}
	}
	if lastRow < 0 {
		return -1, -1
	}
	return lastRow, lastCol
}

// SpreadSheet maps sheet names to sheets, keeping workbook order.
type SpreadSheet struct {
	sheets map[string]*Sheet
	order  []string
}

// NewSpreadSheet assembles a spreadsheet from sheets. Names are trimmed.
func NewSpreadSheet(sheets ...*Sheet) *SpreadSheet {
	ss := &SpreadSheet{sheets: make(map[string]*Sheet, len(sheets))}
	for _, s := range sheets {
		name := strings.TrimSpace(s.Name)
		if _, ok := ss.sheets[name]; !ok {
			ss.order = append(ss.order, name)
		}
		ss.sheets[name] = s
	}
	return ss
}

// Sheet returns the sheet with the given name.
func (ss *SpreadSheet) Sheet(name string) (*Sheet, error) {
	s, ok := ss.sheets[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return s, nil
}

// SheetNames returns the sheet names in workbook order.
func (ss *SpreadSheet) SheetNames() []string {
	names := make([]string, len(ss.order))
	copy(names, ss.order)
	return names
}
