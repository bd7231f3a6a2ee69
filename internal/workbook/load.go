package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// LoadError wraps a failure to read a workbook.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading workbook %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load opens the workbook at path and materializes every sheet.
// Numeric and date cells keep the string excelize formats them to.
func Load(path string) (*SpreadSheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	var sheets []*Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("sheet %q: %w", name, err)}
		}
		sheets = append(sheets, NewSheet(name, rows))
	}
	return NewSpreadSheet(sheets...), nil
}
