package export

import "fmt"

// Sheet is a titled table. Rows are grouped by the value of their first column.
type Sheet struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func (s Sheet) validate() error {
	if len(s.Headers) == 0 {
		return fmt.Errorf("sheet requires at least one header")
	}
	for i, row := range s.Rows {
		if len(row) != len(s.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(s.Headers))
		}
	}
	return nil
}
