package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// utf8BOM makes spreadsheet applications detect the encoding of non-ASCII titles.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter renders sheets as CSV.
type CSVExporter struct {
	// BOM prefixes the output with a UTF-8 byte order mark.
	BOM bool
}

// NewCSVExporter builds a CSV exporter that writes a byte order mark.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{BOM: true}
}

// Render produces CSV bytes for sheet. The title is not part of the output.
func (e *CSVExporter) Render(sheet Sheet) ([]byte, error) {
	if err := sheet.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if e.BOM {
		buf.Write(utf8BOM)
	}
	writer := csv.NewWriter(buf)
	if err := writer.Write(sheet.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	if err := writer.WriteAll(sheet.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
