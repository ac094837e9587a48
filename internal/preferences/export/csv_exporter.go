package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVExporter exports tabular rows to CSV
type CSVExporter struct {
	writer        *csv.Writer
	options       CSVOptions
	headerWritten bool
}

// CSVOptions configures CSV export behavior
type CSVOptions struct {
	Delimiter       rune   `json:"delimiter"`
	UseCRLF         bool   `json:"use_crlf"`
	IncludeHeader   bool   `json:"include_header"`
	TimestampFormat string `json:"timestamp_format"`
	NullValue       string `json:"null_value"` // written for nil and missing cells
}

// DefaultCSVOptions returns default CSV export options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:       ',',
		IncludeHeader:   true,
		TimestampFormat: time.RFC3339,
	}
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(w io.Writer, options CSVOptions) *CSVExporter {
	writer := csv.NewWriter(w)
	writer.Comma = options.Delimiter
	writer.UseCRLF = options.UseCRLF

	return &CSVExporter{
		writer:  writer,
		options: options,
	}
}

// WriteHeader writes the CSV header row
func (e *CSVExporter) WriteHeader(columns []string) error {
	if !e.options.IncludeHeader {
		return nil
	}

	if err := e.writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	e.headerWritten = true
	return nil
}

// WriteMapRows writes rows from a slice of maps, header first
func (e *CSVExporter) WriteMapRows(rows []map[string]interface{}, columns []string) error {
	if !e.headerWritten {
		if err := e.WriteHeader(columns); err != nil {
			return err
		}
	}

	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = e.formatValue(row[col])
		}

		if err := e.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer
func (e *CSVExporter) Flush() error {
	e.writer.Flush()
	return e.writer.Error()
}

func (e *CSVExporter) formatValue(val interface{}) string {
	if val == nil {
		return e.options.NullValue
	}

	switch v := val.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if v.IsZero() {
			return e.options.NullValue
		}
		return v.Format(e.options.TimestampFormat)
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
