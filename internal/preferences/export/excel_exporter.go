package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter exports tabular rows to a single-sheet workbook
type ExcelExporter struct {
	file    *excelize.File
	options ExcelOptions
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	SheetName       string            `json:"sheet_name"`
	IncludeHeader   bool              `json:"include_header"`
	FreezeHeader    bool              `json:"freeze_header"`
	AutoFilter      bool              `json:"auto_filter"`
	TimestampFormat string            `json:"timestamp_format"`
	HeaderStyle     *ExcelStyleConfig `json:"header_style,omitempty"`
	AutoWidth       bool              `json:"auto_width"`
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool   `json:"font_bold"`
	FontSize  int    `json:"font_size"`
	FontColor string `json:"font_color"`
	FillColor string `json:"fill_color"`
	Alignment string `json:"alignment"` // left, center, right
	Border    bool   `json:"border"`
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		SheetName:       "Preferences",
		IncludeHeader:   true,
		FreezeHeader:    true,
		AutoFilter:      true,
		TimestampFormat: "yyyy-mm-dd hh:mm:ss",
		AutoWidth:       true,
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "4472C4",
			FontColor: "FFFFFF",
			Alignment: "center",
			Border:    true,
		},
	}
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(options ExcelOptions) *ExcelExporter {
	file := excelize.NewFile()
	file.SetSheetName("Sheet1", options.SheetName)

	return &ExcelExporter{
		file:    file,
		options: options,
	}
}

// WriteRows writes the header row and then one row per map
func (e *ExcelExporter) WriteRows(rows []map[string]interface{}, columns []string) error {
	sheet := e.options.SheetName
	startRow := 1

	if e.options.IncludeHeader {
		if err := e.writeHeader(columns); err != nil {
			return err
		}
		startRow = 2
	}

	timeStyle, err := e.file.NewStyle(&excelize.Style{CustomNumFmt: &e.options.TimestampFormat})
	if err != nil {
		return fmt.Errorf("failed to create timestamp style: %w", err)
	}

	widths := make([]float64, len(columns))
	for i, col := range columns {
		widths[i] = estimateWidth(col)
	}

	for rowIdx, row := range rows {
		for colIdx, col := range columns {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, startRow+rowIdx)
			if err != nil {
				return err
			}

			switch v := row[col].(type) {
			case nil:
				err = e.file.SetCellValue(sheet, cell, "")
			case time.Time:
				if err = e.file.SetCellValue(sheet, cell, v); err == nil {
					err = e.file.SetCellStyle(sheet, cell, cell, timeStyle)
				}
			default:
				err = e.file.SetCellValue(sheet, cell, v)
			}
			if err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}

			if w := estimateWidth(row[col]); w > widths[colIdx] {
				widths[colIdx] = w
			}
		}
	}

	if e.options.AutoFilter && e.options.IncludeHeader && len(columns) > 0 {
		lastCol, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := e.file.AutoFilter(sheet, "A1:"+lastCol, nil); err != nil {
			return fmt.Errorf("failed to set auto filter: %w", err)
		}
	}

	if e.options.AutoWidth {
		for colIdx, width := range widths {
			name, _ := excelize.ColumnNumberToName(colIdx + 1)
			if err := e.file.SetColWidth(sheet, name, name, clamp(width, 10, 50)); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	return nil
}

func (e *ExcelExporter) writeHeader(columns []string) error {
	sheet := e.options.SheetName

	styleID := 0
	if e.options.HeaderStyle != nil {
		id, err := e.createStyle(e.options.HeaderStyle)
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		styleID = id
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := e.file.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if styleID > 0 {
			if err := e.file.SetCellStyle(sheet, cell, cell, styleID); err != nil {
				return fmt.Errorf("failed to style header: %w", err)
			}
		}
	}

	if e.options.FreezeHeader {
		return e.file.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
	return nil
}

// WriteTo writes the workbook to a writer
func (e *ExcelExporter) WriteTo(w io.Writer) error {
	return e.file.Write(w)
}

// Close closes the workbook
func (e *ExcelExporter) Close() error {
	return e.file.Close()
}

func (e *ExcelExporter) createStyle(config *ExcelStyleConfig) (int, error) {
	style := &excelize.Style{
		Font: &excelize.Font{
			Bold:  config.FontBold,
			Size:  float64(config.FontSize),
			Color: config.FontColor,
		},
	}

	if config.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{config.FillColor},
		}
	}

	if config.Alignment != "" {
		style.Alignment = &excelize.Alignment{Horizontal: config.Alignment}
	}

	if config.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}

	return e.file.NewStyle(style)
}

// estimateWidth is a rough display width: one unit per character plus padding.
func estimateWidth(val interface{}) float64 {
	switch v := val.(type) {
	case nil:
		return 0
	case time.Time:
		return 20
	default:
		return float64(len(fmt.Sprintf("%v", v))) * 1.2
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
