package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFGenerator renders tabular rows as a paginated PDF table
type PDFGenerator struct {
	pdf       *gofpdf.Fpdf
	options   PDFOptions
	translate func(string) string
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	PageSize       string     `json:"page_size"`   // A4, Letter, Legal
	Orientation    string     `json:"orientation"` // portrait, landscape
	Title          string     `json:"title"`
	DateFormat     string     `json:"date_format"`
	GeneratedAt    time.Time  `json:"generated_at"`
	IncludePageNum bool       `json:"include_page_num"`
	HeaderColor    PDFColor   `json:"header_color"`
	AlternateRows  bool       `json:"alternate_rows"`
	AlternateColor PDFColor   `json:"alternate_color"`
	FontFamily     string     `json:"font_family"`
	FontSize       float64    `json:"font_size"`
	HeaderFontSize float64    `json:"header_font_size"`
	TitleFontSize  float64    `json:"title_font_size"`
	Margins        PDFMargins `json:"margins"`
}

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// PDFMargins represents page margins
type PDFMargins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:       "A4",
		Orientation:    "landscape",
		Title:          "Study Preferences",
		DateFormat:     "2006-01-02 15:04",
		IncludePageNum: true,
		HeaderColor:    PDFColor{R: 68, G: 114, B: 196},
		AlternateRows:  true,
		AlternateColor: PDFColor{R: 242, G: 242, B: 242},
		FontFamily:     "Arial",
		FontSize:       7,
		HeaderFontSize: 7,
		TitleFontSize:  16,
		Margins:        PDFMargins{Left: 10, Right: 10, Top: 15, Bottom: 15},
	}
}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator(options PDFOptions) *PDFGenerator {
	orientation := "P"
	if options.Orientation == "landscape" {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "mm", options.PageSize, "")
	pdf.SetMargins(options.Margins.Left, options.Margins.Top, options.Margins.Right)
	pdf.SetAutoPageBreak(false, options.Margins.Bottom)

	g := &PDFGenerator{
		pdf:       pdf,
		options:   options,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
	g.setFooter()
	return g
}

// WriteTable writes title, generation date and a bordered table of rows.
// The header row repeats on every page.
func (g *PDFGenerator) WriteTable(rows []map[string]interface{}, columns []string) error {
	g.pdf.AddPage()

	g.pdf.SetFont(g.options.FontFamily, "B", g.options.TitleFontSize)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 10, g.translate(g.options.Title), "", 1, "C", false, 0, "")

	generatedAt := g.options.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize+1)
	g.pdf.SetTextColor(128, 128, 128)
	g.pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s  Records: %d",
		generatedAt.Format(g.options.DateFormat), len(rows)), "", 1, "R", false, 0, "")
	g.pdf.Ln(4)

	widths := g.columnWidths(len(columns))
	g.tableHeader(columns, widths)

	_, pageHeight := g.pdf.GetPageSize()
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)

	for i, row := range rows {
		if g.pdf.GetY()+7 > pageHeight-g.options.Margins.Bottom {
			g.pdf.AddPage()
			g.tableHeader(columns, widths)
			g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
		}

		if g.options.AlternateRows && i%2 == 1 {
			g.pdf.SetFillColor(g.options.AlternateColor.R, g.options.AlternateColor.G, g.options.AlternateColor.B)
		} else {
			g.pdf.SetFillColor(255, 255, 255)
		}
		g.pdf.SetTextColor(0, 0, 0)

		for j, col := range columns {
			text := g.fit(g.translate(g.formatValue(row[col])), widths[j])
			g.pdf.CellFormat(widths[j], 7, text, "1", 0, "L", true, 0, "")
		}
		g.pdf.Ln(-1)
	}

	return g.pdf.Error()
}

// WriteTo writes the PDF to a writer
func (g *PDFGenerator) WriteTo(w io.Writer) error {
	return g.pdf.Output(w)
}

func (g *PDFGenerator) columnWidths(n int) []float64 {
	pageWidth, _ := g.pdf.GetPageSize()
	available := pageWidth - g.options.Margins.Left - g.options.Margins.Right

	widths := make([]float64, n)
	for i := range widths {
		widths[i] = available / float64(n)
	}
	return widths
}

func (g *PDFGenerator) tableHeader(columns []string, widths []float64) {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.HeaderFontSize)
	g.pdf.SetFillColor(g.options.HeaderColor.R, g.options.HeaderColor.G, g.options.HeaderColor.B)
	g.pdf.SetTextColor(255, 255, 255)

	for i, col := range columns {
		g.pdf.CellFormat(widths[i], 8, g.fit(col, widths[i]), "1", 0, "C", true, 0, "")
	}
	g.pdf.Ln(-1)
}

// fit truncates text with an ellipsis so it stays inside a cell of the given width.
func (g *PDFGenerator) fit(text string, width float64) string {
	limit := width - 2
	if g.pdf.GetStringWidth(text) <= limit {
		return text
	}
	for len(text) > 0 && g.pdf.GetStringWidth(text+"...") > limit {
		text = text[:len(text)-1]
	}
	return text + "..."
}

func (g *PDFGenerator) formatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(g.options.DateFormat)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (g *PDFGenerator) setFooter() {
	g.pdf.SetFooterFunc(func() {
		if !g.options.IncludePageNum {
			return
		}
		g.pdf.SetY(-12)
		g.pdf.SetFont(g.options.FontFamily, "", 8)
		g.pdf.SetTextColor(128, 128, 128)
		g.pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", g.pdf.PageNo()), "", 0, "C", false, 0, "")
	})
}
