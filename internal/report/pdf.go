package report

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/go-pdf/fpdf"
)

// =============================================================================
// PDF Generator
// =============================================================================

// PDFGenerator renders the astrological report for one prediction.
type PDFGenerator struct {
	// Page dimensions (A4 in mm)
	pageWidth  float64
	pageHeight float64
	margin     float64

	// Content area
	contentWidth float64
}

// NewPDFGenerator creates a new PDF generator with default settings.
func NewPDFGenerator() *PDFGenerator {
	margin := 20.0
	pageWidth := 210.0 // A4 width in mm
	return &PDFGenerator{
		pageWidth:    pageWidth,
		pageHeight:   297.0, // A4 height in mm
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
	}
}

// Format returns the output format of this generator.
func (g *PDFGenerator) Format() domain.ArtifactFormat {
	return domain.ArtifactFormatPDF
}

// pdfWriter bundles the document with a translator from UTF-8 to the
// cp1252 encoding of the core fonts.
type pdfWriter struct {
	*fpdf.Fpdf
	tr func(string) string
}

// Generate renders the report and writes it to w.
func (g *PDFGenerator) Generate(ctx context.Context, data *domain.ReportData, w io.Writer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	doc := fpdf.New("P", "mm", "A4", "")
	pdf := &pdfWriter{Fpdf: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}

	pdf.SetTitle("JyotAI Astrological Report - "+data.Name, true)
	pdf.SetAuthor("JyotAI", true)
	pdf.SetCreator("JyotAI", true)
	pdf.SetMargins(g.margin, g.margin, g.margin)
	pdf.SetAutoPageBreak(true, 25)

	pdf.SetFooterFunc(func() {
		g.addFooter(pdf, data)
	})

	pdf.AddPage()
	g.addHeader(pdf)
	g.addUserDetails(pdf, data)
	g.addSummary(pdf, data)
	g.addInsights(pdf, data)
	if data.HasPremiumInsights() {
		g.addPremiumInsights(pdf, data)
	}

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// =============================================================================
// Sections
// =============================================================================

func (g *PDFGenerator) addHeader(pdf *pdfWriter) {
	r, gr, b := HexToRGB(BrandColors.Indigo)
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 14, "JyotAI Astrological Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	r, gr, b = HexToRGB(BrandColors.Saffron)
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(0.8)
	pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
	pdf.Ln(8)

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
}

func (g *PDFGenerator) addUserDetails(pdf *pdfWriter, data *domain.ReportData) {
	g.addLabelValue(pdf, "Name", data.Name)
	if data.HasBirthDetails() {
		g.addLabelValue(pdf, "Date of Birth", data.BirthDetails.DOB)
		g.addLabelValue(pdf, "Time of Birth", data.BirthDetails.Time)
		g.addLabelValue(pdf, "Place of Birth", data.BirthDetails.Place)
	}
	pdf.Ln(6)
}

func (g *PDFGenerator) addSummary(pdf *pdfWriter, data *domain.ReportData) {
	g.addSectionHeader(pdf, "Prediction Summary:")
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(g.contentWidth, 6, pdf.tr(data.Summary), "", "L", false)
	pdf.Ln(6)
}

func (g *PDFGenerator) addInsights(pdf *pdfWriter, data *domain.ReportData) {
	for _, key := range orderedInsights(data.Insights) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, pdf.tr(CategoryTitle(key)+":"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(g.contentWidth, 5.5, pdf.tr(data.Insights[key]), "", "L", false)
		pdf.Ln(4)
	}
}

func (g *PDFGenerator) addPremiumInsights(pdf *pdfWriter, data *domain.ReportData) {
	if n := data.Nakshatra; n != nil {
		g.addSectionHeader(pdf, "Premium Insights:")
		g.addLabelValue(pdf, "Nakshatra", n.Name)
		g.addLabelValue(pdf, "Ruling Planet", n.Ruler)
		g.addLabelValue(pdf, "Lucky Gem", n.LuckyGem)
		pdf.Ln(6)
	}
	if data.LifePathSummary != "" {
		g.addSectionHeader(pdf, "Life Path Summary:")
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(g.contentWidth, 6, pdf.tr(data.LifePathSummary), "", "L", false)
		pdf.Ln(6)
	}
}

// =============================================================================
// Helpers
// =============================================================================

func (g *PDFGenerator) addSectionHeader(pdf *pdfWriter, title string) {
	r, gr, b := HexToRGB(BrandColors.Indigo)
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, pdf.tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
}

func (g *PDFGenerator) addLabelValue(pdf *pdfWriter, label, value string) {
	if value == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(45, 7, pdf.tr(label+":"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(g.contentWidth-45, 7, pdf.tr(value), "", "L", false)
}

func (g *PDFGenerator) addFooter(pdf *pdfWriter, data *domain.ReportData) {
	pdf.SetY(-20)

	r, gr, b := HexToRGB(BrandColors.Border)
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(0.2)
	pdf.Line(g.margin, pdf.GetY()-2, g.pageWidth-g.margin, pdf.GetY()-2)

	r, gr, b = HexToRGB(BrandColors.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, "Generated by JyotAI - Your AI Astrologer", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, "Report ID: "+ShortID(data.ReportID), "", 0, "L", false, 0, "")
	pdf.SetX(g.pageWidth - g.margin - 80)
	pdf.CellFormat(80, 5, FormatDateTime(data.GeneratedAt)+fmt.Sprintf("  Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
}
