// Package render produces the binary artifacts referenced by certificates
// and loading orders: the certificate PDF and the public QR code.
package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/vermlab/laudo/internal/certificates"
	"github.com/vermlab/laudo/pkg/formatting"
)

// PDF renders certificate documents.
type PDF struct {
	logger *slog.Logger
}

// NewPDF creates a certificate PDF renderer.
func NewPDF(logger *slog.Logger) *PDF {
	return &PDF{logger: logger.With("system", "render")}
}

// RenderCertificate builds the laudo document: header, per-property results
// table, conformance table and responsible-parties footer. The output is
// validated with pdfcpu before being returned.
func (p *PDF) RenderCertificate(ctx context.Context, view certificates.View) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()

	p.header(doc, view)
	p.resultsTable(doc, view)
	p.conformanceTable(doc, view)
	p.footer(doc, view)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}

	pages, err := api.PageCount(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		return nil, fmt.Errorf("validate certificate pdf: %w", err)
	}

	p.logger.Debug("certificate rendered",
		"report_number", view.ReportNumber,
		"pages", pages,
		"bytes", buf.Len(),
	)
	return buf.Bytes(), nil
}

func (p *PDF) header(doc *fpdf.Fpdf, view certificates.View) {
	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, "Quality Certificate", "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, view.ReportNumber, "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 10)
	line := func(label, value string) {
		if value == "" {
			return
		}
		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(45, 6, label, "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
	}

	line("Customer", view.Customer)
	line("Document", view.Document)
	line("Destination", view.Destination)
	line("Product", fmt.Sprintf("%s (%s)", view.ProductName, view.ProductCode))
	line("Production line", view.Line)
	line("Batch", view.BatchNumber)
	line("Period", fmt.Sprintf("%s to %s",
		view.StartDate.Format("2006-01-02"), view.EndDate.Format("2006-01-02")))
	if view.Quantity != nil {
		line("Quantity", view.Quantity.String())
	}
	if !view.ApprovedAt.IsZero() {
		line("Approved at", view.ApprovedAt.Format("2006-01-02 15:04"))
	}
	doc.Ln(6)
}

func (p *PDF) resultsTable(doc *fpdf.Fpdf, view certificates.View) {
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(0, 8, "Results", "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "B", 9)
	doc.SetFillColor(230, 230, 230)
	doc.CellFormat(60, 7, "Property", "1", 0, "L", true, 0, "")
	doc.CellFormat(30, 7, "Value", "1", 0, "R", true, 0, "")
	doc.CellFormat(25, 7, "Unit", "1", 0, "L", true, 0, "")
	doc.CellFormat(40, 7, "Method", "1", 0, "L", true, 0, "")
	doc.CellFormat(0, 7, "Verdict", "1", 1, "C", true, 0, "")

	doc.SetFont("Helvetica", "", 9)
	for _, row := range view.Rows {
		doc.CellFormat(60, 6, row.Property, "1", 0, "L", false, 0, "")
		doc.CellFormat(30, 6, formatting.FormatDecimal(row.Value, row.Precision), "1", 0, "R", false, 0, "")
		doc.CellFormat(25, 6, row.Unit, "1", 0, "L", false, 0, "")
		doc.CellFormat(40, 6, row.Method, "1", 0, "L", false, 0, "")
		doc.CellFormat(0, 6, string(row.Verdict), "1", 1, "C", false, 0, "")
	}
	doc.Ln(6)
}

func (p *PDF) conformanceTable(doc *fpdf.Fpdf, view certificates.View) {
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(0, 8, "Conformance", "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "B", 9)
	doc.SetFillColor(230, 230, 230)
	doc.CellFormat(60, 7, "Property", "1", 0, "L", true, 0, "")
	doc.CellFormat(30, 7, "Minimum", "1", 0, "R", true, 0, "")
	doc.CellFormat(30, 7, "Value", "1", 0, "R", true, 0, "")
	doc.CellFormat(30, 7, "Maximum", "1", 0, "R", true, 0, "")
	doc.CellFormat(0, 7, "Conforms", "1", 1, "C", true, 0, "")

	doc.SetFont("Helvetica", "", 9)
	for _, row := range view.Rows {
		lsl, usl := "-", "-"
		if row.LSL != nil {
			lsl = formatting.FormatDecimal(*row.LSL, row.Precision)
		}
		if row.USL != nil {
			usl = formatting.FormatDecimal(*row.USL, row.Precision)
		}

		conforms := "YES"
		if !row.Verdict.Acceptable() {
			conforms = "NO"
		}

		doc.CellFormat(60, 6, row.Property, "1", 0, "L", false, 0, "")
		doc.CellFormat(30, 6, lsl, "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 6, formatting.FormatDecimal(row.Value, row.Precision), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 6, usl, "1", 0, "R", false, 0, "")
		doc.CellFormat(0, 6, conforms, "1", 1, "C", false, 0, "")
	}
	doc.Ln(10)
}

func (p *PDF) footer(doc *fpdf.Fpdf, view certificates.View) {
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(90, 6, "Prepared by: "+view.CreatedBy, "T", 0, "L", false, 0, "")
	doc.CellFormat(0, 6, "Approved by: "+view.ApprovedBy, "T", 1, "L", false, 0, "")

	if view.Observations != "" {
		doc.Ln(4)
		doc.SetFont("Helvetica", "I", 9)
		doc.MultiCell(0, 5, "Observations: "+view.Observations, "", "L", false)
	}
}

// QR renders PNG QR codes for loading order public URLs.
type QR struct{}

// NewQR creates a QR renderer.
func NewQR() *QR {
	return &QR{}
}

// RenderQR encodes the payload into a size x size PNG.
func (q *QR) RenderQR(payload string, size int) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
