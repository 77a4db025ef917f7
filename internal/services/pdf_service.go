package services

import (
	"bytes"
	"fmt"

	"invoicegen/internal/common"
	"invoicegen/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// currencySymbols maps supported currency codes to display symbols.
// Unknown codes render as the raw code; rendering never fails over an
// unmapped currency.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"NGN": "₦",
}

// CurrencySymbol returns the display symbol for a currency code, or the
// code itself when no symbol is known.
func CurrencySymbol(code string) string {
	if symbol, ok := currencySymbols[code]; ok {
		return symbol
	}
	return code
}

// PDFFileName is the download/storage name convention for a rendered
// invoice.
func PDFFileName(invoiceNumber string) string {
	return fmt.Sprintf("invoice_%s.pdf", invoiceNumber)
}

// PDFService renders invoices to PDF byte streams. It is pure with
// respect to its inputs and has no persistence side effects.
type PDFService interface {
	Render(invoice *models.Invoice, client *models.Client, issuer *models.User) ([]byte, error)
	TemplateNames() []string
}

type layoutFunc func(pdf *gofpdf.Fpdf, tr func(string) string, invoice *models.Invoice, client *models.Client, issuer *models.User)

type pdfService struct {
	layouts map[string]layoutFunc
}

// NewPDFService creates a renderer with the built-in layout registry.
func NewPDFService() PDFService {
	s := &pdfService{layouts: map[string]layoutFunc{}}
	s.layouts["standard"] = s.standardLayout
	s.layouts["compact"] = s.compactLayout
	return s
}

func (s *pdfService) TemplateNames() []string {
	names := make([]string, 0, len(s.layouts))
	for name := range s.layouts {
		names = append(names, name)
	}
	return names
}

// Render projects the invoice, its client and the issuing user into a
// PDF using the invoice's template. The grand total printed must match
// the stored amount; a recomputation mismatch is a data-integrity bug
// and aborts the render rather than being reconciled silently.
func (s *pdfService) Render(invoice *models.Invoice, client *models.Client, issuer *models.User) ([]byte, error) {
	layout, ok := s.layouts[invoice.TemplateName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrTemplateNotFound, invoice.TemplateName)
	}

	recomputed := ComputeInvoiceTotal(invoice.LineItems).Round(2)
	if !recomputed.Equal(invoice.Amount.Round(2)) {
		return nil, fmt.Errorf("invoice %s amount mismatch: stored %s, recomputed %s",
			invoice.InvoiceNumber, invoice.Amount.StringFixed(2), recomputed.StringFixed(2))
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	layout(pdf, tr, invoice, client, issuer)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *pdfService) standardLayout(pdf *gofpdf.Fpdf, tr func(string) string, invoice *models.Invoice, client *models.Client, issuer *models.User) {
	symbol := CurrencySymbol(invoice.Currency)

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.Cell(0, 10, tr(fmt.Sprintf("INVOICE %s", invoice.InvoiceNumber)))
	pdf.Ln(15)

	// From / Bill To blocks
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(85, 6, "From:", "", 0, "L", false, 0, "")
	pdf.CellFormat(85, 6, "Bill To:", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(85, 5, tr(issuer.DisplayName()), "", 0, "L", false, 0, "")
	pdf.CellFormat(85, 5, tr(client.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(85, 5, tr(issuer.Email), "", 0, "L", false, 0, "")
	pdf.CellFormat(85, 5, tr(client.Email), "", 1, "L", false, 0, "")
	pdf.CellFormat(85, 5, tr(common.SafeString(issuer.CompanyAddress)), "", 0, "L", false, 0, "")
	pdf.CellFormat(85, 5, tr(common.SafeString(client.Phone)), "", 1, "L", false, 0, "")
	pdf.CellFormat(85, 5, tr(common.SafeString(issuer.CompanyPhone)), "", 0, "L", false, 0, "")
	pdf.CellFormat(85, 5, tr(common.SafeString(client.Address)), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	// Invoice details
	pdf.SetFont("Arial", "B", 10)
	details := [][2]string{
		{"Invoice Date:", invoice.IssueDate.Format("02-Jan-2006")},
		{"Due Date:", invoice.DueDate.Format("02-Jan-2006")},
		{"Status:", string(invoice.Status)},
		{"Currency:", invoice.Currency},
	}
	for _, d := range details {
		pdf.CellFormat(40, 6, d[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(60, 6, tr(d[1]), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 10)
	}
	pdf.Ln(6)

	// Items table header
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	headers := []string{"Description", "Qty", "Unit Price", "Tax", "Total"}
	colWidths := []float64{70, 20, 30, 20, 30}
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	// Item rows; descriptions wrap rather than overflow the column.
	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(255, 255, 255)
	for _, item := range invoice.LineItems {
		lineTotal := ComputeInvoiceTotal([]models.LineItem{item}).Round(2)

		x, y := pdf.GetXY()
		pdf.MultiCell(colWidths[0], 6, tr(item.Description), "1", "L", false)
		rowHeight := pdf.GetY() - y
		if rowHeight < 8 {
			rowHeight = 8
		}

		pdf.SetXY(x+colWidths[0], y)
		pdf.CellFormat(colWidths[1], rowHeight, item.Quantity.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[2], rowHeight, tr(fmt.Sprintf("%s %s", symbol, item.UnitPrice.StringFixed(2))), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], rowHeight, item.TaxRate.String()+"%", "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[4], rowHeight, tr(fmt.Sprintf("%s %s", symbol, lineTotal.StringFixed(2))), "1", 0, "R", false, 0, "")
		pdf.SetXY(x, y+rowHeight)
	}
	pdf.Ln(4)

	// Grand total
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(140, 8, "TOTAL:", "", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, tr(fmt.Sprintf("%s %s", symbol, invoice.Amount.StringFixed(2))), "", 1, "R", false, 0, "")

	// Payment terms and notes
	if invoice.PaymentTerms != nil && *invoice.PaymentTerms != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Payment Terms:")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(170, 5, tr(*invoice.PaymentTerms), "", "L", false)
	}
	if invoice.Notes != nil && *invoice.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Notes:")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(170, 5, tr(*invoice.Notes), "", "L", false)
	}

	// Footer
	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.Cell(0, 5, "Thank you for your business!")
}

// compactLayout is a denser single-block variant without the framed
// header sections.
func (s *pdfService) compactLayout(pdf *gofpdf.Fpdf, tr func(string) string, invoice *models.Invoice, client *models.Client, issuer *models.User) {
	symbol := CurrencySymbol(invoice.Currency)

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(33, 37, 41)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Invoice %s", invoice.InvoiceNumber)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 5, tr(fmt.Sprintf("%s -> %s (%s)", issuer.DisplayName(), client.Name, client.Email)))
	pdf.Ln(5)
	pdf.Cell(0, 5, tr(fmt.Sprintf("Issued %s, due %s, status %s",
		invoice.IssueDate.Format("2006-01-02"), invoice.DueDate.Format("2006-01-02"), invoice.Status)))
	pdf.Ln(8)

	for _, item := range invoice.LineItems {
		lineTotal := ComputeInvoiceTotal([]models.LineItem{item}).Round(2)
		lines := pdf.SplitText(item.Description, 100)
		description := item.Description
		if len(lines) > 0 {
			description = lines[0]
		}
		pdf.CellFormat(100, 5, tr(description), "", 0, "L", false, 0, "")
		pdf.CellFormat(70, 5, tr(fmt.Sprintf("%s x %s %s + %s%% = %s %s",
			item.Quantity.String(), symbol, item.UnitPrice.StringFixed(2), item.TaxRate.String(), symbol, lineTotal.StringFixed(2))), "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(170, 7, tr(fmt.Sprintf("TOTAL %s %s", symbol, invoice.Amount.StringFixed(2))), "T", 1, "R", false, 0, "")
}
