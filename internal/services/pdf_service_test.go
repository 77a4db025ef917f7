package services

import (
	"testing"
	"time"

	"invoicegen/internal/common"
	"invoicegen/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func pdfFixture() (*models.Invoice, *models.Client, *models.User) {
	company := "Acme Studio"
	invoice := &models.Invoice{
		ID:            7,
		UserID:        1,
		ClientID:      10,
		InvoiceNumber: "INV-2024-00001",
		Status:        models.StatusDraft,
		Currency:      "USD",
		Amount:        decimal.RequireFromString("220.00"),
		IssueDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		TemplateName:  "standard",
		LineItems: []models.LineItem{
			{Description: "Consulting", Quantity: decimal.RequireFromString("2"), UnitPrice: decimal.RequireFromString("100"), TaxRate: decimal.RequireFromString("10")},
		},
	}
	client := &models.Client{ID: 10, UserID: 1, Name: "Globex", Email: "ap@globex.test"}
	issuer := &models.User{ID: 1, Username: "jane", Email: "jane@acme.test", CompanyName: &company}
	return invoice, client, issuer
}

func TestRender_ProducesPDF(t *testing.T) {
	svc := NewPDFService()
	invoice, client, issuer := pdfFixture()

	content, err := svc.Render(invoice, client, issuer)

	assert.NoError(t, err)
	assert.True(t, len(content) > 500)
	assert.Equal(t, "%PDF", string(content[:4]))
}

func TestRender_CompactLayout(t *testing.T) {
	svc := NewPDFService()
	invoice, client, issuer := pdfFixture()
	invoice.TemplateName = "compact"

	content, err := svc.Render(invoice, client, issuer)

	assert.NoError(t, err)
	assert.Equal(t, "%PDF", string(content[:4]))
}

func TestRender_UnknownTemplate(t *testing.T) {
	svc := NewPDFService()
	invoice, client, issuer := pdfFixture()
	invoice.TemplateName = "letterhead"

	_, err := svc.Render(invoice, client, issuer)

	assert.ErrorIs(t, err, common.ErrTemplateNotFound)
}

func TestRender_AmountMismatch(t *testing.T) {
	svc := NewPDFService()
	invoice, client, issuer := pdfFixture()
	invoice.Amount = decimal.RequireFromString("999.99")

	_, err := svc.Render(invoice, client, issuer)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "amount mismatch")
}

func TestRender_UnknownCurrencyRendersRawCode(t *testing.T) {
	svc := NewPDFService()
	invoice, client, issuer := pdfFixture()
	invoice.Currency = "XYZ"

	content, err := svc.Render(invoice, client, issuer)

	assert.NoError(t, err)
	assert.Equal(t, "%PDF", string(content[:4]))
}

func TestRender_LongDescriptionWraps(t *testing.T) {
	svc := NewPDFService()
	invoice, client, issuer := pdfFixture()
	invoice.LineItems[0].Description = "An extremely long line item description that would overflow the description column if it were not wrapped onto multiple lines by the renderer"

	content, err := svc.Render(invoice, client, issuer)

	assert.NoError(t, err)
	assert.Equal(t, "%PDF", string(content[:4]))
}

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, "$", CurrencySymbol("USD"))
	assert.Equal(t, "€", CurrencySymbol("EUR"))
	assert.Equal(t, "£", CurrencySymbol("GBP"))
	assert.Equal(t, "₦", CurrencySymbol("NGN"))
	assert.Equal(t, "XYZ", CurrencySymbol("XYZ"))
}

func TestPDFFileName(t *testing.T) {
	assert.Equal(t, "invoice_INV-2024-00001.pdf", PDFFileName("INV-2024-00001"))
}

func TestTemplateNames(t *testing.T) {
	svc := NewPDFService()
	names := svc.TemplateNames()
	assert.ElementsMatch(t, []string{"standard", "compact"}, names)
}
