package services

import (
	"context"
	"fmt"
	"time"

	"invoicegen/internal/common"
	"invoicegen/internal/models"
	"invoicegen/internal/repositories"

	"github.com/shopspring/decimal"
)

// DefaultTemplateName is the PDF layout used when neither the request
// nor the owner's saved templates name one.
const DefaultTemplateName = "standard"

var (
	decimalHundred  = decimal.NewFromInt(100)
	maxLineItemRate = decimal.NewFromInt(100)
)

// LineItemInput is one billable row supplied on create or update.
type LineItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// CreateInvoiceInput carries an already-validated-at-the-edge create
// request. Domain validation still happens here.
type CreateInvoiceInput struct {
	ClientID     int64           `json:"client_id"`
	IssueDate    time.Time       `json:"issue_date"`
	DueDate      time.Time       `json:"due_date"`
	Currency     string          `json:"currency"`
	TemplateName string          `json:"template_name"`
	PaymentTerms *string         `json:"payment_terms"`
	Notes        *string         `json:"notes"`
	LineItems    []LineItemInput `json:"line_items"`
}

// UpdateInvoiceInput applies only its non-nil fields. A non-nil
// LineItems slice replaces the entire previous set.
type UpdateInvoiceInput struct {
	ClientID     *int64                `json:"client_id"`
	Status       *models.InvoiceStatus `json:"status"`
	IssueDate    *time.Time            `json:"issue_date"`
	DueDate      *time.Time            `json:"due_date"`
	Currency     *string               `json:"currency"`
	TemplateName *string               `json:"template_name"`
	PaymentTerms *string               `json:"payment_terms"`
	Notes        *string               `json:"notes"`
	LineItems    []LineItemInput       `json:"line_items"`
}

// InvoiceServiceInterface defines the interface for invoice service
type InvoiceServiceInterface interface {
	CreateInvoice(ctx context.Context, userID int64, input CreateInvoiceInput) (*models.Invoice, error)
	GetInvoiceByID(ctx context.Context, userID, invoiceID int64) (*models.Invoice, error)
	ListInvoices(ctx context.Context, userID int64, filter repositories.InvoiceFilter, limit, offset int) ([]*models.Invoice, int, error)
	UpdateInvoice(ctx context.Context, userID, invoiceID int64, input UpdateInvoiceInput) (*models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, userID, invoiceID int64, status models.InvoiceStatus) (*models.Invoice, error)
	DeleteInvoice(ctx context.Context, userID, invoiceID int64) error
	CloneInvoice(ctx context.Context, userID, invoiceID int64) (*models.Invoice, error)
	FindDuplicateInvoice(ctx context.Context, userID, clientID int64, amount decimal.Decimal, issueDate time.Time) (*models.Invoice, error)
}

type invoiceService struct {
	invoiceRepo  repositories.InvoiceRepository
	clientRepo   repositories.ClientRepository
	templateRepo repositories.TemplateRepository
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(invoiceRepo repositories.InvoiceRepository, clientRepo repositories.ClientRepository, templateRepo repositories.TemplateRepository) InvoiceServiceInterface {
	return &invoiceService{
		invoiceRepo:  invoiceRepo,
		clientRepo:   clientRepo,
		templateRepo: templateRepo,
	}
}

// ComputeInvoiceTotal sums per-line totals with exact decimal
// arithmetic. Per-line tax is not rounded before summation; callers
// round the final sum for persistence or display.
func ComputeInvoiceTotal(items []models.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		subtotal := item.Quantity.Mul(item.UnitPrice)
		tax := subtotal.Mul(item.TaxRate.Div(decimalHundred))
		total = total.Add(subtotal).Add(tax)
	}
	return total
}

func validateLineItems(items []LineItemInput) error {
	if len(items) == 0 {
		return common.NewValidationError("line_items", "at least one line item is required")
	}
	for i, item := range items {
		if item.Description == "" {
			return common.NewValidationError(fmt.Sprintf("line_items[%d].description", i), "is required")
		}
		if !item.Quantity.IsPositive() {
			return common.NewValidationError(fmt.Sprintf("line_items[%d].quantity", i), "must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return common.NewValidationError(fmt.Sprintf("line_items[%d].unit_price", i), "cannot be negative")
		}
		if item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(maxLineItemRate) {
			return common.NewValidationError(fmt.Sprintf("line_items[%d].tax_rate", i), "must be between 0 and 100")
		}
	}
	return nil
}

func buildLineItems(inputs []LineItemInput) []models.LineItem {
	items := make([]models.LineItem, len(inputs))
	for i, in := range inputs {
		items[i] = models.LineItem{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
		}
	}
	return items
}

// getOwnedInvoice loads the invoice and then checks ownership, in that
// order: a missing invoice and someone else's invoice both need to look
// identical to callers that render errors uniformly.
func (s *invoiceService) getOwnedInvoice(ctx context.Context, userID, invoiceID int64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.UserID != userID {
		return nil, common.ErrForbidden
	}
	return invoice, nil
}

// getOwnedClient verifies the billed client exists and belongs to the
// invoice owner before any invoice row is written.
func (s *invoiceService) getOwnedClient(ctx context.Context, userID, clientID int64) (*models.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.UserID != userID {
		return nil, common.ErrForbidden
	}
	return client, nil
}

func (s *invoiceService) CreateInvoice(ctx context.Context, userID int64, input CreateInvoiceInput) (*models.Invoice, error) {
	if err := validateLineItems(input.LineItems); err != nil {
		return nil, err
	}
	if input.DueDate.Before(input.IssueDate) {
		return nil, common.NewValidationError("due_date", "cannot be earlier than issue date")
	}
	if !models.SupportedCurrencies[input.Currency] {
		return nil, common.NewValidationError("currency", "is not supported")
	}

	if _, err := s.getOwnedClient(ctx, userID, input.ClientID); err != nil {
		return nil, err
	}

	templateName := input.TemplateName
	if templateName == "" {
		templateName = DefaultTemplateName
		if tmpl, err := s.templateRepo.GetDefault(ctx, userID); err == nil && tmpl != nil {
			templateName = tmpl.Layout
		}
	}

	items := buildLineItems(input.LineItems)
	invoice := &models.Invoice{
		UserID:       userID,
		ClientID:     input.ClientID,
		Status:       models.StatusDraft,
		Currency:     input.Currency,
		Amount:       ComputeInvoiceTotal(items).Round(2),
		IssueDate:    input.IssueDate,
		DueDate:      input.DueDate,
		TemplateName: templateName,
		PaymentTerms: input.PaymentTerms,
		Notes:        input.Notes,
		LineItems:    items,
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *invoiceService) GetInvoiceByID(ctx context.Context, userID, invoiceID int64) (*models.Invoice, error) {
	return s.getOwnedInvoice(ctx, userID, invoiceID)
}

func (s *invoiceService) ListInvoices(ctx context.Context, userID int64, filter repositories.InvoiceFilter, limit, offset int) ([]*models.Invoice, int, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, 0, common.NewValidationError("offset", err.Error())
	}
	return s.invoiceRepo.List(ctx, userID, filter, limit, offset)
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, userID, invoiceID int64, input UpdateInvoiceInput) (*models.Invoice, error) {
	invoice, err := s.getOwnedInvoice(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	if input.ClientID != nil {
		if _, err := s.getOwnedClient(ctx, userID, *input.ClientID); err != nil {
			return nil, err
		}
		invoice.ClientID = *input.ClientID
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, common.NewValidationError("status", "must be one of: draft, sent, paid, overdue, cancelled")
		}
		invoice.Status = *input.Status
	}
	if input.IssueDate != nil {
		invoice.IssueDate = *input.IssueDate
	}
	if input.DueDate != nil {
		invoice.DueDate = *input.DueDate
	}
	if input.Currency != nil {
		if !models.SupportedCurrencies[*input.Currency] {
			return nil, common.NewValidationError("currency", "is not supported")
		}
		invoice.Currency = *input.Currency
	}
	if input.TemplateName != nil {
		invoice.TemplateName = *input.TemplateName
	}
	if input.PaymentTerms != nil {
		invoice.PaymentTerms = input.PaymentTerms
	}
	if input.Notes != nil {
		invoice.Notes = input.Notes
	}

	if invoice.DueDate.Before(invoice.IssueDate) {
		return nil, common.NewValidationError("due_date", "cannot be earlier than issue date")
	}

	replaceItems := input.LineItems != nil
	if replaceItems {
		if err := validateLineItems(input.LineItems); err != nil {
			return nil, err
		}
		invoice.LineItems = buildLineItems(input.LineItems)
		invoice.Amount = ComputeInvoiceTotal(invoice.LineItems).Round(2)
	}

	if err := s.invoiceRepo.Update(ctx, invoice, replaceItems); err != nil {
		return nil, err
	}
	return s.invoiceRepo.GetByID(ctx, invoiceID)
}

// UpdateInvoiceStatus overwrites the status unconditionally. Any known
// status may follow any other; callers wanting stricter transitions
// enforce them at the edge.
func (s *invoiceService) UpdateInvoiceStatus(ctx context.Context, userID, invoiceID int64, status models.InvoiceStatus) (*models.Invoice, error) {
	if !status.Valid() {
		return nil, common.NewValidationError("status", "must be one of: draft, sent, paid, overdue, cancelled")
	}

	invoice, err := s.getOwnedInvoice(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, invoiceID, status); err != nil {
		return nil, err
	}
	invoice.Status = status
	return invoice, nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, userID, invoiceID int64) error {
	if _, err := s.getOwnedInvoice(ctx, userID, invoiceID); err != nil {
		return err
	}
	return s.invoiceRepo.Delete(ctx, invoiceID)
}

// CloneInvoice copies an invoice into a fresh draft: new number, issue
// date reset to today, client, currency, terms, notes, due date and
// amount carried over, line items deep-copied with new identities.
func (s *invoiceService) CloneInvoice(ctx context.Context, userID, invoiceID int64) (*models.Invoice, error) {
	original, err := s.getOwnedInvoice(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	items := make([]models.LineItem, len(original.LineItems))
	for i, item := range original.LineItems {
		items[i] = models.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
		}
	}

	now := time.Now().UTC()
	clone := &models.Invoice{
		UserID:       userID,
		ClientID:     original.ClientID,
		Status:       models.StatusDraft,
		Currency:     original.Currency,
		Amount:       original.Amount,
		IssueDate:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		DueDate:      original.DueDate,
		TemplateName: original.TemplateName,
		PaymentTerms: original.PaymentTerms,
		Notes:        original.Notes,
		LineItems:    items,
	}

	if err := s.invoiceRepo.Create(ctx, clone); err != nil {
		return nil, err
	}
	return clone, nil
}

// FindDuplicateInvoice is an advisory exact-match check; it never blocks
// creation.
func (s *invoiceService) FindDuplicateInvoice(ctx context.Context, userID, clientID int64, amount decimal.Decimal, issueDate time.Time) (*models.Invoice, error) {
	return s.invoiceRepo.FindDuplicate(ctx, userID, clientID, amount, issueDate)
}
