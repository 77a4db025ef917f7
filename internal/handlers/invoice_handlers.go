package handlers

import (
	"net/http"
	"strconv"
	"time"

	"invoicegen/internal/common"
	"invoicegen/internal/models"
	"invoicegen/internal/repositories"
	"invoicegen/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// InvoiceHandlers handles HTTP requests for invoices
type InvoiceHandlers struct {
	invoiceService services.InvoiceServiceInterface
	clientService  services.ClientService
	authService    services.AuthService
	pdfService     services.PDFService
	emailService   services.EmailService
	storageService services.StorageService
}

// NewInvoiceHandlers creates a new invoice handlers instance
func NewInvoiceHandlers(
	invoiceService services.InvoiceServiceInterface,
	clientService services.ClientService,
	authService services.AuthService,
	pdfService services.PDFService,
	emailService services.EmailService,
	storageService services.StorageService,
) *InvoiceHandlers {
	return &InvoiceHandlers{
		invoiceService: invoiceService,
		clientService:  clientService,
		authService:    authService,
		pdfService:     pdfService,
		emailService:   emailService,
		storageService: storageService,
	}
}

type lineItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

type createInvoiceRequest struct {
	ClientID     int64             `json:"client_id"`
	IssueDate    string            `json:"issue_date"`
	DueDate      string            `json:"due_date"`
	Currency     string            `json:"currency"`
	TemplateName string            `json:"template_name"`
	PaymentTerms *string           `json:"payment_terms"`
	Notes        *string           `json:"notes"`
	LineItems    []lineItemRequest `json:"line_items"`
}

func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, common.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func toLineItemInputs(items []lineItemRequest) []services.LineItemInput {
	inputs := make([]services.LineItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, services.LineItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
		})
	}
	return inputs
}

// CreateInvoice handles POST /invoices
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req createInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	issueDate, err := parseDate(req.IssueDate, "issue_date")
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}
	dueDate, err := parseDate(req.DueDate, "due_date")
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}

	invoice, err := h.invoiceService.CreateInvoice(ctx, userID, services.CreateInvoiceInput{
		ClientID:     req.ClientID,
		IssueDate:    issueDate,
		DueDate:      dueDate,
		Currency:     req.Currency,
		TemplateName: req.TemplateName,
		PaymentTerms: req.PaymentTerms,
		Notes:        req.Notes,
		LineItems:    toLineItemInputs(req.LineItems),
	})
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}

	return c.JSON(http.StatusCreated, invoice)
}

// GetInvoice handles GET /invoices/:id
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	invoice, err := h.invoiceService.GetInvoiceByID(ctx, userID, invoiceID)
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}

	return c.JSON(http.StatusOK, invoice)
}

// ListInvoices handles GET /invoices
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var filter repositories.InvoiceFilter

	if statusParam := c.QueryParam("status"); statusParam != "" {
		status := models.InvoiceStatus(statusParam)
		if !status.Valid() {
			return common.SendValidationError(c, "status", "unknown invoice status")
		}
		filter.Status = &status
	}

	if clientParam := c.QueryParam("client_id"); clientParam != "" {
		clientID, err := strconv.ParseInt(clientParam, 10, 64)
		if err != nil || clientID <= 0 {
			return common.SendValidationError(c, "client_id", "must be a positive integer")
		}
		filter.ClientID = &clientID
	}

	if startParam := c.QueryParam("start_date"); startParam != "" {
		start, err := parseDate(startParam, "start_date")
		if err != nil {
			return common.RespondError(c, "invoice", err)
		}
		filter.StartDate = &start
	}

	if endParam := c.QueryParam("end_date"); endParam != "" {
		end, err := parseDate(endParam, "end_date")
		if err != nil {
			return common.RespondError(c, "invoice", err)
		}
		filter.EndDate = &end
	}

	if filter.StartDate != nil && filter.EndDate != nil {
		if err := common.ValidateDateRange(*filter.StartDate, *filter.EndDate); err != nil {
			return common.SendClientError(c, err.Error())
		}
	}

	invoices, total, err := h.invoiceService.ListInvoices(ctx, userID, filter, limit, offset)
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

type updateInvoiceRequest struct {
	ClientID     *int64            `json:"client_id"`
	Status       *string           `json:"status"`
	IssueDate    *string           `json:"issue_date"`
	DueDate      *string           `json:"due_date"`
	Currency     *string           `json:"currency"`
	TemplateName *string           `json:"template_name"`
	PaymentTerms *string           `json:"payment_terms"`
	Notes        *string           `json:"notes"`
	LineItems    []lineItemRequest `json:"line_items"`
}

// UpdateInvoice handles PUT /invoices/:id
func (h *InvoiceHandlers) UpdateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req updateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	input := services.UpdateInvoiceInput{
		ClientID:     req.ClientID,
		Currency:     req.Currency,
		TemplateName: req.TemplateName,
		PaymentTerms: req.PaymentTerms,
		Notes:        req.Notes,
	}

	if req.Status != nil {
		status := models.InvoiceStatus(*req.Status)
		input.Status = &status
	}
	if req.IssueDate != nil {
		issueDate, err := parseDate(*req.IssueDate, "issue_date")
		if err != nil {
			return common.RespondError(c, "invoice", err)
		}
		input.IssueDate = &issueDate
	}
	if req.DueDate != nil {
		dueDate, err := parseDate(*req.DueDate, "due_date")
		if err != nil {
			return common.RespondError(c, "invoice", err)
		}
		input.DueDate = &dueDate
	}
	if req.LineItems != nil {
		input.LineItems = toLineItemInputs(req.LineItems)
	}

	invoice, err := h.invoiceService.UpdateInvoice(ctx, userID, invoiceID, input)
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}

	return c.JSON(http.StatusOK, invoice)
}

// UpdateInvoiceStatus handles PATCH /invoices/:id/status
func (h *InvoiceHandlers) UpdateInvoiceStatus(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	invoice, err := h.invoiceService.UpdateInvoiceStatus(ctx, userID, invoiceID, models.InvoiceStatus(req.Status))
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}

	return c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice handles DELETE /invoices/:id
func (h *InvoiceHandlers) DeleteInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.invoiceService.DeleteInvoice(ctx, userID, invoiceID); err != nil {
		return common.RespondError(c, "invoice", err)
	}

	return c.NoContent(http.StatusNoContent)
}

// CloneInvoice handles POST /invoices/:id/clone
func (h *InvoiceHandlers) CloneInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	clone, err := h.invoiceService.CloneInvoice(ctx, userID, invoiceID)
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}

	return c.JSON(http.StatusCreated, clone)
}

// CheckDuplicate handles POST /invoices/check-duplicate
func (h *InvoiceHandlers) CheckDuplicate(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		ClientID  int64           `json:"client_id"`
		Amount    decimal.Decimal `json:"amount"`
		IssueDate string          `json:"issue_date"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	issueDate, err := parseDate(req.IssueDate, "issue_date")
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}

	existing, err := h.invoiceService.FindDuplicateInvoice(ctx, userID, req.ClientID, req.Amount, issueDate)
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}

	resp := map[string]interface{}{"duplicate": existing != nil}
	if existing != nil {
		resp["invoice"] = existing
	}
	return c.JSON(http.StatusOK, resp)
}

// renderInvoicePDF loads the invoice with its client and issuer and
// renders it.
func (h *InvoiceHandlers) renderInvoicePDF(c echo.Context, userID, invoiceID int64) (*models.Invoice, *models.Client, []byte, error) {
	ctx := c.Request().Context()

	invoice, err := h.invoiceService.GetInvoiceByID(ctx, userID, invoiceID)
	if err != nil {
		return nil, nil, nil, err
	}

	client, err := h.clientService.GetClientByID(ctx, userID, invoice.ClientID)
	if err != nil {
		return nil, nil, nil, err
	}

	issuer, err := h.authService.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}

	content, err := h.pdfService.Render(invoice, client, issuer)
	if err != nil {
		return nil, nil, nil, err
	}
	return invoice, client, content, nil
}

// DownloadPDF handles GET /invoices/:id/pdf
func (h *InvoiceHandlers) DownloadPDF(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	invoice, _, content, err := h.renderInvoicePDF(c, userID, invoiceID)
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="`+services.PDFFileName(invoice.InvoiceNumber)+`"`)
	return c.Blob(http.StatusOK, "application/pdf", content)
}

// UploadPDF handles POST /invoices/:id/pdf/upload
// Renders the invoice, stores the PDF in object storage and returns a
// time-limited download link.
func (h *InvoiceHandlers) UploadPDF(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	invoice, _, content, err := h.renderInvoicePDF(c, userID, invoiceID)
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}

	objectName := services.PDFFileName(invoice.InvoiceNumber)
	if err := h.storageService.UploadPDF(ctx, objectName, content); err != nil {
		return common.SendServerError(c, "Failed to store PDF: "+err.Error())
	}

	url, err := h.storageService.GetPresignedURL(ctx, objectName, 24*time.Hour)
	if err != nil {
		return common.SendServerError(c, "Failed to generate download link: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"object_name": objectName,
		"url":         url,
	})
}

// SendInvoice handles POST /invoices/:id/send
// Renders the invoice PDF and emails it to the client. Dispatch failure
// is reported in the body, not as an HTTP error; marking the invoice
// sent stays an explicit status update by the caller.
func (h *InvoiceHandlers) SendInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	invoice, client, content, err := h.renderInvoicePDF(c, userID, invoiceID)
	if err != nil {
		return common.RespondError(c, "invoice", err)
	}

	issuer, err := h.authService.GetUserByID(ctx, userID)
	if err != nil {
		return common.RespondError(c, "user", err)
	}

	success := h.emailService.SendInvoice(ctx, invoice, client, issuer.DisplayName(), content)
	message := "Invoice sent successfully"
	if !success {
		message = "Failed to send invoice"
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": success,
		"message": message,
	})
}
