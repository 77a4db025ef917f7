package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"text/template"
	"time"

	"invoicegen/internal/common"
	"invoicegen/internal/config"
	"invoicegen/internal/models"
)

// EmailService delivers invoices to clients. Every failure is absorbed
// and reported as false: a failed send degrades to a reported status and
// never unwinds the caller's workflow. No internal retry; callers retry
// by calling again.
type EmailService interface {
	SendInvoice(ctx context.Context, invoice *models.Invoice, client *models.Client, companyName string, pdfContent []byte) bool
}

type emailService struct {
	cfg        config.EmailConfig
	httpClient *http.Client
	bodyTmpl   *template.Template
}

const invoiceEmailBody = `<p>Dear {{.ClientName}},</p>
<p>Please find invoice <strong>{{.InvoiceNumber}}</strong> from {{.CompanyName}}.</p>
<p>Issued: {{.IssueDate}}<br/>Due: {{.DueDate}}<br/>Amount: {{.Currency}} {{.Amount}}</p>
{{if .PaymentTerms}}<p>Payment terms: {{.PaymentTerms}}</p>{{end}}
<p>Thank you for your business.</p>`

// NewEmailService creates the mail notifier. Provider settings come in
// through the config object rather than process globals.
func NewEmailService(cfg config.EmailConfig) EmailService {
	return &emailService{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		bodyTmpl: template.Must(template.New("invoice_email").Parse(invoiceEmailBody)),
	}
}

type emailAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type emailPayload struct {
	From        string            `json:"from"`
	To          []string          `json:"to"`
	Subject     string            `json:"subject"`
	HTML        string            `json:"html"`
	Attachments []emailAttachment `json:"attachments,omitempty"`
}

func (s *emailService) SendInvoice(ctx context.Context, invoice *models.Invoice, client *models.Client, companyName string, pdfContent []byte) bool {
	if err := common.ValidateEmailAddress(client.Email, "email"); err != nil {
		log.Printf("Refusing to send invoice %s: invalid recipient %q", invoice.InvoiceNumber, client.Email)
		return false
	}

	var body bytes.Buffer
	err := s.bodyTmpl.Execute(&body, map[string]string{
		"ClientName":    client.Name,
		"InvoiceNumber": invoice.InvoiceNumber,
		"CompanyName":   companyName,
		"IssueDate":     invoice.IssueDate.Format("January 02, 2006"),
		"DueDate":       invoice.DueDate.Format("January 02, 2006"),
		"Currency":      invoice.Currency,
		"Amount":        invoice.Amount.StringFixed(2),
		"PaymentTerms":  common.SafeString(invoice.PaymentTerms),
	})
	if err != nil {
		log.Printf("Failed to render invoice email body: %v", err)
		return false
	}

	payload := emailPayload{
		From:    fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail),
		To:      []string{client.Email},
		Subject: fmt.Sprintf("Invoice %s", invoice.InvoiceNumber),
		HTML:    body.String(),
	}
	if len(pdfContent) > 0 {
		payload.Attachments = []emailAttachment{{
			Filename: PDFFileName(invoice.InvoiceNumber),
			Content:  base64.StdEncoding.EncodeToString(pdfContent),
		}}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal invoice email payload: %v", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/emails", bytes.NewReader(data))
	if err != nil {
		log.Printf("Failed to build invoice email request: %v", err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("Failed to send invoice email to %s: %v", client.Email, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("Mail provider rejected invoice %s: %d - %s", invoice.InvoiceNumber, resp.StatusCode, string(respBody))
		return false
	}

	log.Printf("Invoice email sent to %s", client.Email)
	return true
}
