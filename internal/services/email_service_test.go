package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"invoicegen/internal/config"
	"invoicegen/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func emailFixture() (*models.Invoice, *models.Client) {
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
	}
	client := &models.Client{ID: 10, UserID: 1, Name: "Globex", Email: "ap@globex.test"}
	return invoice, client
}

func emailServiceFor(baseURL string) EmailService {
	return NewEmailService(config.EmailConfig{
		APIKey:    "re_test_key",
		BaseURL:   baseURL,
		FromEmail: "invoices@acme.test",
		FromName:  "Acme Invoicing",
	})
}

func TestSendInvoice_Success(t *testing.T) {
	var captured emailPayload
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer server.Close()

	invoice, client := emailFixture()
	sent := emailServiceFor(server.URL).SendInvoice(context.Background(), invoice, client, "Acme Studio", []byte("%PDF-1.4 fake"))

	assert.True(t, sent)
	assert.Equal(t, "Bearer re_test_key", authHeader)
	assert.Equal(t, "Acme Invoicing <invoices@acme.test>", captured.From)
	assert.Equal(t, []string{"ap@globex.test"}, captured.To)
	assert.Equal(t, "Invoice INV-2024-00001", captured.Subject)
	assert.Contains(t, captured.HTML, "INV-2024-00001")
	assert.Contains(t, captured.HTML, "Acme Studio")
	assert.Len(t, captured.Attachments, 1)
	assert.Equal(t, "invoice_INV-2024-00001.pdf", captured.Attachments[0].Filename)
}

func TestSendInvoice_ProviderErrorReturnsFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"something broke"}`))
	}))
	defer server.Close()

	invoice, client := emailFixture()
	sent := emailServiceFor(server.URL).SendInvoice(context.Background(), invoice, client, "Acme Studio", nil)

	assert.False(t, sent)
}

func TestSendInvoice_NetworkFailureReturnsFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	invoice, client := emailFixture()
	sent := emailServiceFor(server.URL).SendInvoice(context.Background(), invoice, client, "Acme Studio", nil)

	assert.False(t, sent)
}

func TestSendInvoice_InvalidRecipientReturnsFalse(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	invoice, client := emailFixture()
	client.Email = "not-an-email"
	sent := emailServiceFor(server.URL).SendInvoice(context.Background(), invoice, client, "Acme Studio", nil)

	assert.False(t, sent)
	assert.Zero(t, requests)
}

func TestSendInvoice_NoAttachmentWhenNoPDF(t *testing.T) {
	var captured emailPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	invoice, client := emailFixture()
	sent := emailServiceFor(server.URL).SendInvoice(context.Background(), invoice, client, "Acme Studio", nil)

	assert.True(t, sent)
	assert.Empty(t, captured.Attachments)
}
