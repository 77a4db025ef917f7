package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus tracks the lifecycle of an invoice.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSent      InvoiceStatus = "sent"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
)

// Valid reports whether s is one of the known invoice statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// SupportedCurrencies are the currency codes invoices may be issued in.
var SupportedCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"NGN": true,
}

type Invoice struct {
	ID            int64           `json:"id" db:"id"`
	UserID        int64           `json:"user_id" db:"user_id"`
	ClientID      int64           `json:"client_id" db:"client_id"`
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	Status        InvoiceStatus   `json:"status" db:"status"`
	Currency      string          `json:"currency" db:"currency"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	IssueDate     time.Time       `json:"issue_date" db:"issue_date"`
	DueDate       time.Time       `json:"due_date" db:"due_date"`
	TemplateName  string          `json:"template_name" db:"template_name"`
	PaymentTerms  *string         `json:"payment_terms" db:"payment_terms"`
	Notes         *string         `json:"notes" db:"notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	LineItems []LineItem `json:"line_items,omitempty" db:"-"`
}
