package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicegen/internal/common"
	"invoicegen/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// InvoiceFilter narrows invoice listings. Nil fields are ignored.
type InvoiceFilter struct {
	Status    *models.InvoiceStatus
	ClientID  *int64
	StartDate *time.Time
	EndDate   *time.Time
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id int64) (*models.Invoice, error)
	List(ctx context.Context, userID int64, filter InvoiceFilter, limit, offset int) ([]*models.Invoice, int, error)
	Update(ctx context.Context, invoice *models.Invoice, replaceItems bool) error
	UpdateStatus(ctx context.Context, id int64, status models.InvoiceStatus) error
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	Delete(ctx context.Context, id int64) error
	FindDuplicate(ctx context.Context, userID, clientID int64, amount decimal.Decimal, issueDate time.Time) (*models.Invoice, error)
	NextInvoiceNumber(ctx context.Context, tx pgx.Tx, userID int64, year int) (string, error)
}

type invoiceRepo struct {
	db DB
}

func NewInvoiceRepo(db DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, user_id, client_id, invoice_number, status, currency, amount, issue_date, due_date, template_name, payment_terms, notes, created_at, updated_at`

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	err := row.Scan(&invoice.ID, &invoice.UserID, &invoice.ClientID, &invoice.InvoiceNumber, &invoice.Status, &invoice.Currency, &invoice.Amount, &invoice.IssueDate, &invoice.DueDate, &invoice.TemplateName, &invoice.PaymentTerms, &invoice.Notes, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return invoice, nil
}

// NextInvoiceNumber reserves the next sequence number for the owner and
// year from a durable counter. It must run inside the transaction that
// inserts the invoice so an aborted create does not burn a number into a
// gap larger than necessary. The unique constraint on invoice_number
// remains the final arbiter; a violation there surfaces as ErrConflict.
func (r *invoiceRepo) NextInvoiceNumber(ctx context.Context, tx pgx.Tx, userID int64, year int) (string, error) {
	query := `
		INSERT INTO invoice_sequences (user_id, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, year)
		DO UPDATE SET last_number = invoice_sequences.last_number + 1
		RETURNING last_number
	`

	var sequenceNum int
	if err := tx.QueryRow(ctx, query, userID, year).Scan(&sequenceNum); err != nil {
		return "", fmt.Errorf("failed to generate invoice sequence: %w", err)
	}

	return fmt.Sprintf("INV-%d-%05d", year, sequenceNum), nil
}

// Create persists an invoice and its line items as one transaction,
// assigning the invoice number inside it. Either every row lands or none
// do; an invoice without line items is never observable.
func (r *invoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(ctx, tx)

	number, err := r.NextInvoiceNumber(ctx, tx, invoice.UserID, time.Now().UTC().Year())
	if err != nil {
		return err
	}
	invoice.InvoiceNumber = number

	insertInvoice := `
		INSERT INTO invoices (user_id, client_id, invoice_number, status, currency, amount, issue_date, due_date, template_name, payment_terms, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, insertInvoice, invoice.UserID, invoice.ClientID, invoice.InvoiceNumber, invoice.Status, invoice.Currency, invoice.Amount, invoice.IssueDate, invoice.DueDate, invoice.TemplateName, invoice.PaymentTerms, invoice.Notes).
		Scan(&invoice.ID, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return mapPgError(err)
	}

	if err := insertLineItems(ctx, tx, invoice.ID, invoice.LineItems); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertLineItems(ctx context.Context, tx pgx.Tx, invoiceID int64, items []models.LineItem) error {
	insertItem := `
		INSERT INTO line_items (invoice_id, description, quantity, unit_price, tax_rate)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	for i := range items {
		item := &items[i]
		item.InvoiceID = invoiceID
		if err := tx.QueryRow(ctx, insertItem, invoiceID, item.Description, item.Quantity, item.UnitPrice, item.TaxRate).Scan(&item.ID); err != nil {
			return mapPgError(err)
		}
	}
	return nil
}

// GetByID loads an invoice with its line items. Ownership is checked by
// the service layer after the existence check, not here.
func (r *invoiceRepo) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	items, err := r.getLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.LineItems = items
	return invoice, nil
}

func (r *invoiceRepo) getLineItems(ctx context.Context, invoiceID int64) ([]models.LineItem, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, tax_rate
		FROM line_items
		WHERE invoice_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var item models.LineItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.UnitPrice, &item.TaxRate); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *invoiceRepo) List(ctx context.Context, userID int64, filter InvoiceFilter, limit, offset int) ([]*models.Invoice, int, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		where += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(" AND issue_date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(" AND issue_date <= $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM invoices " + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT %s FROM invoices %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		invoiceColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, total, rows.Err()
}

// Update rewrites the invoice row and, when replaceItems is set, swaps
// the entire line-item set in the same transaction.
func (r *invoiceRepo) Update(ctx context.Context, invoice *models.Invoice, replaceItems bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(ctx, tx)

	query := `
		UPDATE invoices
		SET client_id = $1, status = $2, currency = $3, amount = $4, issue_date = $5, due_date = $6, template_name = $7, payment_terms = $8, notes = $9, updated_at = NOW()
		WHERE id = $10
	`
	tag, err := tx.Exec(ctx, query, invoice.ClientID, invoice.Status, invoice.Currency, invoice.Amount, invoice.IssueDate, invoice.DueDate, invoice.TemplateName, invoice.PaymentTerms, invoice.Notes, invoice.ID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}

	if replaceItems {
		if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE invoice_id = $1`, invoice.ID); err != nil {
			return mapPgError(err)
		}
		if err := insertLineItems(ctx, tx, invoice.ID, invoice.LineItems); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id int64, status models.InvoiceStatus) error {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// MarkOverdue flips every draft or sent invoice whose due date has
// passed to overdue, across all owners. Returns the number of invoices
// updated.
func (r *invoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE due_date < $2 AND status IN ($3, $4)
	`
	tag, err := r.db.Exec(ctx, query, models.StatusOverdue, asOf, models.StatusDraft, models.StatusSent)
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes the invoice; line items fall with it via the cascading
// foreign key.
func (r *invoiceRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// FindDuplicate looks for an exact (owner, client, amount, issue date)
// match. Advisory only; returns nil without error when nothing matches.
func (r *invoiceRepo) FindDuplicate(ctx context.Context, userID, clientID int64, amount decimal.Decimal, issueDate time.Time) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE user_id = $1 AND client_id = $2 AND amount = $3 AND issue_date = $4
		LIMIT 1`
	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, userID, clientID, amount, issueDate))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return invoice, nil
}
