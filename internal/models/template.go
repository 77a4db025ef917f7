package models

import "time"

// Template stores a user's saved invoice design. The Layout field selects
// the PDF layout used when rendering invoices that reference it.
type Template struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	Name           string    `json:"name" db:"name"`
	Layout         string    `json:"layout" db:"layout"`
	PrimaryColor   string    `json:"primary_color" db:"primary_color"`
	SecondaryColor string    `json:"secondary_color" db:"secondary_color"`
	LogoURL        *string   `json:"logo_url" db:"logo_url"`
	DefaultTerms   *string   `json:"default_terms" db:"default_terms"`
	IsDefault      bool      `json:"is_default" db:"is_default"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
