package models

import "time"

type User struct {
	ID             int64     `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"` // Never serialize in JSON
	CompanyName    *string   `json:"company_name" db:"company_name"`
	CompanyAddress *string   `json:"company_address" db:"company_address"`
	CompanyCity    *string   `json:"company_city" db:"company_city"`
	CompanyCountry *string   `json:"company_country" db:"company_country"`
	CompanyPhone   *string   `json:"company_phone" db:"company_phone"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName is the issuer name printed on invoices.
func (u *User) DisplayName() string {
	if u.CompanyName != nil && *u.CompanyName != "" {
		return *u.CompanyName
	}
	return u.Username
}
