package models

import (
	"time"
)

// Invoice statuses recognized by the dashboard.
const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
)

// Invoice represents an invoice row
type Invoice struct {
	ID         string    `json:"id" db:"id"`
	CustomerID string    `json:"customerId" db:"customer_id"`
	Amount     int64     `json:"amount" db:"amount"` // integer cents
	Status     string    `json:"status" db:"status"`
	Date       time.Time `json:"date" db:"date"`
}

// InvoiceForm carries the raw form fields of a create/update submission.
// Values arrive as strings and are only trusted after validation.
type InvoiceForm struct {
	CustomerID string `json:"customerId"`
	Amount     string `json:"amount"`
	Status     string `json:"status"`
}

// InvoiceRecord is a validated, typed invoice mutation payload
type InvoiceRecord struct {
	CustomerID string `validate:"required,uuid4"`
	Amount     int64  `validate:"gt=0"` // integer cents
	Status     string `validate:"oneof=pending paid"`
}

// InvoiceTableRow is an invoice joined with its customer, as shown in the
// invoices table
type InvoiceTableRow struct {
	ID         string    `json:"id" db:"id"`
	CustomerID string    `json:"customerId" db:"customer_id"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email" db:"email"`
	ImageURL   string    `json:"imageUrl" db:"image_url"`
	Amount     int64     `json:"amount" db:"amount"`
	Status     string    `json:"status" db:"status"`
	Date       time.Time `json:"date" db:"date"`
}

// LatestInvoice is a recent invoice with customer details for the dashboard
type LatestInvoice struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Email    string `json:"email" db:"email"`
	ImageURL string `json:"imageUrl" db:"image_url"`
	Amount   string `json:"amount" db:"amount"` // formatted as dollars
}
