package models

// Customer represents a customer row
type Customer struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Email    string `json:"email" db:"email"`
	ImageURL string `json:"imageUrl" db:"image_url"`
}

// CustomerField is the minimal shape used to populate the invoice form select
type CustomerField struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// FilteredCustomer is a customer with invoice aggregates for the customers table
type FilteredCustomer struct {
	ID            string `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	Email         string `json:"email" db:"email"`
	ImageURL      string `json:"imageUrl" db:"image_url"`
	TotalInvoices int    `json:"totalInvoices" db:"total_invoices"`
	TotalPending  string `json:"totalPending" db:"total_pending"` // formatted as dollars
	TotalPaid     string `json:"totalPaid" db:"total_paid"`       // formatted as dollars
}
