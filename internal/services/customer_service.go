package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/acmefin/backend/internal/cache"
	"github.com/acmefin/backend/internal/models"
)

const CustomersPath = "/dashboard/customers"

type CustomerService struct {
	db    *sql.DB
	cache *cache.PageCache
}

func NewCustomerService(db *sql.DB, pageCache *cache.PageCache) *CustomerService {
	return &CustomerService{
		db:    db,
		cache: pageCache,
	}
}

// ListCustomers returns all customers for the invoice form select
// @Summary List customers
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.CustomerField
// @Failure 500 {object} ErrorResponse
// @Router /customers [get]
func (s *CustomerService) ListCustomers(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.QueryContext(r.Context(), `SELECT id, name FROM customers ORDER BY name ASC`)
	if err != nil {
		log.Printf("[CUSTOMER] List query failed: %v", err)
		SendErrorResponse(w, "Failed to fetch all customers", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	customers := []models.CustomerField{}
	for rows.Next() {
		var customer models.CustomerField
		if err := rows.Scan(&customer.ID, &customer.Name); err != nil {
			log.Printf("[CUSTOMER] Row scan failed: %v", err)
			SendErrorResponse(w, "Failed to fetch all customers", http.StatusInternalServerError, nil)
			return
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[CUSTOMER] Row iteration failed: %v", err)
		SendErrorResponse(w, "Failed to fetch all customers", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(customers)
}

// GetFilteredCustomers returns customers with their invoice aggregates
// @Summary Filtered customers
// @Description Customers matching a free-text query, with invoice counts and totals
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param query query string false "Search term"
// @Success 200 {array} models.FilteredCustomer
// @Failure 500 {object} ErrorResponse
// @Router /customers/filtered [get]
func (s *CustomerService) GetFilteredCustomers(w http.ResponseWriter, r *http.Request) {
	if payload, ok := s.cache.Get(r.Context(), CustomersPath, r.URL.RawQuery); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
		return
	}

	query := r.URL.Query().Get("query")

	rows, err := s.db.QueryContext(r.Context(), `
		SELECT customers.id, customers.name, customers.email, customers.image_url,
		       COUNT(invoices.id) AS total_invoices,
		       COALESCE(SUM(CASE WHEN invoices.status = 'pending' THEN invoices.amount ELSE 0 END), 0) AS total_pending,
		       COALESCE(SUM(CASE WHEN invoices.status = 'paid' THEN invoices.amount ELSE 0 END), 0) AS total_paid
		FROM customers
		LEFT JOIN invoices ON customers.id = invoices.customer_id
		WHERE customers.name ILIKE $1 OR customers.email ILIKE $1
		GROUP BY customers.id, customers.name, customers.email, customers.image_url
		ORDER BY customers.name ASC`,
		"%"+query+"%")
	if err != nil {
		log.Printf("[CUSTOMER] Filtered query failed: %v", err)
		SendErrorResponse(w, "Failed to fetch customer table", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	customers := []models.FilteredCustomer{}
	for rows.Next() {
		var customer models.FilteredCustomer
		var pendingCents, paidCents int64
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Email, &customer.ImageURL,
			&customer.TotalInvoices, &pendingCents, &paidCents); err != nil {
			log.Printf("[CUSTOMER] Filtered scan failed: %v", err)
			SendErrorResponse(w, "Failed to fetch customer table", http.StatusInternalServerError, nil)
			return
		}
		customer.TotalPending = FormatCurrency(pendingCents)
		customer.TotalPaid = FormatCurrency(paidCents)
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[CUSTOMER] Filtered iteration failed: %v", err)
		SendErrorResponse(w, "Failed to fetch customer table", http.StatusInternalServerError, nil)
		return
	}

	payload, err := json.Marshal(customers)
	if err != nil {
		SendErrorResponse(w, "Failed to encode response", http.StatusInternalServerError, nil)
		return
	}

	s.cache.Set(r.Context(), CustomersPath, r.URL.RawQuery, payload)

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}
