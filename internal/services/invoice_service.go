package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/acmefin/backend/internal/cache"
	"github.com/acmefin/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const invoicesPerPage = 6

// Dashboard paths whose cached renderings go stale on an invoice write.
const (
	InvoicesPath  = "/dashboard/invoices"
	DashboardPath = "/dashboard"
)

type InvoiceService struct {
	db        *sql.DB
	cache     *cache.PageCache
	validator *ValidationHelper
}

func NewInvoiceService(db *sql.DB, pageCache *cache.PageCache) *InvoiceService {
	return &InvoiceService{
		db:        db,
		cache:     pageCache,
		validator: NewValidationHelper(),
	}
}

// CreateInvoice handles invoice creation
// @Summary Create an invoice
// @Description Validate submitted form fields and insert a new invoice
// @Tags invoices
// @Accept x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param customerId formData string true "Customer ID"
// @Param amount formData string true "Amount in dollars"
// @Param status formData string true "pending or paid"
// @Success 303 {string} string "Redirect to the invoices list"
// @Failure 422 {object} MutationResult "Field validation errors"
// @Failure 500 {object} MutationResult "Persistence failure"
// @Router /invoices [post]
func (s *InvoiceService) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		SendMutationResult(w, http.StatusBadRequest, MutationResult{Message: "Invalid form submission."})
		return
	}

	form := models.InvoiceForm{
		CustomerID: r.PostFormValue("customerId"),
		Amount:     r.PostFormValue("amount"),
		Status:     r.PostFormValue("status"),
	}

	record, fieldErrors := s.validator.ParseInvoiceForm(form)
	if fieldErrors != nil {
		SendMutationResult(w, http.StatusUnprocessableEntity, MutationResult{
			Errors:  fieldErrors,
			Message: "Missing Fields. Failed to Create Invoice.",
		})
		return
	}

	if err := s.insertInvoice(r.Context(), record); err != nil {
		log.Printf("[INVOICE] Insert failed: %v", err)
		SendMutationResult(w, http.StatusInternalServerError, MutationResult{
			Message: "Database Error: Failed to Create Invoice.",
		})
		return
	}

	s.cache.Invalidate(r.Context(), InvoicesPath, DashboardPath)
	http.Redirect(w, r, InvoicesPath, http.StatusSeeOther)
}

// UpdateInvoice handles invoice updates
// @Summary Update an invoice
// @Description Validate submitted form fields and update an existing invoice
// @Tags invoices
// @Accept x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Param customerId formData string true "Customer ID"
// @Param amount formData string true "Amount in dollars"
// @Param status formData string true "pending or paid"
// @Success 303 {string} string "Redirect to the invoices list"
// @Failure 404 {object} ErrorResponse "Invoice not found"
// @Failure 422 {object} MutationResult "Field validation errors"
// @Failure 500 {object} MutationResult "Persistence failure"
// @Router /invoices/{invoiceId} [put]
func (s *InvoiceService) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceId")

	if err := r.ParseForm(); err != nil {
		SendMutationResult(w, http.StatusBadRequest, MutationResult{Message: "Invalid form submission."})
		return
	}

	form := models.InvoiceForm{
		CustomerID: r.PostFormValue("customerId"),
		Amount:     r.PostFormValue("amount"),
		Status:     r.PostFormValue("status"),
	}

	record, fieldErrors := s.validator.ParseInvoiceForm(form)
	if fieldErrors != nil {
		SendMutationResult(w, http.StatusUnprocessableEntity, MutationResult{
			Errors:  fieldErrors,
			Message: "Missing Fields. Failed to Update Invoice.",
		})
		return
	}

	found, err := s.updateInvoice(r.Context(), invoiceID, record)
	if err != nil {
		log.Printf("[INVOICE] Update failed for %s: %v", invoiceID, err)
		SendMutationResult(w, http.StatusInternalServerError, MutationResult{
			Message: "Database Error: Failed to Update Invoice.",
		})
		return
	}
	if !found {
		sendInvoiceNotFound(w)
		return
	}

	s.cache.Invalidate(r.Context(), InvoicesPath, DashboardPath)
	http.Redirect(w, r, InvoicesPath, http.StatusSeeOther)
}

// DeleteInvoice handles invoice deletion
// @Summary Delete an invoice
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Success 303 {string} string "Redirect to the invoices list"
// @Failure 500 {object} MutationResult "Persistence failure"
// @Router /invoices/{invoiceId} [delete]
func (s *InvoiceService) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceId")

	found, err := s.deleteInvoice(r.Context(), invoiceID)
	if err != nil {
		log.Printf("[INVOICE] Delete failed for %s: %v", invoiceID, err)
	}
	if err != nil || !found {
		SendMutationResult(w, http.StatusInternalServerError, MutationResult{
			Message: "Database Error: Failed to Delete Invoice.",
		})
		return
	}

	s.cache.Invalidate(r.Context(), InvoicesPath, DashboardPath)
	http.Redirect(w, r, InvoicesPath, http.StatusSeeOther)
}

// GetInvoice returns a single invoice for form prefill
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Success 200 {object} models.Invoice
// @Failure 404 {object} ErrorResponse "Invoice not found"
// @Router /invoices/{invoiceId} [get]
func (s *InvoiceService) GetInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceId")

	invoice, found, err := s.fetchInvoice(r.Context(), invoiceID)
	if err != nil {
		log.Printf("[INVOICE] Fetch failed for %s: %v", invoiceID, err)
		SendErrorResponse(w, "Failed to fetch invoice", http.StatusInternalServerError, nil)
		return
	}
	if !found {
		sendInvoiceNotFound(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invoice)
}

// ListInvoices returns one page of the filtered invoices table
// @Summary List invoices
// @Description One page of invoices joined with customer details, filtered by a free-text query
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param query query string false "Search term"
// @Param page query int false "Page number (1-based)"
// @Success 200 {array} models.InvoiceTableRow
// @Failure 500 {object} ErrorResponse
// @Router /invoices [get]
func (s *InvoiceService) ListInvoices(w http.ResponseWriter, r *http.Request) {
	if payload, ok := s.cache.Get(r.Context(), InvoicesPath, r.URL.RawQuery); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
		return
	}

	query := r.URL.Query().Get("query")
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	offset := (page - 1) * invoicesPerPage

	rows, err := s.db.QueryContext(r.Context(), `
		SELECT invoices.id, invoices.customer_id, customers.name, customers.email,
		       customers.image_url, invoices.amount, invoices.status, invoices.date
		FROM invoices
		JOIN customers ON invoices.customer_id = customers.id
		WHERE customers.name ILIKE $1
		   OR customers.email ILIKE $1
		   OR invoices.amount::text ILIKE $1
		   OR invoices.date::text ILIKE $1
		   OR invoices.status ILIKE $1
		ORDER BY invoices.date DESC
		LIMIT $2 OFFSET $3`,
		"%"+query+"%", invoicesPerPage, offset)
	if err != nil {
		log.Printf("[INVOICE] List query failed: %v", err)
		SendErrorResponse(w, "Failed to fetch invoices", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	invoices := []models.InvoiceTableRow{}
	for rows.Next() {
		var row models.InvoiceTableRow
		if err := rows.Scan(&row.ID, &row.CustomerID, &row.Name, &row.Email,
			&row.ImageURL, &row.Amount, &row.Status, &row.Date); err != nil {
			log.Printf("[INVOICE] Row scan failed: %v", err)
			SendErrorResponse(w, "Failed to fetch invoices", http.StatusInternalServerError, nil)
			return
		}
		invoices = append(invoices, row)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[INVOICE] Row iteration failed: %v", err)
		SendErrorResponse(w, "Failed to fetch invoices", http.StatusInternalServerError, nil)
		return
	}

	s.respondCached(w, r, InvoicesPath, invoices)
}

// GetInvoicePages returns the page count for the filtered invoices table
// @Summary Count invoice pages
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param query query string false "Search term"
// @Success 200 {object} object{totalPages=int}
// @Failure 500 {object} ErrorResponse
// @Router /invoices/pages [get]
func (s *InvoiceService) GetInvoicePages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	var count int
	err := s.db.QueryRowContext(r.Context(), `
		SELECT COUNT(*)
		FROM invoices
		JOIN customers ON invoices.customer_id = customers.id
		WHERE customers.name ILIKE $1
		   OR customers.email ILIKE $1
		   OR invoices.amount::text ILIKE $1
		   OR invoices.date::text ILIKE $1
		   OR invoices.status ILIKE $1`,
		"%"+query+"%").Scan(&count)
	if err != nil {
		log.Printf("[INVOICE] Page count failed: %v", err)
		SendErrorResponse(w, "Failed to fetch total number of invoices", http.StatusInternalServerError, nil)
		return
	}

	totalPages := (count + invoicesPerPage - 1) / invoicesPerPage

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"totalPages": totalPages})
}

// MarkInvoicePaid flips a pending invoice to paid through the same pipeline
// as form mutations: one bound statement, then cache invalidation. Used by
// QR redemption.
func (s *InvoiceService) MarkInvoicePaid(ctx context.Context, invoiceID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET status = $1 WHERE id = $2 AND status = $3`,
		models.InvoiceStatusPaid, invoiceID, models.InvoiceStatusPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	s.cache.Invalidate(ctx, InvoicesPath, DashboardPath)
	return true, nil
}

func (s *InvoiceService) insertInvoice(ctx context.Context, record *models.InvoiceRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invoices (id, customer_id, amount, status, date) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), record.CustomerID, record.Amount, record.Status, time.Now().Format("2006-01-02"))
	return err
}

func (s *InvoiceService) updateInvoice(ctx context.Context, invoiceID string, record *models.InvoiceRecord) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET customer_id = $1, amount = $2, status = $3 WHERE id = $4`,
		record.CustomerID, record.Amount, record.Status, invoiceID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *InvoiceService) deleteInvoice(ctx context.Context, invoiceID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, invoiceID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *InvoiceService) fetchInvoice(ctx context.Context, invoiceID string) (*models.Invoice, bool, error) {
	var invoice models.Invoice
	err := s.db.QueryRowContext(ctx,
		`SELECT id, customer_id, amount, status, date FROM invoices WHERE id = $1`,
		invoiceID).Scan(&invoice.ID, &invoice.CustomerID, &invoice.Amount, &invoice.Status, &invoice.Date)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &invoice, true, nil
}

// respondCached writes the JSON response and fills the page cache with the
// same payload.
func (s *InvoiceService) respondCached(w http.ResponseWriter, r *http.Request, path string, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		SendErrorResponse(w, "Failed to encode response", http.StatusInternalServerError, nil)
		return
	}

	s.cache.Set(r.Context(), path, r.URL.RawQuery, payload)

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// sendInvoiceNotFound renders the dedicated not-found body, distinct from
// the generic persistence-failure message.
func sendInvoiceNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "404 Not Found",
		"message": "Could not find the requested invoice.",
	})
}

// FormatCurrency renders integer cents as a dollar string
func FormatCurrency(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
