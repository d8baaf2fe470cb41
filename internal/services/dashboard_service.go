package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/acmefin/backend/internal/cache"
	"github.com/acmefin/backend/internal/models"
)

type DashboardService struct {
	db    *sql.DB
	cache *cache.PageCache
}

// CardData is the dashboard overview: entity counts and invoice totals
// grouped by status.
type CardData struct {
	NumberOfInvoices     int    `json:"numberOfInvoices"`
	NumberOfCustomers    int    `json:"numberOfCustomers"`
	TotalPaidInvoices    string `json:"totalPaidInvoices"`
	TotalPendingInvoices string `json:"totalPendingInvoices"`
}

func NewDashboardService(db *sql.DB, pageCache *cache.PageCache) *DashboardService {
	return &DashboardService{
		db:    db,
		cache: pageCache,
	}
}

// GetCardData returns the dashboard overview cards
// @Summary Dashboard cards
// @Description Invoice and customer counts plus collected and pending totals
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CardData
// @Failure 500 {object} ErrorResponse
// @Router /dashboard/cards [get]
func (s *DashboardService) GetCardData(w http.ResponseWriter, r *http.Request) {
	if payload, ok := s.cache.Get(r.Context(), DashboardPath, "cards"); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
		return
	}

	var invoiceCount, customerCount int
	var paidCents, pendingCents int64
	err := s.db.QueryRowContext(r.Context(), `
		SELECT
			(SELECT COUNT(*) FROM invoices),
			(SELECT COUNT(*) FROM customers),
			(SELECT COALESCE(SUM(CASE WHEN status = 'paid' THEN amount ELSE 0 END), 0) FROM invoices),
			(SELECT COALESCE(SUM(CASE WHEN status = 'pending' THEN amount ELSE 0 END), 0) FROM invoices)`,
	).Scan(&invoiceCount, &customerCount, &paidCents, &pendingCents)
	if err != nil {
		log.Printf("[DASHBOARD] Card query failed: %v", err)
		SendErrorResponse(w, "Failed to fetch card data", http.StatusInternalServerError, nil)
		return
	}

	data := CardData{
		NumberOfInvoices:     invoiceCount,
		NumberOfCustomers:    customerCount,
		TotalPaidInvoices:    FormatCurrency(paidCents),
		TotalPendingInvoices: FormatCurrency(pendingCents),
	}

	s.respondCached(w, r, "cards", data)
}

// GetRevenue returns the monthly revenue chart rows
// @Summary Monthly revenue
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Revenue
// @Failure 500 {object} ErrorResponse
// @Router /dashboard/revenue [get]
func (s *DashboardService) GetRevenue(w http.ResponseWriter, r *http.Request) {
	if payload, ok := s.cache.Get(r.Context(), DashboardPath, "revenue"); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
		return
	}

	rows, err := s.db.QueryContext(r.Context(), `SELECT month, revenue FROM revenue`)
	if err != nil {
		log.Printf("[DASHBOARD] Revenue query failed: %v", err)
		SendErrorResponse(w, "Failed to fetch revenue data", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	revenue := []models.Revenue{}
	for rows.Next() {
		var row models.Revenue
		if err := rows.Scan(&row.Month, &row.Revenue); err != nil {
			log.Printf("[DASHBOARD] Revenue scan failed: %v", err)
			SendErrorResponse(w, "Failed to fetch revenue data", http.StatusInternalServerError, nil)
			return
		}
		revenue = append(revenue, row)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[DASHBOARD] Revenue iteration failed: %v", err)
		SendErrorResponse(w, "Failed to fetch revenue data", http.StatusInternalServerError, nil)
		return
	}

	s.respondCached(w, r, "revenue", revenue)
}

// GetLatestInvoices returns the five most recent invoices
// @Summary Latest invoices
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.LatestInvoice
// @Failure 500 {object} ErrorResponse
// @Router /dashboard/latest-invoices [get]
func (s *DashboardService) GetLatestInvoices(w http.ResponseWriter, r *http.Request) {
	if payload, ok := s.cache.Get(r.Context(), DashboardPath, "latest-invoices"); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
		return
	}

	rows, err := s.db.QueryContext(r.Context(), `
		SELECT invoices.id, customers.name, customers.email, customers.image_url, invoices.amount
		FROM invoices
		JOIN customers ON invoices.customer_id = customers.id
		ORDER BY invoices.date DESC
		LIMIT 5`)
	if err != nil {
		log.Printf("[DASHBOARD] Latest invoices query failed: %v", err)
		SendErrorResponse(w, "Failed to fetch the latest invoices", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	latest := []models.LatestInvoice{}
	for rows.Next() {
		var row models.LatestInvoice
		var amountCents int64
		if err := rows.Scan(&row.ID, &row.Name, &row.Email, &row.ImageURL, &amountCents); err != nil {
			log.Printf("[DASHBOARD] Latest invoices scan failed: %v", err)
			SendErrorResponse(w, "Failed to fetch the latest invoices", http.StatusInternalServerError, nil)
			return
		}
		row.Amount = FormatCurrency(amountCents)
		latest = append(latest, row)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[DASHBOARD] Latest invoices iteration failed: %v", err)
		SendErrorResponse(w, "Failed to fetch the latest invoices", http.StatusInternalServerError, nil)
		return
	}

	s.respondCached(w, r, "latest-invoices", latest)
}

func (s *DashboardService) respondCached(w http.ResponseWriter, r *http.Request, variant string, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		SendErrorResponse(w, "Failed to encode response", http.StatusInternalServerError, nil)
		return
	}

	s.cache.Set(r.Context(), DashboardPath, variant, payload)

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}
