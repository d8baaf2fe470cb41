package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/acmefin/backend/internal/cache"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func invoiceForm(customerID, amount, status string) *strings.Reader {
	form := url.Values{}
	form.Set("customerId", customerID)
	form.Set("amount", amount)
	form.Set("status", status)
	return strings.NewReader(form.Encode())
}

func newInvoiceRouter(service *InvoiceService) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/invoices", service.ListInvoices)
	r.Get("/invoices/pages", service.GetInvoicePages)
	r.Get("/invoices/{invoiceId}", service.GetInvoice)
	r.Post("/invoices", service.CreateInvoice)
	r.Put("/invoices/{invoiceId}", service.UpdateInvoice)
	r.Delete("/invoices/{invoiceId}", service.DeleteInvoice)
	return r
}

func TestInvoiceService_CreateInvoice(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	service := NewInvoiceService(db, cache.NewPageCache(redisClient, time.Minute))
	router := newInvoiceRouter(service)

	t.Run("successful create invalidates cache and redirects", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO invoices").
			WithArgs(sqlmock.AnyArg(), testCustomerID, int64(1050), "pending", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		redisMock.ExpectScan(0, "page:/dashboard/invoices*", 100).
			SetVal([]string{"page:/dashboard/invoices", "page:/dashboard/invoices?page=2"}, 0)
		redisMock.ExpectDel("page:/dashboard/invoices", "page:/dashboard/invoices?page=2").SetVal(2)
		redisMock.ExpectScan(0, "page:/dashboard*", 100).SetVal([]string{"page:/dashboard?cards"}, 0)
		redisMock.ExpectDel("page:/dashboard?cards").SetVal(1)

		req := httptest.NewRequest("POST", "/invoices", invoiceForm(testCustomerID, "10.50", "pending"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard/invoices", w.Header().Get("Location"))
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("invalid amount returns field errors without touching the database", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/invoices", invoiceForm(testCustomerID, "0", "pending"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Empty(t, w.Header().Get("Location"))

		var result MutationResult
		json.Unmarshal(w.Body.Bytes(), &result)
		assert.Equal(t, "Missing Fields. Failed to Create Invoice.", result.Message)
		assert.Equal(t, []string{"Please enter an amount greater than $0."}, result.Errors["amount"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure returns generic persistence message", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO invoices").
			WillReturnError(sql.ErrConnDone)

		req := httptest.NewRequest("POST", "/invoices", invoiceForm(testCustomerID, "10.50", "pending"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, w.Header().Get("Location"))

		var result MutationResult
		json.Unmarshal(w.Body.Bytes(), &result)
		assert.Equal(t, "Database Error: Failed to Create Invoice.", result.Message)
		assert.Empty(t, result.Errors)
	})
}

func TestInvoiceService_UpdateInvoice(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewInvoiceService(db, cache.NewPageCache(nil, time.Minute))
	router := newInvoiceRouter(service)

	invoiceID := "b1c2d3e4-712f-4377-85e9-fec4b6a6442a"

	t.Run("successful update redirects", func(t *testing.T) {
		mock.ExpectExec("UPDATE invoices SET customer_id").
			WithArgs(testCustomerID, int64(2000), "paid", invoiceID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		req := httptest.NewRequest("PUT", "/invoices/"+invoiceID, invoiceForm(testCustomerID, "20", "paid"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard/invoices", w.Header().Get("Location"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown invoice renders not-found body", func(t *testing.T) {
		mock.ExpectExec("UPDATE invoices SET customer_id").
			WithArgs(testCustomerID, int64(2000), "paid", invoiceID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		req := httptest.NewRequest("PUT", "/invoices/"+invoiceID, invoiceForm(testCustomerID, "20", "paid"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var body map[string]string
		json.Unmarshal(w.Body.Bytes(), &body)
		assert.Equal(t, "404 Not Found", body["error"])
		assert.Equal(t, "Could not find the requested invoice.", body["message"])
	})

	t.Run("validation failure reports per-field messages", func(t *testing.T) {
		req := httptest.NewRequest("PUT", "/invoices/"+invoiceID, invoiceForm("", "abc", "overdue"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var result MutationResult
		json.Unmarshal(w.Body.Bytes(), &result)
		assert.Equal(t, "Missing Fields. Failed to Update Invoice.", result.Message)
		assert.Len(t, result.Errors, 3)
	})
}

func TestInvoiceService_DeleteInvoice(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	service := NewInvoiceService(db, cache.NewPageCache(redisClient, time.Minute))
	router := newInvoiceRouter(service)

	invoiceID := "b1c2d3e4-712f-4377-85e9-fec4b6a6442a"

	t.Run("successful delete invalidates cache and redirects", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM invoices").
			WithArgs(invoiceID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		redisMock.ExpectScan(0, "page:/dashboard/invoices*", 100).SetVal([]string{}, 0)
		redisMock.ExpectScan(0, "page:/dashboard*", 100).SetVal([]string{}, 0)

		req := httptest.NewRequest("DELETE", "/invoices/"+invoiceID, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard/invoices", w.Header().Get("Location"))
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("unknown invoice reports persistence failure without redirect", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM invoices").
			WithArgs(invoiceID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		req := httptest.NewRequest("DELETE", "/invoices/"+invoiceID, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, w.Header().Get("Location"))

		var result MutationResult
		json.Unmarshal(w.Body.Bytes(), &result)
		assert.Equal(t, "Database Error: Failed to Delete Invoice.", result.Message)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}

func TestInvoiceService_GetInvoice(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewInvoiceService(db, cache.NewPageCache(nil, time.Minute))
	router := newInvoiceRouter(service)

	invoiceID := "b1c2d3e4-712f-4377-85e9-fec4b6a6442a"

	t.Run("found invoice returned for form prefill", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, customer_id, amount, status, date FROM invoices").
			WithArgs(invoiceID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "amount", "status", "date"}).
				AddRow(invoiceID, testCustomerID, 1050, "pending", time.Date(2023, 6, 27, 0, 0, 0, 0, time.UTC)))

		req := httptest.NewRequest("GET", "/invoices/"+invoiceID, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		json.Unmarshal(w.Body.Bytes(), &body)
		assert.Equal(t, invoiceID, body["id"])
		assert.Equal(t, float64(1050), body["amount"])
	})

	t.Run("missing invoice renders not-found, not generic error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, customer_id, amount, status, date FROM invoices").
			WithArgs(invoiceID).
			WillReturnError(sql.ErrNoRows)

		req := httptest.NewRequest("GET", "/invoices/"+invoiceID, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var body map[string]string
		json.Unmarshal(w.Body.Bytes(), &body)
		assert.Equal(t, "404 Not Found", body["error"])
	})
}

func TestInvoiceService_ListInvoices(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewInvoiceService(db, cache.NewPageCache(nil, time.Minute))
	router := newInvoiceRouter(service)

	t.Run("filtered page with bound search term", func(t *testing.T) {
		mock.ExpectQuery("SELECT invoices.id, invoices.customer_id, customers.name").
			WithArgs("%delba%", invoicesPerPage, 0).
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "name", "email", "image_url", "amount", "status", "date"}).
				AddRow("inv-1", testCustomerID, "Delba de Oliveira", "delba@oliveira.com", "/static/customer-images/delba-de-oliveira.png",
					20348, "pending", time.Date(2022, 11, 14, 0, 0, 0, 0, time.UTC)))

		req := httptest.NewRequest("GET", "/invoices?query=delba&page=1", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var rows []map[string]any
		json.Unmarshal(w.Body.Bytes(), &rows)
		assert.Len(t, rows, 1)
		assert.Equal(t, "Delba de Oliveira", rows[0]["name"])
	})

	t.Run("second page offsets the query", func(t *testing.T) {
		mock.ExpectQuery("SELECT invoices.id, invoices.customer_id, customers.name").
			WithArgs("%%", invoicesPerPage, invoicesPerPage).
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "name", "email", "image_url", "amount", "status", "date"}))

		req := httptest.NewRequest("GET", "/invoices?page=2", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure surfaces generic error", func(t *testing.T) {
		mock.ExpectQuery("SELECT invoices.id, invoices.customer_id, customers.name").
			WillReturnError(sql.ErrConnDone)

		req := httptest.NewRequest("GET", "/invoices", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestInvoiceService_GetInvoicePages(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewInvoiceService(db, cache.NewPageCache(nil, time.Minute))
	router := newInvoiceRouter(service)

	t.Run("rounds up to whole pages", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("%%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(13))

		req := httptest.NewRequest("GET", "/invoices/pages", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]int
		json.Unmarshal(w.Body.Bytes(), &body)
		assert.Equal(t, 3, body["totalPages"])
	})
}

func TestInvoiceService_MarkInvoicePaid(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewInvoiceService(db, cache.NewPageCache(nil, time.Minute))

	t.Run("pending invoice flips to paid", func(t *testing.T) {
		mock.ExpectExec("UPDATE invoices SET status").
			WithArgs("paid", "inv-1", "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		paid, err := service.MarkInvoicePaid(context.Background(), "inv-1")
		assert.NoError(t, err)
		assert.True(t, paid)
	})

	t.Run("already paid invoice is not double settled", func(t *testing.T) {
		mock.ExpectExec("UPDATE invoices SET status").
			WithArgs("paid", "inv-1", "pending").
			WillReturnResult(sqlmock.NewResult(0, 0))

		paid, err := service.MarkInvoicePaid(context.Background(), "inv-1")
		assert.NoError(t, err)
		assert.False(t, paid)
	})
}
