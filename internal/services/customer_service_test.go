package services

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/acmefin/backend/internal/cache"
	"github.com/stretchr/testify/assert"
)

func TestCustomerService_ListCustomers(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCustomerService(db, cache.NewPageCache(nil, time.Minute))

	t.Run("all customers for the form select", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name FROM customers").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow("c1", "Amy Burns").
				AddRow("c2", "Balazs Orban"))

		r := httptest.NewRequest("GET", "/customers", nil)
		w := httptest.NewRecorder()

		service.ListCustomers(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var customers []map[string]string
		json.Unmarshal(w.Body.Bytes(), &customers)
		assert.Len(t, customers, 2)
		assert.Equal(t, "Amy Burns", customers[0]["name"])
	})

	t.Run("query failure surfaces generic error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name FROM customers").
			WillReturnError(sql.ErrConnDone)

		r := httptest.NewRequest("GET", "/customers", nil)
		w := httptest.NewRecorder()

		service.ListCustomers(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestCustomerService_GetFilteredCustomers(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCustomerService(db, cache.NewPageCache(nil, time.Minute))

	t.Run("aggregates formatted as dollars", func(t *testing.T) {
		mock.ExpectQuery("SELECT customers.id, customers.name").
			WithArgs("%amy%").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "image_url", "total_invoices", "total_pending", "total_paid"}).
				AddRow("c1", "Amy Burns", "amy@burns.com", "/static/customer-images/amy-burns.png", 2, 1250, 3040))

		r := httptest.NewRequest("GET", "/customers/filtered?query=amy", nil)
		w := httptest.NewRecorder()

		service.GetFilteredCustomers(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var customers []map[string]any
		json.Unmarshal(w.Body.Bytes(), &customers)
		assert.Len(t, customers, 1)
		assert.Equal(t, float64(2), customers[0]["totalInvoices"])
		assert.Equal(t, "$12.50", customers[0]["totalPending"])
		assert.Equal(t, "$30.40", customers[0]["totalPaid"])
	})
}
