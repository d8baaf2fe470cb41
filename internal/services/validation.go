package services

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/acmefin/backend/internal/models"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// MutationResult is the body returned by invoice mutation endpoints on
// failure: per-field messages for in-place redisplay plus a top-level
// message. Success responses carry no body, only a redirect.
type MutationResult struct {
	Errors  map[string][]string `json:"errors,omitempty"`
	Message string              `json:"message,omitempty"`
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// ParseInvoiceForm maps raw form fields to a typed invoice record, or to the
// per-field error messages the dashboard shows next to each input. The amount
// arrives as a decimal-dollar string and is coerced to integer cents. No side
// effects; identical input always yields the identical result.
func (vh *ValidationHelper) ParseInvoiceForm(form models.InvoiceForm) (*models.InvoiceRecord, map[string][]string) {
	fieldErrors := make(map[string][]string)

	amount, ok := parseAmountCents(form.Amount)
	if !ok {
		fieldErrors["amount"] = append(fieldErrors["amount"], "Please enter an amount greater than $0.")
	}

	record := &models.InvoiceRecord{
		CustomerID: form.CustomerID,
		Amount:     amount,
		Status:     form.Status,
	}

	if err := vh.validator.Struct(record); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			switch fieldErr.Field() {
			case "CustomerID":
				fieldErrors["customerId"] = append(fieldErrors["customerId"], "Please select a customer.")
			case "Amount":
				if len(fieldErrors["amount"]) == 0 {
					fieldErrors["amount"] = append(fieldErrors["amount"], "Please enter an amount greater than $0.")
				}
			case "Status":
				fieldErrors["status"] = append(fieldErrors["status"], "Please select an invoice status.")
			}
		}
	}

	if len(fieldErrors) > 0 {
		return nil, fieldErrors
	}

	return record, nil
}

// parseAmountCents coerces a decimal-dollar string to integer cents
// ("10.50" -> 1050). ok is false when the string does not parse or the
// value is not strictly positive.
func parseAmountCents(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if value <= 0 {
		return 0, false
	}

	return int64(math.Round(value * 100)), true
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	if validationErr != nil {
		errorResp.Details = make(map[string]string)
		for _, err := range validationErr.(validator.ValidationErrors) {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// SendMutationResult sends the structured form-error body
func SendMutationResult(w http.ResponseWriter, statusCode int, result MutationResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(result)
}
