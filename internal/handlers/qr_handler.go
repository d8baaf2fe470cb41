package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/acmefin/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type QRHandler struct {
	service   *services.QRService
	validator *services.ValidationHelper
}

func NewQRHandler(service *services.QRService) *QRHandler {
	return &QRHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// GeneratePaymentQR issues a payment QR code for a pending invoice
// @Summary Generate payment QR code
// @Description Issue a single-use payment code for a pending invoice
// @Tags QR
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Success 200 {object} object{code=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /invoices/{invoiceId}/qr [post]
func (h *QRHandler) GeneratePaymentQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	invoiceID := chi.URLParam(r, "invoiceId")

	code, qrImage, err := h.service.GeneratePaymentCode(r.Context(), invoiceID)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"code":    code,
		"qrImage": qrImage,
	})
}

// RedeemPaymentQR consumes a scanned payment code
// @Summary Redeem payment QR code
// @Description Consume a payment code and mark its invoice as paid
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{code=string} true "Redemption request"
// @Success 200 {object} object{invoiceId=string,amount=int64}
// @Failure 400 {object} services.ErrorResponse
// @Router /qr/redeem [post]
func (h *QRHandler) RedeemPaymentQR(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	payload, err := h.service.RedeemPaymentCode(r.Context(), req.Code)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"invoiceId": payload.InvoiceID,
		"amount":    payload.Amount,
	})
}
