package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/acmefin/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"
)

// QRService issues single-use payment codes for pending invoices. A redeemed
// code marks its invoice paid through the same mutation pipeline as the
// dashboard form.
type QRService struct {
	db       *sql.DB
	redis    *redis.Client
	invoices *InvoiceService
}

// PaymentCode is the payload stored behind an issued code
type PaymentCode struct {
	InvoiceID string `json:"invoiceId"`
	Amount    int64  `json:"amount"`
	Timestamp int64  `json:"timestamp"`
	Nonce     string `json:"nonce"`
}

func NewQRService(db *sql.DB, redisClient *redis.Client, invoices *InvoiceService) *QRService {
	return &QRService{
		db:       db,
		redis:    redisClient,
		invoices: invoices,
	}
}

// GeneratePaymentCode issues a single-use code for a pending invoice and
// renders it as a base64 PNG. The code expires after five minutes.
func (s *QRService) GeneratePaymentCode(ctx context.Context, invoiceID string) (string, string, error) {
	if s.redis == nil {
		return "", "", fmt.Errorf("payment codes unavailable")
	}

	var amount int64
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT amount, status FROM invoices WHERE id = $1`,
		invoiceID).Scan(&amount, &status)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("invoice not found")
	}
	if err != nil {
		return "", "", err
	}
	if status != models.InvoiceStatusPending {
		return "", "", fmt.Errorf("invoice is not pending")
	}

	payload := PaymentCode{
		InvoiceID: invoiceID,
		Amount:    amount,
		Timestamp: time.Now().Unix(),
		Nonce:     s.generateNonce(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	code := base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("qr:%s", code)
	if err := s.redis.Set(ctx, key, jsonData, 5*time.Minute).Err(); err != nil {
		return "", "", err
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	qrImage := base64.StdEncoding.EncodeToString(buf.Bytes())

	return code, qrImage, nil
}

// RedeemPaymentCode consumes a code and marks its invoice paid
func (s *QRService) RedeemPaymentCode(ctx context.Context, code string) (*PaymentCode, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("payment codes unavailable")
	}

	key := fmt.Sprintf("qr:%s", code)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("invalid or expired payment code")
	}
	if err != nil {
		return nil, err
	}

	var payload PaymentCode
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	// Consume before the write so a code never settles twice
	s.redis.Del(ctx, key)

	paid, err := s.invoices.MarkInvoicePaid(ctx, payload.InvoiceID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, fmt.Errorf("invoice is no longer pending")
	}

	return &payload, nil
}

func (s *QRService) generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
