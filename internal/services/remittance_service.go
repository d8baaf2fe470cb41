package services

import (
	"database/sql"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/acmefin/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"
)

// RemittanceService renders paid invoices as ISO 20022 pacs.008 credit
// transfer documents for back-office reconciliation.
type RemittanceService struct {
	db *sql.DB
}

type remittanceInvoice struct {
	ID           string
	Amount       int64
	Status       string
	Date         time.Time
	CustomerName string
}

func NewRemittanceService(db *sql.DB) *RemittanceService {
	return &RemittanceService{db: db}
}

// GetRemittance exports a paid invoice as a pacs.008 document
// @Summary Export remittance
// @Description Render a paid invoice as an ISO 20022 pacs.008 XML document
// @Tags remittance
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Success 200 {object} object{status=string,messageType=string,xml=string}
// @Failure 400 {object} ErrorResponse "Invoice not settled"
// @Failure 404 {object} ErrorResponse "Invoice not found"
// @Router /invoices/{invoiceId}/remittance [get]
func (s *RemittanceService) GetRemittance(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceId")

	var invoice remittanceInvoice
	err := s.db.QueryRowContext(r.Context(), `
		SELECT invoices.id, invoices.amount, invoices.status, invoices.date, customers.name
		FROM invoices
		JOIN customers ON invoices.customer_id = customers.id
		WHERE invoices.id = $1`,
		invoiceID).Scan(&invoice.ID, &invoice.Amount, &invoice.Status, &invoice.Date, &invoice.CustomerName)
	if err == sql.ErrNoRows {
		sendInvoiceNotFound(w)
		return
	}
	if err != nil {
		log.Printf("[REMITTANCE] Fetch failed for %s: %v", invoiceID, err)
		SendErrorResponse(w, "Failed to fetch invoice", http.StatusInternalServerError, nil)
		return
	}

	if invoice.Status != models.InvoiceStatusPaid {
		SendErrorResponse(w, "Invoice is not settled", http.StatusBadRequest, nil)
		return
	}

	doc, err := s.CreatePacs008(&invoice)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	xmlData, err := s.ConvertToXML(doc)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      "exported",
		"messageType": "pacs.008.001.08",
		"xml":         xmlData,
	})
}

// CreatePacs008 creates a pacs.008 FIToFICustomerCreditTransfer message for
// a settled invoice
func (s *RemittanceService) CreatePacs008(invoice *remittanceInvoice) (*pacs_v08.FIToFICustomerCreditTransferV08, error) {
	msgId := uuid.New().String()
	creDtTm := time.Now()
	settlementDate := invoice.Date
	amount := float64(invoice.Amount) / 100

	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:   common.Max35Text(msgId),
			CreDtTm: common.ISODateTime(creDtTm),
			NbOfTxs: "1",
			TtlIntrBkSttlmAmt: &pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode("USD"),
				Value: amount,
			},
			IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "CLRG", // Clearing
			},
		},
		CdtTrfTxInf: []pacs_v08.CreditTransferTransaction39{
			{
				PmtId: pacs_v08.PaymentIdentification7{
					InstrId:    &[]common.Max35Text{common.Max35Text(invoice.ID)}[0],
					EndToEndId: common.Max35Text(invoice.ID),
					TxId:       &[]common.Max35Text{common.Max35Text(invoice.ID)}[0],
				},
				IntrBkSttlmAmt: pacs_v08.ActiveCurrencyAndAmount{
					Ccy:   common.ActiveCurrencyCode("USD"),
					Value: amount,
				},
				IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
				ChrgBr:        "SLEV",
				DbtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier("ACMEFIN1")}[0],
					},
				},
				Dbtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(invoice.CustomerName)}[0],
				},
				CdtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier("ACMEFIN1")}[0],
					},
				},
				Cdtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text("Acme Financial")}[0],
				},
			},
		},
	}

	return doc, nil
}

// ConvertToXML converts an ISO 20022 document to an XML string
func (s *RemittanceService) ConvertToXML(doc interface{}) (string, error) {
	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal XML: %w", err)
	}
	return xml.Header + string(xmlData), nil
}
