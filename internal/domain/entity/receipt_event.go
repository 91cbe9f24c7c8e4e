package entity

import "time"

// Tipos de evento del ciclo de vida de un recibo (routing keys del exchange).
const (
	EventReceiptCreated   = "receipt.created"
	EventReceiptUpdated   = "receipt.updated"
	EventReceiptDeleted   = "receipt.deleted"
	EventReceiptEmailSent = "receipt.email_sent"
	EventReceiptSMSSent   = "receipt.sms_sent"
)

// ReceiptEvent evento publicado cuando cambia un recibo.
type ReceiptEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	ReceiptID     string    `json:"receipt_id"`
	UserID        string    `json:"user_id"`
	ReceiptNumber string    `json:"receipt_number,omitempty"`
	SentTo        string    `json:"sent_to,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
