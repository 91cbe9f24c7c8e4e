package receipt

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
)

// Status deriva el estado del recibo a partir de los flags de envío.
func Status(emailSent, smsSent bool) string {
	switch {
	case emailSent && smsSent:
		return entity.ReceiptStatusBothSent
	case emailSent:
		return entity.ReceiptStatusEmailSent
	case smsSent:
		return entity.ReceiptStatusSMSSent
	default:
		return entity.ReceiptStatusCreated
	}
}

// ValidStatus indica si s es uno de los estados conocidos.
func ValidStatus(s string) bool {
	switch s {
	case entity.ReceiptStatusCreated, entity.ReceiptStatusEmailSent,
		entity.ReceiptStatusSMSSent, entity.ReceiptStatusBothSent:
		return true
	}
	return false
}

const numberMaxLen = 20

// DefaultNumber genera REC-YYYYMMDD-<sufijo> recortado a 20 caracteres.
// Con sufijo vacío se usa un uuid aleatorio.
func DefaultNumber(now time.Time, suffix string) string {
	if suffix == "" {
		suffix = uuid.NewString()
	}
	n := "REC-" + now.UTC().Format("20060102") + "-" + strings.ReplaceAll(suffix, "-", "")
	if len(n) > numberMaxLen {
		n = n[:numberMaxLen]
	}
	return n
}

// Today fecha de transacción por defecto (UTC, YYYY-MM-DD).
func Today(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}
