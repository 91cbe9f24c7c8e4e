package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/ereceipt-api/internal/application/dto"
)

// SendReceipt con teléfono intenta email+SMS; si esa llamada falla, cae a solo email.
// Sin teléfono envía solo por email. Devuelve un mensaje con los canales que salieron.
func (c *Client) SendReceipt(ctx context.Context, rc *dto.ReceiptResponse) (string, error) {
	if strings.TrimSpace(rc.CustomerPhone) != "" {
		res, err := c.SendBoth(ctx, rc.ID, dto.SendRequest{})
		if err == nil {
			return bothMessage(res), nil
		}
		if errors.Is(err, ErrSessionExpired) {
			return "", err
		}
	}
	if _, err := c.SendEmail(ctx, rc.ID, ""); err != nil {
		return "", fmt.Errorf("enviar recibo: %w", err)
	}
	return "Recibo enviado por email", nil
}

func bothMessage(res *dto.SendBothResponse) string {
	switch {
	case res.Results.Email.Sent && res.Results.SMS.Sent:
		return "Recibo enviado por email y SMS"
	case res.Results.SMS.Sent:
		return "Recibo enviado por SMS"
	default:
		return "Recibo enviado por email"
	}
}
