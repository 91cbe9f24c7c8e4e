package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"unicode/utf8"

	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/receipt"
	"github.com/jhoicas/ereceipt-api/pkg/money"
)

// SMSMaxLength límite de un SMS de un solo segmento.
const SMSMaxLength = 160

type lineView struct {
	Name     string
	Quantity string
	Price    string
	Amount   string
}

type receiptView struct {
	BusinessName  string
	Footer        string
	ReceiptNumber string
	Date          string
	CustomerName  string
	CustomerEmail string
	Items         []lineView
	Subtotal      string
	TaxRate       string
	Tax           string
	Total         string
}

func newView(rc *entity.Receipt, owner *entity.User) receiptView {
	footer := entity.DefaultFooterMessage
	if owner != nil && owner.Settings.ReceiptFooterMessage != "" {
		footer = owner.Settings.ReceiptFooterMessage
	}
	v := receiptView{
		BusinessName:  owner.DisplayName(),
		Footer:        footer,
		ReceiptNumber: rc.ReceiptNumber,
		Date:          rc.TransactionDate,
		CustomerName:  rc.CustomerName,
		CustomerEmail: rc.CustomerEmail,
		Subtotal:      money.Format(rc.Subtotal, rc.Currency),
		TaxRate:       rc.TaxRate.String(),
		Tax:           money.Format(rc.Tax, rc.Currency),
		Total:         money.Format(rc.Total, rc.Currency),
	}
	for _, it := range rc.Items {
		v.Items = append(v.Items, lineView{
			Name:     it.Name,
			Quantity: it.Quantity.String(),
			Price:    money.Format(it.Price, rc.Currency),
			Amount:   money.Format(receipt.LineTotal(it), rc.Currency),
		})
	}
	return v
}

var emailHTML = htmltemplate.Must(htmltemplate.New("email").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;background-color:#f3f4f6;">
<div style="max-width:600px;margin:0 auto;padding:20px;">
  <div style="background:linear-gradient(135deg,#10b981 0%,#059669 100%);color:white;padding:30px;border-radius:12px 12px 0 0;text-align:center;">
    <h1 style="margin:0;font-size:28px;">&#129534; {{.BusinessName}}</h1>
    <p style="margin:8px 0 0;opacity:0.9;">Digital Receipt</p>
  </div>
  <div style="background:white;padding:30px;border-radius:0 0 12px 12px;">
    <table style="width:100%;margin-bottom:24px;border-bottom:2px solid #10b981;"><tr>
      <td><p style="margin:0;color:#6b7280;font-size:12px;text-transform:uppercase;">Receipt Number</p>
          <p style="margin:4px 0 0;font-size:18px;font-weight:700;color:#10b981;">{{.ReceiptNumber}}</p></td>
      <td style="text-align:right;"><p style="margin:0;color:#6b7280;font-size:12px;text-transform:uppercase;">Date</p>
          <p style="margin:4px 0 0;font-size:16px;font-weight:600;">{{.Date}}</p></td>
    </tr></table>
    <div style="margin-bottom:24px;">
      <p style="margin:0;color:#6b7280;font-size:12px;text-transform:uppercase;">Bill To</p>
      <p style="margin:4px 0 0;font-size:16px;font-weight:600;">{{.CustomerName}}</p>
      <p style="margin:2px 0 0;color:#6b7280;">{{.CustomerEmail}}</p>
    </div>
    <table style="width:100%;border-collapse:collapse;margin-bottom:24px;">
      <thead><tr style="background-color:#f9fafb;">
        <th style="padding:12px;text-align:left;border-bottom:2px solid #10b981;">Item</th>
        <th style="padding:12px;text-align:center;border-bottom:2px solid #10b981;">Qty</th>
        <th style="padding:12px;text-align:right;border-bottom:2px solid #10b981;">Price</th>
        <th style="padding:12px;text-align:right;border-bottom:2px solid #10b981;">Amount</th>
      </tr></thead>
      <tbody>{{range .Items}}
        <tr>
          <td style="padding:12px;border-bottom:1px solid #e5e7eb;">{{.Name}}</td>
          <td style="padding:12px;border-bottom:1px solid #e5e7eb;text-align:center;">{{.Quantity}}</td>
          <td style="padding:12px;border-bottom:1px solid #e5e7eb;text-align:right;">{{.Price}}</td>
          <td style="padding:12px;border-bottom:1px solid #e5e7eb;text-align:right;font-weight:600;">{{.Amount}}</td>
        </tr>{{end}}
      </tbody>
    </table>
    <div style="text-align:right;padding-top:16px;border-top:1px solid #e5e7eb;">
      <div style="margin-bottom:8px;"><span style="color:#6b7280;">Subtotal:</span><span style="margin-left:16px;font-weight:600;">{{.Subtotal}}</span></div>
      <div style="margin-bottom:12px;"><span style="color:#6b7280;">Tax ({{.TaxRate}}%):</span><span style="margin-left:16px;font-weight:600;">{{.Tax}}</span></div>
      <div style="background-color:#d1fae5;padding:12px 16px;border-radius:8px;display:inline-block;">
        <span style="font-size:18px;font-weight:700;color:#059669;">Total: {{.Total}}</span>
      </div>
    </div>
    <div style="margin-top:32px;padding-top:24px;border-top:1px solid #e5e7eb;text-align:center;">
      <p style="margin:0;color:#6b7280;font-size:14px;">{{.Footer}}</p>
      <p style="margin:8px 0 0;color:#10b981;font-size:12px;font-weight:600;">This is a paperless digital receipt</p>
    </div>
  </div>
  <div style="text-align:center;padding:20px;color:#9ca3af;font-size:12px;">
    <p style="margin:0;">This email was sent from {{.BusinessName}}</p>
    <p style="margin:4px 0 0;">Powered by EReceipt - Go Paperless</p>
  </div>
</div>
</body>
</html>
`))

var emailText = texttemplate.Must(texttemplate.New("email").Parse(`========================================
{{.BusinessName}} - Digital Receipt
========================================

Receipt Number: {{.ReceiptNumber}}
Date: {{.Date}}

Customer: {{.CustomerName}}
Email: {{if .CustomerEmail}}{{.CustomerEmail}}{{else}}N/A{{end}}

----------------------------------------
ITEMS:
{{range .Items}}  - {{.Name}} x{{.Quantity}} @ {{.Price}} = {{.Amount}}
{{end}}----------------------------------------

Subtotal: {{.Subtotal}}
Tax ({{.TaxRate}}%): {{.Tax}}
----------------------------------------
TOTAL: {{.Total}}
----------------------------------------

{{.Footer}}
This is a paperless digital receipt.

Powered by EReceipt - Go Paperless
========================================`))

// BuildEmail arma asunto, HTML y texto plano del correo del recibo.
func BuildEmail(rc *entity.Receipt, owner *entity.User) (subject, html, text string, err error) {
	v := newView(rc, owner)
	var hb, tb bytes.Buffer
	if err := emailHTML.Execute(&hb, v); err != nil {
		return "", "", "", fmt.Errorf("plantilla html: %w", err)
	}
	if err := emailText.Execute(&tb, v); err != nil {
		return "", "", "", fmt.Errorf("plantilla texto: %w", err)
	}
	return "Your Receipt - " + rc.ReceiptNumber, hb.String(), tb.String(), nil
}

// BuildSMS arma el texto del SMS; si supera 160 caracteres se recorta a 157 + "...".
func BuildSMS(rc *entity.Receipt, owner *entity.User) string {
	v := newView(rc, owner)
	msg := strings.Join([]string{
		"\U0001F9FE " + v.BusinessName,
		"Receipt: " + v.ReceiptNumber,
		"Total: " + v.Total,
		"Date: " + v.Date,
		"",
		v.Footer,
		"♻️ Paperless Receipt",
	}, "\n")
	return truncate(msg, SMSMaxLength)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
