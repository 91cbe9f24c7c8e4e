package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency moneda usada cuando el recibo no trae una.
const DefaultCurrency = "USD"

var printer = message.NewPrinter(language.English)

var symbols = map[string]string{
	"USD": "$",
	"CAD": "CA$",
	"AUD": "A$",
	"MXN": "MX$",
	"COP": "COL$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
}

// ValidCurrency indica si code es un código ISO 4217 reconocido.
func ValidCurrency(code string) bool {
	_, err := currency.ParseISO(strings.TrimSpace(code))
	return err == nil
}

// Normalize devuelve el código en mayúsculas o DefaultCurrency si es vacío o desconocido.
func Normalize(code string) string {
	u, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return DefaultCurrency
	}
	return u.String()
}

// Symbol símbolo para mostrar; para monedas sin símbolo conocido se usa el código seguido de espacio.
func Symbol(code string) string {
	code = Normalize(code)
	if s, ok := symbols[code]; ok {
		return s
	}
	return code + " "
}

// Format redondea a 2 decimales y agrupa miles: Format(1234.5, "USD") = "$1,234.50".
func Format(amount decimal.Decimal, code string) string {
	f, _ := amount.Round(2).Float64()
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	return sign + Symbol(code) + printer.Sprintf("%.2f", f)
}
