// ereceipt cliente de línea de comandos de la API de recibos.
//
// Uso: ereceipt <comando> [flags]
//
//	login -email <email> -password <password>
//	logout
//	whoami
//	list [-page N] [-per-page N] [-search texto] [-status estado]
//	show <id>
//	send <id>
//	totals [-tax-rate 10] nombre:cantidad:precio ...
//
// La sesión se guarda en ~/.ereceipt/session.json. El servidor se toma de ERECEIPT_API_URL
// (por defecto http://localhost:8080).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ereceipt-api/internal/application/dto"
	"github.com/jhoicas/ereceipt-api/internal/client"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/receipt"
	"github.com/jhoicas/ereceipt-api/pkg/money"
)

const defaultServer = "http://localhost:8080"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	// totals no necesita sesión ni servidor
	if cmd == "totals" {
		exitOn(runTotals(os.Stdout, args))
		return
	}

	sessionPath, err := client.DefaultSessionPath()
	exitOn(err)
	server := os.Getenv("ERECEIPT_API_URL")
	if server == "" {
		server = defaultServer
	}
	c := client.New(server, client.NewFileStore(sessionPath))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch cmd {
	case "login":
		err = runLogin(ctx, os.Stdout, c, args)
	case "logout":
		err = c.Logout()
		if err == nil {
			fmt.Println("Sesión cerrada")
		}
	case "whoami":
		err = runWhoami(ctx, os.Stdout, c)
	case "list":
		err = runList(ctx, os.Stdout, c, args)
	case "show":
		err = runShow(ctx, os.Stdout, c, args)
	case "send":
		err = runSend(ctx, os.Stdout, c, args)
	default:
		usage()
		os.Exit(2)
	}
	if errors.Is(err, client.ErrSessionExpired) {
		fmt.Fprintln(os.Stderr, "Sesión expirada. Ejecute: ereceipt login")
		os.Exit(1)
	}
	exitOn(err)
}

func usage() {
	fmt.Fprintln(os.Stderr, "uso: ereceipt login|logout|whoami|list|show|send|totals [flags]")
}

func exitOn(err error) {
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runLogin(ctx context.Context, out io.Writer, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email de la cuenta")
	password := fs.String("password", os.Getenv("ERECEIPT_PASSWORD"), "password (o ERECEIPT_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("email y password son requeridos")
	}
	res, err := c.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Sesión iniciada como %s (%s)\n", res.User.Email, res.User.BusinessName)
	return nil
}

func runWhoami(ctx context.Context, out io.Writer, c *client.Client) error {
	if !c.LoggedIn() {
		return client.ErrSessionExpired
	}
	u, err := c.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\t%s\t%s\n", u.Email, u.BusinessName, u.Settings.Currency)
	return nil
}

func runList(ctx context.Context, out io.Writer, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	page := fs.Int("page", 1, "página")
	perPage := fs.Int("per-page", dto.DefaultPerPage, "recibos por página")
	search := fs.String("search", "", "cliente, número o email")
	status := fs.String("status", "", "created, email_sent, sms_sent, both_sent")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := c.ListReceipts(ctx, dto.ReceiptListQuery{
		PageRequest: dto.PageRequest{Page: *page, PerPage: *perPage},
		Search:      *search,
		Status:      *status,
	})
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNÚMERO\tFECHA\tCLIENTE\tTOTAL\tESTADO")
	for _, rc := range res.Receipts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rc.ID, rc.ReceiptNumber, rc.TransactionDate, rc.CustomerName, money.Format(rc.Total, rc.Currency), rc.Status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	p := res.Pagination
	fmt.Fprintf(out, "Página %d de %d (%d recibos)\n", p.Page, p.Pages, p.Total)
	return nil
}

func runShow(ctx context.Context, out io.Writer, c *client.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("uso: ereceipt show <id>")
	}
	rc, err := c.GetReceipt(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Recibo %s  (%s)\n", rc.ReceiptNumber, rc.TransactionDate)
	fmt.Fprintf(out, "Cliente: %s  %s  %s\n", rc.CustomerName, rc.CustomerEmail, rc.CustomerPhone)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, it := range rc.Items {
		line := receipt.LineTotal(entity.ReceiptItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
		fmt.Fprintf(w, "  %s\t%s x %s\t%s\n", it.Name, it.Quantity, money.Format(it.Price, rc.Currency), money.Format(line, rc.Currency))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Subtotal: %s\nImpuesto (%s%%): %s\nTotal: %s\n",
		money.Format(rc.Subtotal, rc.Currency), rc.TaxRate, money.Format(rc.Tax, rc.Currency), money.Format(rc.Total, rc.Currency))
	fmt.Fprintf(out, "Estado: %s  email=%t  sms=%t\n", rc.Status, rc.EmailSent, rc.SMSSent)
	return nil
}

func runSend(ctx context.Context, out io.Writer, c *client.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("uso: ereceipt send <id>")
	}
	rc, err := c.GetReceipt(ctx, args[0])
	if err != nil {
		return err
	}
	msg, err := c.SendReceipt(ctx, rc)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, msg)
	return nil
}

func runTotals(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("totals", flag.ContinueOnError)
	rate := fs.String("tax-rate", entity.DefaultTaxRate.String(), "tasa de impuesto en %")
	currency := fs.String("currency", entity.DefaultCurrency, "moneda ISO 4217")
	if err := fs.Parse(args); err != nil {
		return err
	}

	taxRate, err := decimal.NewFromString(*rate)
	if err != nil {
		return fmt.Errorf("tax-rate inválido: %w", err)
	}
	items, err := parseItems(fs.Args())
	if err != nil {
		return err
	}
	if err := receipt.ValidateItems(items); err != nil {
		return err
	}
	t := receipt.Compute(items, taxRate)
	fmt.Fprintf(out, "Subtotal: %s\nImpuesto (%s%%): %s\nTotal: %s\n",
		money.Format(t.Subtotal, *currency), taxRate, money.Format(t.Tax, *currency), money.Format(t.Total, *currency))
	return nil
}

// parseItems lee líneas con formato nombre:cantidad:precio.
func parseItems(args []string) ([]entity.ReceiptItem, error) {
	items := make([]entity.ReceiptItem, 0, len(args))
	for _, a := range args {
		i := strings.LastIndex(a, ":")
		j := strings.LastIndex(a[:max(i, 0)], ":")
		if i <= 0 || j <= 0 {
			return nil, fmt.Errorf("item %q: se espera nombre:cantidad:precio", a)
		}
		qty, err := decimal.NewFromString(a[j+1 : i])
		if err != nil {
			return nil, fmt.Errorf("item %q: cantidad inválida", a)
		}
		price, err := decimal.NewFromString(a[i+1:])
		if err != nil {
			return nil, fmt.Errorf("item %q: precio inválido", a)
		}
		items = append(items, entity.ReceiptItem{Name: a[:j], Quantity: qty, Price: price})
	}
	return items, nil
}
