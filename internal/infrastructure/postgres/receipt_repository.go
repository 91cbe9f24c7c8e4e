package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
)

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo implementación del puerto ReceiptRepository sobre PostgreSQL.
// Los items viven en receipt_items y se reescriben completos en cada Update.
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

const receiptColumns = `id, user_id, receipt_number, customer_name, COALESCE(customer_email, ''), COALESCE(customer_phone, ''),
	transaction_date, subtotal, tax_rate, tax, total, currency, payment_method, payment_status, status,
	email_sent, email_sent_at, sms_sent, sms_sent_at, COALESCE(notes, ''), created_at, updated_at`

// NextID uuid v4 (columna UUID).
func (r *ReceiptRepo) NextID() string { return uuid.NewString() }

// Create inserta la cabecera y sus items.
func (r *ReceiptRepo) Create(ctx context.Context, rc *entity.Receipt) error {
	query := `
		INSERT INTO receipts (id, user_id, receipt_number, customer_name, customer_email, customer_phone,
			transaction_date, subtotal, tax_rate, tax, total, currency, payment_method, payment_status, status,
			email_sent, email_sent_at, sms_sent, sms_sent_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	_, err := r.q.Exec(ctx, query,
		rc.ID, rc.UserID, rc.ReceiptNumber, rc.CustomerName,
		nullIfEmpty(rc.CustomerEmail), nullIfEmpty(rc.CustomerPhone),
		rc.TransactionDate, rc.Subtotal, rc.TaxRate, rc.Tax, rc.Total,
		rc.Currency, rc.PaymentMethod, rc.PaymentStatus, rc.Status,
		rc.EmailSent, rc.EmailSentAt, rc.SMSSent, rc.SMSSentAt,
		nullIfEmpty(rc.Notes), rc.CreatedAt, rc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert receipt: %w", err)
	}
	return r.insertItems(ctx, rc.ID, rc.Items)
}

func (r *ReceiptRepo) insertItems(ctx context.Context, receiptID string, items []entity.ReceiptItem) error {
	for i, it := range items {
		_, err := r.q.Exec(ctx,
			`INSERT INTO receipt_items (receipt_id, position, name, quantity, price) VALUES ($1, $2, $3, $4, $5)`,
			receiptID, i, it.Name, it.Quantity, it.Price,
		)
		if err != nil {
			return fmt.Errorf("insert receipt item %d: %w", i, err)
		}
	}
	return nil
}

// GetByID obtiene un recibo del usuario. (nil, nil) si no existe o es de otro usuario.
func (r *ReceiptRepo) GetByID(ctx context.Context, userID, id string) (*entity.Receipt, error) {
	if !validUUID(id) || !validUUID(userID) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1 AND user_id = $2`, id, userID)
}

// GetByNumber obtiene el recibo más reciente del usuario con ese número.
func (r *ReceiptRepo) GetByNumber(ctx context.Context, userID, number string) (*entity.Receipt, error) {
	if !validUUID(userID) {
		return nil, nil
	}
	return r.getOne(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE receipt_number = $1 AND user_id = $2 ORDER BY created_at DESC LIMIT 1`,
		number, userID)
}

func (r *ReceiptRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Receipt, error) {
	rc, err := scanReceipt(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	if err := r.loadItems(ctx, []*entity.Receipt{rc}); err != nil {
		return nil, err
	}
	return rc, nil
}

func scanReceipt(row pgx.Row) (*entity.Receipt, error) {
	var rc entity.Receipt
	err := row.Scan(
		&rc.ID, &rc.UserID, &rc.ReceiptNumber, &rc.CustomerName, &rc.CustomerEmail, &rc.CustomerPhone,
		&rc.TransactionDate, &rc.Subtotal, &rc.TaxRate, &rc.Tax, &rc.Total,
		&rc.Currency, &rc.PaymentMethod, &rc.PaymentStatus, &rc.Status,
		&rc.EmailSent, &rc.EmailSentAt, &rc.SMSSent, &rc.SMSSentAt,
		&rc.Notes, &rc.CreatedAt, &rc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// loadItems carga los items de varios recibos con una sola consulta.
func (r *ReceiptRepo) loadItems(ctx context.Context, list []*entity.Receipt) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	byID := make(map[string]*entity.Receipt, len(list))
	for i, rc := range list {
		ids[i] = rc.ID
		byID[rc.ID] = rc
		rc.Items = []entity.ReceiptItem{}
	}
	rows, err := r.q.Query(ctx,
		`SELECT receipt_id, name, quantity, price FROM receipt_items
		 WHERE receipt_id = ANY($1::uuid[]) ORDER BY receipt_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list receipt items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var receiptID string
		var it entity.ReceiptItem
		if err := rows.Scan(&receiptID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return fmt.Errorf("scan receipt item: %w", err)
		}
		if rc, ok := byID[receiptID]; ok {
			rc.Items = append(rc.Items, it)
		}
	}
	return rows.Err()
}

// List filtra por usuario, estado y búsqueda (ILIKE en cliente, número o email), paginado por created_at desc.
func (r *ReceiptRepo) List(ctx context.Context, f entity.ReceiptFilter) ([]*entity.Receipt, int64, error) {
	if !validUUID(f.UserID) {
		return []*entity.Receipt{}, 0, nil
	}
	where := []string{"user_id = $1"}
	args := []any{f.UserID}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(customer_name ILIKE $%d OR receipt_number ILIKE $%d OR customer_email ILIKE $%d)", n, n, n))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM receipts WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count receipts: %w", err)
	}

	args = append(args, f.PerPage, f.Offset())
	query := fmt.Sprintf(`SELECT %s FROM receipts WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		receiptColumns, cond, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list receipts: %w", err)
	}
	list := []*entity.Receipt{}
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan receipt: %w", err)
		}
		list = append(list, rc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list receipts: %w", err)
	}
	if err := r.loadItems(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update reemplaza los campos editables y reescribe los items.
func (r *ReceiptRepo) Update(ctx context.Context, rc *entity.Receipt) error {
	if !validUUID(rc.ID) || !validUUID(rc.UserID) {
		return domain.ErrNotFound
	}
	query := `
		UPDATE receipts SET customer_name = $3, customer_email = $4, customer_phone = $5, transaction_date = $6,
			subtotal = $7, tax_rate = $8, tax = $9, total = $10, payment_method = $11, payment_status = $12,
			notes = $13, updated_at = $14
		WHERE id = $1 AND user_id = $2`
	tag, err := r.q.Exec(ctx, query,
		rc.ID, rc.UserID, rc.CustomerName, nullIfEmpty(rc.CustomerEmail), nullIfEmpty(rc.CustomerPhone),
		rc.TransactionDate, rc.Subtotal, rc.TaxRate, rc.Tax, rc.Total,
		rc.PaymentMethod, rc.PaymentStatus, nullIfEmpty(rc.Notes), rc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM receipt_items WHERE receipt_id = $1`, rc.ID); err != nil {
		return fmt.Errorf("delete receipt items: %w", err)
	}
	return r.insertItems(ctx, rc.ID, rc.Items)
}

// MarkSent marca el canal y deriva el status en la misma sentencia.
func (r *ReceiptRepo) MarkSent(ctx context.Context, userID, id, channel string, at time.Time) error {
	var query string
	switch channel {
	case repository.ChannelEmail:
		query = `
			UPDATE receipts SET email_sent = TRUE, email_sent_at = $3, updated_at = $3,
				status = CASE WHEN sms_sent THEN 'both_sent' ELSE 'email_sent' END
			WHERE id = $1 AND user_id = $2`
	case repository.ChannelSMS:
		query = `
			UPDATE receipts SET sms_sent = TRUE, sms_sent_at = $3, updated_at = $3,
				status = CASE WHEN email_sent THEN 'both_sent' ELSE 'sms_sent' END
			WHERE id = $1 AND user_id = $2`
	default:
		return domain.ErrInvalidInput
	}
	if !validUUID(id) || !validUUID(userID) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx, query, id, userID, at)
	if err != nil {
		return fmt.Errorf("mark receipt sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el recibo; los items caen por ON DELETE CASCADE.
func (r *ReceiptRepo) Delete(ctx context.Context, userID, id string) error {
	if !validUUID(id) || !validUUID(userID) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM receipts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Stats agrega los recibos del usuario en una sola consulta.
func (r *ReceiptRepo) Stats(ctx context.Context, userID string) (*entity.ReceiptStats, error) {
	var st entity.ReceiptStats
	if !validUUID(userID) {
		return &st, nil
	}
	query := `
		SELECT COUNT(*), COALESCE(SUM(total), 0), COALESCE(SUM(tax), 0),
			COUNT(*) FILTER (WHERE email_sent), COUNT(*) FILTER (WHERE sms_sent)
		FROM receipts WHERE user_id = $1`
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&st.TotalReceipts, &st.TotalRevenue, &st.TotalTax, &st.EmailsSent, &st.SMSSent,
	)
	if err != nil {
		return nil, fmt.Errorf("receipt stats: %w", err)
	}
	return &st, nil
}
