package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/receipt"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo repositorio de recibos en memoria.
type ReceiptRepo struct {
	mu   sync.RWMutex
	byID map[string]*entity.Receipt
}

// NewReceiptRepository construye un repositorio vacío.
func NewReceiptRepository() *ReceiptRepo {
	return &ReceiptRepo{byID: make(map[string]*entity.Receipt)}
}

func clone(rc *entity.Receipt) *entity.Receipt {
	cp := *rc
	cp.Items = append([]entity.ReceiptItem(nil), rc.Items...)
	return &cp
}

// NextID uuid v4.
func (r *ReceiptRepo) NextID() string { return uuid.NewString() }

// Create persiste un recibo.
func (r *ReceiptRepo) Create(_ context.Context, rc *entity.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[rc.ID]; ok {
		return domain.ErrDuplicate
	}
	r.byID[rc.ID] = clone(rc)
	return nil
}

func (r *ReceiptRepo) owned(userID, id string) (*entity.Receipt, bool) {
	rc, ok := r.byID[id]
	if !ok || rc.UserID != userID {
		return nil, false
	}
	return rc, true
}

// GetByID obtiene un recibo del usuario.
func (r *ReceiptRepo) GetByID(_ context.Context, userID, id string) (*entity.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rc, ok := r.owned(userID, id)
	if !ok {
		return nil, nil
	}
	return clone(rc), nil
}

// GetByNumber obtiene el recibo más reciente del usuario con ese número.
func (r *ReceiptRepo) GetByNumber(_ context.Context, userID, number string) (*entity.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var newest *entity.Receipt
	for _, rc := range r.byID {
		if rc.UserID != userID || rc.ReceiptNumber != number {
			continue
		}
		if newest == nil || rc.CreatedAt.After(newest.CreatedAt) {
			newest = rc
		}
	}
	if newest == nil {
		return nil, nil
	}
	return clone(newest), nil
}

func matches(rc *entity.Receipt, f entity.ReceiptFilter) bool {
	if rc.UserID != f.UserID {
		return false
	}
	if f.Status != "" && rc.Status != f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(rc.CustomerName), q) ||
		strings.Contains(strings.ToLower(rc.ReceiptNumber), q) ||
		strings.Contains(strings.ToLower(rc.CustomerEmail), q)
}

// List devuelve la página pedida ordenada por created_at desc y el total filtrado.
func (r *ReceiptRepo) List(_ context.Context, f entity.ReceiptFilter) ([]*entity.Receipt, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*entity.Receipt
	for _, rc := range r.byID {
		if matches(rc, f) {
			all = append(all, rc)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	start := f.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if f.PerPage < end-start {
		end = start + max(f.PerPage, 0)
	}
	out := make([]*entity.Receipt, 0, end-start)
	for _, rc := range all[start:end] {
		out = append(out, clone(rc))
	}
	return out, total, nil
}

// Update reemplaza los campos editables.
func (r *ReceiptRepo) Update(_ context.Context, rc *entity.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.owned(rc.UserID, rc.ID)
	if !ok {
		return domain.ErrNotFound
	}
	cur.CustomerName = rc.CustomerName
	cur.CustomerEmail = rc.CustomerEmail
	cur.CustomerPhone = rc.CustomerPhone
	cur.TransactionDate = rc.TransactionDate
	cur.Items = append([]entity.ReceiptItem(nil), rc.Items...)
	cur.Subtotal = rc.Subtotal
	cur.TaxRate = rc.TaxRate
	cur.Tax = rc.Tax
	cur.Total = rc.Total
	cur.PaymentMethod = rc.PaymentMethod
	cur.PaymentStatus = rc.PaymentStatus
	cur.Notes = rc.Notes
	cur.UpdatedAt = rc.UpdatedAt
	return nil
}

// MarkSent marca el canal y recalcula el status.
func (r *ReceiptRepo) MarkSent(_ context.Context, userID, id, channel string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rc, ok := r.owned(userID, id)
	if !ok {
		return domain.ErrNotFound
	}
	t := at
	switch channel {
	case repository.ChannelEmail:
		rc.EmailSent, rc.EmailSentAt = true, &t
	case repository.ChannelSMS:
		rc.SMSSent, rc.SMSSentAt = true, &t
	default:
		return domain.ErrInvalidInput
	}
	rc.Status = receipt.Status(rc.EmailSent, rc.SMSSent)
	rc.UpdatedAt = at
	return nil
}

// Delete elimina un recibo del usuario.
func (r *ReceiptRepo) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owned(userID, id); !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// Stats agrega los recibos del usuario.
func (r *ReceiptRepo) Stats(_ context.Context, userID string) (*entity.ReceiptStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := &entity.ReceiptStats{TotalRevenue: decimal.Zero, TotalTax: decimal.Zero}
	for _, rc := range r.byID {
		if rc.UserID != userID {
			continue
		}
		st.TotalReceipts++
		st.TotalRevenue = st.TotalRevenue.Add(rc.Total)
		st.TotalTax = st.TotalTax.Add(rc.Tax)
		if rc.EmailSent {
			st.EmailsSent++
		}
		if rc.SMSSent {
			st.SMSSent++
		}
	}
	return st, nil
}

// TxRunner ejecuta fn sobre el mismo repositorio (sin transacciones reales).
type TxRunner struct {
	repo *ReceiptRepo
}

// NewTxRunner construye el runner sobre repo.
func NewTxRunner(repo *ReceiptRepo) *TxRunner {
	return &TxRunner{repo: repo}
}

// RunReceipts ejecuta fn con el repositorio en memoria.
func (t *TxRunner) RunReceipts(_ context.Context, fn func(receiptRepo repository.ReceiptRepository) error) error {
	return fn(t.repo)
}
