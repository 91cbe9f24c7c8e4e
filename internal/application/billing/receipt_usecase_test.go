package billing_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ereceipt-api/internal/application/billing"
	"github.com/jhoicas/ereceipt-api/internal/application/dto"
	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
	"github.com/jhoicas/ereceipt-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeCache struct {
	mu          sync.Mutex
	data        map[string]*entity.ReceiptStats
	gets, sets  int
	invalidated []string
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]*entity.ReceiptStats{}} }

func (c *fakeCache) Get(_ context.Context, userID string) (*entity.ReceiptStats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	st, ok := c.data[userID]
	return st, ok, nil
}

func (c *fakeCache) Set(_ context.Context, userID string, st *entity.ReceiptStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[userID] = st
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []entity.ReceiptEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e entity.ReceiptEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	uc     *billing.ReceiptUseCase
	users  *memory.UserRepo
	repo   *memory.ReceiptRepo
	cache  *fakeCache
	events *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := memory.NewUserRepository()
	repo := memory.NewReceiptRepository()
	cache := newFakeCache()
	events := &fakePublisher{}
	uc := billing.NewReceiptUseCase(repo, users, memory.NewTxRunner(repo), cache, events, nil)
	return &fixture{uc: uc, users: users, repo: repo, cache: cache, events: events}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validRequest() dto.CreateReceiptRequest {
	return dto.CreateReceiptRequest{
		CustomerName:  "John Doe",
		CustomerEmail: "john@example.com",
		Items: []dto.ReceiptItemDTO{
			{Name: "Product 1", Quantity: decimal.NewFromInt(2), Price: decimal.RequireFromString("29.99")},
			{Name: "Product 2", Quantity: decimal.NewFromInt(1), Price: decimal.RequireFromString("49.99")},
		},
		Subtotal: dec("109.97"),
		Tax:      dec("10.99"),
		Total:    dec("120.96"),
	}
}

const owner = "user-1"

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_AplicaDefaultsYConservaTotales(t *testing.T) {
	f := newFixture(t)
	out, err := f.uc.Create(context.Background(), owner, validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, out.ID)
	assert.Len(t, out.ReceiptNumber, 20)
	assert.Contains(t, out.ReceiptNumber, "REC-")
	assert.Equal(t, entity.ReceiptStatusCreated, out.Status)
	assert.Equal(t, "USD", out.Currency)
	assert.Equal(t, "Cash", out.PaymentMethod)
	assert.Equal(t, "Paid", out.PaymentStatus)
	assert.True(t, out.TaxRate.Equal(decimal.NewFromInt(10)))
	assert.True(t, out.Tax.Equal(decimal.RequireFromString("10.99")), "los totales se guardan tal como llegan")
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), out.TransactionDate)
	assert.Equal(t, "Product 1", out.Items[0].Name, "se conserva el orden de las líneas")

	assert.Equal(t, []string{entity.EventReceiptCreated}, f.events.types())
	assert.Equal(t, []string{owner}, f.cache.invalidated)
}

func TestCreate_UsaSettingsDelUsuario(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.users.Create(context.Background(), &entity.User{
		ID: owner, Email: "o@shop.test", IsActive: true,
		Settings: entity.UserSettings{DefaultTaxRate: decimal.NewFromInt(19), Currency: "COP"},
	}))

	in := validRequest()
	in.ReceiptNumber = "REC-1733241600000"
	out, err := f.uc.Create(context.Background(), owner, in)
	require.NoError(t, err)
	assert.Equal(t, "REC-1733241600000", out.ReceiptNumber)
	assert.Equal(t, "COP", out.Currency)
	assert.True(t, out.TaxRate.Equal(decimal.NewFromInt(19)))
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	cases := map[string]func(*dto.CreateReceiptRequest){
		"sin customer_name": func(r *dto.CreateReceiptRequest) { r.CustomerName = "" },
		"sin items":         func(r *dto.CreateReceiptRequest) { r.Items = nil },
		"items vacío":       func(r *dto.CreateReceiptRequest) { r.Items = []dto.ReceiptItemDTO{} },
		"sin subtotal":      func(r *dto.CreateReceiptRequest) { r.Subtotal = nil },
		"sin total":         func(r *dto.CreateReceiptRequest) { r.Total = nil },
		"cantidad cero":     func(r *dto.CreateReceiptRequest) { r.Items[0].Quantity = decimal.Zero },
		"fecha inválida":    func(r *dto.CreateReceiptRequest) { r.TransactionDate = "ayer" },
		"número muy largo":  func(r *dto.CreateReceiptRequest) { r.ReceiptNumber = strings.Repeat("R", 101) },
		"teléfono largo":    func(r *dto.CreateReceiptRequest) { r.CustomerPhone = strings.Repeat("5", 51) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validRequest()
			mutate(&in)
			_, err := f.uc.Create(context.Background(), owner, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCreate_FalloDePublicacionNoFallaLaPeticion(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker caído")
	_, err := f.uc.Create(context.Background(), owner, validRequest())
	assert.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lectura, listado y actualización
// ──────────────────────────────────────────────────────────────────────────────

func TestGet_AcotadoAlDueno(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.uc.Create(ctx, owner, validRequest())
	require.NoError(t, err)

	got, err := f.uc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ReceiptNumber, got.ReceiptNumber)

	_, err = f.uc.Get(ctx, "otro-usuario", created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	byNum, err := f.uc.GetByNumber(ctx, owner, created.ReceiptNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNum.ID)

	_, err = f.uc.GetByNumber(ctx, owner, "REC-NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_PaginacionBusquedaYEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"Alice", "Bob", "Carol", "alicia", "Dave"}
	var ids []string
	for i, n := range names {
		ts := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, f.repo.Create(ctx, &entity.Receipt{
			ID: n, UserID: owner, ReceiptNumber: "REC-" + n, CustomerName: n,
			Status: entity.ReceiptStatusCreated, CreatedAt: ts,
		}))
		ids = append(ids, n)
	}
	require.NoError(t, f.repo.MarkSent(ctx, owner, "Bob", repository.ChannelEmail, base))

	page, err := f.uc.List(ctx, owner, dto.ReceiptListQuery{PageRequest: dto.PageRequest{Page: 1, PerPage: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Pagination.Total)
	assert.Equal(t, int64(3), page.Pagination.Pages)
	require.Len(t, page.Receipts, 2)
	assert.Equal(t, "Dave", page.Receipts[0].CustomerName, "más reciente primero")

	search, err := f.uc.List(ctx, owner, dto.ReceiptListQuery{Search: "ALI"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), search.Pagination.Total)
	assert.Equal(t, 20, search.Pagination.PerPage)

	sent, err := f.uc.List(ctx, owner, dto.ReceiptListQuery{Status: entity.ReceiptStatusEmailSent})
	require.NoError(t, err)
	require.Len(t, sent.Receipts, 1)
	assert.Equal(t, "Bob", sent.Receipts[0].CustomerName)

	capped, err := f.uc.List(ctx, owner, dto.ReceiptListQuery{PageRequest: dto.PageRequest{Page: -3, PerPage: 500}})
	require.NoError(t, err)
	assert.Equal(t, 1, capped.Pagination.Page)
	assert.Equal(t, 100, capped.Pagination.PerPage)
	assert.Len(t, ids, 5)
}

func TestUpdate_SoloCamposPermitidos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.uc.Create(ctx, owner, validRequest())
	require.NoError(t, err)

	notes := "entregado en tienda"
	method := "Card"
	out, err := f.uc.Update(ctx, owner, created.ID, dto.UpdateReceiptRequest{Notes: &notes, PaymentMethod: &method})
	require.NoError(t, err)
	assert.Equal(t, notes, out.Notes)
	assert.Equal(t, "Card", out.PaymentMethod)
	assert.Equal(t, created.CustomerName, out.CustomerName)
	assert.Equal(t, created.ReceiptNumber, out.ReceiptNumber)
	assert.Contains(t, f.events.types(), entity.EventReceiptUpdated)

	_, err = f.uc.Update(ctx, owner, created.ID, dto.UpdateReceiptRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Update(ctx, "otro", created.ID, dto.UpdateReceiptRequest{Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	long := strings.Repeat("x", 256)
	_, err = f.uc.Update(ctx, owner, created.ID, dto.UpdateReceiptRequest{CustomerName: &long})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	got, err := f.uc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.CustomerName, got.CustomerName, "el rechazo no modifica el recibo")
}

func TestCreate_NumeroEnElLimite(t *testing.T) {
	f := newFixture(t)
	in := validRequest()
	in.ReceiptNumber = strings.Repeat("é", 100)
	out, err := f.uc.Create(context.Background(), owner, in)
	require.NoError(t, err, "el límite cuenta caracteres, no bytes")
	assert.Equal(t, in.ReceiptNumber, out.ReceiptNumber)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.uc.Create(ctx, owner, validRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, f.uc.Delete(ctx, "otro", created.ID), domain.ErrNotFound)
	require.NoError(t, f.uc.Delete(ctx, owner, created.ID))
	_, err = f.uc.Get(ctx, owner, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, f.events.types(), entity.EventReceiptDeleted)
}

// ──────────────────────────────────────────────────────────────────────────────
// Estadísticas, envíos y cálculo
// ──────────────────────────────────────────────────────────────────────────────

func TestStats_LecturaATravesDeCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.uc.Create(ctx, owner, validRequest())
	require.NoError(t, err)

	st, err := f.uc.Stats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Stats.TotalReceipts)
	assert.True(t, st.Stats.TotalRevenue.Equal(decimal.RequireFromString("120.96")))
	assert.Equal(t, 1, f.cache.sets)

	_, err = f.uc.Stats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.sets, "el segundo acceso sale de caché")

	rc, err := f.uc.Find(ctx, owner, created.ID)
	require.NoError(t, err)
	require.NoError(t, f.uc.MarkSent(ctx, rc, repository.ChannelSMS, "+15551234567"))

	st, err = f.uc.Stats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Stats.SMSSent, "MarkSent invalida la caché")
	assert.Equal(t, 2, f.cache.sets)

	got, err := f.uc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReceiptStatusSMSSent, got.Status)
	assert.NotNil(t, got.SMSSentAt)
	assert.Contains(t, f.events.types(), entity.EventReceiptSMSSent)
}

func TestCalculate(t *testing.T) {
	f := newFixture(t)
	out, err := f.uc.Calculate(dto.CalculateRequest{
		Items:   validRequest().Items,
		TaxRate: dec("10"),
	})
	require.NoError(t, err)
	assert.True(t, out.Subtotal.Equal(decimal.RequireFromString("109.97")))
	assert.True(t, out.Total.Equal(decimal.RequireFromString("120.967")))

	empty, err := f.uc.Calculate(dto.CalculateRequest{})
	require.NoError(t, err)
	assert.True(t, empty.Total.IsZero())
	assert.True(t, empty.TaxRate.Equal(decimal.NewFromInt(10)))

	_, err = f.uc.Calculate(dto.CalculateRequest{Items: []dto.ReceiptItemDTO{{Name: "x", Quantity: decimal.NewFromInt(-1)}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
