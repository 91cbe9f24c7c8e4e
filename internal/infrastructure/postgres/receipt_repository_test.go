package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
	"github.com/jhoicas/ereceipt-api/pkg/config"
)

// Requiere una base real: TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func TestReceiptRepo_CicloCompleto(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	tx := NewTxRunner(pool)
	repo := NewReceiptRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &entity.User{
		ID: uuid.NewString(), Email: uuid.NewString() + "@test.com", PasswordHash: "x",
		BusinessName: "Shop", IsActive: true, Settings: entity.DefaultUserSettings(),
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, users.Create(ctx, u))
	assert.ErrorIs(t, users.Create(ctx, &entity.User{ID: uuid.NewString(), Email: u.Email, Settings: u.Settings}), domain.ErrEmailAlreadyExists)

	d := decimal.NewFromInt
	rc := &entity.Receipt{
		ID: uuid.NewString(), UserID: u.ID, ReceiptNumber: "REC-PG-1", CustomerName: "Ana López",
		CustomerEmail: "ana@test.com", TransactionDate: "2025-12-03",
		Items:    []entity.ReceiptItem{{Name: "A", Quantity: d(1), Price: d(10)}, {Name: "B", Quantity: d(2), Price: d(5)}},
		Subtotal: d(20), TaxRate: d(10), Tax: d(2), Total: d(22),
		Currency: "USD", PaymentMethod: "Cash", PaymentStatus: "Paid", Status: entity.ReceiptStatusCreated,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, tx.RunReceipts(ctx, func(r repository.ReceiptRepository) error { return r.Create(ctx, rc) }))

	got, err := repo.GetByID(ctx, u.ID, rc.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "B", got.Items[1].Name)
	assert.True(t, got.Total.Equal(d(22)))

	list, total, err := repo.List(ctx, entity.ReceiptFilter{UserID: u.ID, Search: "ANA", Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	require.NoError(t, repo.MarkSent(ctx, u.ID, rc.ID, repository.ChannelSMS, now))
	require.NoError(t, repo.MarkSent(ctx, u.ID, rc.ID, repository.ChannelEmail, now))
	got, _ = repo.GetByID(ctx, u.ID, rc.ID)
	assert.Equal(t, entity.ReceiptStatusBothSent, got.Status)

	st, err := repo.Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.TotalReceipts)
	assert.EqualValues(t, 1, st.EmailsSent)
	assert.True(t, st.TotalRevenue.Equal(d(22)))

	other, err := repo.GetByID(ctx, uuid.NewString(), rc.ID)
	require.NoError(t, err)
	assert.Nil(t, other, "un usuario no ve recibos ajenos")

	require.NoError(t, repo.Delete(ctx, u.ID, rc.ID))
	assert.ErrorIs(t, repo.Delete(ctx, u.ID, rc.ID), domain.ErrNotFound)
}
