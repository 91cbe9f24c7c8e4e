package memory_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/infrastructure/memory"
)

func seed(t *testing.T, repo *memory.ReceiptRepo, userID, number string, created time.Time) *entity.Receipt {
	t.Helper()
	rc := &entity.Receipt{
		ID:            repo.NextID(),
		UserID:        userID,
		ReceiptNumber: number,
		CustomerName:  "Ana",
		Status:        entity.ReceiptStatusCreated,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, repo.Create(context.Background(), rc))
	return rc
}

func TestReceiptRepo_GetByNumberDevuelveElMasReciente(t *testing.T) {
	repo := memory.NewReceiptRepository()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	seed(t, repo, "u1", "R-1", base)
	newest := seed(t, repo, "u1", "R-1", base.Add(2*time.Hour))
	seed(t, repo, "u1", "R-1", base.Add(time.Hour))
	seed(t, repo, "u2", "R-1", base.Add(5*time.Hour))

	for i := 0; i < 20; i++ {
		got, err := repo.GetByNumber(ctx, "u1", "R-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, newest.ID, got.ID)
	}

	got, err := repo.GetByNumber(ctx, "u1", "R-404")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReceiptRepo_ListPaginasFueraDeRango(t *testing.T) {
	repo := memory.NewReceiptRepository()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seed(t, repo, "u1", "R", base.Add(time.Duration(i)*time.Minute))
	}

	page, total, err := repo.List(ctx, entity.ReceiptFilter{UserID: "u1", Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 1)

	cases := []entity.ReceiptFilter{
		{UserID: "u1", Page: math.MaxInt, PerPage: 20},
		{UserID: "u1", Page: 1, PerPage: 0},
	}
	for _, f := range cases {
		page, total, err := repo.List(ctx, f)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Empty(t, page)
	}

	page, _, err = repo.List(ctx, entity.ReceiptFilter{UserID: "u1", Page: 1, PerPage: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, page, 3)
}
