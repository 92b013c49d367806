package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestBilling(t *testing.T, db *gorm.DB, month time.Time, store string) *payables.Billing {
	t.Helper()
	billing, err := payables.NewBilling(payables.BillingParams{
		ReferenceMonth: month,
		Channels: payables.BillingChannels{
			Store:       decimal.RequireFromString(store),
			ModoBankPix: decimal.RequireFromString("1000.50"),
		},
	})
	require.NoError(t, err)
	require.NoError(t, NewGormBillingRepository(db).Save(context.Background(), billing))
	return billing
}

func TestGormBillingRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBillingRepository(db)
	ctx := context.Background()

	aug := createTestBilling(t, db, payables.NewDate(2026, time.August, 15), "5000")
	createTestBilling(t, db, payables.NewDate(2026, time.September, 1), "6000")
	oct := createTestBilling(t, db, payables.NewDate(2026, time.October, 3), "7000")

	t.Run("find by id keeps channel columns", func(t *testing.T) {
		found, err := repo.FindByID(ctx, aug.ID)
		require.NoError(t, err)
		assert.Equal(t, payables.NewDate(2026, time.August, 1), found.ReferenceMonth)
		assert.Equal(t, "1000.50", found.Channels.ModoBankPix.StringFixed(2))
		assert.Equal(t, "6000.50", found.Gross.StringFixed(2))
	})

	t.Run("find by any day of the month", func(t *testing.T) {
		found, err := repo.FindByMonth(ctx, payables.NewDate(2026, time.October, 28))
		require.NoError(t, err)
		assert.Equal(t, oct.ID, found.ID)

		_, err = repo.FindByMonth(ctx, payables.NewDate(2025, time.January, 1))
		assert.ErrorIs(t, err, payables.ErrBillingNotFound)
	})

	t.Run("latest is the most recent month", func(t *testing.T) {
		latest, err := repo.FindLatest(ctx)
		require.NoError(t, err)
		assert.Equal(t, oct.ID, latest.ID)
	})

	t.Run("range filter", func(t *testing.T) {
		from := payables.NewDate(2026, time.September, 20)
		to := payables.NewDate(2026, time.October, 1)
		billings, total, err := repo.FindAll(ctx, payables.BillingFilter{
			Filter: shared.Filter{Page: 1, PageSize: 10},
			From:   &from,
			To:     &to,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, payables.NewDate(2026, time.October, 1), billings[0].ReferenceMonth)
	})

	t.Run("one record per month", func(t *testing.T) {
		dup, err := payables.NewBilling(payables.BillingParams{ReferenceMonth: payables.NewDate(2026, time.August, 31)})
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Save(ctx, dup), payables.ErrBillingMonthUsed)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, aug.ID))
		assert.ErrorIs(t, repo.Delete(ctx, aug.ID), payables.ErrBillingNotFound)
	})
}

func TestGormBillingRepository_FindLatest_Empty(t *testing.T) {
	repo := NewGormBillingRepository(setupTestDB(t))
	_, err := repo.FindLatest(context.Background())
	assert.ErrorIs(t, err, payables.ErrBillingNotFound)
}
