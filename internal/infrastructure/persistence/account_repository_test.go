package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/contaspagar/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testToday = payables.NewDate(2026, time.October, 18)

func createTestGroup(t *testing.T, db *gorm.DB, name string) *payables.Group {
	t.Helper()
	group, err := payables.NewGroup(name, "")
	require.NoError(t, err)
	require.NoError(t, NewGormGroupRepository(db).Save(context.Background(), group))
	return group
}

func createTestAccount(t *testing.T, db *gorm.DB, groupID uuid.UUID, name string, amount string, due time.Time, rec payables.Recurrence) *payables.Account {
	t.Helper()
	account, err := payables.NewAccount(payables.AccountParams{
		Name:       name,
		GroupID:    groupID,
		Kind:       payables.KindFixed,
		Recurrence: rec,
		Amount:     decimal.RequireFromString(amount),
		DueDate:    due,
	}, testToday)
	require.NoError(t, err)
	require.NoError(t, NewGormAccountRepository(db).Save(context.Background(), account))
	return account
}

func TestGormAccountRepository_FindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()
	group := createTestGroup(t, db, "Utilidades")
	saved := createTestAccount(t, db, group.ID, "Conta de Água", "150.75", payables.NewDate(2026, time.October, 25), payables.RecurrenceMonthly)

	t.Run("loads the account with its group name", func(t *testing.T) {
		found, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)

		assert.Equal(t, "Conta de Água", found.Name)
		assert.Equal(t, "Utilidades", found.GroupName)
		assert.True(t, decimal.RequireFromString("150.75").Equal(found.Amount))
		assert.Equal(t, payables.NewDate(2026, time.October, 25), found.DueDate)
		assert.Equal(t, payables.StatusOnTime, found.Status)
		assert.True(t, found.Active)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, payables.ErrAccountNotFound)
	})
}

func TestGormAccountRepository_FindAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()
	utilities := createTestGroup(t, db, "Utilidades")
	vehicles := createTestGroup(t, db, "Veículos")

	createTestAccount(t, db, utilities.ID, "Conta de Água", "100", payables.NewDate(2026, time.October, 25), payables.RecurrenceMonthly)
	createTestAccount(t, db, utilities.ID, "Energia Elétrica", "300", payables.NewDate(2026, time.October, 10), payables.RecurrenceMonthly)
	createTestAccount(t, db, vehicles.ID, "IPVA 50%_off", "900", payables.NewDate(2026, time.October, 18), payables.RecurrenceOnce)

	all := shared.Filter{Page: 1, PageSize: 20}

	t.Run("name filter ignores case and accents", func(t *testing.T) {
		accounts, total, err := repo.FindAll(ctx, payables.AccountFilter{Filter: all, Name: "AGUA"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, accounts, 1)
		assert.Equal(t, "Conta de Água", accounts[0].Name)
	})

	t.Run("wildcards in the name are literal", func(t *testing.T) {
		_, total, err := repo.FindAll(ctx, payables.AccountFilter{Filter: all, Name: "50%_"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		_, total, err = repo.FindAll(ctx, payables.AccountFilter{Filter: all, Name: "%"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("filters by group and status", func(t *testing.T) {
		accounts, total, err := repo.FindAll(ctx, payables.AccountFilter{Filter: all, GroupID: &utilities.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, a := range accounts {
			assert.Equal(t, "Utilidades", a.GroupName)
		}

		accounts, _, err = repo.FindAll(ctx, payables.AccountFilter{Filter: all, Status: payables.StatusOverdue})
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "Energia Elétrica", accounts[0].Name)
	})

	t.Run("sorts by whitelisted field and paginates", func(t *testing.T) {
		page := shared.Filter{Page: 2, PageSize: 2, OrderBy: "due_date", OrderDir: "asc"}
		accounts, total, err := repo.FindAll(ctx, payables.AccountFilter{Filter: page})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, accounts, 1)
		assert.Equal(t, "Conta de Água", accounts[0].Name)
	})

	t.Run("unknown sort field falls back", func(t *testing.T) {
		bad := shared.Filter{Page: 1, PageSize: 20, OrderBy: "name; DROP TABLE accounts"}
		_, total, err := repo.FindAll(ctx, payables.AccountFilter{Filter: bad})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})
}

func TestGormAccountRepository_FindAllStatusFollowsDueDate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()
	group := createTestGroup(t, db, "Utilidades")

	late := createTestAccount(t, db, group.ID, "Internet", "120", payables.NewDate(2026, time.October, 10), payables.RecurrenceMonthly)
	today := createTestAccount(t, db, group.ID, "Aluguel", "2000", testToday, payables.RecurrenceMonthly)
	createTestAccount(t, db, group.ID, "Seguro", "80", payables.NewDate(2026, time.November, 30), payables.RecurrenceMonthly)

	// cached statuses left over from a scan that has not caught up
	for _, id := range []uuid.UUID{late.ID, today.ID} {
		require.NoError(t, db.Model(&models.AccountModel{}).Where("id = ?", id).
			Update("status", payables.StatusOnTime).Error)
	}

	all := shared.Filter{Page: 1, PageSize: 20}
	tests := []struct {
		status   payables.AccountStatus
		expected []string
	}{
		{payables.StatusOverdue, []string{"Internet"}},
		{payables.StatusDueToday, []string{"Aluguel"}},
		{payables.StatusOnTime, []string{"Seguro"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			accounts, total, err := repo.FindAll(ctx, payables.AccountFilter{Filter: all, Status: tt.status, Today: testToday})
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.expected)), total)
			names := make([]string, 0, len(accounts))
			for _, a := range accounts {
				names = append(names, a.Name)
			}
			assert.ElementsMatch(t, tt.expected, names)
		})
	}

	t.Run("without today the cached column is used", func(t *testing.T) {
		_, total, err := repo.FindAll(ctx, payables.AccountFilter{Filter: all, Status: payables.StatusOverdue})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})
}

func TestGormAccountRepository_FindForStatusScan(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()
	group := createTestGroup(t, db, "Geral")

	late := createTestAccount(t, db, group.ID, "Aluguel", "2000", payables.NewDate(2026, time.October, 5), payables.RecurrenceMonthly)
	soon := createTestAccount(t, db, group.ID, "Internet", "120", payables.NewDate(2026, time.October, 20), payables.RecurrenceMonthly)
	closed := createTestAccount(t, db, group.ID, "Taxa única", "50", payables.NewDate(2026, time.October, 1), payables.RecurrenceOnce)
	_, err := closed.MarkPaid(testToday, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, closed))

	accounts, err := repo.FindForStatusScan(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, late.ID, accounts[0].ID)
	assert.Equal(t, soon.ID, accounts[1].ID)
}

func TestGormAccountRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()
	group := createTestGroup(t, db, "Geral")
	account := createTestAccount(t, db, group.ID, "Internet", "120", payables.NewDate(2026, time.October, 25), payables.RecurrenceMonthly)

	require.NoError(t, repo.UpdateStatus(ctx, account.ID, payables.StatusDueSoon, time.Now().UTC()))

	found, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, payables.StatusDueSoon, found.Status)
	assert.Equal(t, account.Name, found.Name)
	assert.True(t, account.Amount.Equal(found.Amount))
}

func TestGormAccountRepository_SavePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("recurring account rolls forward and history is written", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountRepository(db)
		historyRepo := NewGormPaymentHistoryRepository(db)
		group := createTestGroup(t, db, "Geral")
		account := createTestAccount(t, db, group.ID, "Aluguel", "2000", payables.NewDate(2026, time.January, 31), payables.RecurrenceMonthly)
		account.GroupName = group.Name

		history, err := account.MarkPaid(payables.NewDate(2026, time.February, 2), "pago via pix")
		require.NoError(t, err)
		require.NoError(t, repo.SavePayment(ctx, account, history))

		found, err := repo.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, payables.NewDate(2026, time.February, 28), found.DueDate)
		assert.False(t, found.Paid)
		assert.True(t, found.Active)
		assert.Nil(t, found.PaymentDate)

		entries, total, err := historyRepo.FindAll(ctx, payables.PaymentHistoryFilter{
			Filter:    shared.Filter{Page: 1, PageSize: 10},
			AccountID: &account.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, entries, 1)
		assert.Equal(t, payables.NewDate(2026, time.January, 31), entries[0].DueDate)
		assert.Equal(t, 2, entries[0].DaysLate)
		assert.Equal(t, "Geral", entries[0].GroupName)
		assert.Contains(t, entries[0].Note, "pago via pix")
	})

	t.Run("one-off account is closed with its payment date", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountRepository(db)
		group := createTestGroup(t, db, "Geral")
		due := payables.NewDate(2026, time.October, 10)
		account := createTestAccount(t, db, group.ID, "Taxa única", "80", due, payables.RecurrenceOnce)

		history, err := account.MarkPaid(testToday, "")
		require.NoError(t, err)
		require.NoError(t, repo.SavePayment(ctx, account, history))

		found, err := repo.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, found.Paid)
		assert.False(t, found.Active)
		assert.Equal(t, due, found.DueDate)
		require.NotNil(t, found.PaymentDate)
		assert.Equal(t, testToday, *found.PaymentDate)
	})

	t.Run("missing account rolls back the history entry", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountRepository(db)
		group := createTestGroup(t, db, "Geral")
		account := createTestAccount(t, db, group.ID, "Aluguel", "2000", payables.NewDate(2026, time.October, 5), payables.RecurrenceMonthly)
		require.NoError(t, repo.Delete(ctx, account.ID))

		history, err := account.MarkPaid(testToday, "")
		require.NoError(t, err)
		err = repo.SavePayment(ctx, account, history)
		assert.ErrorIs(t, err, payables.ErrAccountNotFound)

		count, err := NewGormPaymentHistoryRepository(db).CountByAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("stale copy of a paid occurrence is rejected", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountRepository(db)
		group := createTestGroup(t, db, "Geral")
		created := createTestAccount(t, db, group.ID, "Aluguel", "2000", payables.NewDate(2026, time.March, 10), payables.RecurrenceMonthly)

		first, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)

		history, err := first.MarkPaid(payables.NewDate(2026, time.March, 11), "")
		require.NoError(t, err)
		require.NoError(t, repo.SavePayment(ctx, first, history))

		staleHistory, err := second.MarkPaid(payables.NewDate(2026, time.March, 12), "")
		require.NoError(t, err)
		err = repo.SavePayment(ctx, second, staleHistory)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		count, err := NewGormPaymentHistoryRepository(db).CountByAccount(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, payables.NewDate(2026, time.April, 10), found.DueDate)
	})

	t.Run("closed one-off account cannot be paid from a stale copy", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountRepository(db)
		group := createTestGroup(t, db, "Geral")
		created := createTestAccount(t, db, group.ID, "Taxa única", "80", payables.NewDate(2026, time.October, 10), payables.RecurrenceOnce)

		first, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)

		history, err := first.MarkPaid(testToday, "")
		require.NoError(t, err)
		require.NoError(t, repo.SavePayment(ctx, first, history))

		staleHistory, err := second.MarkPaid(testToday, "")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.SavePayment(ctx, second, staleHistory), shared.ErrConcurrencyConflict)

		count, err := NewGormPaymentHistoryRepository(db).CountByAccount(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestGormAccountRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()
	group := createTestGroup(t, db, "Geral")
	account := createTestAccount(t, db, group.ID, "Aluguel", "2000", payables.NewDate(2026, time.October, 5), payables.RecurrenceMonthly)

	history, err := account.MarkPaid(testToday, "")
	require.NoError(t, err)
	require.NoError(t, repo.SavePayment(ctx, account, history))

	require.NoError(t, repo.Delete(ctx, account.ID))
	assert.ErrorIs(t, repo.Delete(ctx, account.ID), payables.ErrAccountNotFound)

	count, err := NewGormPaymentHistoryRepository(db).CountByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "history outlives the account")
}

func TestGormAccountRepository_Totals(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()
	group := createTestGroup(t, db, "Geral")

	t.Run("empty table sums to zero", func(t *testing.T) {
		totals, err := repo.Totals(ctx, testToday)
		require.NoError(t, err)
		assert.True(t, totals.TotalAmount.IsZero())
		assert.Zero(t, totals.TotalCount)
	})

	createTestAccount(t, db, group.ID, "Internet", "100.10", payables.NewDate(2026, time.October, 25), payables.RecurrenceMonthly)
	createTestAccount(t, db, group.ID, "Energia", "50.00", testToday, payables.RecurrenceMonthly)
	createTestAccount(t, db, group.ID, "Aluguel", "20.25", payables.NewDate(2026, time.October, 10), payables.RecurrenceMonthly)
	closed := createTestAccount(t, db, group.ID, "Taxa", "999", payables.NewDate(2026, time.October, 1), payables.RecurrenceOnce)
	_, err := closed.MarkPaid(testToday, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, closed))

	t.Run("buckets by due date and skips closed accounts", func(t *testing.T) {
		totals, err := repo.Totals(ctx, testToday)
		require.NoError(t, err)

		assert.Equal(t, "170.35", totals.TotalAmount.StringFixed(2))
		assert.Equal(t, int64(3), totals.TotalCount)
		assert.Equal(t, "100.10", totals.OnTimeAmount.StringFixed(2))
		assert.Equal(t, int64(1), totals.OnTimeCount)
		assert.Equal(t, "50.00", totals.DueTodayAmount.StringFixed(2))
		assert.Equal(t, int64(1), totals.DueTodayCount)
		assert.Equal(t, "20.25", totals.OverdueAmount.StringFixed(2))
		assert.Equal(t, int64(1), totals.OverdueCount)
	})
}

func TestGormAccountRepository_CountByGroup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAccountRepository(db)
	group := createTestGroup(t, db, "Geral")
	other := createTestGroup(t, db, "Outros")
	createTestAccount(t, db, group.ID, "A", "10", testToday, payables.RecurrenceMonthly)
	createTestAccount(t, db, group.ID, "B", "10", testToday, payables.RecurrenceMonthly)

	count, err := repo.CountByGroup(context.Background(), group.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountByGroup(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
