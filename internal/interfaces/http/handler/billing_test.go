package handler

import (
	"net/http"
	"testing"

	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/contaspagar/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *payablesEnv) createBilling(t *testing.T, body map[string]any) apppayables.BillingDTO {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/billings", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[apppayables.BillingDTO](t, w)
}

func TestBillingHandler_Create(t *testing.T) {
	env := newPayablesEnv(t)

	t.Run("gross defaults to the channel sum", func(t *testing.T) {
		billing := env.createBilling(t, map[string]any{
			"reference_month": "2026-01",
			"store":           1000,
			"modobank_pix":    250.25,
			"card_machine":    "49.75",
		})

		assert.Equal(t, "2026-01", billing.ReferenceMonth)
		assert.True(t, billing.Gross.Equal(decimal.NewFromInt(1300)), billing.Gross.String())
		assert.Equal(t, "R$ 1.300,00", billing.GrossFormatted)
	})

	t.Run("explicit gross wins", func(t *testing.T) {
		billing := env.createBilling(t, map[string]any{
			"reference_month": "15/02/2026",
			"store":           100,
			"gross":           180,
		})

		assert.Equal(t, "2026-02", billing.ReferenceMonth)
		assert.True(t, billing.Gross.Equal(decimal.NewFromInt(180)))
	})

	t.Run("one record per month", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/billings", map[string]any{"reference_month": "2026-01-20"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeAlreadyExists, decodeResponse(t, w).Error.Code)
	})

	t.Run("negative channel", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/billings", map[string]any{"reference_month": "2026-05", "store": -1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotEmpty(t, resp.Error.Details)
		assert.Equal(t, "store", resp.Error.Details[0].Field)
	})

	t.Run("bad month", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/billings", map[string]any{"reference_month": "janeiro"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "reference_month", resp.Error.Details[0].Field)
	})
}

func TestBillingHandler_LatestAndList(t *testing.T) {
	env := newPayablesEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/billings/latest", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.createBilling(t, map[string]any{"reference_month": "2025-12", "store": 10})
	env.createBilling(t, map[string]any{"reference_month": "2026-02", "store": 30})
	env.createBilling(t, map[string]any{"reference_month": "2026-01", "store": 20})

	w = env.do(t, http.MethodGet, "/api/v1/billings/latest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-02", decodeData[apppayables.BillingDTO](t, w).ReferenceMonth)

	w = env.do(t, http.MethodGet, "/api/v1/billings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeData[[]apppayables.BillingDTO](t, w)
	require.Len(t, items, 3)
	assert.Equal(t, "2026-02", items[0].ReferenceMonth)
	assert.Equal(t, "2025-12", items[2].ReferenceMonth)

	w = env.do(t, http.MethodGet, "/api/v1/billings?from=2026-01&to=2026-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items = decodeData[[]apppayables.BillingDTO](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, "2026-01", items[0].ReferenceMonth)

	w = env.do(t, http.MethodGet, "/api/v1/billings?from=ontem", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBillingHandler_UpdateDelete(t *testing.T) {
	env := newPayablesEnv(t)
	billing := env.createBilling(t, map[string]any{"reference_month": "2026-03", "store": 500})
	env.createBilling(t, map[string]any{"reference_month": "2026-04", "store": 600})
	path := "/api/v1/billings/" + billing.ID.String()

	w := env.do(t, http.MethodPut, path, map[string]any{
		"reference_month": "2026-03",
		"store":           500,
		"celcoin_card":    125,
		"note":            "ajuste",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeData[apppayables.BillingDTO](t, w)
	assert.True(t, updated.Gross.Equal(decimal.NewFromInt(625)))
	assert.Equal(t, "ajuste", updated.Note)

	w = env.do(t, http.MethodPut, path, map[string]any{"reference_month": "2026-04"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
