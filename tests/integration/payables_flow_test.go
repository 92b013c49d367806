package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/contaspagar/backend/internal/infrastructure/cache"
	"github.com/contaspagar/backend/internal/infrastructure/config"
	"github.com/contaspagar/backend/internal/infrastructure/event"
	"github.com/contaspagar/backend/internal/infrastructure/notifier"
	"github.com/contaspagar/backend/internal/infrastructure/persistence"
	"github.com/contaspagar/backend/internal/infrastructure/scheduler"
	"github.com/contaspagar/backend/internal/interfaces/http/handler"
	"github.com/contaspagar/backend/internal/interfaces/http/middleware"
	"github.com/contaspagar/backend/internal/interfaces/http/router"
	"github.com/contaspagar/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// flowClock is a business clock the test moves between requests
type flowClock struct {
	mu    sync.Mutex
	today time.Time
}

func (c *flowClock) Today() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.today
}

func (c *flowClock) Set(d time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = payables.NormalizeDate(d)
}

type flowEnv struct {
	db     *TestDB
	clock  *flowClock
	engine *gin.Engine
}

// newFlowEnv mounts the full API over the PostgreSQL repositories.
// A nil queue leaves WhatsApp notifications disabled.
func newFlowEnv(t *testing.T, queue payables.NotificationQueue) *flowEnv {
	t.Helper()

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()

	log := zap.NewNop()
	clock := &flowClock{today: payables.NewDate(2026, time.March, 15)}

	accounts := persistence.NewGormAccountRepository(tdb.DB)
	groups := persistence.NewGormGroupRepository(tdb.DB)
	billings := persistence.NewGormBillingRepository(tdb.DB)
	history := persistence.NewGormPaymentHistoryRepository(tdb.DB)

	bus := event.NewInMemoryEventBus(log)
	var paymentOpts []apppayables.PaymentServiceOption
	if queue != nil {
		store := cache.NewInMemoryIdempotencyStore()
		t.Cleanup(func() { _ = store.Close() })

		bus.Subscribe(event.NewIdempotentHandler(
			apppayables.NewDueAlertHandler(queue, nil, log),
			store,
			log,
			event.WithKeyFunc(apppayables.DueAlertKey),
			event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: 36 * time.Hour, Enabled: true}),
		))
		paymentOpts = append(paymentOpts, apppayables.WithNotificationQueue(queue))
	}
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	accountService := apppayables.NewAccountService(accounts, groups, clock, log)
	paymentService := apppayables.NewPaymentService(accounts, history, bus, clock, log, paymentOpts...)
	statusService := apppayables.NewStatusService(accounts, bus, clock, nil, log)

	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(nil),
		User:      handler.NewUserHandler(nil),
		Account:   handler.NewAccountHandler(accountService, paymentService, statusService),
		Group:     handler.NewGroupHandler(apppayables.NewGroupService(groups, accounts, log)),
		Billing:   handler.NewBillingHandler(apppayables.NewBillingService(billings, log)),
		History:   handler.NewHistoryHandler(paymentService),
		Dashboard: handler.NewDashboardHandler(apppayables.NewDashboardService(accounts, billings, clock, log)),
		System:    handler.NewSystemHandler("contas-pagar", "test"),
	}

	engine := gin.New()
	router.NewRouter(engine).Register(router.APIRoutes(handlers, router.RouteOptions{})...).Setup()

	return &flowEnv{db: tdb, clock: clock, engine: engine}
}

func (e *flowEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	return envelope.Data
}

func (e *flowEnv) createGroup(t *testing.T, name string) apppayables.GroupDTO {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/groups", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[apppayables.GroupDTO](t, w)
}

func (e *flowEnv) createAccount(t *testing.T, group apppayables.GroupDTO, overrides map[string]any) apppayables.AccountDTO {
	t.Helper()
	body := map[string]any{
		"name":       "Aluguel galpão",
		"group_id":   group.ID.String(),
		"kind":       "fixed",
		"recurrence": "monthly",
		"amount":     "2500.00",
		"due_date":   "2026-03-20",
	}
	for k, v := range overrides {
		body[k] = v
	}
	w := e.do(t, http.MethodPost, "/api/v1/accounts", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[apppayables.AccountDTO](t, w)
}

func TestPayablesFlow_ScanAndPay(t *testing.T) {
	env := newFlowEnv(t, nil)
	group := env.createGroup(t, "Imóveis")

	rent := env.createAccount(t, group, map[string]any{"alert_lead_days": 3})
	assert.Equal(t, string(payables.StatusOnTime), rent.Status)
	assert.Equal(t, "Imóveis", rent.GroupName)

	// 2026-03-18 falls inside the three day lead window
	env.clock.Set(payables.NewDate(2026, time.March, 18))
	w := env.do(t, http.MethodPost, "/api/v1/accounts/status-scan", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	scan := decodeData[payables.ScanResult](t, w)
	assert.Equal(t, 1, scan.Scanned)
	assert.Equal(t, 1, scan.ToDueSoon)

	env.clock.Set(payables.NewDate(2026, time.March, 22))
	w = env.do(t, http.MethodPost, "/api/v1/accounts/status-scan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeData[payables.ScanResult](t, w).ToOverdue)

	w = env.do(t, http.MethodGet, "/api/v1/accounts/"+rent.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	overdue := decodeData[apppayables.AccountDTO](t, w)
	assert.Equal(t, string(payables.StatusOverdue), overdue.Status)
	assert.Equal(t, "Em Atraso", overdue.StatusLabel)

	w = env.do(t, http.MethodPost, "/api/v1/accounts/"+rent.ID.String()+"/pay", map[string]any{"note": "transferência"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := decodeData[apppayables.MarkPaidResult](t, w)
	assert.Equal(t, "2026-04-20", paid.Account.DueDate)
	assert.Equal(t, string(payables.StatusOnTime), paid.Account.Status)
	assert.True(t, paid.Account.Active)
	assert.Equal(t, 2, paid.History.DaysLate)
	assert.Equal(t, "2026-03-20", paid.History.DueDate)
	assert.True(t, paid.History.Amount.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, apppayables.NotificationNotConfigured, paid.Notification)

	w = env.do(t, http.MethodGet, "/api/v1/accounts/"+rent.ID.String()+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decodeData[[]apppayables.PaymentHistoryDTO](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, "Aluguel galpão", entries[0].AccountName)
	assert.Equal(t, "transferência", entries[0].Note)
}

func TestPayablesFlow_OneOffAccountCloses(t *testing.T) {
	env := newFlowEnv(t, nil)
	group := env.createGroup(t, "Manutenção")
	repair := env.createAccount(t, group, map[string]any{
		"name":       "Troca de telhado",
		"kind":       "variable",
		"recurrence": "once",
		"amount":     980.4,
	})

	path := "/api/v1/accounts/" + repair.ID.String() + "/pay"
	w := env.do(t, http.MethodPost, path, map[string]any{"payment_date": "2026-03-12"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decodeData[apppayables.MarkPaidResult](t, w)
	assert.True(t, result.Account.Paid)
	assert.False(t, result.Account.Active)
	assert.Equal(t, 0, result.History.DaysLate)

	w = env.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// closed accounts leave the scan and the dashboard
	w = env.do(t, http.MethodPost, "/api/v1/accounts/status-scan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decodeData[payables.ScanResult](t, w).Scanned)
}

func TestPayablesFlow_DashboardAndBillings(t *testing.T) {
	env := newFlowEnv(t, nil)
	group := env.createGroup(t, "Fornecedores")
	env.createAccount(t, group, map[string]any{"name": "Distribuidora", "amount": "700.00", "due_date": "2026-03-15"})
	env.createAccount(t, group, map[string]any{"name": "Embalagens", "amount": "300.00", "due_date": "2026-03-10"})

	w := env.do(t, http.MethodPost, "/api/v1/billings", map[string]any{
		"reference_month": "2026-02",
		"store":           "4000.00",
		"modobank_pix":    "1000.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/billings", map[string]any{
		"reference_month": "2026-02",
		"store":           "10.00",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decodeData[apppayables.DashboardDTO](t, w)
	assert.Equal(t, "2026-03-15", summary.Date)
	assert.Equal(t, int64(2), summary.Total.Count)
	assert.Equal(t, int64(1), summary.DueToday.Count)
	assert.Equal(t, int64(1), summary.Overdue.Count)
	assert.True(t, summary.Total.Amount.Equal(decimal.NewFromInt(1000)), summary.Total.Amount.String())
	require.NotNil(t, summary.LatestBilling)
	assert.Equal(t, "2026-02", summary.LatestBilling.ReferenceMonth)
	assert.True(t, summary.Profit.Equal(decimal.NewFromInt(4000)), summary.Profit.String())
}

func TestPayablesFlow_GroupDeleteProtection(t *testing.T) {
	env := newFlowEnv(t, nil)
	group := env.createGroup(t, "Veículos")
	account := env.createAccount(t, group, map[string]any{"name": "IPVA van", "recurrence": "annual"})

	w := env.do(t, http.MethodDelete, "/api/v1/groups/"+group.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/v1/accounts/"+account.ID.String(), nil)
	require.True(t, w.Code == http.StatusOK || w.Code == http.StatusNoContent, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/v1/groups/"+group.ID.String(), nil)
	assert.True(t, w.Code == http.StatusOK || w.Code == http.StatusNoContent, w.Body.String())
}

// newWhatsAppQueue starts a scheduler delivering through a fake Evolution server
func newWhatsAppQueue(t *testing.T, evolution *testutil.FakeEvolution) *scheduler.Scheduler {
	t.Helper()

	client, err := notifier.NewEvolutionClient(config.NotifierConfig{
		Enabled:      true,
		BaseURL:      evolution.URL(),
		InstanceName: "loja",
		InstanceKey:  "instance-key",
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)

	cfg := scheduler.DefaultSchedulerConfig()
	cfg.RetryDelay = 50 * time.Millisecond
	s, err := scheduler.NewScheduler(cfg, scheduler.NewNotificationExecutor(client, nil, zap.NewNop()), nil, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func TestPayablesFlow_WhatsAppNotifications(t *testing.T) {
	evolution := testutil.NewFakeEvolution(t)
	env := newFlowEnv(t, newWhatsAppQueue(t, evolution))
	group := env.createGroup(t, "Serviços")

	internet := env.createAccount(t, group, map[string]any{
		"name":                  "Internet fibra",
		"amount":                "199.90",
		"due_date":              "2026-03-17",
		"alert_lead_days":       3,
		"alert_phone":           "11988887777",
		"confirmation_phone":    "11977776666",
		"confirmation_template": "Pagamento de {{nome_conta}} no valor de {{valor}} em {{data_pagamento}}",
	})
	assert.Equal(t, string(payables.StatusDueSoon), internet.Status)

	env.clock.Set(payables.NewDate(2026, time.March, 16))
	w := env.do(t, http.MethodPost, "/api/v1/accounts/status-scan", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env.clock.Set(payables.NewDate(2026, time.March, 17))
	w = env.do(t, http.MethodPost, "/api/v1/accounts/status-scan", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeData[payables.ScanResult](t, w).ToDueToday)

	// a second scan on the same day must not alert again
	w = env.do(t, http.MethodPost, "/api/v1/accounts/status-scan", nil)
	require.Equal(t, http.StatusOK, w.Code)

	testutil.RequireEventually(t, func() bool { return len(evolution.Sent()) == 1 }, 5*time.Second, "due today alert")
	alert := evolution.Sent()[0]
	assert.Equal(t, "loja", alert.Instance)
	assert.Equal(t, "instance-key", alert.APIKey)
	assert.Equal(t, "5511988887777", alert.Number)
	assert.Contains(t, alert.Text, "Vencimento: 17/03/2026")
	assert.Contains(t, alert.Text, "Nome da Conta: Internet fibra")

	w = env.do(t, http.MethodPost, "/api/v1/accounts/"+internet.ID.String()+"/pay", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, apppayables.NotificationQueued, decodeData[apppayables.MarkPaidResult](t, w).Notification)

	testutil.RequireEventually(t, func() bool { return len(evolution.Sent()) == 2 }, 5*time.Second, "payment confirmation")
	var confirmation testutil.SentMessage
	for _, msg := range evolution.Sent() {
		if msg.Number == "5511977776666" {
			confirmation = msg
		}
	}
	assert.True(t, strings.HasPrefix(confirmation.Text, "Pagamento de Internet fibra"), confirmation.Text)
	assert.Contains(t, confirmation.Text, "R$ 199,90")
	assert.Contains(t, confirmation.Text, "17/03/2026")

	testutil.AssertNever(t, func() bool { return len(evolution.Sent()) > 2 }, 200*time.Millisecond, "no duplicate messages")
}
