package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/infrastructure/persistence"
	"github.com/contaspagar/backend/internal/infrastructure/persistence/models"
	"github.com/contaspagar/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// movableClock lets a test advance the business date between requests
type movableClock struct {
	mu    sync.Mutex
	today time.Time
}

func (c *movableClock) Today() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.today
}

func (c *movableClock) Set(d time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = payables.NormalizeDate(d)
}

type payablesEnv struct {
	db     *gorm.DB
	clock  *movableClock
	engine *gin.Engine
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := persistence.Open(sqlite.Open(dsn), nil)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.AccountGroupModel{},
		&models.AccountModel{},
		&models.BillingModel{},
		&models.PaymentHistoryModel{},
		&models.UserModel{},
	))
	return db
}

// newPayablesEnv wires the payables handlers against a private SQLite database
// with the business date fixed at 2026-03-15.
func newPayablesEnv(t *testing.T) *payablesEnv {
	t.Helper()
	middleware.SetupValidator()

	db := newTestDB(t)
	log := zap.NewNop()
	clock := &movableClock{today: payables.NewDate(2026, time.March, 15)}

	accounts := persistence.NewGormAccountRepository(db)
	groups := persistence.NewGormGroupRepository(db)
	billings := persistence.NewGormBillingRepository(db)
	history := persistence.NewGormPaymentHistoryRepository(db)

	accountService := apppayables.NewAccountService(accounts, groups, clock, log)
	groupService := apppayables.NewGroupService(groups, accounts, log)
	billingService := apppayables.NewBillingService(billings, log)
	paymentService := apppayables.NewPaymentService(accounts, history, nil, clock, log)
	statusService := apppayables.NewStatusService(accounts, nil, clock, nil, log)
	dashboardService := apppayables.NewDashboardService(accounts, billings, clock, log)

	accountHandler := NewAccountHandler(accountService, paymentService, statusService)
	groupHandler := NewGroupHandler(groupService)
	billingHandler := NewBillingHandler(billingService)
	historyHandler := NewHistoryHandler(paymentService)
	dashboardHandler := NewDashboardHandler(dashboardService)

	engine := gin.New()
	api := engine.Group("/api/v1")

	api.GET("/accounts/field-groups", accountHandler.FieldGroups)
	api.POST("/accounts/status-scan", accountHandler.ScanStatuses)
	api.POST("/accounts", accountHandler.Create)
	api.GET("/accounts", accountHandler.List)
	api.GET("/accounts/:id", accountHandler.GetByID)
	api.PUT("/accounts/:id", accountHandler.Update)
	api.DELETE("/accounts/:id", accountHandler.Delete)
	api.POST("/accounts/:id/pay", accountHandler.MarkPaid)
	api.GET("/accounts/:id/history", accountHandler.History)

	api.POST("/groups", groupHandler.Create)
	api.GET("/groups", groupHandler.List)
	api.GET("/groups/:id", groupHandler.GetByID)
	api.PUT("/groups/:id", groupHandler.Update)
	api.DELETE("/groups/:id", groupHandler.Delete)

	api.GET("/billings/latest", billingHandler.Latest)
	api.POST("/billings", billingHandler.Create)
	api.GET("/billings", billingHandler.List)
	api.GET("/billings/:id", billingHandler.GetByID)
	api.PUT("/billings/:id", billingHandler.Update)
	api.DELETE("/billings/:id", billingHandler.Delete)

	api.GET("/history", historyHandler.List)
	api.GET("/history/:id", historyHandler.GetByID)
	api.GET("/dashboard", dashboardHandler.Summary)

	return &payablesEnv{db: db, clock: clock, engine: engine}
}

func newJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func performJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, newJSONRequest(t, method, path, body))
	return w
}

func (e *payablesEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return performJSON(t, e.engine, method, path, body)
}

// decodeData unmarshals the data member of a success envelope
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

func (e *payablesEnv) createGroup(t *testing.T, name string) apppayables.GroupDTO {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/groups", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[apppayables.GroupDTO](t, w)
}

func (e *payablesEnv) createAccount(t *testing.T, body map[string]any) apppayables.AccountDTO {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/accounts", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[apppayables.AccountDTO](t, w)
}

func accountBody(groupID uuid.UUID, overrides map[string]any) map[string]any {
	body := map[string]any{
		"name":       "Energia loja",
		"group_id":   groupID.String(),
		"kind":       "variable",
		"recurrence": "monthly",
		"amount":     150.5,
		"due_date":   "2026-03-20",
	}
	for k, v := range overrides {
		body[k] = v
	}
	return body
}
