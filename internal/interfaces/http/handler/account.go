package handler

import (
	"errors"
	"io"
	"net/http"

	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountHandler handles account endpoints, including payment and status scan
type AccountHandler struct {
	BaseHandler
	accountService *apppayables.AccountService
	paymentService *apppayables.PaymentService
	statusService  *apppayables.StatusService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(
	accountService *apppayables.AccountService,
	paymentService *apppayables.PaymentService,
	statusService *apppayables.StatusService,
) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		paymentService: paymentService,
		statusService:  statusService,
	}
}

// Create handles POST /accounts
func (h *AccountHandler) Create(c *gin.Context) {
	var req AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	account, err := h.accountService.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, account)
}

// GetByID handles GET /accounts/:id
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	account, err := h.accountService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// List handles GET /accounts.
// Filters: name (accent-insensitive contains), group_id, status, recurrence, kind, paid, active.
func (h *AccountHandler) List(c *gin.Context) {
	var query AccountListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	filter := payables.AccountFilter{
		Filter:     toFilter(query.ListRequest),
		Name:       query.Name,
		Status:     payables.AccountStatus(query.Status),
		Recurrence: payables.Recurrence(query.Recurrence),
		Kind:       payables.AccountKind(query.Kind),
	}
	if filter.Name == "" {
		filter.Name = query.Search
	}
	if query.GroupID != "" {
		groupID := uuid.MustParse(query.GroupID)
		filter.GroupID = &groupID
	}
	var err error
	if filter.Paid, err = optionalBool(query.Paid); err != nil {
		h.BadRequest(c, "Invalid paid filter")
		return
	}
	if filter.Active, err = optionalBool(query.Active); err != nil {
		h.BadRequest(c, "Invalid active filter")
		return
	}

	result, err := h.accountService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update handles PUT /accounts/:id
func (h *AccountHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	account, err := h.accountService.Update(c.Request.Context(), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// Delete handles DELETE /accounts/:id
func (h *AccountHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	if err := h.accountService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// MarkPaid handles POST /accounts/:id/pay. The body is optional; without a
// payment_date the payment is recorded for today.
func (h *AccountHandler) MarkPaid(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req MarkPaidRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.BindError(c, err)
			return
		}
	}

	input := apppayables.MarkPaidInput{Note: req.Note}
	if input.PaymentDate, err = optionalDate(req.PaymentDate); err != nil {
		h.HandleError(c, payables.ErrInvalidDate.WithField("payment_date", dateFormatHint))
		return
	}

	result, err := h.paymentService.MarkPaid(c.Request.Context(), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// History handles GET /accounts/:id/history, newest payments first
func (h *AccountHandler) History(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var query HistoryListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	if _, err := h.accountService.GetByID(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	filter, ok := h.historyFilter(c, query)
	if !ok {
		return
	}
	filter.AccountID = &id

	result, err := h.paymentService.ListHistory(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// FieldGroups handles GET /accounts/field-groups
func (h *AccountHandler) FieldGroups(c *gin.Context) {
	h.Success(c, FieldGroupsResponse{Groups: h.accountService.FieldGroups()})
}

// ScanStatuses handles POST /accounts/status-scan. A scan already running
// answers 409; a partial failure still returns the counters.
func (h *AccountHandler) ScanStatuses(c *gin.Context) {
	result, err := h.statusService.ScanStatuses(c.Request.Context())
	if err != nil && (errors.Is(err, apppayables.ErrScanInProgress) || result.Scanned == 0) {
		h.HandleError(c, err)
		return
	}
	if err != nil {
		_ = c.Error(err)
	}

	h.Success(c, result)
}

// historyFilter converts history query parameters, answering 400 on bad dates
func (h *BaseHandler) historyFilter(c *gin.Context, query HistoryListQuery) (payables.PaymentHistoryFilter, bool) {
	filter := payables.PaymentHistoryFilter{Filter: toFilter(query.ListRequest)}
	var err error
	if filter.From, err = optionalDate(query.From); err != nil {
		h.HandleError(c, payables.ErrInvalidDate.WithField("from", dateFormatHint))
		return filter, false
	}
	if filter.To, err = optionalDate(query.To); err != nil {
		h.HandleError(c, payables.ErrInvalidDate.WithField("to", dateFormatHint))
		return filter, false
	}
	if query.AccountID != "" {
		accountID := uuid.MustParse(query.AccountID)
		filter.AccountID = &accountID
	}
	return filter, true
}
