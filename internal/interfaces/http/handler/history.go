package handler

import (
	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/gin-gonic/gin"
)

// HistoryHandler serves the payment ledger across all accounts
type HistoryHandler struct {
	BaseHandler
	paymentService *apppayables.PaymentService
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(paymentService *apppayables.PaymentService) *HistoryHandler {
	return &HistoryHandler{
		paymentService: paymentService,
	}
}

// List handles GET /history, newest payments first.
// Filters: account_id, from, to (payment dates, inclusive).
func (h *HistoryHandler) List(c *gin.Context) {
	var query HistoryListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	filter, ok := h.historyFilter(c, query)
	if !ok {
		return
	}

	result, err := h.paymentService.ListHistory(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetByID handles GET /history/:id
func (h *HistoryHandler) GetByID(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid history ID format")
		return
	}

	entry, err := h.paymentService.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}
