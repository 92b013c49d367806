package handler

import (
	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BillingHandler handles monthly billing endpoints
type BillingHandler struct {
	BaseHandler
	billingService *apppayables.BillingService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService *apppayables.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// BillingRequest is the body of billing create and update. Channel amounts
// default to zero and a missing gross is the sum of the channels.
type BillingRequest struct {
	ReferenceMonth string          `json:"reference_month" binding:"required"`
	Store          decimal.Decimal `json:"store" binding:"gte=0"`
	ModoBankPix    decimal.Decimal `json:"modobank_pix" binding:"gte=0"`
	ModoBankCard   decimal.Decimal `json:"modobank_card" binding:"gte=0"`
	EfiBankBoleto  decimal.Decimal `json:"efibank_boleto" binding:"gte=0"`
	CelcoinCard    decimal.Decimal `json:"celcoin_card" binding:"gte=0"`
	CardMachine    decimal.Decimal `json:"card_machine" binding:"gte=0"`
	Gross          decimal.Decimal `json:"gross" binding:"gte=0"`
	Note           string          `json:"note" binding:"max=1000"`
}

func (r BillingRequest) toParams() (payables.BillingParams, error) {
	month, err := parseMonth(r.ReferenceMonth)
	if err != nil {
		return payables.BillingParams{}, payables.ErrInvalidDate.WithField("reference_month", "must be yyyy-mm")
	}
	return payables.BillingParams{
		ReferenceMonth: month,
		Channels: payables.BillingChannels{
			Store:         r.Store,
			ModoBankPix:   r.ModoBankPix,
			ModoBankCard:  r.ModoBankCard,
			EfiBankBoleto: r.EfiBankBoleto,
			CelcoinCard:   r.CelcoinCard,
			CardMachine:   r.CardMachine,
		},
		Gross: r.Gross,
		Note:  r.Note,
	}, nil
}

// BillingListQuery holds the billing list filters, both bounds inclusive months
type BillingListQuery struct {
	dto.ListRequest
	From string `form:"from"`
	To   string `form:"to"`
}

// Create handles POST /billings
func (h *BillingHandler) Create(c *gin.Context) {
	var req BillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	params, err := req.toParams()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	billing, err := h.billingService.Create(c.Request.Context(), params)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, billing)
}

// GetByID handles GET /billings/:id
func (h *BillingHandler) GetByID(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid billing ID format")
		return
	}

	billing, err := h.billingService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, billing)
}

// Latest handles GET /billings/latest
func (h *BillingHandler) Latest(c *gin.Context) {
	billing, err := h.billingService.Latest(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, billing)
}

// List handles GET /billings, most recent month first
func (h *BillingHandler) List(c *gin.Context) {
	var query BillingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	filter := payables.BillingFilter{Filter: toFilter(query.ListRequest)}
	if query.From != "" {
		from, err := parseMonth(query.From)
		if err != nil {
			h.HandleError(c, payables.ErrInvalidDate.WithField("from", "must be yyyy-mm"))
			return
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := parseMonth(query.To)
		if err != nil {
			h.HandleError(c, payables.ErrInvalidDate.WithField("to", "must be yyyy-mm"))
			return
		}
		filter.To = &to
	}

	result, err := h.billingService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update handles PUT /billings/:id
func (h *BillingHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid billing ID format")
		return
	}

	var req BillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	params, err := req.toParams()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	billing, err := h.billingService.Update(c.Request.Context(), id, params)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, billing)
}

// Delete handles DELETE /billings/:id
func (h *BillingHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid billing ID format")
		return
	}

	if err := h.billingService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
