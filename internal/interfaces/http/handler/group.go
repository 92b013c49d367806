package handler

import (
	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// GroupHandler handles account group endpoints
type GroupHandler struct {
	BaseHandler
	groupService *apppayables.GroupService
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groupService *apppayables.GroupService) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
	}
}

// GroupRequest is the body of group create and update
type GroupRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	Active      *bool  `json:"active"`
}

func (r GroupRequest) toInput() apppayables.GroupInput {
	return apppayables.GroupInput{
		Name:        r.Name,
		Description: r.Description,
		Active:      r.Active,
	}
}

// GroupListQuery holds the group list filters
type GroupListQuery struct {
	dto.ListRequest
	Name   string `form:"name"`
	Active string `form:"active" binding:"omitempty,boolean"`
}

// Create handles POST /groups
func (h *GroupHandler) Create(c *gin.Context) {
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	group, err := h.groupService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, group)
}

// GetByID handles GET /groups/:id
func (h *GroupHandler) GetByID(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid group ID format")
		return
	}

	group, err := h.groupService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, group)
}

// List handles GET /groups
func (h *GroupHandler) List(c *gin.Context) {
	var query GroupListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	filter := payables.GroupFilter{
		Filter: toFilter(query.ListRequest),
		Name:   query.Name,
	}
	if filter.Name == "" {
		filter.Name = query.Search
	}
	var err error
	if filter.Active, err = optionalBool(query.Active); err != nil {
		h.BadRequest(c, "Invalid active filter")
		return
	}

	result, err := h.groupService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update handles PUT /groups/:id
func (h *GroupHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid group ID format")
		return
	}

	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	group, err := h.groupService.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, group)
}

// Delete handles DELETE /groups/:id. Groups still referenced by accounts answer 409.
func (h *GroupHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.BadRequest(c, "Invalid group ID format")
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
