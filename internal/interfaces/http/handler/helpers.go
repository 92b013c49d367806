package handler

import (
	"strconv"
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/contaspagar/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// toFilter converts bound list parameters into a repository filter.
// Defaults are left to the services, which know their natural ordering.
func toFilter(req dto.ListRequest) shared.Filter {
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}
}

// pathID parses the :id path parameter
func pathID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// optionalBool parses a query value, returning nil when absent
func optionalBool(value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// optionalDate parses a yyyy-mm-dd or dd/mm/yyyy value, returning nil when absent
func optionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := payables.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseMonth accepts yyyy-mm or any full date inside the month
func parseMonth(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01", value); err == nil {
		return payables.MonthStart(t), nil
	}
	d, err := payables.ParseDate(value)
	if err != nil {
		return time.Time{}, err
	}
	return payables.MonthStart(d), nil
}
