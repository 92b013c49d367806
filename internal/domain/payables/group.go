package payables

import (
	"strings"
	"unicode/utf8"

	"github.com/contaspagar/backend/internal/domain/shared"
)

const maxGroupNameLength = 100

// Group categorizes accounts. A group with accounts cannot be deleted.
type Group struct {
	shared.BaseEntity
	Name        string
	Description string
	Active      bool
}

// NewGroup creates an active group
func NewGroup(name, description string) (*Group, error) {
	g := &Group{
		BaseEntity: shared.NewBaseEntity(),
		Active:     true,
	}
	if err := g.apply(name, description); err != nil {
		return nil, err
	}
	return g, nil
}

// Update replaces the editable fields
func (g *Group) Update(name, description string, active bool) error {
	if err := g.apply(name, description); err != nil {
		return err
	}
	g.Active = active
	g.Touch()
	return nil
}

func (g *Group) apply(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.ErrInvalidInput.WithField("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxGroupNameLength {
		return shared.ErrInvalidInput.WithField("name", "must be at most 100 characters")
	}
	g.Name = name
	g.Description = strings.TrimSpace(description)
	return nil
}
