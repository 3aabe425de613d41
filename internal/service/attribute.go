package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/recipebox/recipebox-server/internal/domain"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/normalize"
	"github.com/recipebox/recipebox-server/internal/store"
)

// AttributeService manages one of the per-user registries (tags or ingredients).
//
// Attributes are only ever created through recipe saves; this service covers
// listing, renaming and deleting them.
type AttributeService struct {
	kind   domain.AttributeKind
	store  store.Store
	logger *slog.Logger
}

// NewAttributeService creates a service for the given kind.
func NewAttributeService(kind domain.AttributeKind, store store.Store, logger *slog.Logger) *AttributeService {
	return &AttributeService{
		kind:   kind,
		store:  store,
		logger: logger,
	}
}

// Kind returns the registry this service operates on.
func (s *AttributeService) Kind() domain.AttributeKind {
	return s.kind
}

type attributeName struct {
	Name string `json:"name" validate:"required,max=255"`
}

// List returns the user's attributes ordered by name descending.
// With assignedOnly, only attributes linked to at least one recipe are returned.
func (s *AttributeService) List(ctx context.Context, userID int64, assignedOnly bool) ([]*domain.Attribute, error) {
	attrs, err := s.store.ListAttributes(ctx, s.kind, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.Plural(), err)
	}
	return attrs, nil
}

// Get returns one of the user's attributes.
func (s *AttributeService) Get(ctx context.Context, userID, id int64) (*domain.Attribute, error) {
	attr, err := s.store.GetAttribute(ctx, s.kind, userID, id)
	if err != nil {
		return nil, s.mapError(err)
	}
	return attr, nil
}

// Rename changes an attribute's name. Taking a name the user already has
// for this kind is a validation error.
func (s *AttributeService) Rename(ctx context.Context, userID, id int64, name string) (*domain.Attribute, error) {
	req := attributeName{Name: normalize.Name(name)}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	attr, err := s.store.RenameAttribute(ctx, s.kind, userID, id, req.Name)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.FieldError("name", fmt.Sprintf("%s with this name already exists", s.kind))
		}
		return nil, s.mapError(err)
	}

	s.logger.Info(string(s.kind)+" renamed",
		"user_id", userID,
		"id", id,
		"name", attr.Name,
	)

	return attr, nil
}

// Delete removes an attribute and its recipe links. Recipes stay.
func (s *AttributeService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteAttribute(ctx, s.kind, userID, id); err != nil {
		return s.mapError(err)
	}

	s.logger.Info(string(s.kind)+" deleted",
		"user_id", userID,
		"id", id,
	)
	return nil
}

func (s *AttributeService) mapError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("%s not found", s.kind.Label())
	}
	return fmt.Errorf("%s: %w", s.kind, err)
}
