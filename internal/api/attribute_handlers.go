package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/service"
)

// registerAttributeRoutes registers the list, rename and delete operations of
// one registry under /api/v1/{tags|ingredients}/. Creation only happens
// through recipe saves.
func registerAttributeRoutes(s *Server, svc *service.AttributeService) {
	kind := svc.Kind()
	base := apiPrefix + "/" + kind.Plural() + "/"
	group := kind.Label() + "s"

	huma.Register(s.api, huma.Operation{
		OperationID: "list" + group,
		Method:      http.MethodGet,
		Path:        base,
		Summary:     "List " + kind.Plural(),
		Description: "Returns the current user's " + kind.Plural() + " ordered by name, descending",
		Tags:        []string{group},
		Security:    bearerSecurity,
	}, func(ctx context.Context, input *ListAttributesInput) (*ListAttributesOutput, error) {
		userID, err := GetUserID(ctx)
		if err != nil {
			return nil, err
		}

		if input.AssignedOnly != 0 && input.AssignedOnly != 1 {
			return nil, domainerrors.FieldError("assigned_only", "must be 0 or 1")
		}

		attrs, err := svc.List(ctx, userID, input.AssignedOnly == 1)
		if err != nil {
			return nil, err
		}

		return &ListAttributesOutput{Body: toAttributeResponses(attrs)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update" + kind.Label(),
		Method:      http.MethodPatch,
		Path:        base + "{id}/",
		Summary:     "Rename " + string(kind),
		Description: "Renames one of the current user's " + kind.Plural(),
		Tags:        []string{group},
		Security:    bearerSecurity,
	}, func(ctx context.Context, input *UpdateAttributeInput) (*AttributeOutput, error) {
		userID, err := GetUserID(ctx)
		if err != nil {
			return nil, err
		}

		if input.Body.Name == nil {
			attr, err := svc.Get(ctx, userID, input.ID)
			if err != nil {
				return nil, err
			}
			return &AttributeOutput{Body: toAttributeResponse(attr)}, nil
		}

		attr, err := svc.Rename(ctx, userID, input.ID, *input.Body.Name)
		if err != nil {
			return nil, err
		}

		return &AttributeOutput{Body: toAttributeResponse(attr)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete" + kind.Label(),
		Method:        http.MethodDelete,
		Path:          base + "{id}/",
		Summary:       "Delete " + string(kind),
		Description:   "Deletes the " + string(kind) + " and detaches it from every recipe",
		Tags:          []string{group},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *AttributeIDInput) (*struct{}, error) {
		userID, err := GetUserID(ctx)
		if err != nil {
			return nil, err
		}

		if err := svc.Delete(ctx, userID, input.ID); err != nil {
			return nil, err
		}

		return &struct{}{}, nil
	})
}

// === DTOs ===

// ListAttributesInput contains the listing filter.
type ListAttributesInput struct {
	// Absent means 0. Values other than 0 and 1 are rejected by the handler.
	AssignedOnly int `query:"assigned_only" doc:"1 keeps only entries used by at least one recipe"`
}

// ListAttributesOutput wraps a tag or ingredient list for Huma.
type ListAttributesOutput struct {
	Body []AttributeResponse
}

// AttributeIDInput identifies a tag or ingredient.
type AttributeIDInput struct {
	ID int64 `path:"id" doc:"ID"`
}

// UpdateAttributeRequest is the rename body.
type UpdateAttributeRequest struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name *string  `json:"name,omitempty" doc:"New name"`
}

// UpdateAttributeInput wraps a rename for Huma.
type UpdateAttributeInput struct {
	ID   int64 `path:"id" doc:"ID"`
	Body UpdateAttributeRequest
}

// AttributeOutput wraps a tag or ingredient for Huma.
type AttributeOutput struct {
	Body AttributeResponse
}
