package domain

import (
	"github.com/shopspring/decimal"
)

// Recipe is a user-owned recipe with its tag and ingredient sets.
type Recipe struct {
	Timestamps
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Title       string          `json:"title"`
	TimeMinutes int             `json:"time_minutes"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Link        string          `json:"link"`

	// Image is the path of the uploaded image relative to the media root, empty when unset.
	Image string `json:"image,omitempty"`

	Tags        []*Attribute `json:"tags"`
	Ingredients []*Attribute `json:"ingredients"`
}

// SetAttributes replaces the recipe's set for the given kind.
func (r *Recipe) SetAttributes(kind AttributeKind, attrs []*Attribute) {
	if kind == KindIngredient {
		r.Ingredients = attrs
		return
	}
	r.Tags = attrs
}

// AssociationUpdate describes how a save changes a recipe's tag and ingredient sets.
//
// A kind that is not marked for replacement keeps its current associations.
// A replaced kind ends up linked to exactly the named attributes, each one
// reused from the owner's registry or created there; an empty list clears it.
type AssociationUpdate struct {
	ReplaceTags        bool
	Tags               []string
	ReplaceIngredients bool
	Ingredients        []string
}

// Replaces reports whether the update replaces the set for kind, and with which names.
func (u AssociationUpdate) Replaces(kind AttributeKind) (bool, []string) {
	if kind == KindIngredient {
		return u.ReplaceIngredients, u.Ingredients
	}
	return u.ReplaceTags, u.Tags
}

// RecipeFilter restricts recipe listings.
// Within one list ids are OR'ed; the two lists are AND'ed together.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}
