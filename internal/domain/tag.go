package domain

import "fmt"

// AttributeKind distinguishes the per-user registries attached to recipes.
// Tags and ingredients share one shape and one set of rules; the kind selects
// which registry a call operates on.
type AttributeKind string

const (
	// KindTag is the tag registry.
	KindTag AttributeKind = "tag"
	// KindIngredient is the ingredient registry.
	KindIngredient AttributeKind = "ingredient"
)

// Valid reports whether k is a known kind.
func (k AttributeKind) Valid() bool {
	return k == KindTag || k == KindIngredient
}

// Plural returns the collection name, used for routes and payload keys.
func (k AttributeKind) Plural() string {
	return string(k) + "s"
}

// Label returns a capitalised name for messages ("Tag", "Ingredient").
func (k AttributeKind) Label() string {
	switch k {
	case KindTag:
		return "Tag"
	case KindIngredient:
		return "Ingredient"
	default:
		return fmt.Sprintf("Attribute(%s)", string(k))
	}
}

// Attribute is a named tag or ingredient owned by a single user.
// (UserID, Name) is unique within a kind.
type Attribute struct {
	Timestamps
	ID     int64         `json:"id"`
	UserID int64         `json:"user_id"`
	Kind   AttributeKind `json:"kind"`
	Name   string        `json:"name"`
}

// AttributeNames returns the names of attrs in order.
func AttributeNames(attrs []*Attribute) []string {
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	return names
}
