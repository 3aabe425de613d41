package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTags_OrderAndAssignedOnly(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.createUser(t, "user@example.com")

	body := samplePayload("Porridge")
	body["tags"] = []map[string]any{{"name": "Breakfast"}, {"name": "Comfort"}}
	recipe := ts.createRecipe(t, token, body)

	// Detach Comfort so only Breakfast stays assigned.
	resp := ts.api.Patch(recipePath(recipe.ID), bearer(token), map[string]any{
		"tags": []map[string]any{{"name": "Breakfast"}},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/tags/", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"Comfort", "Breakfast"}, attributeNames(decode[[]AttributeResponse](t, resp).Data))

	resp = ts.api.Get("/api/v1/tags/?assigned_only=1", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"Breakfast"}, attributeNames(decode[[]AttributeResponse](t, resp).Data))

	resp = ts.api.Get("/api/v1/tags/?assigned_only=0", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]AttributeResponse](t, resp).Data, 2)

	resp = ts.api.Get("/api/v1/tags/?assigned_only=2", bearer(token))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decode[any](t, resp).Details, "assigned_only")
}

func TestListAttributes_WithoutFilter(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.createUser(t, "user@example.com")

	for _, path := range []string{"/api/v1/tags/", "/api/v1/ingredients/"} {
		resp := ts.api.Get(path, bearer(token))
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		envelope := decode[[]AttributeResponse](t, resp)
		assert.True(t, envelope.Success)
		assert.Empty(t, envelope.Data)
	}
}

func TestListIngredients_ScopedToUser(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.createUser(t, "alice@example.com")
	bob := ts.createUser(t, "bob@example.com")

	body := samplePayload("Salt bread")
	body["ingredients"] = []map[string]any{{"name": "Salt"}}
	ts.createRecipe(t, alice, body)

	other := samplePayload("Pepper steak")
	other["ingredients"] = []map[string]any{{"name": "Pepper"}}
	ts.createRecipe(t, bob, other)

	resp := ts.api.Get("/api/v1/ingredients/", bearer(alice))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"Salt"}, attributeNames(decode[[]AttributeResponse](t, resp).Data))
}

func TestRenameTag(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.createUser(t, "user@example.com")

	body := samplePayload("Stew")
	body["tags"] = []map[string]any{{"name": "Winter"}, {"name": "Hearty"}}
	recipe := ts.createRecipe(t, token, body)

	var winter int64
	for _, tag := range recipe.Tags {
		if tag.Name == "Winter" {
			winter = tag.ID
		}
	}
	path := fmt.Sprintf("/api/v1/tags/%d/", winter)

	resp := ts.api.Patch(path, bearer(token), map[string]any{"name": "Cold Weather"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Cold Weather", decode[AttributeResponse](t, resp).Data.Name)

	resp = ts.api.Patch(path, bearer(token), map[string]any{"name": "Hearty"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decode[any](t, resp).Details, "name")

	// The recipe sees the new name.
	detail := ts.api.Get(recipePath(recipe.ID), bearer(token))
	assert.ElementsMatch(t, []string{"Cold Weather", "Hearty"}, attributeNames(decode[RecipeDetailResponse](t, detail).Data.Tags))
}

func TestTag_OtherUsersGetNotFound(t *testing.T) {
	ts := setupTestServer(t)
	owner := ts.createUser(t, "owner@example.com")
	intruder := ts.createUser(t, "intruder@example.com")

	body := samplePayload("Secret")
	body["tags"] = []map[string]any{{"name": "Hidden"}}
	recipe := ts.createRecipe(t, owner, body)
	path := fmt.Sprintf("/api/v1/tags/%d/", recipe.Tags[0].ID)

	assert.Equal(t, http.StatusNotFound, ts.api.Patch(path, bearer(intruder), map[string]any{"name": "Mine"}).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Delete(path, bearer(intruder)).Code)

	resp := ts.api.Get("/api/v1/tags/", bearer(owner))
	assert.Equal(t, []string{"Hidden"}, attributeNames(decode[[]AttributeResponse](t, resp).Data))
}

func TestDeleteIngredient_DetachesFromRecipes(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.createUser(t, "user@example.com")

	body := samplePayload("Omelette")
	body["ingredients"] = []map[string]any{{"name": "Eggs"}, {"name": "Chives"}}
	recipe := ts.createRecipe(t, token, body)

	var chives int64
	for _, ing := range recipe.Ingredients {
		if ing.Name == "Chives" {
			chives = ing.ID
		}
	}

	resp := ts.api.Delete(fmt.Sprintf("/api/v1/ingredients/%d/", chives), bearer(token))
	require.Equal(t, http.StatusNoContent, resp.Code)

	detail := ts.api.Get(recipePath(recipe.ID), bearer(token))
	require.Equal(t, http.StatusOK, detail.Code)
	assert.Equal(t, []string{"Eggs"}, attributeNames(decode[RecipeDetailResponse](t, detail).Data.Ingredients))
}
