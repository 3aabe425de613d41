package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipebox/recipebox-server/internal/domain"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/service"
)

// maxUploadRequestBytes leaves room for multipart framing around the image.
const maxUploadRequestBytes = images.MaxUploadSize + 1<<20

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/recipes/",
		Summary:     "List recipes",
		Description: "Returns the current user's recipes, newest first. Filter with comma-separated tag and ingredient ids.",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecipe",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/recipes/",
		Summary:       "Create recipe",
		Description:   "Creates a recipe. Tags and ingredients are reused by name or created.",
		Tags:          []string{"Recipes"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/recipes/{id}/",
		Summary:     "Get recipe",
		Description: "Returns a recipe with its description and image",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceRecipe",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/recipes/{id}/",
		Summary:     "Replace recipe",
		Description: "Overwrites a recipe. Omitted description and link are cleared; omitted tags or ingredients are kept.",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleReplaceRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        apiPrefix + "/recipes/{id}/",
		Summary:     "Update recipe",
		Description: "Updates the fields present in the body. An empty tags or ingredients list clears it.",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteRecipe",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/recipes/{id}/",
		Summary:       "Delete recipe",
		Description:   "Deletes a recipe and its image. Tags and ingredients are kept.",
		Tags:          []string{"Recipes"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:  "uploadRecipeImage",
		Method:       http.MethodPost,
		Path:         apiPrefix + "/recipes/{id}/upload_image/",
		Summary:      "Upload recipe image",
		Description:  "Stores a JPEG, PNG, GIF or WebP image for the recipe, replacing any earlier one",
		Tags:         []string{"Recipes"},
		Security:     bearerSecurity,
		MaxBodyBytes: maxUploadRequestBytes,
	}, s.handleUploadRecipeImage)
}

// === DTOs ===

// AttributeResponse is a tag or ingredient in API responses.
type AttributeResponse struct {
	ID   int64  `json:"id" doc:"ID"`
	Name string `json:"name" doc:"Name"`
}

// RecipeResponse is the list representation of a recipe.
type RecipeResponse struct {
	ID          int64               `json:"id" doc:"Recipe ID"`
	Title       string              `json:"title" doc:"Title"`
	TimeMinutes int                 `json:"time_minutes" doc:"Preparation time in minutes"`
	Price       Price               `json:"price" doc:"Price"`
	Link        string              `json:"link" doc:"Source link"`
	Tags        []AttributeResponse `json:"tags" doc:"Tags"`
	Ingredients []AttributeResponse `json:"ingredients" doc:"Ingredients"`
}

// RecipeDetailResponse adds description and image to RecipeResponse.
type RecipeDetailResponse struct {
	ID          int64               `json:"id" doc:"Recipe ID"`
	Title       string              `json:"title" doc:"Title"`
	TimeMinutes int                 `json:"time_minutes" doc:"Preparation time in minutes"`
	Price       Price               `json:"price" doc:"Price"`
	Link        string              `json:"link" doc:"Source link"`
	Tags        []AttributeResponse `json:"tags" doc:"Tags"`
	Ingredients []AttributeResponse `json:"ingredients" doc:"Ingredients"`
	Description string              `json:"description" doc:"Description"`
	Image       *string             `json:"image" doc:"Image URL, null when no image was uploaded"`
}

// NameRequest names a tag or ingredient inside a recipe payload.
type NameRequest struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name string   `json:"name,omitempty" doc:"Name, reused when the user already has it"`
}

// RecipeRequest is the body of recipe create, replace and update requests.
// Absent fields are nil; a present tags or ingredients list replaces the set.
type RecipeRequest struct {
	_           struct{}      `json:"-" additionalProperties:"true"`
	Title       *string       `json:"title,omitempty" doc:"Title, 1 to 255 characters"`
	TimeMinutes *int          `json:"time_minutes,omitempty" doc:"Preparation time in minutes"`
	Price       *Price        `json:"price,omitempty" doc:"Price with up to 2 decimal places"`
	Description *string       `json:"description,omitempty" doc:"Description"`
	Link        *string       `json:"link,omitempty" doc:"Source link (http or https)"`
	Tags        []NameRequest `json:"tags,omitempty" doc:"Tags"`
	Ingredients []NameRequest `json:"ingredients,omitempty" doc:"Ingredients"`
}

// ListRecipesInput contains the list filters.
type ListRecipesInput struct {
	Tags        string `query:"tags" doc:"Comma-separated tag ids"`
	Ingredients string `query:"ingredients" doc:"Comma-separated ingredient ids"`
}

// ListRecipesOutput wraps the recipe list for Huma.
type ListRecipesOutput struct {
	Body []RecipeResponse
}

// CreateRecipeInput wraps the create request for Huma.
type CreateRecipeInput struct {
	Body RecipeRequest
}

// RecipeIDInput identifies a recipe.
type RecipeIDInput struct {
	ID int64 `path:"id" doc:"Recipe ID"`
}

// UpdateRecipeInput wraps replace and update requests for Huma.
type UpdateRecipeInput struct {
	ID   int64 `path:"id" doc:"Recipe ID"`
	Body RecipeRequest
}

// RecipeOutput wraps a recipe detail for Huma.
type RecipeOutput struct {
	Body RecipeDetailResponse
}

// RecipeImageForm is the multipart form of an image upload.
type RecipeImageForm struct {
	Image huma.FormFile `form:"image" required:"true" doc:"Image file"`
}

// UploadRecipeImageInput wraps an image upload for Huma.
type UploadRecipeImageInput struct {
	ID      int64 `path:"id" doc:"Recipe ID"`
	RawBody huma.MultipartFormFiles[RecipeImageForm]
}

// RecipeImageResponse describes an uploaded image.
type RecipeImageResponse struct {
	ID       int64  `json:"id" doc:"Recipe ID"`
	Image    string `json:"image" doc:"Image URL"`
	BlurHash string `json:"image_blurhash,omitempty" doc:"BlurHash placeholder"`
}

// RecipeImageOutput wraps the upload response for Huma.
type RecipeImageOutput struct {
	Body RecipeImageResponse
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tagIDs, err := parseIDs("tags", input.Tags)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := parseIDs("ingredients", input.Ingredients)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipes.List(ctx, userID, domain.RecipeFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		resp[i] = toRecipeResponse(r)
	}

	return &ListRecipesOutput{Body: resp}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipes.Create(ctx, userID, input.Body.fields())
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeDetailResponse(recipe)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *RecipeIDInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipes.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeDetailResponse(recipe)}, nil
}

func (s *Server) handleReplaceRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipes.Replace(ctx, userID, input.ID, input.Body.fields())
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeDetailResponse(recipe)}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipes.Patch(ctx, userID, input.ID, input.Body.fields())
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeDetailResponse(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *RecipeIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipes.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &struct{}{}, nil
}

func (s *Server) handleUploadRecipeImage(ctx context.Context, input *UploadRecipeImageInput) (*RecipeImageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	form := input.RawBody.Data()
	if form == nil || !form.Image.IsSet {
		return nil, domainerrors.FieldError("image", "No file was submitted.")
	}
	defer form.Image.Close()

	data, err := io.ReadAll(io.LimitReader(form.Image, images.MaxUploadSize+1))
	if err != nil {
		s.logger.Error("failed to read uploaded image",
			"user_id", userID,
			"recipe_id", input.ID,
			"error", err,
		)
		return nil, huma.Error400BadRequest("failed to read upload")
	}

	result, err := s.services.Recipes.UploadImage(ctx, userID, input.ID, data)
	if err != nil {
		return nil, err
	}

	return &RecipeImageOutput{
		Body: RecipeImageResponse{
			ID:       result.RecipeID,
			Image:    mediaURL(result.Image),
			BlurHash: result.BlurHash,
		},
	}, nil
}

// === Mapping ===

// fields converts the request into a service payload, keeping nil for absent
// lists and an empty slice for lists sent as [].
func (r RecipeRequest) fields() service.RecipeFields {
	f := service.RecipeFields{
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Description: r.Description,
		Link:        r.Link,
		Tags:        names(r.Tags),
		Ingredients: names(r.Ingredients),
	}
	if r.Price != nil {
		price := r.Price.Decimal
		f.Price = &price
	}
	return f
}

func names(items []NameRequest) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

// parseIDs parses a comma-separated id list. Blank input means no filter.
func parseIDs(param, raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, domainerrors.FieldError(param, "enter a comma-separated list of ids")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func toAttributeResponses(attrs []*domain.Attribute) []AttributeResponse {
	resp := make([]AttributeResponse, len(attrs))
	for i, a := range attrs {
		resp[i] = toAttributeResponse(a)
	}
	return resp
}

func toAttributeResponse(a *domain.Attribute) AttributeResponse {
	return AttributeResponse{ID: a.ID, Name: a.Name}
}

func toRecipeResponse(r *domain.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       NewPrice(r.Price),
		Link:        r.Link,
		Tags:        toAttributeResponses(r.Tags),
		Ingredients: toAttributeResponses(r.Ingredients),
	}
}

func toRecipeDetailResponse(r *domain.Recipe) RecipeDetailResponse {
	resp := RecipeDetailResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       NewPrice(r.Price),
		Link:        r.Link,
		Tags:        toAttributeResponses(r.Tags),
		Ingredients: toAttributeResponses(r.Ingredients),
		Description: r.Description,
	}
	if r.Image != "" {
		url := mediaURL(r.Image)
		resp.Image = &url
	}
	return resp
}

// mediaURL is where an image stored at relPath is served.
func mediaURL(relPath string) string {
	return mediaPrefix + strings.TrimPrefix(relPath, "/")
}
