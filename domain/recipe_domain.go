package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

var (
	MessageSuccessGetRecipes       = "success get recipes"
	MessageSuccessGetRecipeDetail  = "success get recipe detail"
	MessageSuccessAddRecipe        = "recipe added successfully"
	MessageSuccessUploadImage      = "recipe image uploaded successfully"
	MessageSuccessMarkAsCooked     = "recipe marked as cooked successfully"

	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedAddRecipe       = "failed to add recipe"
	MessageFailedUploadImage     = "failed to upload recipe image"
	MessageFailedMarkAsCooked    = "failed to mark recipe as cooked"

	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrRecipeCorrupt   = errors.New("stored recipe record is malformed")
	ErrOracleFailed    = errors.New("recipe oracle processing failed")
	ErrOracleExhausted = errors.New("recipe oracle retry limit exceeded")
)

type (
	// Preferences is the immutable input to proposal generation.
	Preferences struct {
		Cuisine    string   `json:"cuisine"`
		Diet       string   `json:"diet"`
		Avoid      []string `json:"avoid"`
		SpiceLevel string   `json:"spice_level" validate:"omitempty,oneof=mild medium hot"`
		MealType   string   `json:"meal_type"`
		TimeLimit  int      `json:"time_limit" validate:"omitempty,min=1"` // minutes
	}

	Ingredient struct {
		Name     string  `json:"name" validate:"required"`
		Quantity float64 `json:"quantity" validate:"required,gt=0"`
		Unit     string  `json:"unit" validate:"required,oneof=g ml tsp tbsp cup piece"`
	}

	Recipe struct {
		ID              string       `json:"id"`
		Title           string       `json:"title"`
		VideoURL        string       `json:"video_url,omitempty"`
		ImageURL        string       `json:"image_url,omitempty"`
		Ingredients     []Ingredient `json:"ingredients"`
		Servings        int          `json:"servings"`
		PrepTimeMinutes int          `json:"prep_time_minutes"`
		Steps           []string     `json:"steps"`
		PreparedCount   int          `json:"prepared_count"`
		LastPreparedAt  *time.Time   `json:"last_prepared_at,omitempty"`
		CreatedAt       time.Time    `json:"created_at"`
	}

	AddRecipeRequest struct {
		Title           string       `json:"title" validate:"required"`
		VideoURL        string       `json:"video_url" validate:"omitempty,url"`
		Ingredients     []Ingredient `json:"ingredients" validate:"required,min=1,dive"`
		Servings        int          `json:"servings" validate:"required,min=1"`
		PrepTimeMinutes int          `json:"prep_time_minutes" validate:"required,min=1"`
		Steps           []string     `json:"steps" validate:"required,min=1,dive,required"`
	}

	UploadRecipeImageRequest struct {
		RecipeID string                `json:"recipe_id" form:"recipe_id" validate:"required,uuid"`
		Image    *multipart.FileHeader `json:"image" form:"image" validate:"required"`
	}

	RecipeListResponse struct {
		Recipes []Recipe `json:"recipes"`
		Total   int64    `json:"total"`
	}
)
