package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"MealVote-Backend/domain"
	"MealVote-Backend/entities"
	"MealVote-Backend/internal/utils/storage"
	"MealVote-Backend/pkg/oracle"
	"MealVote-Backend/pkg/video"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxOracleAttempts bounds the proposal loop. An oracle that keeps returning
// invalid or duplicate candidates fails the batch with ErrOracleExhausted
// instead of looping forever.
const maxOracleAttempts = 5

// blocklistWindow is how far around now a recipe's creation blocks it from
// being proposed again: anything cooked very recently or already staged for
// a nearby day.
const blocklistWindow = 24 * time.Hour

type (
	RecipeService interface {
		Propose(ctx context.Context, preferences domain.Preferences, count int) ([]domain.Recipe, error)
		AddRecipe(ctx context.Context, req domain.AddRecipeRequest) (domain.Recipe, error)
		GetRecipes(ctx context.Context, page, limit int) ([]domain.Recipe, int64, error)
		GetRecipeByID(ctx context.Context, id string) (domain.Recipe, error)
		MarkAsCooked(ctx context.Context, id string) error
		UploadRecipeImage(ctx context.Context, req domain.UploadRecipeImageRequest) (string, error)
	}

	recipeService struct {
		recipeRepository RecipeRepository
		oracle           oracle.Client
		video            video.Searcher
		s3               storage.AwsS3
	}
)

func NewRecipeService(recipeRepository RecipeRepository, oracleClient oracle.Client, videoSearcher video.Searcher, s3 storage.AwsS3) RecipeService {
	return &recipeService{
		recipeRepository: recipeRepository,
		oracle:           oracleClient,
		video:            videoSearcher,
		s3:               s3,
	}
}

// Propose generates count distinct valid recipes. Each accepted candidate is
// persisted immediately so a failure mid-batch does not lose recipes already
// accepted. Per-call oracle errors are retried up to maxOracleAttempts.
func (s *recipeService) Propose(ctx context.Context, preferences domain.Preferences, count int) ([]domain.Recipe, error) {
	blocked, err := s.blockedTitles(ctx)
	if err != nil {
		return nil, err
	}

	// seen holds lowercased titles that must not be accepted: everything in
	// the blocklist window plus everything already accepted in this batch.
	seen := make(map[string]bool, len(blocked))
	for _, title := range blocked {
		seen[strings.ToLower(title)] = true
	}

	accepted := make([]domain.Recipe, 0, count)

	for attempt := 0; attempt < maxOracleAttempts && len(accepted) < count; attempt++ {
		prompt := BuildPrompt(preferences, blocked, count-len(accepted))

		text, err := s.oracle.Complete(ctx, prompt)
		if err != nil {
			log.Printf("oracle attempt %d failed: %v", attempt+1, err)
			continue
		}

		candidates, err := parseCandidates(text)
		if err != nil {
			log.Printf("oracle attempt %d returned unparseable output: %v", attempt+1, err)
			continue
		}

		for _, raw := range candidates {
			// New proposals have never been cooked; the oracle does not
			// report this field.
			if _, ok := raw["preparedCount"]; !ok {
				raw["preparedCount"] = float64(0)
			}

			if !ValidCandidate(raw) {
				continue
			}

			rec := candidateRecipe(raw)
			if preferences.TimeLimit > 0 && rec.PrepTimeMinutes > preferences.TimeLimit {
				continue
			}
			if seen[strings.ToLower(rec.Title)] {
				continue
			}

			// Enrichment is advisory: a failed or empty lookup yields an
			// empty link, never an error.
			if url, err := s.video.Search(ctx, rec.Title); err == nil {
				rec.VideoURL = url
			} else {
				rec.VideoURL = ""
			}

			entity, err := toEntity(rec)
			if err != nil {
				continue
			}
			entity.IsGenerated = true
			if err := s.recipeRepository.CreateRecipe(ctx, &entity); err != nil {
				return nil, err
			}

			rec.ID = entity.ID.String()
			rec.CreatedAt = entity.CreatedAt
			seen[strings.ToLower(rec.Title)] = true
			accepted = append(accepted, rec)

			if len(accepted) == count {
				break
			}
		}
	}

	if len(accepted) < count {
		return nil, domain.ErrOracleExhausted
	}

	return accepted, nil
}

func (s *recipeService) blockedTitles(ctx context.Context) ([]string, error) {
	now := time.Now()
	recipes, err := s.recipeRepository.GetRecipesCreatedBetween(ctx, now.Add(-blocklistWindow), now.Add(blocklistWindow))
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(recipes))
	for _, r := range recipes {
		titles = append(titles, r.Title)
	}
	return titles, nil
}

func (s *recipeService) AddRecipe(ctx context.Context, req domain.AddRecipeRequest) (domain.Recipe, error) {
	rec := domain.Recipe{
		Title:           req.Title,
		VideoURL:        req.VideoURL,
		Ingredients:     req.Ingredients,
		Servings:        req.Servings,
		PrepTimeMinutes: req.PrepTimeMinutes,
		Steps:           req.Steps,
	}

	entity, err := toEntity(rec)
	if err != nil {
		return domain.Recipe{}, err
	}

	if err := s.recipeRepository.CreateRecipe(ctx, &entity); err != nil {
		return domain.Recipe{}, err
	}

	rec.ID = entity.ID.String()
	rec.CreatedAt = entity.CreatedAt
	return rec, nil
}

func (s *recipeService) GetRecipes(ctx context.Context, page, limit int) ([]domain.Recipe, int64, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.Recipe, 0, len(recipes))
	for _, entity := range recipes {
		rec, err := toDomain(entity)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, rec)
	}

	return result, count, nil
}

func (s *recipeService) GetRecipeByID(ctx context.Context, id string) (domain.Recipe, error) {
	entity, err := s.recipeRepository.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Recipe{}, domain.ErrRecipeNotFound
		}
		return domain.Recipe{}, err
	}

	return toDomain(entity)
}

func (s *recipeService) MarkAsCooked(ctx context.Context, id string) error {
	err := s.recipeRepository.MarkPrepared(ctx, id, time.Now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrRecipeNotFound
	}
	return err
}

func (s *recipeService) UploadRecipeImage(ctx context.Context, req domain.UploadRecipeImageRequest) (string, error) {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, req.RecipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrRecipeNotFound
		}
		return "", err
	}

	objectKey, err := s.s3.UploadFile(req.RecipeID, req.Image, "recipes", storage.AllowImage...)
	if err != nil {
		return "", err
	}

	imageURL := s.s3.GetPublicLinkKey(objectKey)
	if err := s.recipeRepository.SetImageURL(ctx, req.RecipeID, imageURL); err != nil {
		_ = s.s3.DeleteFile(objectKey)
		return "", err
	}

	return imageURL, nil
}

// parseCandidates extracts the {"recipes": [...]} envelope from oracle
// output, tolerating surrounding code fences and commentary.
func parseCandidates(text string) ([]map[string]interface{}, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	endIdx := strings.LastIndex(text, "}")
	if startIdx == -1 || endIdx == -1 || startIdx > endIdx {
		return nil, domain.ErrOracleFailed
	}

	var envelope struct {
		Recipes []map[string]interface{} `json:"recipes"`
	}
	if err := json.Unmarshal([]byte(text[startIdx:endIdx+1]), &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Recipes) == 0 {
		return nil, domain.ErrOracleFailed
	}

	return envelope.Recipes, nil
}

// candidateRecipe converts a candidate that passed ValidCandidate.
func candidateRecipe(raw map[string]interface{}) domain.Recipe {
	rawIngredients := raw["ingredients"].([]interface{})
	ingredients := make([]domain.Ingredient, 0, len(rawIngredients))
	for _, ing := range rawIngredients {
		ingMap := ing.(map[string]interface{})
		ingredients = append(ingredients, domain.Ingredient{
			Name:     ingMap["name"].(string),
			Quantity: ingMap["quantity"].(float64),
			Unit:     ingMap["unit"].(string),
		})
	}

	rawSteps := raw["steps"].([]interface{})
	steps := make([]string, 0, len(rawSteps))
	for _, step := range rawSteps {
		steps = append(steps, step.(string))
	}

	return domain.Recipe{
		Title:           raw["title"].(string),
		Ingredients:     ingredients,
		Servings:        int(raw["servings"].(float64)),
		PrepTimeMinutes: int(raw["prep_time_minutes"].(float64)),
		Steps:           steps,
		PreparedCount:   int(raw["preparedCount"].(float64)),
	}
}

// toEntity serializes the typed recipe into the stored record.
func toEntity(rec domain.Recipe) (entities.Recipe, error) {
	ingredients, err := json.Marshal(rec.Ingredients)
	if err != nil {
		return entities.Recipe{}, err
	}
	steps, err := json.Marshal(rec.Steps)
	if err != nil {
		return entities.Recipe{}, err
	}

	return entities.Recipe{
		ID:              uuid.New(),
		Title:           rec.Title,
		VideoURL:        rec.VideoURL,
		Ingredients:     string(ingredients),
		Servings:        rec.Servings,
		PrepTimeMinutes: rec.PrepTimeMinutes,
		Steps:           string(steps),
		PreparedCount:   rec.PreparedCount,
		Timestamp:       entities.Timestamp{CreatedAt: time.Now()},
	}, nil
}

// toDomain decodes a stored record into the typed recipe. Structurally
// invalid records fail closed instead of defaulting.
func toDomain(entity *entities.Recipe) (domain.Recipe, error) {
	var ingredients []domain.Ingredient
	if err := json.Unmarshal([]byte(entity.Ingredients), &ingredients); err != nil {
		return domain.Recipe{}, domain.ErrRecipeCorrupt
	}
	var steps []string
	if err := json.Unmarshal([]byte(entity.Steps), &steps); err != nil {
		return domain.Recipe{}, domain.ErrRecipeCorrupt
	}
	if entity.Title == "" || len(ingredients) == 0 || len(steps) == 0 {
		return domain.Recipe{}, domain.ErrRecipeCorrupt
	}

	return domain.Recipe{
		ID:              entity.ID.String(),
		Title:           entity.Title,
		VideoURL:        entity.VideoURL,
		ImageURL:        entity.ImageURL,
		Ingredients:     ingredients,
		Servings:        entity.Servings,
		PrepTimeMinutes: entity.PrepTimeMinutes,
		Steps:           steps,
		PreparedCount:   entity.PreparedCount,
		LastPreparedAt:  entity.LastPreparedAt,
		CreatedAt:       entity.CreatedAt,
	}, nil
}
