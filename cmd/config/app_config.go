package config

import (
	"os"
	"strings"
	"time"

	"MealVote-Backend/internal/api/handlers"
	"MealVote-Backend/internal/api/routes"
	"MealVote-Backend/internal/middleware"
	"MealVote-Backend/internal/utils"
	"MealVote-Backend/internal/utils/storage"
	"MealVote-Backend/pkg/jwt"
	"MealVote-Backend/pkg/mealsession"
	"MealVote-Backend/pkg/notify"
	"MealVote-Backend/pkg/oracle"
	"MealVote-Backend/pkg/recipe"
	"MealVote-Backend/pkg/user"
	"MealVote-Backend/pkg/video"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// external collaborators, constructed once and injected
	s3 := storage.NewAwsS3()
	oracleClient, err := oracle.NewGeminiClient()
	if err != nil {
		return nil, err
	}
	videoSearcher, err := video.NewYouTubeClient()
	if err != nil {
		return nil, err
	}
	notifier := notify.NewNotifier()

	// Repository
	userRepository := user.NewUserRepository(db)
	recipeRepository := recipe.NewRecipeRepository(db)
	sessionRepository := mealsession.NewMealSessionRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	userService := user.NewUserService(userRepository, jwtService)
	recipeService := recipe.NewRecipeService(recipeRepository, oracleClient, videoSearcher, s3)

	var defaultRecipients []string
	for _, r := range strings.Split(utils.GetConfig("HOUSEHOLD_MEMBERS"), ",") {
		if t := strings.TrimSpace(r); t != "" {
			defaultRecipients = append(defaultRecipients, t)
		}
	}
	sessionService := mealsession.NewMealSessionService(sessionRepository, recipeService, notifier, mealsession.SessionConfig{
		AppURL:            utils.GetConfig("APP_URL"),
		CookAddress:       utils.GetConfig("COOK_ADDRESS"),
		DefaultRecipients: defaultRecipients,
	})

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	recipeHandler := handlers.NewRecipeHandler(recipeService, validator)
	sessionHandler := handlers.NewMealSessionHandler(sessionService, validator)

	// routes
	routesConfig := routes.Config{
		App:                app,
		UserHandler:        userHandler,
		RecipeHandler:      recipeHandler,
		MealSessionHandler: sessionHandler,
		Middleware:         middlewares,
		JWTService:         jwtService,
	}
	routesConfig.Setup()
	return app, nil
}
