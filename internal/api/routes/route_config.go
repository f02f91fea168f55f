package routes

import (
	"MealVote-Backend/internal/api/handlers"
	"MealVote-Backend/internal/middleware"
	"MealVote-Backend/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App                *fiber.App
	UserHandler        handlers.UserHandler
	RecipeHandler      handlers.RecipeHandler
	MealSessionHandler handlers.MealSessionHandler
	Middleware         middleware.Middleware
	JWTService         jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.Recipes()
	c.MealSessions()
	c.GuestRoute()
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	{
		user.Post("/register", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Me)
	}
}

func (c *Config) Recipes() {
	recipes := c.App.Group("/api/v1/recipes")
	recipes.Get("", c.RecipeHandler.GetRecipes)
	recipes.Get("/:id", c.RecipeHandler.GetRecipeDetail)

	auth := c.Middleware.AuthMiddleware(c.JWTService)
	recipes.Post("", auth, c.RecipeHandler.AddRecipe)
	recipes.Post("/:id/image", auth, c.RecipeHandler.UploadRecipeImage)
	recipes.Post("/:id/cooked", auth, c.RecipeHandler.MarkAsCooked)
}

func (c *Config) MealSessions() {
	sessions := c.App.Group("/api/v1/meal-sessions")
	sessions.Get("", c.MealSessionHandler.GetSessions)
	sessions.Get("/:id", c.MealSessionHandler.GetSessionDetail)

	auth := c.Middleware.AuthMiddleware(c.JWTService)
	sessions.Post("", auth, c.MealSessionHandler.CreateSession)
	sessions.Post("/:id/vote", auth, c.MealSessionHandler.CastVote)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}
