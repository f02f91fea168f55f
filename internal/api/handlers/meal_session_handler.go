package handlers

import (
	"strconv"

	"MealVote-Backend/domain"
	"MealVote-Backend/internal/api/presenters"
	"MealVote-Backend/pkg/mealsession"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	MealSessionHandler interface {
		CreateSession(c *fiber.Ctx) error
		GetSessions(c *fiber.Ctx) error
		GetSessionDetail(c *fiber.Ctx) error
		CastVote(c *fiber.Ctx) error
	}

	mealSessionHandler struct {
		sessionService mealsession.MealSessionService
		validator      *validator.Validate
	}
)

func NewMealSessionHandler(sessionService mealsession.MealSessionService, validator *validator.Validate) MealSessionHandler {
	return &mealSessionHandler{
		sessionService: sessionService,
		validator:      validator,
	}
}

func (h *mealSessionHandler) CreateSession(c *fiber.Ctx) error {
	req := new(domain.CreateMealSessionRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateSession, err)
	}

	res, err := h.sessionService.CreateSession(c.Context(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadGateway, domain.MessageFailedCreateSession, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateSession)
}

func (h *mealSessionHandler) GetSessions(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	sessions, count, err := h.sessionService.GetSessions(c.Context(), page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetSessions, err)
	}

	return presenters.SuccessResponse(c, domain.MealSessionListResponse{
		Sessions: sessions,
		Total:    count,
	}, fiber.StatusOK, domain.MessageSuccessGetSessions)
}

func (h *mealSessionHandler) GetSessionDetail(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetSession, domain.ErrSessionNotFound)
	}

	res, err := h.sessionService.GetSessionByID(c.Context(), sessionID)
	if err != nil {
		if err == domain.ErrSessionNotFound {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetSession, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetSession, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetSession)
}

func (h *mealSessionHandler) CastVote(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	sessionID := c.Params("id")

	req := new(domain.CastVoteRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCastVote, err)
	}

	res, err := h.sessionService.CastVote(c.Context(), sessionID, userID, *req)
	if err != nil {
		switch err {
		case domain.ErrSessionNotFound:
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedCastVote, err)
		case domain.ErrInvalidOption:
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCastVote, err)
		default:
			return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedCastVote, err)
		}
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessCastVote)
}
