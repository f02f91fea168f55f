package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessCreateSession = "meal session created successfully"
	MessageSuccessGetSessions   = "success get meal sessions"
	MessageSuccessGetSession    = "success get meal session"
	MessageSuccessCastVote      = "vote recorded successfully"

	MessageFailedCreateSession = "failed to create meal session"
	MessageFailedGetSessions   = "failed to get meal sessions"
	MessageFailedGetSession    = "failed to get meal session"
	MessageFailedCastVote      = "failed to cast vote"

	ErrSessionNotFound = errors.New("meal session not found")
	ErrSessionCorrupt  = errors.New("stored meal session record is malformed")
	ErrInvalidOption   = errors.New("vote option is not part of this session")
	ErrNoRecipients    = errors.New("no recipients available to send messages")
	ErrBroadcastFailed = errors.New("failed to send session invitations")
	ErrNotifyCook      = errors.New("failed to notify cook")
)

type (
	CreateMealSessionRequest struct {
		MealType    string      `json:"meal_type" validate:"required,oneof=Breakfast Lunch Dinner Snack"`
		Recipients  []string    `json:"recipients" validate:"omitempty,dive,required"`
		Preferences Preferences `json:"preferences"`
	}

	CreateMealSessionResponse struct {
		ID         string `json:"id"`
		SessionURL string `json:"session_url"`
	}

	CastVoteRequest struct {
		OptionID string `json:"option_id" validate:"required,uuid"`
	}

	CastVoteResponse struct {
		Tally           map[string]int `json:"tally"` // optionID -> vote count
		ConfirmedMealID string         `json:"confirmed_meal_id,omitempty"`
		CookNotified    bool           `json:"cook_notified"`
	}

	MealSessionResponse struct {
		ID              string            `json:"id"`
		MealType        string            `json:"meal_type"`
		Date            string            `json:"date"`
		Options         []Recipe          `json:"options"`
		Votes           map[string]string `json:"votes"`
		ConfirmedMealID string            `json:"confirmed_meal_id,omitempty"`
		Invited         bool              `json:"invited"`
		InvitedTo       []string          `json:"invited_to,omitempty"`
		CreatedAt       time.Time         `json:"created_at"`
	}

	MealSessionListResponse struct {
		Sessions []MealSessionResponse `json:"sessions"`
		Total    int64                 `json:"total"`
	}
)
