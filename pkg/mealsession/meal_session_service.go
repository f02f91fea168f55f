package mealsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"MealVote-Backend/domain"
	"MealVote-Backend/entities"
	"MealVote-Backend/pkg/notify"
	"MealVote-Backend/pkg/recipe"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// voteQuorum is the fixed vote count that confirms an option, regardless of
// participant count or relative majority.
const voteQuorum = 2

// sessionOptionCount is how many recipes every session offers.
const sessionOptionCount = 3

type (
	MealSessionService interface {
		CreateSession(ctx context.Context, req domain.CreateMealSessionRequest) (domain.CreateMealSessionResponse, error)
		CastVote(ctx context.Context, sessionID, userID string, req domain.CastVoteRequest) (domain.CastVoteResponse, error)
		GetSessionByID(ctx context.Context, id string) (domain.MealSessionResponse, error)
		GetSessions(ctx context.Context, page, limit int) ([]domain.MealSessionResponse, int64, error)
	}

	// SessionConfig carries the deployment-specific addresses so the service
	// has no hidden config lookups.
	SessionConfig struct {
		AppURL            string
		CookAddress       string
		DefaultRecipients []string
	}

	mealSessionService struct {
		sessionRepository MealSessionRepository
		recipeService     recipe.RecipeService
		notifier          notify.Notifier
		config            SessionConfig
	}
)

func NewMealSessionService(sessionRepository MealSessionRepository, recipeService recipe.RecipeService, notifier notify.Notifier, config SessionConfig) MealSessionService {
	return &mealSessionService{
		sessionRepository: sessionRepository,
		recipeService:     recipeService,
		notifier:          notifier,
		config:            config,
	}
}

// CreateSession runs the proposal pipeline for 3 recipes, persists the
// session with those options snapshotted, broadcasts the voting link to
// every recipient, and only then marks the session invited. A broadcast
// failure fails the whole creation: an un-notified session is useless.
func (s *mealSessionService) CreateSession(ctx context.Context, req domain.CreateMealSessionRequest) (domain.CreateMealSessionResponse, error) {
	recipients := req.Recipients
	if len(recipients) == 0 {
		recipients = s.config.DefaultRecipients
	}
	if len(recipients) == 0 {
		return domain.CreateMealSessionResponse{}, domain.ErrNoRecipients
	}

	options, err := s.recipeService.Propose(ctx, req.Preferences, sessionOptionCount)
	if err != nil {
		return domain.CreateMealSessionResponse{}, err
	}

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return domain.CreateMealSessionResponse{}, err
	}

	now := time.Now()
	session := entities.MealSession{
		ID:        uuid.New(),
		MealType:  req.MealType,
		Date:      now.Format("2006-01-02"),
		Options:   string(optionsJSON),
		Votes:     "{}",
		Timestamp: entities.Timestamp{CreatedAt: now},
	}

	if err := s.sessionRepository.CreateSession(ctx, &session); err != nil {
		return domain.CreateMealSessionResponse{}, err
	}

	sessionURL := fmt.Sprintf("%s/meal/%s", s.config.AppURL, session.ID.String())
	body := buildInviteBody(req.MealType, options, sessionURL)
	subject := fmt.Sprintf("New %s session — please vote!", req.MealType)

	for _, recipient := range recipients {
		if err := s.notifier.Send(ctx, recipient, subject, body); err != nil {
			return domain.CreateMealSessionResponse{}, fmt.Errorf("%w: %v", domain.ErrBroadcastFailed, err)
		}
	}

	if err := s.sessionRepository.MarkInvited(ctx, session.ID.String(), recipients, time.Now()); err != nil {
		return domain.CreateMealSessionResponse{}, err
	}

	return domain.CreateMealSessionResponse{
		ID:         session.ID.String(),
		SessionURL: sessionURL,
	}, nil
}

func buildInviteBody(mealType string, options []domain.Recipe, sessionURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s session — please vote!\n\n", mealType)
	for i, opt := range options {
		fmt.Fprintf(&b, "%d) %s\n", i+1, opt.Title)
	}
	fmt.Fprintf(&b, "\nVote here: %s", sessionURL)
	return b.String()
}

// CastVote records one user's vote (last write wins for the same user),
// recomputes the tally, and confirms the first option to reach quorum. The
// confirmed meal is sticky: once set it never changes, and the cook is
// notified at most once even under concurrent or replayed votes.
func (s *mealSessionService) CastVote(ctx context.Context, sessionID, userID string, req domain.CastVoteRequest) (domain.CastVoteResponse, error) {
	session, err := s.fetch(ctx, sessionID)
	if err != nil {
		return domain.CastVoteResponse{}, err
	}

	if _, ok := findOption(session.Options, req.OptionID); !ok {
		return domain.CastVoteResponse{}, domain.ErrInvalidOption
	}

	if err := s.sessionRepository.SetVote(ctx, sessionID, userID, req.OptionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CastVoteResponse{}, domain.ErrSessionNotFound
		}
		return domain.CastVoteResponse{}, err
	}

	// Re-read after the merge so the tally covers concurrent votes too.
	session, err = s.fetch(ctx, sessionID)
	if err != nil {
		return domain.CastVoteResponse{}, err
	}

	tally := make(map[string]int)
	for _, optionID := range session.Votes {
		tally[optionID]++
	}

	resp := domain.CastVoteResponse{
		Tally:           tally,
		ConfirmedMealID: session.ConfirmedMealID,
	}

	if session.ConfirmedMealID != "" {
		return resp, nil
	}

	winner, ok := quorumWinner(session.Options, tally)
	if !ok {
		return resp, nil
	}

	confirmed, err := s.sessionRepository.ConfirmMeal(ctx, sessionID, winner.ID)
	if err != nil {
		return domain.CastVoteResponse{}, err
	}

	resp.ConfirmedMealID = winner.ID
	if !confirmed {
		// Lost the race: someone else's vote confirmed first and already
		// notified. Report their pick.
		if session, err := s.fetch(ctx, sessionID); err == nil {
			resp.ConfirmedMealID = session.ConfirmedMealID
		}
		return resp, nil
	}

	resp.CookNotified = s.notifyCook(ctx, winner)
	return resp, nil
}

// quorumWinner picks the confirmed option deterministically: the earliest
// option in the session's fixed order among those at or above quorum, never
// map iteration order.
func quorumWinner(options []domain.Recipe, tally map[string]int) (domain.Recipe, bool) {
	for _, opt := range options {
		if tally[opt.ID] >= voteQuorum {
			return opt, true
		}
	}
	return domain.Recipe{}, false
}

// notifyCook sends the single post-confirmation message. The vote state is
// already durable at this point, so a delivery failure is logged and
// reported in the response rather than failing the vote.
func (s *mealSessionService) notifyCook(ctx context.Context, meal domain.Recipe) bool {
	cook := s.config.CookAddress
	if cook == "" {
		log.Printf("cook notification skipped: COOK_ADDRESS not configured")
		return false
	}

	videoURL := meal.VideoURL
	if videoURL == "" {
		videoURL = "No video available"
	}

	body := fmt.Sprintf("Today's confirmed meal is: %s\n\nWatch recipe here: %s", meal.Title, videoURL)
	if err := s.notifier.Send(ctx, cook, "Confirmed meal", body); err != nil {
		log.Printf("cook notification failed: %v", err)
		return false
	}
	return true
}

func (s *mealSessionService) GetSessionByID(ctx context.Context, id string) (domain.MealSessionResponse, error) {
	return s.fetch(ctx, id)
}

func (s *mealSessionService) GetSessions(ctx context.Context, page, limit int) ([]domain.MealSessionResponse, int64, error) {
	sessions, count, err := s.sessionRepository.GetSessions(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.MealSessionResponse, 0, len(sessions))
	for _, entity := range sessions {
		session, err := toDomain(entity)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, session)
	}

	return result, count, nil
}

func (s *mealSessionService) fetch(ctx context.Context, id string) (domain.MealSessionResponse, error) {
	entity, err := s.sessionRepository.GetSessionByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.MealSessionResponse{}, domain.ErrSessionNotFound
		}
		return domain.MealSessionResponse{}, err
	}
	return toDomain(entity)
}

func findOption(options []domain.Recipe, optionID string) (domain.Recipe, bool) {
	for _, opt := range options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return domain.Recipe{}, false
}

// toDomain decodes the stored session, failing closed on malformed records.
func toDomain(entity *entities.MealSession) (domain.MealSessionResponse, error) {
	var options []domain.Recipe
	if err := json.Unmarshal([]byte(entity.Options), &options); err != nil {
		return domain.MealSessionResponse{}, domain.ErrSessionCorrupt
	}

	votes := make(map[string]string)
	if entity.Votes != "" {
		if err := json.Unmarshal([]byte(entity.Votes), &votes); err != nil {
			return domain.MealSessionResponse{}, domain.ErrSessionCorrupt
		}
	}

	var invitedTo []string
	if entity.InvitedTo != "" {
		if err := json.Unmarshal([]byte(entity.InvitedTo), &invitedTo); err != nil {
			return domain.MealSessionResponse{}, domain.ErrSessionCorrupt
		}
	}

	confirmedMealID := ""
	if entity.ConfirmedMealID != nil {
		confirmedMealID = *entity.ConfirmedMealID
	}

	return domain.MealSessionResponse{
		ID:              entity.ID.String(),
		MealType:        entity.MealType,
		Date:            entity.Date,
		Options:         options,
		Votes:           votes,
		ConfirmedMealID: confirmedMealID,
		Invited:         entity.Invited,
		InvitedTo:       invitedTo,
		CreatedAt:       entity.CreatedAt,
	}, nil
}
