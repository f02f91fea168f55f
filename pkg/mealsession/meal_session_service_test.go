package mealsession

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"MealVote-Backend/domain"
	"MealVote-Backend/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMessage struct {
	To      string
	Subject string
	Body    string
}

type fakeNotifier struct {
	sent    []sentMessage
	failFor map[string]error
}

func (f *fakeNotifier) Send(_ context.Context, to, subject, body string) error {
	if err, ok := f.failFor[to]; ok {
		return err
	}
	f.sent = append(f.sent, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeNotifier) sentTo(to string) []sentMessage {
	var result []sentMessage
	for _, m := range f.sent {
		if m.To == to {
			result = append(result, m)
		}
	}
	return result
}

// fakeSessionRepo mirrors the jsonb merge and compare-and-set semantics of
// the real repository so the service's concurrency contract is testable.
type fakeSessionRepo struct {
	sessions map[string]*entities.MealSession
	// confirmHook runs just before the compare-and-set, simulating a rival
	// caller squeezing in between tally and confirmation.
	confirmHook func()
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*entities.MealSession)}
}

func (f *fakeSessionRepo) CreateSession(_ context.Context, session *entities.MealSession) error {
	cp := *session
	f.sessions[session.ID.String()] = &cp
	return nil
}

func (f *fakeSessionRepo) GetSessionByID(_ context.Context, id string) (*entities.MealSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *session
	return &cp, nil
}

func (f *fakeSessionRepo) GetSessions(_ context.Context, page, limit int) ([]*entities.MealSession, int64, error) {
	var result []*entities.MealSession
	for _, session := range f.sessions {
		cp := *session
		result = append(result, &cp)
	}
	return result, int64(len(result)), nil
}

func (f *fakeSessionRepo) SetVote(_ context.Context, sessionID, userID, optionID string) error {
	session, ok := f.sessions[sessionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	votes := make(map[string]string)
	if session.Votes != "" {
		if err := json.Unmarshal([]byte(session.Votes), &votes); err != nil {
			return err
		}
	}
	votes[userID] = optionID

	raw, err := json.Marshal(votes)
	if err != nil {
		return err
	}
	session.Votes = string(raw)
	return nil
}

func (f *fakeSessionRepo) ConfirmMeal(_ context.Context, sessionID, optionID string) (bool, error) {
	if f.confirmHook != nil {
		f.confirmHook()
	}
	session, ok := f.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if session.ConfirmedMealID != nil {
		return false, nil
	}
	session.ConfirmedMealID = &optionID
	return true, nil
}

func (f *fakeSessionRepo) MarkInvited(_ context.Context, sessionID string, recipients []string, at time.Time) error {
	session, ok := f.sessions[sessionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	raw, err := json.Marshal(recipients)
	if err != nil {
		return err
	}
	session.Invited = true
	session.InvitedTo = string(raw)
	session.InvitedAt = &at
	return nil
}

type fakeRecipeService struct {
	proposals []domain.Recipe
	err       error
}

func (f *fakeRecipeService) Propose(_ context.Context, _ domain.Preferences, count int) ([]domain.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.proposals[:count], nil
}

func (f *fakeRecipeService) AddRecipe(_ context.Context, _ domain.AddRecipeRequest) (domain.Recipe, error) {
	return domain.Recipe{}, errors.New("not implemented")
}

func (f *fakeRecipeService) GetRecipes(_ context.Context, _, _ int) ([]domain.Recipe, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (f *fakeRecipeService) GetRecipeByID(_ context.Context, _ string) (domain.Recipe, error) {
	return domain.Recipe{}, errors.New("not implemented")
}

func (f *fakeRecipeService) MarkAsCooked(_ context.Context, _ string) error {
	return errors.New("not implemented")
}

func (f *fakeRecipeService) UploadRecipeImage(_ context.Context, _ domain.UploadRecipeImageRequest) (string, error) {
	return "", errors.New("not implemented")
}

func proposalFixture() []domain.Recipe {
	return []domain.Recipe{
		{ID: uuid.NewString(), Title: "Dal Tadka", VideoURL: "https://www.youtube.com/watch?v=dal"},
		{ID: uuid.NewString(), Title: "Khichdi"},
		{ID: uuid.NewString(), Title: "Palak Paneer"},
	}
}

func testConfig() SessionConfig {
	return SessionConfig{
		AppURL:      "https://mealvote.example.com",
		CookAddress: "+6281111111111",
	}
}

func seedSession(t *testing.T, repo *fakeSessionRepo, options []domain.Recipe) string {
	t.Helper()
	raw, err := json.Marshal(options)
	require.NoError(t, err)

	session := entities.MealSession{
		ID:        uuid.New(),
		MealType:  "Dinner",
		Date:      time.Now().Format("2006-01-02"),
		Options:   string(raw),
		Votes:     "{}",
		Timestamp: entities.Timestamp{CreatedAt: time.Now()},
	}
	require.NoError(t, repo.CreateSession(context.Background(), &session))
	return session.ID.String()
}

func TestCreateSessionBroadcastsAndMarksInvited(t *testing.T) {
	repo := newFakeSessionRepo()
	notifier := &fakeNotifier{}
	options := proposalFixture()
	service := NewMealSessionService(repo, &fakeRecipeService{proposals: options}, notifier, testConfig())

	recipients := []string{"+6281234567890", "+6280987654321"}
	resp, err := service.CreateSession(context.Background(), domain.CreateMealSessionRequest{
		MealType:   "Dinner",
		Recipients: recipients,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, "https://mealvote.example.com/meal/"+resp.ID, resp.SessionURL)

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, recipients[0], notifier.sent[0].To)
	assert.Contains(t, notifier.sent[0].Body, "1) Dal Tadka")
	assert.Contains(t, notifier.sent[0].Body, "2) Khichdi")
	assert.Contains(t, notifier.sent[0].Body, "3) Palak Paneer")
	assert.Contains(t, notifier.sent[0].Body, "Vote here: "+resp.SessionURL)

	stored := repo.sessions[resp.ID]
	require.NotNil(t, stored)
	assert.True(t, stored.Invited)
	assert.NotNil(t, stored.InvitedAt)
	assert.JSONEq(t, `["+6281234567890","+6280987654321"]`, stored.InvitedTo)
	assert.Equal(t, "{}", stored.Votes)
}

func TestCreateSessionFallsBackToDefaultRecipients(t *testing.T) {
	repo := newFakeSessionRepo()
	notifier := &fakeNotifier{}
	config := testConfig()
	config.DefaultRecipients = []string{"+6281111111111", "+6282222222222"}
	service := NewMealSessionService(repo, &fakeRecipeService{proposals: proposalFixture()}, notifier, config)

	_, err := service.CreateSession(context.Background(), domain.CreateMealSessionRequest{MealType: "Lunch"})
	require.NoError(t, err)
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "+6281111111111", notifier.sent[0].To)
}

func TestCreateSessionNoRecipients(t *testing.T) {
	notifier := &fakeNotifier{}
	service := NewMealSessionService(newFakeSessionRepo(), &fakeRecipeService{proposals: proposalFixture()}, notifier, SessionConfig{AppURL: "https://mealvote.example.com"})

	_, err := service.CreateSession(context.Background(), domain.CreateMealSessionRequest{MealType: "Dinner"})
	assert.ErrorIs(t, err, domain.ErrNoRecipients)
	assert.Empty(t, notifier.sent)
}

func TestCreateSessionBroadcastFailure(t *testing.T) {
	repo := newFakeSessionRepo()
	notifier := &fakeNotifier{failFor: map[string]error{
		"+6280987654321": errors.New("twilio 500"),
	}}
	service := NewMealSessionService(repo, &fakeRecipeService{proposals: proposalFixture()}, notifier, testConfig())

	_, err := service.CreateSession(context.Background(), domain.CreateMealSessionRequest{
		MealType:   "Dinner",
		Recipients: []string{"+6281234567890", "+6280987654321"},
	})
	assert.ErrorIs(t, err, domain.ErrBroadcastFailed)

	for _, session := range repo.sessions {
		assert.False(t, session.Invited)
	}
}

func TestCreateSessionProposalFailure(t *testing.T) {
	notifier := &fakeNotifier{}
	service := NewMealSessionService(newFakeSessionRepo(), &fakeRecipeService{err: domain.ErrOracleExhausted}, notifier, testConfig())

	_, err := service.CreateSession(context.Background(), domain.CreateMealSessionRequest{
		MealType:   "Dinner",
		Recipients: []string{"+6281234567890"},
	})
	assert.ErrorIs(t, err, domain.ErrOracleExhausted)
	assert.Empty(t, notifier.sent)
}

func TestCastVoteInvalidOption(t *testing.T) {
	repo := newFakeSessionRepo()
	options := proposalFixture()
	sessionID := seedSession(t, repo, options)
	service := NewMealSessionService(repo, &fakeRecipeService{}, &fakeNotifier{}, testConfig())

	_, err := service.CastVote(context.Background(), sessionID, "user-1", domain.CastVoteRequest{OptionID: uuid.NewString()})
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	// A rejected vote leaves the session untouched.
	assert.Equal(t, "{}", repo.sessions[sessionID].Votes)
	assert.Nil(t, repo.sessions[sessionID].ConfirmedMealID)
}

func TestCastVoteSessionNotFound(t *testing.T) {
	service := NewMealSessionService(newFakeSessionRepo(), &fakeRecipeService{}, &fakeNotifier{}, testConfig())

	_, err := service.CastVote(context.Background(), uuid.NewString(), "user-1", domain.CastVoteRequest{OptionID: uuid.NewString()})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCastVoteBelowQuorum(t *testing.T) {
	repo := newFakeSessionRepo()
	notifier := &fakeNotifier{}
	options := proposalFixture()
	sessionID := seedSession(t, repo, options)
	service := NewMealSessionService(repo, &fakeRecipeService{}, notifier, testConfig())

	resp, err := service.CastVote(context.Background(), sessionID, "user-1", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{options[0].ID: 1}, resp.Tally)
	assert.Empty(t, resp.ConfirmedMealID)
	assert.False(t, resp.CookNotified)
	assert.Empty(t, notifier.sent)
}

func TestCastVoteQuorumConfirmsAndNotifiesCook(t *testing.T) {
	repo := newFakeSessionRepo()
	notifier := &fakeNotifier{}
	options := proposalFixture()
	sessionID := seedSession(t, repo, options)
	service := NewMealSessionService(repo, &fakeRecipeService{}, notifier, testConfig())

	_, err := service.CastVote(context.Background(), sessionID, "user-1", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)

	resp, err := service.CastVote(context.Background(), sessionID, "user-2", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)

	assert.Equal(t, options[0].ID, resp.ConfirmedMealID)
	assert.True(t, resp.CookNotified)
	assert.Equal(t, 2, resp.Tally[options[0].ID])

	cookMessages := notifier.sentTo("+6281111111111")
	require.Len(t, cookMessages, 1)
	assert.Contains(t, cookMessages[0].Body, "Dal Tadka")
	assert.Contains(t, cookMessages[0].Body, "https://www.youtube.com/watch?v=dal")
}

func TestCastVoteConfirmationIsSticky(t *testing.T) {
	repo := newFakeSessionRepo()
	notifier := &fakeNotifier{}
	options := proposalFixture()
	sessionID := seedSession(t, repo, options)
	service := NewMealSessionService(repo, &fakeRecipeService{}, notifier, testConfig())

	_, err := service.CastVote(context.Background(), sessionID, "user-1", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)
	_, err = service.CastVote(context.Background(), sessionID, "user-2", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)

	// Later votes for a different option never move the confirmation.
	resp, err := service.CastVote(context.Background(), sessionID, "user-3", domain.CastVoteRequest{OptionID: options[1].ID})
	require.NoError(t, err)
	assert.Equal(t, options[0].ID, resp.ConfirmedMealID)
	assert.False(t, resp.CookNotified)

	_, err = service.CastVote(context.Background(), sessionID, "user-4", domain.CastVoteRequest{OptionID: options[1].ID})
	require.NoError(t, err)
	fetched, err := service.GetSessionByID(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, options[0].ID, fetched.ConfirmedMealID)

	// The cook heard about it exactly once.
	assert.Len(t, notifier.sentTo("+6281111111111"), 1)
}

func TestCastVoteReplayDoesNotRenotify(t *testing.T) {
	repo := newFakeSessionRepo()
	notifier := &fakeNotifier{}
	options := proposalFixture()
	sessionID := seedSession(t, repo, options)
	service := NewMealSessionService(repo, &fakeRecipeService{}, notifier, testConfig())

	_, err := service.CastVote(context.Background(), sessionID, "user-1", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)
	_, err = service.CastVote(context.Background(), sessionID, "user-2", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)

	// The confirming user retries the same request.
	resp, err := service.CastVote(context.Background(), sessionID, "user-2", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)
	assert.Equal(t, options[0].ID, resp.ConfirmedMealID)
	assert.False(t, resp.CookNotified)
	assert.Len(t, notifier.sentTo("+6281111111111"), 1)
}

func TestCastVoteSameUserRevoteIsLastWriteWins(t *testing.T) {
	repo := newFakeSessionRepo()
	options := proposalFixture()
	sessionID := seedSession(t, repo, options)
	service := NewMealSessionService(repo, &fakeRecipeService{}, &fakeNotifier{}, testConfig())

	_, err := service.CastVote(context.Background(), sessionID, "user-1", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)
	resp, err := service.CastVote(context.Background(), sessionID, "user-1", domain.CastVoteRequest{OptionID: options[1].ID})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{options[1].ID: 1}, resp.Tally)
	assert.Empty(t, resp.ConfirmedMealID)
}

func TestCastVoteTieBreakPicksEarliestOption(t *testing.T) {
	repo := newFakeSessionRepo()
	notifier := &fakeNotifier{}
	options := proposalFixture()
	sessionID := seedSession(t, repo, options)
	service := NewMealSessionService(repo, &fakeRecipeService{}, notifier, testConfig())

	// Votes merged concurrently before any caller reached quorum handling.
	ctx := context.Background()
	require.NoError(t, repo.SetVote(ctx, sessionID, "user-1", options[0].ID))
	require.NoError(t, repo.SetVote(ctx, sessionID, "user-2", options[0].ID))
	require.NoError(t, repo.SetVote(ctx, sessionID, "user-3", options[1].ID))

	resp, err := service.CastVote(ctx, sessionID, "user-4", domain.CastVoteRequest{OptionID: options[1].ID})
	require.NoError(t, err)

	// Both options sit at quorum; the earliest in session order wins.
	assert.Equal(t, options[0].ID, resp.ConfirmedMealID)
}

func TestCastVoteLosingConfirmRaceReportsWinner(t *testing.T) {
	repo := newFakeSessionRepo()
	notifier := &fakeNotifier{}
	options := proposalFixture()
	sessionID := seedSession(t, repo, options)
	service := NewMealSessionService(repo, &fakeRecipeService{}, notifier, testConfig())

	ctx := context.Background()
	require.NoError(t, repo.SetVote(ctx, sessionID, "user-1", options[0].ID))

	// A rival caller confirms a different option between this caller's tally
	// and its compare-and-set.
	repo.confirmHook = func() {
		repo.confirmHook = nil
		rival := options[1].ID
		repo.sessions[sessionID].ConfirmedMealID = &rival
	}

	resp, err := service.CastVote(ctx, sessionID, "user-2", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)

	assert.Equal(t, options[1].ID, resp.ConfirmedMealID)
	assert.False(t, resp.CookNotified)
	assert.Empty(t, notifier.sentTo("+6281111111111"))
}

func TestCastVoteCookNotifyFailureDoesNotFailVote(t *testing.T) {
	repo := newFakeSessionRepo()
	notifier := &fakeNotifier{failFor: map[string]error{
		"+6281111111111": errors.New("twilio 500"),
	}}
	options := proposalFixture()
	sessionID := seedSession(t, repo, options)
	service := NewMealSessionService(repo, &fakeRecipeService{}, notifier, testConfig())

	_, err := service.CastVote(context.Background(), sessionID, "user-1", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)
	resp, err := service.CastVote(context.Background(), sessionID, "user-2", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)

	// The confirmation is durable even when the cook message bounces.
	assert.Equal(t, options[0].ID, resp.ConfirmedMealID)
	assert.False(t, resp.CookNotified)
	require.NotNil(t, repo.sessions[sessionID].ConfirmedMealID)
	assert.Equal(t, options[0].ID, *repo.sessions[sessionID].ConfirmedMealID)
}

func TestCastVoteNoCookConfigured(t *testing.T) {
	repo := newFakeSessionRepo()
	notifier := &fakeNotifier{}
	options := proposalFixture()
	sessionID := seedSession(t, repo, options)
	config := testConfig()
	config.CookAddress = ""
	service := NewMealSessionService(repo, &fakeRecipeService{}, notifier, config)

	_, err := service.CastVote(context.Background(), sessionID, "user-1", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)
	resp, err := service.CastVote(context.Background(), sessionID, "user-2", domain.CastVoteRequest{OptionID: options[0].ID})
	require.NoError(t, err)

	assert.Equal(t, options[0].ID, resp.ConfirmedMealID)
	assert.False(t, resp.CookNotified)
	assert.Empty(t, notifier.sent)
}

func TestGetSessionByIDCorruptRecord(t *testing.T) {
	repo := newFakeSessionRepo()
	session := entities.MealSession{
		ID:      uuid.New(),
		Options: "not json",
		Votes:   "{}",
	}
	require.NoError(t, repo.CreateSession(context.Background(), &session))
	service := NewMealSessionService(repo, &fakeRecipeService{}, &fakeNotifier{}, testConfig())

	_, err := service.GetSessionByID(context.Background(), session.ID.String())
	assert.ErrorIs(t, err, domain.ErrSessionCorrupt)
}
