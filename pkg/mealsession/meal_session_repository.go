package mealsession

import (
	"context"
	"encoding/json"
	"time"

	"MealVote-Backend/entities"

	"gorm.io/gorm"
)

type (
	MealSessionRepository interface {
		CreateSession(ctx context.Context, session *entities.MealSession) error
		GetSessionByID(ctx context.Context, id string) (*entities.MealSession, error)
		GetSessions(ctx context.Context, page, limit int) ([]*entities.MealSession, int64, error)
		SetVote(ctx context.Context, sessionID, userID, optionID string) error
		ConfirmMeal(ctx context.Context, sessionID, optionID string) (bool, error)
		MarkInvited(ctx context.Context, sessionID string, recipients []string, at time.Time) error
	}

	mealSessionRepository struct {
		db *gorm.DB
	}
)

func NewMealSessionRepository(db *gorm.DB) MealSessionRepository {
	return &mealSessionRepository{db: db}
}

func (r *mealSessionRepository) CreateSession(ctx context.Context, session *entities.MealSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *mealSessionRepository) GetSessionByID(ctx context.Context, id string) (*entities.MealSession, error) {
	var session entities.MealSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *mealSessionRepository) GetSessions(ctx context.Context, page, limit int) ([]*entities.MealSession, int64, error) {
	var sessions []*entities.MealSession
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).Model(&entities.MealSession{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Offset(offset).
		Limit(limit).
		Order("created_at desc").
		Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, count, nil
}

// SetVote merges one user's vote into the votes map at field level. Two
// concurrent votes from different users land on different jsonb keys and
// never clobber each other; two votes from the same user are last-write-wins.
func (r *mealSessionRepository) SetVote(ctx context.Context, sessionID, userID, optionID string) error {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE meal_sessions
		 SET votes = jsonb_set(COALESCE(votes, '{}'::jsonb), ARRAY[?], to_jsonb(?::text)),
		     updated_at = NOW()
		 WHERE id = ?`,
		userID, optionID, sessionID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ConfirmMeal is a compare-and-set: the confirmed meal is only written while
// still null, so the first caller wins and reports true. Everyone else gets
// false and must not notify.
func (r *mealSessionRepository) ConfirmMeal(ctx context.Context, sessionID, optionID string) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE meal_sessions
		 SET confirmed_meal_id = ?, updated_at = NOW()
		 WHERE id = ? AND confirmed_meal_id IS NULL`,
		optionID, sessionID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *mealSessionRepository) MarkInvited(ctx context.Context, sessionID string, recipients []string, at time.Time) error {
	invitedTo, err := json.Marshal(recipients)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&entities.MealSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"invited":    true,
			"invited_to": string(invitedTo),
			"invited_at": at,
		}).Error
}
