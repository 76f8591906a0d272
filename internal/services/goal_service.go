package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "celengan/internal/errors"
	"celengan/internal/models"
	"celengan/internal/pagination"
)

// contributionTitlePrefix starts the title of every contribution ledger entry.
const contributionTitlePrefix = "Menabung untuk: "

// goalService handles savings-goal business logic.
type goalService struct {
	db *gorm.DB
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB) GoalServicer {
	return &goalService{db: db}
}

// CreateGoal creates an active goal with nothing saved yet.
func (s *goalService) CreateGoal(ctx context.Context, userID uint, name string, targetAmount decimal.Decimal, targetDate *time.Time) (*models.Goal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal_name is required")
	}
	if !models.ValidAmount(targetAmount) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "target_amount must be a positive amount with at most 2 decimal places")
	}

	goal := &models.Goal{
		UserID:        userID,
		GoalName:      name,
		TargetAmount:  targetAmount,
		CurrentAmount: decimal.Zero,
		TargetDate:    targetDate,
		Status:        models.GoalStatusActive,
	}
	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// GetUserGoals returns a paginated list of the user's goals, newest first.
func (s *goalService) GetUserGoals(ctx context.Context, userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error) {
	page.Normalize()

	query := s.db.WithContext(ctx).Model(&models.Goal{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var goals []models.Goal
	if err := query.Scopes(pagination.Paginate(page)).
		Order("created_at DESC, id DESC").
		Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(goals, page.Page, page.PageSize, total)
	return &resp, nil
}

// ApplyContribution adds amount to the goal and records the matching savings
// expense. The goal row is locked for the duration of the database
// transaction so concurrent contributions serialize; any failure rolls back
// both writes.
func (s *goalService) ApplyContribution(ctx context.Context, userID, goalID uint, amount decimal.Decimal) (*models.Goal, error) {
	if !models.ValidAmount(amount) {
		return nil, apperrors.ErrInvalidAmount
	}

	var goal models.Goal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", goalID, userID).
			First(&goal).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrGoalNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		goal.AddContribution(amount)
		if !goal.CurrentAmount.LessThan(models.MaxAmount) {
			return apperrors.WithMessage(apperrors.ErrInvalidAmount, "contribution would exceed the largest storable amount")
		}

		if err := tx.Model(&goal).Updates(map[string]interface{}{
			"current_amount": goal.CurrentAmount,
			"status":         goal.Status,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("updating goal: %w", err))
		}

		category := models.CategorySavings
		entry := &models.Transaction{
			UserID:          userID,
			Title:           contributionTitlePrefix + goal.GoalName,
			Amount:          amount,
			Type:            models.TransactionTypeExpense,
			Category:        &category,
			TransactionDate: time.Now(),
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("recording contribution: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// DeleteGoal removes one of the user's goals. Recorded contributions stay in
// the transaction history.
func (s *goalService) DeleteGoal(ctx context.Context, userID, goalID uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", goalID, userID).Delete(&models.Goal{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrGoalNotFound
	}
	return nil
}
