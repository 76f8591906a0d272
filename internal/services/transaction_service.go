package services

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "celengan/internal/errors"
	"celengan/internal/logger"
	"celengan/internal/ml"
	"celengan/internal/models"
	"celengan/internal/pagination"
)

const (
	// MinCategoryConfidence is the lowest confidence at which a predicted
	// category is accepted instead of the fallback.
	MinCategoryConfidence = 0.5

	// forecastHistory is how many recent expenses feed a prediction.
	forecastHistory = 3
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db          *gorm.DB
	categorizer Categorizer
	anomalies   AnomalyDetector
	forecaster  Forecaster
	batchDelay  time.Duration
}

// NewTransactionService creates a new TransactionServicer. batchDelay is the
// pause between categorization calls during CategorizeAll.
func NewTransactionService(
	db *gorm.DB,
	categorizer Categorizer,
	anomalies AnomalyDetector,
	forecaster Forecaster,
	batchDelay time.Duration,
) TransactionServicer {
	return &transactionService{
		db:          db,
		categorizer: categorizer,
		anomalies:   anomalies,
		forecaster:  forecaster,
		batchDelay:  batchDelay,
	}
}

// CreateTransaction records a transaction. A missing category is predicted,
// falling back to "Lainnya". After the row is stored an anomaly label is
// requested; a failed lookup leaves anomaly_status empty and is only logged.
func (s *transactionService) CreateTransaction(
	ctx context.Context,
	userID uint,
	title string,
	amount decimal.Decimal,
	transactionType models.TransactionType,
	category string,
	date time.Time,
) (*models.Transaction, error) {
	txType, ok := models.ParseTransactionType(string(transactionType))
	if !ok {
		return nil, apperrors.ErrInvalidTransactionType
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if !models.ValidAmount(amount) {
		return nil, apperrors.ErrInvalidAmount
	}
	if date.IsZero() {
		date = time.Now()
	}

	category = strings.TrimSpace(category)
	if category == "" {
		category = s.predictCategory(ctx, userID, title, amount)
	}

	transaction := &models.Transaction{
		UserID:          userID,
		Title:           title,
		Amount:          amount,
		Type:            txType,
		Category:        &category,
		TransactionDate: date,
	}
	if err := s.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.detectAnomaly(ctx, transaction)
	return transaction, nil
}

// predictCategory never fails: any error or low confidence yields the fallback.
func (s *transactionService) predictCategory(ctx context.Context, userID uint, title string, amount decimal.Decimal) string {
	pred, err := s.categorizer.Categorize(ctx, title, amount)
	if err != nil {
		logger.Get().Warnw("categorization failed, using fallback",
			"user_id", userID,
			"error", err,
		)
		return models.CategoryOther
	}
	return acceptedCategory(pred)
}

func (s *transactionService) detectAnomaly(ctx context.Context, t *models.Transaction) {
	labels, err := s.anomalies.Detect(ctx, []ml.AnomalyInput{{
		ID:          t.ID,
		Date:        t.TransactionDate,
		Description: t.Title,
		Amount:      t.Amount,
	}})
	if err != nil {
		logger.Get().Warnw("anomaly detection failed",
			"user_id", t.UserID,
			"transaction_id", t.ID,
			"error", err,
		)
		return
	}

	label, ok := labels[t.ID]
	if !ok || label == "" {
		return
	}
	if err := s.db.WithContext(ctx).Model(t).Update("anomaly_status", label).Error; err != nil {
		logger.Get().Warnw("failed to store anomaly status",
			"transaction_id", t.ID,
			"error", err,
		)
		return
	}
	t.AnomalyStatus = &label
}

// GetUserTransactions returns a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(
	ctx context.Context,
	userID uint,
	page pagination.PageRequest,
	filter TransactionFilter,
) (*pagination.PageResponse[models.Transaction], error) {
	page.Normalize()

	query := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.FromDate != nil {
		query = query.Where("transaction_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("transaction_date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := query.Scopes(pagination.Paginate(page)).
		Order("transaction_date DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(transactions, page.Page, page.PageSize, total)
	return &resp, nil
}

// CategorizeTransaction re-runs categorization for one transaction regardless
// of its current category. A service failure leaves the row unchanged.
func (s *transactionService) CategorizeTransaction(ctx context.Context, userID, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	pred, err := s.categorizer.Categorize(ctx, transaction.Title, transaction.Amount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstream, err)
	}

	category := acceptedCategory(pred)
	if err := s.db.WithContext(ctx).Model(&transaction).Update("category", category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	transaction.Category = &category
	return &transaction, nil
}

// CategorizeAll categorizes every transaction of the user that has no
// category or the fallback one. Calls are made one at a time with a pause in
// between; a failed item is reported and the batch continues.
func (s *transactionService) CategorizeAll(ctx context.Context, userID uint) (*BatchCategorizeResult, error) {
	var pending []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("category IS NULL OR category = '' OR category = ?", models.CategoryOther).
		Order("id ASC").
		Find(&pending).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &BatchCategorizeResult{Results: make([]CategorizeResult, 0, len(pending))}
	for i := range pending {
		if i > 0 {
			if err := sleepContext(ctx, s.batchDelay); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		item := s.categorizeOne(ctx, &pending[i])
		result.Processed++
		if item.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, item)
	}

	logger.Get().Infow("batch categorization finished",
		"user_id", userID,
		"processed", result.Processed,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *transactionService) categorizeOne(ctx context.Context, t *models.Transaction) CategorizeResult {
	item := CategorizeResult{TransactionID: t.ID, Title: t.Title}

	pred, err := s.categorizer.Categorize(ctx, t.Title, t.Amount)
	if err != nil {
		logger.Get().Warnw("categorization failed",
			"user_id", t.UserID,
			"transaction_id", t.ID,
			"error", err,
		)
		item.Error = failureReason(err)
		return item
	}

	category := acceptedCategory(pred)
	if err := s.db.WithContext(ctx).Model(t).Update("category", category).Error; err != nil {
		logger.Get().Errorw("failed to store category",
			"transaction_id", t.ID,
			"error", err,
		)
		item.Error = "failed to save category"
		return item
	}

	item.Success = true
	item.Category = category
	item.Confidence = pred.Confidence
	return item
}

// PredictNextExpense forecasts the next expense from the three most recent
// ones and appends the result to the forecast log before returning it.
func (s *transactionService) PredictNextExpense(ctx context.Context, userID uint) (*models.FinancialForecast, error) {
	var recent []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, models.TransactionTypeExpense).
		Order("transaction_date DESC, id DESC").
		Limit(forecastHistory).
		Find(&recent).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(recent) < forecastHistory {
		return nil, apperrors.ErrInsufficientData
	}

	// Oldest first.
	amounts := make([]decimal.Decimal, len(recent))
	for i, t := range recent {
		amounts[len(recent)-1-i] = t.Amount
	}

	predicted, err := s.forecaster.ForecastNextExpense(ctx, amounts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.WithMessage(apperrors.ErrInternalServer, "Failed to forecast next expense"), err)
	}

	forecast := &models.FinancialForecast{
		UserID:          userID,
		PredictionType:  models.PredictionTypeNextExpense,
		PredictedAmount: predicted,
	}
	if err := s.db.WithContext(ctx).Create(forecast).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return forecast, nil
}

// acceptedCategory returns the predicted category when confident enough,
// otherwise the fallback.
func acceptedCategory(pred *ml.Prediction) string {
	if pred == nil || pred.Category == "" || pred.Confidence < MinCategoryConfidence {
		return models.CategoryOther
	}
	return pred.Category
}

func failureReason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, ml.ErrDisabled):
		return "categorization service is not configured"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "categorization service timed out"
	default:
		return "categorization service returned an error"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
