package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"celengan/internal/ml"
	"celengan/internal/models"
	"celengan/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, username, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	AttemptLogin(ctx context.Context, identifier, password string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
	DeleteUser(ctx context.Context, userID uint) error
}

// Categorizer predicts a category for a transaction.
type Categorizer interface {
	Categorize(ctx context.Context, description string, amount decimal.Decimal) (*ml.Prediction, error)
}

// AnomalyDetector labels transactions as normal or anomalous.
type AnomalyDetector interface {
	Detect(ctx context.Context, items []ml.AnomalyInput) (map[uint]string, error)
}

// Forecaster predicts the next expense from recent ones.
type Forecaster interface {
	ForecastNextExpense(ctx context.Context, previous []decimal.Decimal) (decimal.Decimal, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.TransactionType
}

// CategorizeResult is the outcome of categorizing a single transaction.
type CategorizeResult struct {
	TransactionID uint    `json:"transaction_id"`
	Title         string  `json:"title"`
	Success       bool    `json:"success"`
	Category      string  `json:"category,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// BatchCategorizeResult summarizes a categorize-all run.
type BatchCategorizeResult struct {
	Processed int                `json:"processed"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Results   []CategorizeResult `json:"results"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID uint, title string, amount decimal.Decimal, transactionType models.TransactionType, category string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(ctx context.Context, userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	CategorizeTransaction(ctx context.Context, userID, transactionID uint) (*models.Transaction, error)
	CategorizeAll(ctx context.Context, userID uint) (*BatchCategorizeResult, error)
	PredictNextExpense(ctx context.Context, userID uint) (*models.FinancialForecast, error)
}

// GoalServicer defines the contract for savings-goal business logic.
type GoalServicer interface {
	CreateGoal(ctx context.Context, userID uint, name string, targetAmount decimal.Decimal, targetDate *time.Time) (*models.Goal, error)
	GetUserGoals(ctx context.Context, userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error)
	ApplyContribution(ctx context.Context, userID, goalID uint, amount decimal.Decimal) (*models.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID uint) error
}
