package models

import "github.com/shopspring/decimal"

// PredictionTypeNextExpense labels forecasts of the next expense amount.
const PredictionTypeNextExpense = "NEXT_EXPENSE"

// FinancialForecast is an append-only log of prediction results.
type FinancialForecast struct {
	Base
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	PredictionType  string          `gorm:"size:50;not null" json:"prediction_type"`
	PredictedAmount decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"predicted_amount"`
}
