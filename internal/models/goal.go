package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus represents the lifecycle state of a savings goal
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "ACTIVE"
	GoalStatusCompleted GoalStatus = "COMPLETED"
)

// Goal is a savings target tracked by cumulative contributions.
type Goal struct {
	Base
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	GoalName      string          `gorm:"size:255;not null" json:"goal_name"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"current_amount"`
	TargetDate    *time.Time      `gorm:"type:date" json:"target_date,omitempty"`
	Status        GoalStatus      `gorm:"size:20;not null" json:"status"`
}

// AddContribution adds amount to the saved total and marks the goal
// completed once the target is reached. A completed goal stays completed.
func (g *Goal) AddContribution(amount decimal.Decimal) {
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	if g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.Status = GoalStatusCompleted
	}
}
