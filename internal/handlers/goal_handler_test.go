package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "celengan/internal/errors"
	"celengan/internal/models"
	"celengan/internal/pagination"
	"celengan/internal/services"
)

// --- mock goal service ---

type mockGoalService struct {
	createGoalFn        func(userID uint, name string, target decimal.Decimal, targetDate *time.Time) (*models.Goal, error)
	getUserGoalsFn      func(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error)
	applyContributionFn func(userID, goalID uint, amount decimal.Decimal) (*models.Goal, error)
	deleteGoalFn        func(userID, goalID uint) error
}

func (m *mockGoalService) CreateGoal(_ context.Context, userID uint, name string, target decimal.Decimal, targetDate *time.Time) (*models.Goal, error) {
	if m.createGoalFn != nil {
		return m.createGoalFn(userID, name, target, targetDate)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) GetUserGoals(_ context.Context, userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error) {
	if m.getUserGoalsFn != nil {
		return m.getUserGoalsFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Goal{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockGoalService) ApplyContribution(_ context.Context, userID, goalID uint, amount decimal.Decimal) (*models.Goal, error) {
	if m.applyContributionFn != nil {
		return m.applyContributionFn(userID, goalID, amount)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) DeleteGoal(_ context.Context, userID, goalID uint) error {
	if m.deleteGoalFn != nil {
		return m.deleteGoalFn(userID, goalID)
	}
	return nil
}

var _ services.GoalServicer = (*mockGoalService)(nil)

func setupGoalRouter(handler *GoalHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/goals", handler.CreateGoal)
	auth.GET("/goals", handler.GetUserGoals)
	auth.PUT("/goals/:id", handler.AddContribution)
	auth.DELETE("/goals/:id", handler.DeleteGoal)
	return r
}

func TestGoalHandler_CreateGoal(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var gotDate *time.Time
		svc := &mockGoalService{
			createGoalFn: func(userID uint, name string, target decimal.Decimal, targetDate *time.Time) (*models.Goal, error) {
				gotDate = targetDate
				return &models.Goal{
					Base:          models.Base{ID: 5},
					UserID:        userID,
					GoalName:      name,
					TargetAmount:  target,
					CurrentAmount: decimal.Zero,
					Status:        models.GoalStatusActive,
				}, nil
			},
		}
		r := setupGoalRouter(NewGoalHandler(svc))

		rec := doRequest(r, "POST", "/goals", `{"goal_name":"Motor","target_amount":20000000,"target_date":"2025-06-30"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotDate == nil || gotDate.Month() != time.June {
			t.Errorf("expected target date June, got %v", gotDate)
		}
		goal := parseJSON(t, rec)["goal"].(map[string]interface{})
		if goal["status"] != "ACTIVE" {
			t.Errorf("expected ACTIVE, got %v", goal["status"])
		}
	})

	t.Run("returns 400 on missing target", func(t *testing.T) {
		r := setupGoalRouter(NewGoalHandler(&mockGoalService{}))

		rec := doRequest(r, "POST", "/goals", `{"goal_name":"Motor"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on target beyond storable range", func(t *testing.T) {
		r := setupGoalRouter(NewGoalHandler(&mockGoalService{}))

		rec := doRequest(r, "POST", "/goals", `{"goal_name":"Motor","target_amount":"10000000000000"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_AMOUNT")
	})
}

func TestGoalHandler_AddContribution(t *testing.T) {
	t.Run("returns 200 with updated goal", func(t *testing.T) {
		var gotGoal uint
		var gotAmount decimal.Decimal
		svc := &mockGoalService{
			applyContributionFn: func(_, goalID uint, amount decimal.Decimal) (*models.Goal, error) {
				gotGoal, gotAmount = goalID, amount
				return &models.Goal{
					Base:          models.Base{ID: goalID},
					TargetAmount:  decimal.NewFromInt(100),
					CurrentAmount: decimal.NewFromInt(105),
					Status:        models.GoalStatusCompleted,
				}, nil
			},
		}
		r := setupGoalRouter(NewGoalHandler(svc))

		rec := doRequest(r, "PUT", "/goals/7", `{"amount_to_add":25}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotGoal != 7 || !gotAmount.Equal(decimal.NewFromInt(25)) {
			t.Errorf("unexpected call: goal %d amount %s", gotGoal, gotAmount)
		}
		goal := parseJSON(t, rec)["goal"].(map[string]interface{})
		if goal["status"] != "COMPLETED" {
			t.Errorf("expected COMPLETED, got %v", goal["status"])
		}
	})

	t.Run("returns 400 on missing amount", func(t *testing.T) {
		called := false
		svc := &mockGoalService{
			applyContributionFn: func(_, _ uint, _ decimal.Decimal) (*models.Goal, error) {
				called = true
				return nil, nil
			},
		}
		r := setupGoalRouter(NewGoalHandler(svc))

		rec := doRequest(r, "PUT", "/goals/7", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_AMOUNT")
		if called {
			t.Error("service must not be called without an amount")
		}
	})

	t.Run("returns 400 on non-numeric amount", func(t *testing.T) {
		r := setupGoalRouter(NewGoalHandler(&mockGoalService{}))

		rec := doRequest(r, "PUT", "/goals/7", `{"amount_to_add":"lots"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_AMOUNT")
	})

	t.Run("returns 404 when goal missing", func(t *testing.T) {
		svc := &mockGoalService{
			applyContributionFn: func(_, _ uint, _ decimal.Decimal) (*models.Goal, error) {
				return nil, apperrors.ErrGoalNotFound
			},
		}
		r := setupGoalRouter(NewGoalHandler(svc))

		rec := doRequest(r, "PUT", "/goals/99", `{"amount_to_add":5}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "GOAL_NOT_FOUND")
	})
}

func TestGoalHandler_GetUserGoals(t *testing.T) {
	svc := &mockGoalService{
		getUserGoalsFn: func(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error) {
			resp := pagination.NewPageResponse([]models.Goal{{UserID: userID}}, 1, 20, 1)
			return &resp, nil
		},
	}
	r := setupGoalRouter(NewGoalHandler(svc))

	rec := doRequest(r, "GET", "/goals", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if data := parseJSON(t, rec)["data"].([]interface{}); len(data) != 1 {
		t.Errorf("expected 1 goal, got %d", len(data))
	}
}

func TestGoalHandler_DeleteGoal(t *testing.T) {
	t.Run("returns 200", func(t *testing.T) {
		r := setupGoalRouter(NewGoalHandler(&mockGoalService{}))

		rec := doRequest(r, "DELETE", "/goals/3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("returns 404 for foreign goal", func(t *testing.T) {
		svc := &mockGoalService{
			deleteGoalFn: func(_, _ uint) error { return apperrors.ErrGoalNotFound },
		}
		r := setupGoalRouter(NewGoalHandler(svc))

		rec := doRequest(r, "DELETE", "/goals/3", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
