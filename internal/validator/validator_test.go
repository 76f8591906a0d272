package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type sample struct {
	Type   string          `validate:"required,transaction_type"`
	Amount decimal.Decimal `validate:"required,amount"`
}

func TestCustomValidators(t *testing.T) {
	v := validator.New()
	RegisterOn(v)

	tests := []struct {
		name    string
		in      sample
		wantErr bool
	}{
		{"valid_upper", sample{"EXPENSE", decimal.NewFromInt(10)}, false},
		{"valid_lower", sample{"income", decimal.RequireFromString("0.01")}, false},
		{"bad_type", sample{"transfer", decimal.NewFromInt(10)}, true},
		{"zero_amount", sample{"EXPENSE", decimal.Zero}, true},
		{"negative_amount", sample{"EXPENSE", decimal.NewFromInt(-5)}, true},
		{"sub_cent_amount", sample{"EXPENSE", decimal.RequireFromString("0.005")}, true},
		{"amount_out_of_range", sample{"EXPENSE", decimal.New(1, 13)}, true},
		{"largest_amount", sample{"EXPENSE", decimal.RequireFromString("9999999999999.99")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
