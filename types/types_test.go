package types

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePriceArea(t *testing.T) {
	tests := []struct {
		input   string
		want    PriceArea
		wantErr bool
	}{
		{input: "SE1", want: SE1},
		{input: "se4", want: SE4},
		{input: " SE3 ", want: SE3},
		{input: "SE5", wantErr: true},
		{input: "NO1", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePriceArea(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPriceArea) {
					t.Errorf("ParsePriceArea(%q) expected ErrInvalidPriceArea, got %v", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePriceArea(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePriceArea(%q) expected %s, got %s", tt.input, tt.want, got)
			}
		})
	}
}

func TestFeesCombined(t *testing.T) {
	fees := NewFees(50, 25)
	if got := fees.Combined(); !got.Equal(decimal.RequireFromString("0.75")) {
		t.Errorf("Combined() expected 0.75, got %s", got)
	}

	if got := (Fees{}).Combined(); !got.IsZero() {
		t.Errorf("Combined() of unset fees expected 0, got %s", got)
	}
}

func TestNewDayScheduleAverage(t *testing.T) {
	s := NewDaySchedule("2025-01-01", []HourlyPrice{
		{Hour: 0, Price: decimal.RequireFromString("1.0")},
		{Hour: 1, Price: decimal.RequireFromString("2.0")},
		{Hour: 2, Price: decimal.RequireFromString("0.5")},
	})
	want := decimal.RequireFromString("1.1666666666666667")
	if !s.DayAverage.Round(10).Equal(want.Round(10)) {
		t.Errorf("DayAverage expected %s, got %s", want, s.DayAverage)
	}

	empty := NewDaySchedule("2025-01-01", nil)
	if !empty.DayAverage.IsZero() {
		t.Errorf("DayAverage of empty schedule expected 0, got %s", empty.DayAverage)
	}
}
