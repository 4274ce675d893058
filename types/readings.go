package types

import (
	"time"

	"github.com/angas/elpris-go/hours"
	"github.com/shopspring/decimal"
)

var hundredth = decimal.New(1, -2)

// Readings are the values derived from the cached schedule on the last check.
// The zero value means nothing has been derived yet.
type Readings struct {
	CurrentPrice    decimal.Decimal
	DayAveragePrice decimal.Decimal
	Date            hours.Date
	UpdatedAt       time.Time
}

func (r Readings) IsZero() bool {
	return r.UpdatedAt.IsZero()
}

// Fees are configured in öre per kWh.
type Fees struct {
	TransferFee decimal.Decimal
	EnergyTax   decimal.Decimal
}

func NewFees(transferFee, energyTax float64) Fees {
	return Fees{
		TransferFee: decimal.NewFromFloat(transferFee),
		EnergyTax:   decimal.NewFromFloat(energyTax),
	}
}

// Combined returns the sum of the fees in SEK per kWh.
func (f Fees) Combined() decimal.Decimal {
	return f.TransferFee.Add(f.EnergyTax).Mul(hundredth)
}
