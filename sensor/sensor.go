package sensor

import (
	"strings"

	"github.com/angas/elpris-go/types"
	"github.com/shopspring/decimal"
)

const (
	Unit              = "SEK/kWh"
	Icon              = "mdi:cash-clock"
	Attribution       = "Data provided by ElprisetJustNu"
	DeviceIdentifier  = "elprisetjustnu"
	DefaultName       = "ElprisetJustNu"
	Manufacturer      = "Odum"
	ConfigurationURL  = "https://www.elprisetjustnu.se"
	DeviceClass       = "monetary"
	withFeesKeySuffix = "_and_fees"
)

type Source int

const (
	Current Source = iota
	DayAverage
)

func (s Source) key() string {
	if s == DayAverage {
		return "day_average_price"
	}
	return "current_price"
}

func (s Source) value(r types.Readings) decimal.Decimal {
	if s == DayAverage {
		return r.DayAveragePrice
	}
	return r.CurrentPrice
}

// Metric is one of the published sensor values.
type Metric struct {
	Source   Source
	WithFees bool
}

var metrics = []Metric{
	{Source: Current},
	{Source: DayAverage},
	{Source: Current, WithFees: true},
	{Source: DayAverage, WithFees: true},
}

func AllMetrics() []Metric {
	return append([]Metric(nil), metrics...)
}

func (m Metric) Key() string {
	if m.WithFees {
		return m.Source.key() + withFeesKeySuffix
	}
	return m.Source.key()
}

func (m Metric) Name() string {
	switch {
	case m.Source == Current && m.WithFees:
		return "Current price w fees"
	case m.Source == Current:
		return "Current price"
	case m.WithFees:
		return "Average day price w fees"
	default:
		return "Average day price"
	}
}

// Value adds fees on read, they are never part of the readings themselves.
func (m Metric) Value(r types.Readings, fees decimal.Decimal) decimal.Decimal {
	v := m.Source.value(r)
	if m.WithFees {
		return v.Add(fees)
	}
	return v
}

func UniqueID(m Metric, area types.PriceArea) string {
	return m.Key() + "_" + strings.ToLower(area.String())
}

type Device struct {
	Identifier       string `json:"identifier"`
	Name             string `json:"name"`
	Manufacturer     string `json:"manufacturer"`
	ConfigurationURL string `json:"configuration_url"`
}

func DeviceFor(area types.PriceArea) Device {
	return Device{
		Identifier:       DeviceIdentifier + "_" + area.String(),
		Name:             DefaultName + " " + area.String(),
		Manufacturer:     Manufacturer,
		ConfigurationURL: ConfigurationURL,
	}
}

// Source of readings, implemented by the coordinator.
type Provider interface {
	CurrentReadings() types.Readings
	Fees() decimal.Decimal
}

type Reading struct {
	Metric Metric
	Value  decimal.Decimal
}

// Evaluate reads every metric from one consistent snapshot.
func Evaluate(p Provider) []Reading {
	r := p.CurrentReadings()
	fees := p.Fees()
	res := make([]Reading, len(metrics))
	for i, m := range metrics {
		res[i] = Reading{Metric: m, Value: m.Value(r, fees)}
	}
	return res
}
