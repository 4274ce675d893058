package nordpool

import (
	"time"

	"github.com/shopspring/decimal"
)

type dayAheadPrices struct {
	DeliveryDateCET  string           `json:"deliveryDateCET"`
	Version          int              `json:"version"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	DeliveryAreas    []string         `json:"deliveryAreas"`
	Market           string           `json:"market"`
	Currency         string           `json:"currency"`
	MultiAreaEntries []multiAreaEntry `json:"multiAreaEntries"`
	AreaAverages     []areaAverage    `json:"areaAverages"`
}

type multiAreaEntry struct {
	DeliveryStart time.Time                  `json:"deliveryStart"`
	DeliveryEnd   time.Time                  `json:"deliveryEnd"`
	EntryPerArea  map[string]decimal.Decimal `json:"entryPerArea"`
}

type areaAverage struct {
	AreaCode string          `json:"areaCode"`
	Price    decimal.Decimal `json:"price"`
}
