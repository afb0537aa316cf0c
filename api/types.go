package api

import (
	"github.com/shopspring/decimal"
)

// PriceData represents cryptocurrency price information
type PriceData struct {
	Symbol string          `json:"symbol"`
	USD    decimal.Decimal `json:"usd"`
}
