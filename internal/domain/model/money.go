package model

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
)

// ParseCurrency は大文字小文字を区別せずに通貨を判定する。
func ParseCurrency(s string) (Currency, bool) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case CurrencyINR:
		return CurrencyINR, true
	case CurrencyUSD:
		return CurrencyUSD, true
	default:
		return "", false
	}
}

type Money struct {
	Amount   decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Currency Currency        `gorm:"type:varchar(3);not null" json:"currency"`
}

// amountは文字列ではなく数値で返す
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   json.Number `json:"amount"`
		Currency Currency    `json:"currency"`
	}{
		Amount:   json.Number(m.Amount.String()),
		Currency: m.Currency,
	})
}
