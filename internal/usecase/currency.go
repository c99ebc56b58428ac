package usecase

import (
	"fmt"
	"net/http"

	"ecorder/internal/domain/model"
)

type CurrencyMode string

const (
	// 合計は常に Settlement（商品の通貨は見ない）
	CurrencyModeFixed CurrencyMode = "fixed"
	// 全明細が Settlement と同じ通貨でなければ拒否
	CurrencyModeStrict CurrencyMode = "strict"
)

type CurrencyPolicy struct {
	Mode       CurrencyMode
	Settlement model.Currency
}

func DefaultCurrencyPolicy() CurrencyPolicy {
	return CurrencyPolicy{Mode: CurrencyModeFixed, Settlement: model.CurrencyINR}
}

// Settle は注文合計の通貨を決める。
func (p CurrencyPolicy) Settle(items []model.OrderItem) (model.Currency, error) {
	settlement := p.Settlement
	if settlement == "" {
		settlement = model.CurrencyINR
	}

	if p.Mode != CurrencyModeStrict {
		return settlement, nil
	}
	for _, it := range items {
		if it.LineTotal.Currency != settlement {
			return "", newError(KindValidation, http.StatusBadRequest,
				fmt.Sprintf("mixed currencies: product %s is priced in %s, order settles in %s", it.ProductID, it.LineTotal.Currency, settlement))
		}
	}
	return settlement, nil
}
