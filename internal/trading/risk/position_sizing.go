package risk

import (
	"github.com/shopspring/decimal"
)

// PositionSizingResult holds position sizing calculation results
type PositionSizingResult struct {
	PositionSize  float64 `json:"position_size"`
	PositionValue float64 `json:"position_value"`
	RiskAmount    float64 `json:"risk_amount"`
	Capped        bool    `json:"capped"`
}

var hundred = decimal.NewFromInt(100)

// CalculatePositionSize sizes a position so that hitting the stop loses
// riskPercent of the account, capped so the position value never exceeds
// maxPositionPercent of the account. Size is truncated to 4 decimals and
// money to 2, both toward zero.
func CalculatePositionSize(price, stopDistance, account, riskPercent, maxPositionPercent float64) PositionSizingResult {
	if price <= 0 || stopDistance <= 0 || account <= 0 {
		return PositionSizingResult{}
	}

	p := decimal.NewFromFloat(price)
	acct := decimal.NewFromFloat(account)

	riskAmount := acct.Mul(decimal.NewFromFloat(riskPercent)).Div(hundred)
	size := riskAmount.Div(decimal.NewFromFloat(stopDistance))

	maxValue := acct.Mul(decimal.NewFromFloat(maxPositionPercent)).Div(hundred)
	capped := false
	if size.Mul(p).GreaterThan(maxValue) {
		size = maxValue.Div(p)
		capped = true
	}

	size = size.Truncate(4)
	value := size.Mul(p).Truncate(2)

	return PositionSizingResult{
		PositionSize:  size.InexactFloat64(),
		PositionValue: value.InexactFloat64(),
		RiskAmount:    riskAmount.Round(2).InexactFloat64(),
		Capped:        capped,
	}
}
