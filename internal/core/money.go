package core

import "github.com/shopspring/decimal"

// moneyPlaces is the scale of every stored amount.
const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to two places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}
