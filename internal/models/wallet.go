package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultMaxBalance caps credits so a runaway payout cannot overflow the display.
const DefaultMaxBalance = 1e21

func AddMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

func SubMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).InexactFloat64()
}

func MulMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).InexactFloat64()
}

// Debit removes amount from the balance or fails without touching it.
func (u *UserData) Debit(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("debit amount cannot be negative: %v", amount)
	}
	if u.Balance < amount {
		return fmt.Errorf("insufficient balance: have %.2f, need %.2f", u.Balance, amount)
	}
	u.Balance = SubMoney(u.Balance, amount)
	return nil
}

// Credit adds amount, clamping at maxBalance when it is positive.
func (u *UserData) Credit(amount, maxBalance float64) {
	u.Balance = AddMoney(u.Balance, amount)
	if maxBalance > 0 && u.Balance > maxBalance {
		u.Balance = maxBalance
	}
}

type BalanceResponse struct {
	Balance        float64 `json:"balance"`
	InventoryWorth float64 `json:"inventory_worth"`
	InventoryCards int     `json:"inventory_cards"`
}
