package models

import "time"

type TransactionType string

const (
	TransactionTypeBet  TransactionType = "bet"
	TransactionTypeWin  TransactionType = "win"
	TransactionTypeRoll TransactionType = "roll"
	TransactionTypeSell TransactionType = "sell"
)

type Transaction struct {
	ID            string          `json:"id" redis:"id"`
	UserID        string          `json:"user_id" redis:"user_id"`
	Type          TransactionType `json:"type" redis:"type"`
	Amount        float64         `json:"amount" redis:"amount"`
	BalanceBefore float64         `json:"balance_before" redis:"balance_before"`
	BalanceAfter  float64         `json:"balance_after" redis:"balance_after"`
	GameID        string          `json:"game_id,omitempty" redis:"game_id,omitempty"`
	Description   string          `json:"description" redis:"description"`
	CreatedAt     time.Time       `json:"created_at" redis:"created_at"`
}
