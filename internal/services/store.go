package services

import (
	"context"

	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/models"
)

// LedgerStore hands out the ledger of each player.
type LedgerStore interface {
	Ledger(userID string) engine.Ledger
	Close() error
}

// HistoryStore keeps resolved rounds and balance movements, newest first.
type HistoryStore interface {
	SaveRound(ctx context.Context, round *models.RoundRecord) error
	GetRoundHistory(ctx context.Context, userID string, limit int64) ([]*models.RoundRecord, error)
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	GetUserTransactions(ctx context.Context, userID string, limit int64) ([]*models.Transaction, error)
}
