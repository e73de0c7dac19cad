package services

import (
	"context"
	"sync"

	"dvms-arcade-backend/internal/models"
)

// MemoryHistory is the HistoryStore of the file driver. It keeps the newest
// HistoryLimit entries per user and forgets everything on restart.
type MemoryHistory struct {
	mu           sync.RWMutex
	rounds       map[string][]*models.RoundRecord
	transactions map[string][]*models.Transaction
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		rounds:       make(map[string][]*models.RoundRecord),
		transactions: make(map[string][]*models.Transaction),
	}
}

func (h *MemoryHistory) SaveRound(ctx context.Context, round *models.RoundRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rounds[round.UserID] = pushNewest(h.rounds[round.UserID], round)
	return nil
}

func (h *MemoryHistory) GetRoundHistory(ctx context.Context, userID string, limit int64) ([]*models.RoundRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return newestFirst(h.rounds[userID], limit), nil
}

func (h *MemoryHistory) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transactions[tx.UserID] = pushNewest(h.transactions[tx.UserID], tx)
	return nil
}

func (h *MemoryHistory) GetUserTransactions(ctx context.Context, userID string, limit int64) ([]*models.Transaction, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return newestFirst(h.transactions[userID], limit), nil
}

// pushNewest appends v and drops the oldest entries beyond HistoryLimit.
func pushNewest[T any](list []T, v T) []T {
	list = append(list, v)
	if over := len(list) - HistoryLimit; over > 0 {
		list = append(list[:0:0], list[over:]...)
	}
	return list
}

func newestFirst[T any](list []T, limit int64) []T {
	n := int(historyPage(limit))
	if n > len(list) {
		n = len(list)
	}
	out := make([]T, 0, n)
	for i := len(list) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, list[i])
	}
	return out
}
