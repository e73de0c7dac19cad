package services

import "time"

const (
	KeyUserData         = "user:%s:data"
	KeyRound            = "round:%s"
	KeyUserRounds       = "user:%s:rounds"
	KeyTransaction      = "transaction:%s"
	KeyUserTransactions = "user:%s:transactions"
	KeyRateLimit        = "ratelimit:%s"

	TTLRound       = 7 * 24 * time.Hour  // 7 days
	TTLTransaction = 30 * 24 * time.Hour // 30 days

	// HistoryLimit is how many rounds and transactions are kept per user.
	HistoryLimit       = 100
	DefaultHistoryPage = 50

	maxUpdateRetries = 10
)

// historyPage clamps a requested page size to (0, HistoryLimit].
func historyPage(limit int64) int64 {
	if limit <= 0 || limit > HistoryLimit {
		return DefaultHistoryPage
	}
	return limit
}
