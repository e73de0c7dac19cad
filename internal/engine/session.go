package engine

import (
	"context"
	"time"

	"dvms-arcade-backend/internal/models"
)

// Session is everything one player owns: the ledger handle, the current
// Mines round, the card roller and the limiters gating them.
type Session struct {
	PlayerID    string
	Ledger      Ledger
	Mines       *RoundEngine
	Gacha       *GachaRoller
	RollLimiter *RollRateLimiter
	// BetLimiter gates StartRound when set.
	BetLimiter *RollRateLimiter
}

func rateLimited(what string, d Decision) error {
	err := newError(CodeRateLimited, "too many %s, retry in %s", what, d.RetryAfter.Round(time.Second))
	err.RetryAfter = d.RetryAfter
	return err
}

// StartRound spends a bet token only when the round actually starts.
func (s *Session) StartRound(ctx context.Context, now time.Time, stake float64, riskLevel int) error {
	if s.BetLimiter != nil {
		if d := s.BetLimiter.Check(now); !d.Allowed {
			return rateLimited("bets", d)
		}
	}
	if err := s.Mines.StartRound(ctx, stake, riskLevel); err != nil {
		return err
	}
	if s.BetLimiter != nil {
		s.BetLimiter.TryConsume(now)
	}
	return nil
}

// Roll spends quota only for a roll that landed in the ledger.
func (s *Session) Roll(ctx context.Context, now time.Time) (RollResult, models.InventoryEntry, error) {
	if s.Gacha.Catalog().Len() == 0 {
		return RollResult{}, models.InventoryEntry{}, newError(CodeEmptyCatalog, "catalog has no cards")
	}
	if s.RollLimiter != nil {
		if d := s.RollLimiter.Check(now); !d.Allowed {
			return RollResult{}, models.InventoryEntry{}, rateLimited("rolls", d)
		}
	}

	result, entry, err := s.Gacha.Roll(ctx)
	if err != nil {
		return RollResult{}, models.InventoryEntry{}, err
	}
	if s.RollLimiter != nil {
		s.RollLimiter.TryConsume(now)
	}
	return result, entry, nil
}

// RollStatus reports rolls left in the current window and the cooldown.
func (s *Session) RollStatus(now time.Time) (int, time.Duration) {
	if s.RollLimiter == nil {
		return -1, 0
	}
	return s.RollLimiter.Remaining(now), s.RollLimiter.TimeUntilReset(now)
}

// Idle reports whether the session holds no Active round.
func (s *Session) Idle() bool {
	return s.Mines.Status() != StatusActive
}
