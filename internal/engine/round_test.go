package engine_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"dvms-arcade-backend/internal/engine"
)

func newTestRound(t *testing.T, balance float64) (*engine.RoundEngine, *flakyLedger, *engine.PayoutTable) {
	t.Helper()
	ledger := newFlakyLedger(balance)
	table := engine.DefaultPayoutTable()
	round, err := engine.NewRoundEngine(table, ledger, engine.NewSeededRandom(11))
	if err != nil {
		t.Fatalf("NewRoundEngine failed: %v", err)
	}
	return round, ledger, table
}

func safeCells(t *testing.T, round *engine.RoundEngine) []int {
	t.Helper()
	var cells []int
	for cell := 0; cell < round.FieldSize(); cell++ {
		mine, err := round.Field().IsMine(cell)
		if err != nil {
			t.Fatal(err)
		}
		if !mine {
			cells = append(cells, cell)
		}
	}
	return cells
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRoundEngine_RevealSafeCell(t *testing.T) {
	ctx := context.Background()
	round, ledger, table := newTestRound(t, 10)

	if err := round.StartRound(ctx, 10, 3); err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}
	if ledger.balance() != 0 {
		t.Errorf("stake should be debited at start, balance %v", ledger.balance())
	}

	result, err := round.Reveal(ctx, safeCells(t, round)[0])
	if err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if result.Mine {
		t.Fatal("safe cell reported as mine")
	}
	if result.State.RevealedSafe != 1 {
		t.Errorf("RevealedSafe = %d, want 1", result.State.RevealedSafe)
	}
	if result.State.Status != engine.StatusActive {
		t.Errorf("Status = %s, want active", result.State.Status)
	}
	if want := 10 * table.MultiplierFor(3, 1); !approxEqual(result.State.PotentialPayout, want) {
		t.Errorf("PotentialPayout = %v, want %v", result.State.PotentialPayout, want)
	}
	if result.State.Mines != nil {
		t.Error("mines must stay hidden while the round is active")
	}
}

func TestRoundEngine_RevealMine(t *testing.T) {
	ctx := context.Background()
	round, ledger, _ := newTestRound(t, 10)

	if err := round.StartRound(ctx, 10, 3); err != nil {
		t.Fatal(err)
	}
	mine := round.Field().Mines()[0]

	result, err := round.Reveal(ctx, mine)
	if err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if !result.Mine || result.State.Status != engine.StatusLost {
		t.Fatalf("expected lost round, got %+v", result)
	}
	if result.State.Payout != 0 {
		t.Errorf("Payout = %v, want 0", result.State.Payout)
	}
	if len(result.State.Mines) != 3 {
		t.Errorf("lost round should expose all 3 mines, got %v", result.State.Mines)
	}
	if ledger.balance() != 0 {
		t.Errorf("nothing should be credited on a loss, balance %v", ledger.balance())
	}

	if _, err := round.Reveal(ctx, safeCells(t, round)[0]); !errors.Is(err, engine.ErrInvalidRoundState) {
		t.Errorf("reveal after loss: expected INVALID_ROUND_STATE, got %v", err)
	}
}

func TestRoundEngine_ClearingBoardAutoWins(t *testing.T) {
	ctx := context.Background()
	for _, mines := range []int{1, 3, 5, 20, 24} {
		round, ledger, table := newTestRound(t, 100)
		if err := round.StartRound(ctx, 4, mines); err != nil {
			t.Fatal(err)
		}

		var last engine.RevealResult
		for _, cell := range safeCells(t, round) {
			var err error
			last, err = round.Reveal(ctx, cell)
			if err != nil {
				t.Fatalf("mines=%d: Reveal(%d) failed: %v", mines, cell, err)
			}
		}

		if last.State.Status != engine.StatusWon {
			t.Fatalf("mines=%d: Status = %s, want won", mines, last.State.Status)
		}
		want := 4 * table.MultiplierFor(mines, 25-mines)
		if !approxEqual(last.State.Payout, want) {
			t.Errorf("mines=%d: Payout = %v, want %v", mines, last.State.Payout, want)
		}
		if !approxEqual(ledger.balance(), 96+want) {
			t.Errorf("mines=%d: balance = %v, want %v", mines, ledger.balance(), 96+want)
		}
	}
}

func TestRoundEngine_CashOut(t *testing.T) {
	ctx := context.Background()
	round, ledger, table := newTestRound(t, 50)

	if err := round.StartRound(ctx, 20, 5); err != nil {
		t.Fatal(err)
	}

	if _, err := round.CashOut(ctx); !errors.Is(err, engine.ErrNothingToCashOut) {
		t.Fatalf("expected NOTHING_TO_CASH_OUT, got %v", err)
	}

	safe := safeCells(t, round)
	for _, cell := range safe[:2] {
		if _, err := round.Reveal(ctx, cell); err != nil {
			t.Fatal(err)
		}
	}

	state, err := round.CashOut(ctx)
	if err != nil {
		t.Fatalf("CashOut failed: %v", err)
	}
	want := 20 * table.MultiplierFor(5, 2)
	if state.Status != engine.StatusWon || !approxEqual(state.Payout, want) {
		t.Errorf("CashOut state = %+v, want won with %v", state, want)
	}
	if !approxEqual(ledger.balance(), 30+want) {
		t.Errorf("balance = %v, want %v", ledger.balance(), 30+want)
	}

	if _, err := round.CashOut(ctx); !errors.Is(err, engine.ErrInvalidRoundState) {
		t.Errorf("second cash out: expected INVALID_ROUND_STATE, got %v", err)
	}
}

func TestRoundEngine_StartWhileActive(t *testing.T) {
	ctx := context.Background()
	round, ledger, _ := newTestRound(t, 100)

	if err := round.StartRound(ctx, 10, 3); err != nil {
		t.Fatal(err)
	}
	field := round.Field()
	balance := ledger.balance()

	err := round.StartRound(ctx, 10, 3)
	if !errors.Is(err, engine.ErrInvalidRoundState) {
		t.Fatalf("expected INVALID_ROUND_STATE, got %v", err)
	}
	if round.Field() != field {
		t.Error("field must not change")
	}
	if ledger.balance() != balance {
		t.Errorf("balance changed from %v to %v", balance, ledger.balance())
	}
}

func TestRoundEngine_StartValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		stake float64
		risk  int
		want  error
	}{
		{"zero stake", 0, 3, engine.ErrInvalidStake},
		{"negative stake", -5, 3, engine.ErrInvalidStake},
		{"nan stake", math.NaN(), 3, engine.ErrInvalidStake},
		{"no mines", 5, 0, engine.ErrInvalidRiskLevel},
		{"all mines", 5, 25, engine.ErrInvalidRiskLevel},
		{"over balance", 11, 3, engine.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			round, ledger, _ := newTestRound(t, 10)
			err := round.StartRound(ctx, tt.stake, tt.risk)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if round.Status() != engine.StatusIdle {
				t.Errorf("Status = %s, want idle", round.Status())
			}
			if ledger.balance() != 10 {
				t.Errorf("balance changed to %v", ledger.balance())
			}
		})
	}
}

func TestRoundEngine_StartFailuresLeaveNoDebit(t *testing.T) {
	ctx := context.Background()

	t.Run("random source", func(t *testing.T) {
		ledger := newFlakyLedger(10)
		round, err := engine.NewRoundEngine(engine.DefaultPayoutTable(), ledger, brokenRandom{})
		if err != nil {
			t.Fatal(err)
		}
		if err := round.StartRound(ctx, 5, 3); !errors.Is(err, engine.ErrRandomSourceFailure) {
			t.Fatalf("expected RANDOM_SOURCE_FAILURE, got %v", err)
		}
		if ledger.balance() != 10 || round.Status() != engine.StatusIdle {
			t.Error("failed start must leave balance and state untouched")
		}
	})

	t.Run("storage", func(t *testing.T) {
		round, ledger, _ := newTestRound(t, 10)
		ledger.failWrites = true
		err := round.StartRound(ctx, 5, 3)
		if !errors.Is(err, engine.ErrStorageFailure) {
			t.Fatalf("expected STORAGE_FAILURE, got %v", err)
		}
		if !errors.Is(err, errBoom) {
			t.Error("storage error should wrap the cause")
		}
		if round.Status() != engine.StatusIdle || round.Field() != nil {
			t.Error("failed start must not create a round")
		}
	})
}

func TestRoundEngine_CreditFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	round, ledger, table := newTestRound(t, 10)

	if err := round.StartRound(ctx, 10, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := round.Reveal(ctx, safeCells(t, round)[0]); err != nil {
		t.Fatal(err)
	}

	ledger.failWrites = true
	if _, err := round.CashOut(ctx); !errors.Is(err, engine.ErrStorageFailure) {
		t.Fatalf("expected STORAGE_FAILURE, got %v", err)
	}
	if round.Status() != engine.StatusActive {
		t.Fatalf("round must stay active after a failed credit, got %s", round.Status())
	}

	ledger.failWrites = false
	state, err := round.CashOut(ctx)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	want := 10 * table.MultiplierFor(3, 1)
	if !approxEqual(state.Payout, want) || !approxEqual(ledger.balance(), want) {
		t.Errorf("payout %v balance %v, want %v", state.Payout, ledger.balance(), want)
	}
}

func TestRoundEngine_IdleAndReset(t *testing.T) {
	ctx := context.Background()
	round, _, _ := newTestRound(t, 10)

	if _, err := round.Reveal(ctx, 0); !errors.Is(err, engine.ErrNoActiveRound) {
		t.Errorf("reveal while idle: expected NO_ACTIVE_ROUND, got %v", err)
	}
	if _, err := round.Reveal(ctx, 0); !errors.Is(err, engine.ErrInvalidRoundState) {
		t.Errorf("NO_ACTIVE_ROUND should also match INVALID_ROUND_STATE, got %v", err)
	}
	if _, err := round.CashOut(ctx); !errors.Is(err, engine.ErrNoActiveRound) {
		t.Errorf("cash out while idle: expected NO_ACTIVE_ROUND, got %v", err)
	}
	if err := round.Reset(); !errors.Is(err, engine.ErrNoActiveRound) {
		t.Errorf("reset while idle: expected NO_ACTIVE_ROUND, got %v", err)
	}

	if err := round.StartRound(ctx, 5, 2); err != nil {
		t.Fatal(err)
	}
	if err := round.Reset(); !errors.Is(err, engine.ErrInvalidRoundState) {
		t.Errorf("reset while active: expected INVALID_ROUND_STATE, got %v", err)
	}

	safe := safeCells(t, round)
	if _, err := round.Reveal(ctx, safe[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := round.Reveal(ctx, safe[0]); !errors.Is(err, engine.ErrCellAlreadyRevealed) {
		t.Errorf("double reveal: expected CELL_ALREADY_REVEALED, got %v", err)
	}
	if _, err := round.Reveal(ctx, 25); !errors.Is(err, engine.ErrIndexOutOfRange) {
		t.Errorf("reveal 25: expected INDEX_OUT_OF_RANGE, got %v", err)
	}

	if _, err := round.CashOut(ctx); err != nil {
		t.Fatal(err)
	}
	if err := round.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if round.Status() != engine.StatusIdle || round.Field() != nil {
		t.Error("reset should return to idle and drop the field")
	}
	if err := round.StartRound(ctx, 1, 2); err != nil {
		t.Errorf("new round after reset failed: %v", err)
	}
}
