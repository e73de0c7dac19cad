package engine

import (
	"context"
	"math"

	"dvms-arcade-backend/internal/models"
)

type Status int

const (
	StatusIdle Status = iota
	StatusActive
	StatusWon
	StatusLost
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	case StatusWon:
		return "won"
	case StatusLost:
		return "lost"
	default:
		return "unknown"
	}
}

// RoundState is a read-only view of the round for display.
type RoundState struct {
	Status          Status
	Stake           float64
	RiskLevel       int
	FieldSize       int
	Revealed        []int
	RevealedSafe    int
	Multiplier      Multiplier
	PotentialPayout float64
	Payout          float64
	// Mines is only filled once the round is resolved.
	Mines []int
}

type RevealResult struct {
	Cell  int
	Mine  bool
	State RoundState
}

// RoundEngine runs one Mines round at a time:
//
//	Idle -> Active -> {Won, Lost} -> Idle
//
// The stake is debited exactly once, in StartRound, and the payout credited
// exactly once, when the round becomes Won.
type RoundEngine struct {
	payouts    *PayoutTable
	ledger     Ledger
	rng        RandomSource
	maxBalance float64

	status       Status
	stake        float64
	riskLevel    int
	field        *MineField
	revealed     []bool
	order        []int
	revealedSafe int
	payout       float64
}

type RoundOption func(*RoundEngine)

// WithMaxBalance caps the balance reached by a credit.
func WithMaxBalance(max float64) RoundOption {
	return func(e *RoundEngine) {
		e.maxBalance = max
	}
}

func NewRoundEngine(payouts *PayoutTable, ledger Ledger, rng RandomSource, opts ...RoundOption) (*RoundEngine, error) {
	if payouts == nil || ledger == nil || rng == nil {
		return nil, newError(CodeInvalidConfiguration, "payout table, ledger and random source are required")
	}
	e := &RoundEngine{
		payouts:    payouts,
		ledger:     ledger,
		rng:        rng,
		maxBalance: models.DefaultMaxBalance,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *RoundEngine) FieldSize() int { return e.payouts.FieldSize() }

func (e *RoundEngine) Status() Status { return e.status }

// Field is the current round's mine field, nil while Idle.
func (e *RoundEngine) Field() *MineField { return e.field }

// StartRound validates everything before touching the ledger; the debit is
// the last step, so a failure leaves the engine Idle and the balance intact.
func (e *RoundEngine) StartRound(ctx context.Context, stake float64, riskLevel int) error {
	if e.status != StatusIdle {
		return newError(CodeInvalidRoundState, "a round is already %s", e.status)
	}
	if math.IsNaN(stake) || math.IsInf(stake, 0) || stake <= 0 {
		return newError(CodeInvalidStake, "stake must be a positive amount, got %v", stake)
	}
	size := e.payouts.FieldSize()
	if riskLevel < 1 || riskLevel >= size {
		return newError(CodeInvalidRiskLevel, "mine count must be between 1 and %d, got %d", size-1, riskLevel)
	}

	field, err := GenerateMineField(size, riskLevel, e.rng)
	if err != nil {
		return err
	}

	err = applyLedger(ctx, e.ledger, func(user *models.UserData) error {
		if user.Balance < stake {
			return newError(CodeInsufficientBalance, "insufficient balance: have %.2f, need %.2f", user.Balance, stake)
		}
		return user.Debit(stake)
	})
	if err != nil {
		return err
	}

	e.status = StatusActive
	e.stake = stake
	e.riskLevel = riskLevel
	e.field = field
	e.revealed = make([]bool, size)
	e.order = e.order[:0]
	e.revealedSafe = 0
	e.payout = 0
	return nil
}

// Reveal opens one cell. Clearing every safe cell settles the round as a
// cash out. If that credit fails the cell stays revealed, the round stays
// Active and CashOut can be retried.
func (e *RoundEngine) Reveal(ctx context.Context, cell int) (RevealResult, error) {
	if err := e.requireActive(); err != nil {
		return RevealResult{}, err
	}
	mine, err := e.field.IsMine(cell)
	if err != nil {
		return RevealResult{}, err
	}
	if e.revealed[cell] {
		return RevealResult{}, newError(CodeCellAlreadyRevealed, "cell %d is already revealed", cell)
	}

	e.revealed[cell] = true
	e.order = append(e.order, cell)

	if mine {
		e.status = StatusLost
		e.payout = 0
		return RevealResult{Cell: cell, Mine: true, State: e.State()}, nil
	}

	e.revealedSafe++
	if e.revealedSafe == e.field.Size()-e.riskLevel {
		if err := e.settle(ctx); err != nil {
			return RevealResult{Cell: cell, State: e.State()}, err
		}
	}
	return RevealResult{Cell: cell, State: e.State()}, nil
}

func (e *RoundEngine) CashOut(ctx context.Context) (RoundState, error) {
	if err := e.requireActive(); err != nil {
		return RoundState{}, err
	}
	if e.revealedSafe < 1 {
		return RoundState{}, newError(CodeNothingToCashOut, "reveal at least one safe cell before cashing out")
	}
	if err := e.settle(ctx); err != nil {
		return e.State(), err
	}
	return e.State(), nil
}

// Reset discards a resolved round.
func (e *RoundEngine) Reset() error {
	switch e.status {
	case StatusIdle:
		return newError(CodeNoActiveRound, "no round to reset")
	case StatusActive:
		return newError(CodeInvalidRoundState, "cannot reset an active round")
	}

	e.status = StatusIdle
	e.stake = 0
	e.riskLevel = 0
	e.field = nil
	e.revealed = nil
	e.order = nil
	e.revealedSafe = 0
	e.payout = 0
	return nil
}

func (e *RoundEngine) State() RoundState {
	state := RoundState{
		Status:       e.status,
		Stake:        e.stake,
		RiskLevel:    e.riskLevel,
		FieldSize:    e.payouts.FieldSize(),
		Revealed:     append([]int{}, e.order...),
		RevealedSafe: e.revealedSafe,
		Payout:       e.payout,
	}
	if e.status == StatusIdle {
		state.Multiplier = Multiplier{Value: 1.0, Default: true}
		return state
	}

	state.Multiplier = e.payouts.Lookup(e.riskLevel, e.revealedSafe)
	state.PotentialPayout = models.CalculatePayout(e.stake, state.Multiplier.Value)
	if e.status == StatusWon || e.status == StatusLost {
		state.Mines = e.field.Mines()
	}
	return state
}

func (e *RoundEngine) requireActive() error {
	switch e.status {
	case StatusActive:
		return nil
	case StatusIdle:
		return newError(CodeNoActiveRound, "no active round")
	default:
		return newError(CodeInvalidRoundState, "round already %s", e.status)
	}
}

// settle credits the win; the round turns Won only after the ledger accepted it.
func (e *RoundEngine) settle(ctx context.Context) error {
	amount := models.CalculatePayout(e.stake, e.payouts.MultiplierFor(e.riskLevel, e.revealedSafe))
	err := applyLedger(ctx, e.ledger, func(user *models.UserData) error {
		user.Credit(amount, e.maxBalance)
		return nil
	})
	if err != nil {
		return err
	}
	e.status = StatusWon
	e.payout = amount
	return nil
}
