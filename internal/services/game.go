package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"dvms-arcade-backend/internal/config"
	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/models"
)

// GameService hosts one engine.Session per player. Calls for the same player
// are serialized; different players never share mutable state.
type GameService struct {
	store       LedgerStore
	history     HistoryStore
	catalog     *engine.Catalog
	payouts     *engine.PayoutTable
	settings    *config.GameSettings
	broadcaster Broadcaster
	logger      *zap.Logger
	now         func() time.Time

	mu      sync.Mutex
	players map[string]*player
	// parked keeps the limiter state of evicted players until it runs out.
	parked map[string]parkedLimits
}

type parkedLimits struct {
	rolls engine.LimiterState
	bets  engine.LimiterState
}

func (l parkedLimits) pending(now time.Time) bool {
	return l.rolls.Pending(now) || l.bets.Pending(now)
}

type player struct {
	mu       sync.Mutex
	id       string
	session  *engine.Session
	rng      *roundRandom
	seed     *FairSeed
	round    *roundInfo
	lastSeen time.Time
	evicted  bool
}

// roundInfo is what the history record needs beyond the engine state.
type roundInfo struct {
	id         string
	nonce      int64
	clientSeed string
	serverHash string
	startedAt  time.Time
}

type GameOption func(*GameService)

// WithClock replaces time.Now for limiter and idle bookkeeping.
func WithClock(now func() time.Time) GameOption {
	return func(s *GameService) {
		s.now = now
	}
}

func NewGameService(store LedgerStore, history HistoryStore, catalog *engine.Catalog, settings *config.GameSettings, logger *zap.Logger, opts ...GameOption) (*GameService, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game settings: %w", err)
	}
	payouts, err := settings.Mines.PayoutTable()
	if err != nil {
		return nil, err
	}

	if ok, total := settings.Gacha.WeightsNormalized(); !ok {
		logger.Warn("rarity weights do not sum to 1, draws are normalized by their total",
			zap.Float64("total", total))
	}

	s := &GameService{
		store:       store,
		history:     history,
		catalog:     catalog,
		payouts:     payouts,
		settings:    settings,
		broadcaster: nopBroadcaster{},
		logger:      logger,
		now:         time.Now,
		players:     make(map[string]*player),
		parked:      make(map[string]parkedLimits),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetBroadcaster wires live pushes; call it before serving requests.
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// acquire returns the player's session locked; the caller unlocks p.mu.
func (s *GameService) acquire(userID string) (*player, error) {
	for {
		s.mu.Lock()
		p, ok := s.players[userID]
		if !ok {
			var err error
			p, err = s.newPlayer(userID)
			if err != nil {
				s.mu.Unlock()
				return nil, err
			}
			s.players[userID] = p
		}
		s.mu.Unlock()

		p.mu.Lock()
		if p.evicted {
			p.mu.Unlock()
			continue
		}
		p.lastSeen = s.now()
		return p, nil
	}
}

func (s *GameService) newPlayer(userID string) (*player, error) {
	ledger := s.store.Ledger(userID)
	rng := &roundRandom{src: engine.NewSeededRandom(0)}

	mines, err := engine.NewRoundEngine(s.payouts, ledger, rng, engine.WithMaxBalance(s.settings.MaxBalance))
	if err != nil {
		return nil, err
	}

	gachaRandom, err := engine.NewRandom()
	if err != nil {
		return nil, gameError(engine.CodeRandomSourceFailure, err, "seed card roller")
	}
	gacha, err := engine.NewGachaRoller(s.catalog, s.settings.Gacha.RarityWeights, gachaRandom, ledger,
		engine.WithRollCost(s.settings.Gacha.RollCost),
		engine.WithRollerMaxBalance(s.settings.MaxBalance),
		engine.WithRollerLogger(s.logger.With(zap.String("user_id", userID))))
	if err != nil {
		return nil, err
	}

	// A returning player picks up the quota they left with.
	limits := s.parked[userID]
	rolls, err := engine.RestoreRollRateLimiter(s.settings.Gacha.RollLimiter.MaxActions, s.settings.Gacha.RollLimiter.Window, limits.rolls)
	if err != nil {
		return nil, err
	}
	bets, err := engine.RestoreRollRateLimiter(s.settings.Mines.BetLimiter.MaxActions, s.settings.Mines.BetLimiter.Window, limits.bets)
	if err != nil {
		return nil, err
	}
	delete(s.parked, userID)

	seed, err := NewFairSeed()
	if err != nil {
		return nil, gameError(engine.CodeRandomSourceFailure, err, "create fair seed")
	}

	return &player{
		id: userID,
		session: &engine.Session{
			PlayerID:    userID,
			Ledger:      ledger,
			Mines:       mines,
			Gacha:       gacha,
			RollLimiter: rolls,
			BetLimiter:  bets,
		},
		rng:  rng,
		seed: seed,
	}, nil
}

// CleanupIdleSessions drops sessions unused for maxIdle. Sessions with an
// Active round are kept however old they are. Limiter state still counting
// against a quota is parked and restored when the player comes back.
func (s *GameService) CleanupIdleSessions(maxIdle time.Duration) int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, p := range s.players {
		if !p.mu.TryLock() {
			continue
		}
		if now.Sub(p.lastSeen) > maxIdle && p.session.Idle() {
			limits := parkedLimits{
				rolls: p.session.RollLimiter.State(),
				bets:  p.session.BetLimiter.State(),
			}
			if limits.pending(now) {
				s.parked[id] = limits
			}
			p.evicted = true
			delete(s.players, id)
			evicted++
		}
		p.mu.Unlock()
	}

	for id, limits := range s.parked {
		if !limits.pending(now) {
			delete(s.parked, id)
		}
	}

	if evicted > 0 {
		s.logger.Info("evicted idle sessions", zap.Int("count", evicted), zap.Int("remaining", len(s.players)))
	}
	return evicted
}

func (s *GameService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

func (s *GameService) balance(ctx context.Context, ledger engine.Ledger) (float64, error) {
	user, err := ledger.Snapshot(ctx)
	if err != nil {
		return 0, gameError(engine.CodeStorageFailure, err, "read balance")
	}
	return user.Balance, nil
}

// recordTransaction logs instead of failing: the ledger change it describes
// is already committed.
func (s *GameService) recordTransaction(ctx context.Context, userID string, txType models.TransactionType, amount, balanceAfter float64, gameID, description string) {
	before := balanceAfter
	switch txType {
	case models.TransactionTypeBet, models.TransactionTypeRoll:
		before = models.AddMoney(balanceAfter, amount)
	case models.TransactionTypeWin, models.TransactionTypeSell:
		before = models.SubMoney(balanceAfter, amount)
	}

	tx := &models.Transaction{
		ID:            models.GenerateTransactionID(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  balanceAfter,
		GameID:        gameID,
		Description:   description,
		CreatedAt:     s.now(),
	}
	if err := s.history.SaveTransaction(ctx, tx); err != nil {
		s.logger.Warn("failed to record transaction",
			zap.String("user_id", userID),
			zap.String("type", string(txType)),
			zap.Error(err))
	}
}

func (s *GameService) History(ctx context.Context, userID string, limit int64) ([]*models.RoundRecord, error) {
	rounds, err := s.history.GetRoundHistory(ctx, userID, limit)
	if err != nil {
		return nil, gameError(engine.CodeStorageFailure, err, "read round history")
	}
	return rounds, nil
}

func (s *GameService) Transactions(ctx context.Context, userID string, limit int64) ([]*models.Transaction, error) {
	txs, err := s.history.GetUserTransactions(ctx, userID, limit)
	if err != nil {
		return nil, gameError(engine.CodeStorageFailure, err, "read transactions")
	}
	return txs, nil
}

func (s *GameService) Config() *models.GameConfigResponse {
	rates := make([]models.DropRate, 0, len(s.settings.Gacha.RarityWeights))
	for _, w := range s.settings.Gacha.RarityWeights {
		rates = append(rates, models.DropRate{Rarity: w.Rarity, Weight: w.Weight})
	}
	return &models.GameConfigResponse{
		GridSize:          s.payouts.FieldSize(),
		AvailableMines:    append([]int(nil), s.settings.Mines.AvailableMines...),
		MinBet:            s.settings.Mines.MinBet,
		MaxBet:            s.settings.Mines.MaxBet,
		DropRates:         rates,
		RollCost:          s.settings.Gacha.RollCost,
		MaxRolls:          s.settings.Gacha.RollLimiter.MaxActions,
		RollWindowSeconds: s.settings.Gacha.RollLimiter.Window.Seconds(),
	}
}

// gameError builds an engine error for failures detected outside the engine.
func gameError(code engine.Code, err error, format string, args ...any) *engine.Error {
	return &engine.Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}
