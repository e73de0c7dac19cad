package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/models"
)

// StartMines opens a round for userID. A resolved round is cleared first, so
// the player can start again without an explicit reset.
func (s *GameService) StartMines(ctx context.Context, userID string, bet float64, mines int) (*models.MinesRoundResponse, error) {
	if !s.settings.Mines.IsAvailable(mines) {
		return nil, gameError(engine.CodeInvalidRiskLevel, nil, "%d mines is not an available option", mines)
	}
	if bet < s.settings.Mines.MinBet {
		return nil, gameError(engine.CodeInvalidStake, nil, "minimum bet is %s", models.FormatCurrency(s.settings.Mines.MinBet))
	}
	if s.settings.Mines.MaxBet > 0 && bet > s.settings.Mines.MaxBet {
		return nil, gameError(engine.CodeInvalidStake, nil, "maximum bet is %s", models.FormatCurrency(s.settings.Mines.MaxBet))
	}

	p, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	if status := p.session.Mines.Status(); status == engine.StatusWon || status == engine.StatusLost {
		if err := p.session.Mines.Reset(); err != nil {
			return nil, err
		}
		p.round = nil
	}

	// The nonce is only spent when the round actually starts.
	p.rng.reseed(p.seed.roundSeed())

	now := s.now()
	if err := p.session.StartRound(ctx, now, bet, mines); err != nil {
		return nil, err
	}
	p.round = &roundInfo{
		id:         models.GenerateGameID(),
		nonce:      p.seed.nonce,
		clientSeed: p.seed.clientSeed,
		serverHash: p.seed.ServerHash(),
		startedAt:  now,
	}
	p.seed.nonce++

	balance, err := s.balance(ctx, p.session.Ledger)
	if err != nil {
		return nil, err
	}
	s.recordTransaction(ctx, userID, models.TransactionTypeBet, bet, balance, p.round.id,
		fmt.Sprintf("Placed %s bet on mines with %d mines", models.FormatCurrency(bet), mines))

	resp := s.roundResponse(p, p.session.Mines.State(), balance)
	s.broadcaster.BroadcastBalance(userID, balance)
	s.broadcaster.BroadcastRoundUpdate(userID, resp)
	return resp, nil
}

func (s *GameService) RevealMine(ctx context.Context, userID string, position int) (*models.MinesRevealResponse, error) {
	p, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	result, err := p.session.Mines.Reveal(ctx, position)
	if err != nil {
		return nil, err
	}

	gameOver := result.State.Status == engine.StatusWon || result.State.Status == engine.StatusLost
	if gameOver {
		s.finishRound(ctx, p, result.State)
	}

	balance, err := s.balance(ctx, p.session.Ledger)
	if err != nil {
		return nil, err
	}

	resp := &models.MinesRevealResponse{
		Position: position,
		IsMine:   result.Mine,
		GameOver: gameOver,
		Round:    *s.roundResponse(p, result.State, balance),
	}
	if result.State.Status == engine.StatusWon {
		s.broadcaster.BroadcastBalance(userID, balance)
	}
	s.broadcaster.BroadcastRoundUpdate(userID, &resp.Round)
	return resp, nil
}

func (s *GameService) CashOutMines(ctx context.Context, userID string) (*models.MinesRoundResponse, error) {
	p, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	state, err := p.session.Mines.CashOut(ctx)
	if err != nil {
		return nil, err
	}
	s.finishRound(ctx, p, state)

	balance, err := s.balance(ctx, p.session.Ledger)
	if err != nil {
		return nil, err
	}

	resp := s.roundResponse(p, state, balance)
	s.broadcaster.BroadcastBalance(userID, balance)
	s.broadcaster.BroadcastRoundUpdate(userID, resp)
	return resp, nil
}

func (s *GameService) ResetMines(ctx context.Context, userID string) (*models.MinesRoundResponse, error) {
	p, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	if err := p.session.Mines.Reset(); err != nil {
		return nil, err
	}
	p.round = nil

	balance, err := s.balance(ctx, p.session.Ledger)
	if err != nil {
		return nil, err
	}
	return s.roundResponse(p, p.session.Mines.State(), balance), nil
}

func (s *GameService) MinesState(ctx context.Context, userID string) (*models.MinesRoundResponse, error) {
	p, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	balance, err := s.balance(ctx, p.session.Ledger)
	if err != nil {
		return nil, err
	}
	return s.roundResponse(p, p.session.Mines.State(), balance), nil
}

func (s *GameService) PayoutCurve(mines int) (*models.PayoutCurveResponse, error) {
	curve := s.payouts.Curve(mines)
	if curve == nil {
		return nil, gameError(engine.CodeInvalidRiskLevel, nil, "no payout curve for %d mines", mines)
	}
	return &models.PayoutCurveResponse{
		Mines:       mines,
		GridSize:    s.payouts.FieldSize(),
		Multipliers: curve,
	}, nil
}

// finishRound writes the history record of a resolved round and, for a win,
// the credit transaction.
func (s *GameService) finishRound(ctx context.Context, p *player, state engine.RoundState) {
	if p.round == nil {
		return
	}

	record := &models.RoundRecord{
		ID:             p.round.id,
		UserID:         p.id,
		GameType:       models.GameTypeMines,
		BetAmount:      state.Stake,
		Mines:          state.RiskLevel,
		RevealedSafe:   state.RevealedSafe,
		Multiplier:     state.Multiplier.Value,
		Payout:         state.Payout,
		MinePositions:  state.Mines,
		ClientSeed:     p.round.clientSeed,
		ServerSeedHash: p.round.serverHash,
		Nonce:          p.round.nonce,
		Status:         state.Status.String(),
		StartedAt:      p.round.startedAt,
		EndedAt:        s.now(),
	}
	if state.Status == engine.StatusLost {
		record.Multiplier = 0
	}

	if err := s.history.SaveRound(ctx, record); err != nil {
		s.logger.Warn("failed to record round",
			zap.String("user_id", p.id),
			zap.String("game_id", record.ID),
			zap.Error(err))
	}

	if state.Status == engine.StatusWon {
		balance, err := s.balance(ctx, p.session.Ledger)
		if err != nil {
			s.logger.Warn("failed to read balance for win transaction", zap.String("user_id", p.id), zap.Error(err))
			return
		}
		s.recordTransaction(ctx, p.id, models.TransactionTypeWin, state.Payout, balance, record.ID,
			fmt.Sprintf("Won %s on mines (%.2fx)", models.FormatCurrency(state.Payout), state.Multiplier.Value))
	}
}

func (s *GameService) roundResponse(p *player, state engine.RoundState, balance float64) *models.MinesRoundResponse {
	resp := &models.MinesRoundResponse{
		Status:          state.Status.String(),
		BetAmount:       state.Stake,
		Mines:           state.RiskLevel,
		GridSize:        state.FieldSize,
		Revealed:        state.Revealed,
		RevealedSafe:    state.RevealedSafe,
		Multiplier:      state.Multiplier.Value,
		PotentialPayout: state.PotentialPayout,
		Payout:          state.Payout,
		MinePositions:   state.Mines,
		Balance:         balance,
	}
	if p.round != nil {
		resp.GameID = p.round.id
	}
	return resp
}
