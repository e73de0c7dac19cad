package services

import (
	"context"

	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/models"
)

func (s *GameService) UserData(ctx context.Context, userID string) (*models.UserData, error) {
	user, err := s.store.Ledger(userID).Snapshot(ctx)
	if err != nil {
		return nil, gameError(engine.CodeStorageFailure, err, "read user data")
	}
	return user, nil
}

// SaveUserData replaces the stored record. It is refused while the player has
// an Active round, whose stake is already out of the balance.
func (s *GameService) SaveUserData(ctx context.Context, userID string, data *models.UserData) error {
	data = data.Clone()
	data.Normalize()
	if err := data.Validate(); err != nil {
		return gameError(engine.CodeInvalidConfiguration, err, "invalid user data")
	}
	if data.Balance > s.settings.MaxBalance {
		return gameError(engine.CodeInvalidConfiguration, nil, "balance exceeds the maximum of %s", models.FormatCurrency(s.settings.MaxBalance))
	}

	p, err := s.acquire(userID)
	if err != nil {
		return err
	}
	defer p.mu.Unlock()

	if !p.session.Idle() {
		return gameError(engine.CodeInvalidRoundState, nil, "cannot overwrite user data during an active round")
	}

	err = p.session.Ledger.Update(ctx, func(user *models.UserData) error {
		*user = *data
		return nil
	})
	if err != nil {
		return gameError(engine.CodeStorageFailure, err, "save user data")
	}

	s.broadcaster.BroadcastBalance(userID, data.Balance)
	return nil
}

func (s *GameService) Balance(ctx context.Context, userID string) (*models.BalanceResponse, error) {
	user, err := s.UserData(ctx, userID)
	if err != nil {
		return nil, err
	}

	cards := 0
	for _, entry := range user.Inventory {
		cards += entry.Count
	}
	return &models.BalanceResponse{
		Balance:        user.Balance,
		InventoryWorth: user.Inventory.Worth(),
		InventoryCards: cards,
	}, nil
}

func (s *GameService) VerificationData(userID string) (*models.VerificationData, error) {
	p, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()
	return p.seed.Data(), nil
}

// RotateSeed reveals the player's server seed and starts a new pair. Not
// allowed mid-round, since the revealed seed would expose the mines.
func (s *GameService) RotateSeed(userID, clientSeed string) (*models.RotateSeedResponse, error) {
	if len(clientSeed) > 64 {
		return nil, gameError(engine.CodeInvalidConfiguration, nil, "client seed is limited to 64 characters")
	}

	p, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	if !p.session.Idle() {
		return nil, gameError(engine.CodeInvalidRoundState, nil, "cannot rotate seeds during an active round")
	}
	resp, err := p.seed.Rotate(clientSeed)
	if err != nil {
		return nil, gameError(engine.CodeRandomSourceFailure, err, "rotate seed")
	}
	return resp, nil
}

// Verify replays a round's mine placement from its revealed seeds.
func (s *GameService) Verify(req *models.VerifyRequest) (*models.VerifyResponse, error) {
	positions, err := VerifyMines(req.ServerSeed, req.ClientSeed, req.Nonce, s.payouts.FieldSize(), req.Mines)
	if err != nil {
		return nil, err
	}
	return &models.VerifyResponse{
		ServerHash:    HashServerSeed(req.ServerSeed),
		MinePositions: positions,
	}, nil
}
