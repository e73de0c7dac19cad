package services

import (
	"context"
	"fmt"

	"dvms-arcade-backend/internal/models"
)

func (s *GameService) Cards() []models.Card {
	return s.catalog.Cards()
}

func (s *GameService) CardImages() []models.CardImage {
	cards := s.catalog.Cards()
	images := make([]models.CardImage, 0, len(cards))
	for _, card := range cards {
		images = append(images, models.CardImage{ID: card.ID, Image: card.Image})
	}
	return images
}

// Roll draws one card into the player's inventory, subject to the roll
// limiter.
func (s *GameService) Roll(ctx context.Context, userID string) (*models.RollResponse, error) {
	p, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	now := s.now()
	result, entry, err := p.session.Roll(ctx, now)
	if err != nil {
		return nil, err
	}

	balance, err := s.balance(ctx, p.session.Ledger)
	if err != nil {
		return nil, err
	}
	remaining, _ := p.session.RollStatus(now)

	cost := p.session.Gacha.RollCost()
	s.recordTransaction(ctx, userID, models.TransactionTypeRoll, cost, balance, "",
		fmt.Sprintf("Rolled %s (%s)", result.Card.Title, result.Card.Rarity))
	if cost > 0 {
		s.broadcaster.BroadcastBalance(userID, balance)
	}

	return &models.RollResponse{
		Card:         result.Card,
		FallbackUsed: result.FallbackUsed,
		Count:        entry.Count,
		Remaining:    remaining,
		Balance:      balance,
	}, nil
}

func (s *GameService) RollStatus(userID string) (*models.RollStatusResponse, error) {
	p, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	remaining, reset := p.session.RollStatus(s.now())
	return &models.RollStatusResponse{
		Remaining:  remaining,
		MaxRolls:   p.session.RollLimiter.MaxActions(),
		RetryAfter: reset.Seconds(),
	}, nil
}

// Sell sells quantity copies of a card; zero means one.
func (s *GameService) Sell(ctx context.Context, userID, cardID string, quantity int) (*models.SellResponse, error) {
	if quantity == 0 {
		quantity = 1
	}

	p, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	credited, err := p.session.Gacha.Sell(ctx, cardID, quantity)
	if err != nil {
		return nil, err
	}
	return s.afterSale(ctx, p, credited, fmt.Sprintf("Sold %d x %s", quantity, cardID))
}

func (s *GameService) SellAll(ctx context.Context, userID string) (*models.SellResponse, error) {
	p, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	credited, err := p.session.Gacha.SellAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.afterSale(ctx, p, credited, "Sold all cards")
}

func (s *GameService) afterSale(ctx context.Context, p *player, credited float64, description string) (*models.SellResponse, error) {
	balance, err := s.balance(ctx, p.session.Ledger)
	if err != nil {
		return nil, err
	}
	s.recordTransaction(ctx, p.id, models.TransactionTypeSell, credited, balance, "", description)
	s.broadcaster.BroadcastBalance(p.id, balance)
	return &models.SellResponse{Credited: credited, Balance: balance}, nil
}
