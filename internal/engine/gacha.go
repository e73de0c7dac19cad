package engine

import (
	"context"
	"math"

	"go.uber.org/zap"

	"dvms-arcade-backend/internal/models"
)

// RarityWeight is the relative draw chance of one rarity tier. Weights need
// not sum to one; draws normalize by the total.
type RarityWeight struct {
	Rarity string  `json:"rarity" yaml:"rarity"`
	Weight float64 `json:"weight" yaml:"weight"`
}

type Catalog struct {
	cards    []models.Card
	byRarity map[string][]models.Card
}

func NewCatalog(cards []models.Card) (*Catalog, error) {
	c := &Catalog{
		cards:    make([]models.Card, 0, len(cards)),
		byRarity: make(map[string][]models.Card),
	}
	seen := make(map[string]bool, len(cards))
	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return nil, wrapError(CodeInvalidConfiguration, err, "catalog")
		}
		if seen[card.ID] {
			return nil, newError(CodeInvalidConfiguration, "duplicate card id %s", card.ID)
		}
		seen[card.ID] = true
		c.cards = append(c.cards, card)
		c.byRarity[card.Rarity] = append(c.byRarity[card.Rarity], card)
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.cards) }

func (c *Catalog) Cards() []models.Card {
	return append([]models.Card(nil), c.cards...)
}

// RollResult tells which path produced the card. FallbackUsed is set when the
// drawn tier had no cards and the card came from the whole catalog instead;
// Fallback then carries the NO_CARDS_IN_TIER reason.
type RollResult struct {
	Card         models.Card
	Rarity       string
	FallbackUsed bool
	Fallback     error
}

func weightTotal(weights []RarityWeight) (float64, error) {
	total := 0.0
	for _, w := range weights {
		if math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) || w.Weight < 0 {
			return 0, newError(CodeInvalidConfiguration, "rarity %s has invalid weight %v", w.Rarity, w.Weight)
		}
		total += w.Weight
	}
	return total, nil
}

// Roll draws a rarity tier by weight, then a card uniformly within it.
func Roll(weights []RarityWeight, catalog *Catalog, rng RandomSource) (RollResult, error) {
	if catalog == nil || catalog.Len() == 0 {
		return RollResult{}, newError(CodeEmptyCatalog, "catalog has no cards")
	}
	total, err := weightTotal(weights)
	if err != nil {
		return RollResult{}, err
	}
	if total == 0 {
		return RollResult{}, newError(CodeEmptyCatalog, "rarity weights sum to zero")
	}

	f, err := rng.Float64()
	if err != nil {
		return RollResult{}, wrapError(CodeRandomSourceFailure, err, "draw rarity")
	}
	target := f * total
	rarity := ""
	cumulative := 0.0
	for _, w := range weights {
		if w.Weight == 0 {
			continue
		}
		// the last positive tier absorbs float rounding at the top end
		rarity = w.Rarity
		cumulative += w.Weight
		if target < cumulative {
			break
		}
	}

	pool := catalog.byRarity[rarity]
	result := RollResult{Rarity: rarity}
	if len(pool) == 0 {
		pool = catalog.cards
		result.FallbackUsed = true
		result.Fallback = newError(CodeNoCardsInTier, "no cards for rarity %s", rarity)
	}

	idx, err := rng.IntN(len(pool))
	if err != nil {
		return RollResult{}, wrapError(CodeRandomSourceFailure, err, "draw card")
	}
	result.Card = pool[idx]
	return result, nil
}

// SellCards removes quantity copies of cardID from user and credits their
// value. Nothing changes on failure.
func SellCards(user *models.UserData, cardID string, quantity int, maxBalance float64) (float64, error) {
	if quantity < 1 {
		return 0, newError(CodeInvalidConfiguration, "quantity must be at least 1, got %d", quantity)
	}
	entry, ok := user.Inventory[cardID]
	if !ok || entry.Count < quantity {
		return 0, newError(CodeInsufficientQuantity, "have %d of %s, want to sell %d", entry.Count, cardID, quantity)
	}
	if err := user.Inventory.Remove(cardID, quantity); err != nil {
		return 0, wrapError(CodeInsufficientQuantity, err, "sell %s", cardID)
	}
	credited := models.MulMoney(entry.Value, float64(quantity))
	user.Credit(credited, maxBalance)
	return credited, nil
}

// SellAllCards empties the inventory and credits value*count for every entry.
func SellAllCards(user *models.UserData, maxBalance float64) float64 {
	total := user.Inventory.Worth()
	user.Inventory = models.Inventory{}
	user.Credit(total, maxBalance)
	return total
}

// GachaRoller draws cards into a player's inventory and sells them back.
type GachaRoller struct {
	catalog    *Catalog
	weights    []RarityWeight
	rng        RandomSource
	ledger     Ledger
	rollCost   float64
	maxBalance float64
	logger     *zap.Logger
}

type RollerOption func(*GachaRoller)

// WithRollCost debits cost from the balance on every roll. Zero keeps rolls free.
func WithRollCost(cost float64) RollerOption {
	return func(g *GachaRoller) {
		g.rollCost = cost
	}
}

func WithRollerMaxBalance(max float64) RollerOption {
	return func(g *GachaRoller) {
		g.maxBalance = max
	}
}

func WithRollerLogger(logger *zap.Logger) RollerOption {
	return func(g *GachaRoller) {
		g.logger = logger
	}
}

func NewGachaRoller(catalog *Catalog, weights []RarityWeight, rng RandomSource, ledger Ledger, opts ...RollerOption) (*GachaRoller, error) {
	if catalog == nil || rng == nil || ledger == nil {
		return nil, newError(CodeInvalidConfiguration, "catalog, random source and ledger are required")
	}
	if _, err := weightTotal(weights); err != nil {
		return nil, err
	}
	g := &GachaRoller{
		catalog:    catalog,
		weights:    append([]RarityWeight(nil), weights...),
		rng:        rng,
		ledger:     ledger,
		maxBalance: models.DefaultMaxBalance,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rollCost < 0 || math.IsNaN(g.rollCost) {
		return nil, newError(CodeInvalidConfiguration, "roll cost cannot be negative")
	}
	return g, nil
}

func (g *GachaRoller) Catalog() *Catalog { return g.catalog }

func (g *GachaRoller) RollCost() float64 { return g.rollCost }

// Roll draws one card and stores it in the inventory, paying the roll cost in
// the same ledger write.
func (g *GachaRoller) Roll(ctx context.Context) (RollResult, models.InventoryEntry, error) {
	result, err := Roll(g.weights, g.catalog, g.rng)
	if err != nil {
		return RollResult{}, models.InventoryEntry{}, err
	}
	if result.FallbackUsed {
		g.logger.Warn("no cards in rolled tier, drew from the whole catalog",
			zap.String("rarity", result.Rarity),
			zap.String("card_id", result.Card.ID))
	}

	var entry models.InventoryEntry
	err = applyLedger(ctx, g.ledger, func(user *models.UserData) error {
		if g.rollCost > 0 {
			if user.Balance < g.rollCost {
				return newError(CodeInsufficientBalance, "roll costs %.2f, balance is %.2f", g.rollCost, user.Balance)
			}
			if err := user.Debit(g.rollCost); err != nil {
				return err
			}
		}
		user.Normalize()
		entry = user.Inventory.Add(result.Card)
		return nil
	})
	if err != nil {
		return RollResult{}, models.InventoryEntry{}, err
	}
	return result, entry, nil
}

func (g *GachaRoller) Sell(ctx context.Context, cardID string, quantity int) (float64, error) {
	var credited float64
	err := applyLedger(ctx, g.ledger, func(user *models.UserData) error {
		var err error
		credited, err = SellCards(user, cardID, quantity, g.maxBalance)
		return err
	})
	if err != nil {
		return 0, err
	}
	return credited, nil
}

// SellAll clears the inventory and credits its total worth in one ledger
// write, so a failed write leaves both untouched.
func (g *GachaRoller) SellAll(ctx context.Context) (float64, error) {
	var credited float64
	err := applyLedger(ctx, g.ledger, func(user *models.UserData) error {
		credited = SellAllCards(user, g.maxBalance)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return credited, nil
}
