// Package catalog loads the card definitions the gacha draws from.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/models"
)

const fallbackImage = "https://placehold.co/220x308/FF0000/FFFFFF?text=Error+Card"

// FallbackCards is served when the cards file cannot be used.
var FallbackCards = []models.Card{
	{ID: "default1", Title: "Fallback Common", Rarity: "Common", Value: 5, Image: fallbackImage},
	{ID: "default2", Title: "Fallback Rare", Rarity: "Rare", Value: 50, Image: fallbackImage},
}

// Parse decodes a JSON array of cards.
func Parse(data []byte) (*engine.Catalog, error) {
	var cards []models.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("decode cards: %w", err)
	}
	return engine.NewCatalog(cards)
}

// Load reads path, falling back to FallbackCards when the file is missing or
// invalid. The second result reports whether the fallback was used.
func Load(path string, logger *zap.Logger) (*engine.Catalog, bool) {
	catalog, err := loadFile(path)
	if err == nil {
		logger.Info("loaded card catalog", zap.String("path", path), zap.Int("cards", catalog.Len()))
		return catalog, false
	}

	logger.Error("cannot load card catalog, using fallback cards",
		zap.String("path", path),
		zap.Error(err))

	fallback, err := engine.NewCatalog(FallbackCards)
	if err != nil {
		panic(err)
	}
	return fallback, true
}

func loadFile(path string) (*engine.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	return Parse(data)
}
