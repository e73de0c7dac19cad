package models

import (
	"fmt"
	"math"
)

// Card is one entry of the gacha catalog. Value is the resale value credited
// when the card is sold back.
type Card struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title"`
	Rarity string  `json:"rarity" yaml:"rarity"`
	Value  float64 `json:"value" yaml:"value"`
	Image  string  `json:"image,omitempty" yaml:"image"`
}

func (c Card) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("card id is required")
	}
	if c.Title == "" {
		return fmt.Errorf("card %s: title is required", c.ID)
	}
	if c.Rarity == "" {
		return fmt.Errorf("card %s: rarity is required", c.ID)
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) || c.Value < 0 {
		return fmt.Errorf("card %s: invalid value %v", c.ID, c.Value)
	}
	return nil
}

// InventoryEntry is a owned card plus how many copies the player holds.
// It marshals flat, as {...card, count}.
type InventoryEntry struct {
	Card
	Count int `json:"count"`
}

// Inventory is keyed by card id.
type Inventory map[string]InventoryEntry

// Add stores one more copy of card.
func (inv Inventory) Add(card Card) InventoryEntry {
	entry, ok := inv[card.ID]
	if !ok {
		entry = InventoryEntry{Card: card}
	}
	entry.Count++
	inv[card.ID] = entry
	return entry
}

// Remove takes quantity copies out; the entry is dropped once it reaches zero.
func (inv Inventory) Remove(cardID string, quantity int) error {
	entry, ok := inv[cardID]
	if !ok || entry.Count < quantity {
		return fmt.Errorf("not enough copies of %s", cardID)
	}
	entry.Count -= quantity
	if entry.Count == 0 {
		delete(inv, cardID)
		return nil
	}
	inv[cardID] = entry
	return nil
}

// Worth is the sum of value*count over all entries.
func (inv Inventory) Worth() float64 {
	total := 0.0
	for _, entry := range inv {
		total = AddMoney(total, MulMoney(entry.Value, float64(entry.Count)))
	}
	return total
}

func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for id, entry := range inv {
		out[id] = entry
	}
	return out
}

func (inv Inventory) Validate() error {
	for id, entry := range inv {
		if err := entry.Card.Validate(); err != nil {
			return fmt.Errorf("inventory %s: %w", id, err)
		}
		if entry.ID != id {
			return fmt.Errorf("inventory key %s does not match card id %s", id, entry.ID)
		}
		if entry.Count < 1 {
			return fmt.Errorf("inventory %s: count must be at least 1, got %d", id, entry.Count)
		}
	}
	return nil
}
