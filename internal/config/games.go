package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/models"
)

// weightTolerance is how far rarity weights may drift from summing to one
// before the settings are reported as not normalized.
const weightTolerance = 1e-4

// GameSettings is the games.yaml document. Every field is optional; missing
// ones keep the value from DefaultGameSettings.
type GameSettings struct {
	MaxBalance float64       `yaml:"max_balance"`
	Mines      MinesSettings `yaml:"mines"`
	Gacha      GachaSettings `yaml:"gacha"`
}

type MinesSettings struct {
	FieldSize      int     `yaml:"field_size"`
	HouseEdge      float64 `yaml:"house_edge"`
	AvailableMines []int   `yaml:"available_mines"`
	// Payouts replaces the curve of the listed mine counts.
	Payouts    map[int][]float64 `yaml:"payouts"`
	MinBet     float64           `yaml:"min_bet"`
	MaxBet     float64           `yaml:"max_bet"` // 0 means no cap
	BetLimiter LimiterSettings   `yaml:"bet_limiter"`
}

type GachaSettings struct {
	RarityWeights []engine.RarityWeight `yaml:"rarity_weights"`
	RollCost      float64               `yaml:"roll_cost"`
	RollLimiter   LimiterSettings       `yaml:"roll_limiter"`
}

type LimiterSettings struct {
	MaxActions int           `yaml:"max_actions"`
	Window     time.Duration `yaml:"window"`
}

func DefaultGameSettings() *GameSettings {
	return &GameSettings{
		MaxBalance: models.DefaultMaxBalance,
		Mines: MinesSettings{
			FieldSize:      engine.DefaultFieldSize,
			HouseEdge:      engine.DefaultHouseEdge,
			AvailableMines: []int{1, 2, 3, 5, 8, 10, 15, 20},
			Payouts:        map[int][]float64{},
			MinBet:         0.01,
			MaxBet:         0,
			BetLimiter:     LimiterSettings{MaxActions: 30, Window: time.Minute},
		},
		Gacha: GachaSettings{
			RarityWeights: []engine.RarityWeight{
				{Rarity: "Common", Weight: 0.50},
				{Rarity: "Uncommon", Weight: 0.30},
				{Rarity: "Rare", Weight: 0.15},
				{Rarity: "Epic", Weight: 0.04},
				{Rarity: "Legendary", Weight: 0.01},
			},
			RollCost:    0,
			RollLimiter: LimiterSettings{MaxActions: 10, Window: time.Hour},
		},
	}
}

// LoadGameSettings reads path over the defaults. A missing file is not an
// error.
func LoadGameSettings(path string) (*GameSettings, error) {
	settings := DefaultGameSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read game settings: %w", err)
	}

	if err := ParseGameSettings(data, settings); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// ParseGameSettings decodes YAML into settings, keeping fields the document
// leaves out, and validates the result.
func ParseGameSettings(data []byte, settings *GameSettings) error {
	if err := yaml.Unmarshal(data, settings); err != nil {
		return fmt.Errorf("parse game settings: %w", err)
	}
	return settings.Validate()
}

func (s *GameSettings) Validate() error {
	if math.IsNaN(s.MaxBalance) || s.MaxBalance <= 0 {
		return fmt.Errorf("max_balance must be positive")
	}

	m := s.Mines
	if m.FieldSize < 2 {
		return fmt.Errorf("mines.field_size must be at least 2, got %d", m.FieldSize)
	}
	if math.IsNaN(m.HouseEdge) || m.HouseEdge < 0 || m.HouseEdge >= 1 {
		return fmt.Errorf("mines.house_edge must be in [0, 1), got %v", m.HouseEdge)
	}
	if len(m.AvailableMines) == 0 {
		return fmt.Errorf("mines.available_mines cannot be empty")
	}
	for _, mines := range m.AvailableMines {
		if mines < 1 || mines >= m.FieldSize {
			return fmt.Errorf("mines.available_mines: %d outside [1, %d)", mines, m.FieldSize)
		}
	}
	if math.IsNaN(m.MinBet) || m.MinBet < 0 {
		return fmt.Errorf("mines.min_bet cannot be negative")
	}
	if math.IsNaN(m.MaxBet) || m.MaxBet < 0 || (m.MaxBet > 0 && m.MaxBet < m.MinBet) {
		return fmt.Errorf("mines.max_bet must be 0 or at least min_bet")
	}
	if err := m.BetLimiter.validate("mines.bet_limiter"); err != nil {
		return err
	}
	if _, err := m.PayoutTable(); err != nil {
		return err
	}

	g := s.Gacha
	total := 0.0
	for _, w := range g.RarityWeights {
		if w.Rarity == "" {
			return fmt.Errorf("gacha.rarity_weights: rarity name is required")
		}
		if math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) || w.Weight < 0 {
			return fmt.Errorf("gacha.rarity_weights: %s has invalid weight %v", w.Rarity, w.Weight)
		}
		total += w.Weight
	}
	if total <= 0 {
		return fmt.Errorf("gacha.rarity_weights must have a positive total")
	}
	if math.IsNaN(g.RollCost) || g.RollCost < 0 {
		return fmt.Errorf("gacha.roll_cost cannot be negative")
	}
	return g.RollLimiter.validate("gacha.roll_limiter")
}

func (l LimiterSettings) validate(name string) error {
	if l.MaxActions < 1 {
		return fmt.Errorf("%s.max_actions must be at least 1", name)
	}
	if l.Window <= 0 {
		return fmt.Errorf("%s.window must be positive", name)
	}
	return nil
}

// PayoutTable builds the default curves for the field size and applies the
// configured overrides.
func (m MinesSettings) PayoutTable() (*engine.PayoutTable, error) {
	curves := engine.DefaultCurves(m.FieldSize, m.HouseEdge)
	for mines, curve := range m.Payouts {
		curves[mines] = append([]float64(nil), curve...)
	}
	table, err := engine.NewPayoutTable(m.FieldSize, curves)
	if err != nil {
		return nil, fmt.Errorf("mines.payouts: %w", err)
	}
	return table, nil
}

// IsAvailable reports whether players may pick this mine count.
func (m MinesSettings) IsAvailable(mines int) bool {
	for _, n := range m.AvailableMines {
		if n == mines {
			return true
		}
	}
	return false
}

// WeightsNormalized reports whether the rarity weights sum to one.
func (g GachaSettings) WeightsNormalized() (bool, float64) {
	total := 0.0
	for _, w := range g.RarityWeights {
		total += w.Weight
	}
	return math.Abs(total-1) <= weightTolerance, total
}
