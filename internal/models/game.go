package models

import "time"

type GameType string

const (
	GameTypeMines GameType = "mines"
	GameTypeGacha GameType = "gacha"
)

// RoundRecord is the history entry written once a mines round is resolved.
type RoundRecord struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id"`
	GameType      GameType `json:"game_type"`
	BetAmount     float64  `json:"bet_amount"`
	Mines         int      `json:"mines"`
	RevealedSafe  int      `json:"revealed_safe"`
	Multiplier    float64  `json:"multiplier"`
	Payout        float64  `json:"payout"`
	MinePositions []int    `json:"mine_positions"`

	ClientSeed     string `json:"client_seed"`
	ServerSeedHash string `json:"server_seed_hash"`
	Nonce          int64  `json:"nonce"`

	Status    string    `json:"status"` // won, lost
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}
