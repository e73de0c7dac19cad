package models

type StartMinesRequest struct {
	BetAmount float64 `json:"bet_amount"`
	Mines     int     `json:"mines"`
}

type MinesRevealRequest struct {
	Position *int `json:"position" binding:"required"`
}

// MinesRoundResponse is the display view of the player's current round.
type MinesRoundResponse struct {
	GameID          string  `json:"game_id,omitempty"`
	Status          string  `json:"status"`
	BetAmount       float64 `json:"bet_amount"`
	Mines           int     `json:"mines"`
	GridSize        int     `json:"grid_size"`
	Revealed        []int   `json:"revealed"`
	RevealedSafe    int     `json:"revealed_safe"`
	Multiplier      float64 `json:"multiplier"`
	PotentialPayout float64 `json:"potential_payout"`
	Payout          float64 `json:"payout"`
	MinePositions   []int   `json:"mine_positions,omitempty"`
	Balance         float64 `json:"balance"`
}

type MinesRevealResponse struct {
	Position int                `json:"position"`
	IsMine   bool               `json:"is_mine"`
	GameOver bool               `json:"game_over"`
	Round    MinesRoundResponse `json:"round"`
}

type PayoutCurveResponse struct {
	Mines       int       `json:"mines"`
	GridSize    int       `json:"grid_size"`
	Multipliers []float64 `json:"multipliers"`
}

type RollResponse struct {
	Card         Card    `json:"card"`
	FallbackUsed bool    `json:"fallback_used,omitempty"`
	Count        int     `json:"count"`
	Remaining    int     `json:"remaining"`
	Balance      float64 `json:"balance"`
}

type RollStatusResponse struct {
	Remaining  int     `json:"remaining"`
	MaxRolls   int     `json:"max_rolls"`
	RetryAfter float64 `json:"retry_after"`
}

type CardImage struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

type SellRequest struct {
	CardID   string `json:"card_id" binding:"required"`
	Quantity int    `json:"quantity"`
}

type SellResponse struct {
	Credited float64 `json:"credited"`
	Balance  float64 `json:"balance"`
}

type VerificationData struct {
	ClientSeed   string `json:"client_seed"`
	ServerHash   string `json:"server_hash"`
	CurrentNonce int64  `json:"current_nonce"`
}

type VerifyRequest struct {
	ServerSeed string `json:"server_seed" binding:"required"`
	ClientSeed string `json:"client_seed" binding:"required"`
	Nonce      int64  `json:"nonce"`
	Mines      int    `json:"mines" binding:"required"`
}

type VerifyResponse struct {
	ServerHash    string `json:"server_hash"`
	MinePositions []int  `json:"mine_positions"`
}

type RotateSeedRequest struct {
	ClientSeed string `json:"client_seed"`
}

// RotateSeedResponse reveals the retired seed pair so past rounds can be
// checked, and announces the next one.
type RotateSeedResponse struct {
	PreviousServerSeed string           `json:"previous_server_seed"`
	PreviousClientSeed string           `json:"previous_client_seed"`
	PreviousNonce      int64            `json:"previous_nonce"`
	Next               VerificationData `json:"next"`
}

type DropRate struct {
	Rarity string  `json:"rarity"`
	Weight float64 `json:"weight"`
}

type GameConfigResponse struct {
	GridSize          int        `json:"grid_size"`
	AvailableMines    []int      `json:"available_mines"`
	MinBet            float64    `json:"min_bet"`
	MaxBet            float64    `json:"max_bet"`
	DropRates         []DropRate `json:"drop_rates"`
	RollCost          float64    `json:"roll_cost"`
	MaxRolls          int        `json:"max_rolls"`
	RollWindowSeconds float64    `json:"roll_window_seconds"`
}
