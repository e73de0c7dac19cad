package services

import "dvms-arcade-backend/internal/models"

// Broadcaster pushes state changes to a player's live connections.
type Broadcaster interface {
	BroadcastBalance(userID string, balance float64)
	BroadcastRoundUpdate(userID string, round *models.MinesRoundResponse)
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastBalance(string, float64)                        {}
func (nopBroadcaster) BroadcastRoundUpdate(string, *models.MinesRoundResponse) {}
