package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func GenerateGameID() string {
	return fmt.Sprintf("game_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateGuestID() string {
	return "guest-" + uuid.NewString()
}

func GenerateClientSeed() (string, error) {
	bytes := make([]byte, 16)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate client seed: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func CalculatePayout(betAmount, multiplier float64) float64 {
	return MulMoney(betAmount, multiplier)
}

func FormatCurrency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
