package models

import (
	"fmt"
	"math"
)

// UserData is the persisted per-player record: balance plus card inventory.
type UserData struct {
	Balance   float64   `json:"balance"`
	Inventory Inventory `json:"inventory"`
}

func NewUserData() *UserData {
	return &UserData{Balance: 0, Inventory: Inventory{}}
}

// Normalize replaces a missing inventory with an empty one so the record
// always marshals as an object.
func (u *UserData) Normalize() {
	if u.Inventory == nil {
		u.Inventory = Inventory{}
	}
}

func (u *UserData) Validate() error {
	if math.IsNaN(u.Balance) || math.IsInf(u.Balance, 0) {
		return fmt.Errorf("balance must be a finite number")
	}
	if u.Balance < 0 {
		return fmt.Errorf("balance cannot be negative: %v", u.Balance)
	}
	return u.Inventory.Validate()
}

func (u *UserData) Clone() *UserData {
	return &UserData{
		Balance:   u.Balance,
		Inventory: u.Inventory.Clone(),
	}
}

type SaveUserDataRequest struct {
	Balance   *float64  `json:"balance" binding:"required"`
	Inventory Inventory `json:"inventory"`
}

type SaveUserDataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
