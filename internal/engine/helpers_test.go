package engine_test

import (
	"context"
	"errors"

	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/models"
)

var errBoom = errors.New("boom")

// flakyLedger wraps a MemoryLedger and fails writes while failWrites is set.
type flakyLedger struct {
	*engine.MemoryLedger
	failWrites bool
	writes     int
}

func newFlakyLedger(balance float64) *flakyLedger {
	return &flakyLedger{MemoryLedger: engine.NewMemoryLedger(&models.UserData{Balance: balance})}
}

func (l *flakyLedger) Update(ctx context.Context, fn func(*models.UserData) error) error {
	if l.failWrites {
		return errBoom
	}
	l.writes++
	return l.MemoryLedger.Update(ctx, fn)
}

func (l *flakyLedger) balance() float64 {
	data, _ := l.Snapshot(context.Background())
	return data.Balance
}

// brokenRandom always fails.
type brokenRandom struct{}

func (brokenRandom) IntN(int) (int, error)      { return 0, errBoom }
func (brokenRandom) Float64() (float64, error) { return 0, errBoom }

// fixedRandom replays floats and answers IntN with zero.
type fixedRandom struct {
	floats []float64
}

func (r *fixedRandom) IntN(int) (int, error) { return 0, nil }

func (r *fixedRandom) Float64() (float64, error) {
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f, nil
}
