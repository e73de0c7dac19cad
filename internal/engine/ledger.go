package engine

import (
	"context"
	"errors"
	"sync"

	"dvms-arcade-backend/internal/models"
)

// Ledger is the persisted {balance, inventory} record of one player.
//
// Update hands fn a working copy of the record. When fn returns an error
// nothing is written and that error is returned unchanged; otherwise the
// copy replaces the stored record in a single write.
type Ledger interface {
	Snapshot(ctx context.Context) (*models.UserData, error)
	Update(ctx context.Context, fn func(*models.UserData) error) error
}

// applyLedger runs fn through the ledger, reporting collaborator failures
// as STORAGE_FAILURE.
func applyLedger(ctx context.Context, ledger Ledger, fn func(*models.UserData) error) error {
	err := ledger.Update(ctx, fn)
	if err == nil {
		return nil
	}
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return err
	}
	return wrapError(CodeStorageFailure, err, "ledger update")
}

func snapshotLedger(ctx context.Context, ledger Ledger) (*models.UserData, error) {
	data, err := ledger.Snapshot(ctx)
	if err != nil {
		return nil, wrapError(CodeStorageFailure, err, "ledger read")
	}
	return data, nil
}

// MemoryLedger keeps the record in process memory.
type MemoryLedger struct {
	mu   sync.Mutex
	data *models.UserData
}

func NewMemoryLedger(data *models.UserData) *MemoryLedger {
	if data == nil {
		data = models.NewUserData()
	}
	data = data.Clone()
	data.Normalize()
	return &MemoryLedger{data: data}
}

func (l *MemoryLedger) Snapshot(ctx context.Context) (*models.UserData, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.Clone(), nil
}

func (l *MemoryLedger) Update(ctx context.Context, fn func(*models.UserData) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	working := l.data.Clone()
	if err := fn(working); err != nil {
		return err
	}
	working.Normalize()
	l.data = working
	return nil
}
