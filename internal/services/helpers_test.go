package services_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"dvms-arcade-backend/internal/config"
	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/models"
	"dvms-arcade-backend/internal/services"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type recordingBroadcaster struct {
	mu       sync.Mutex
	balances []float64
	rounds   []string
}

func (b *recordingBroadcaster) BroadcastBalance(userID string, balance float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances = append(b.balances, balance)
}

func (b *recordingBroadcaster) BroadcastRoundUpdate(userID string, round *models.MinesRoundResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rounds = append(b.rounds, round.Status)
}

type fixture struct {
	svc         *services.GameService
	store       *services.FileStore
	history     *services.MemoryHistory
	broadcaster *recordingBroadcaster
	now         time.Time
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

var testCards = []models.Card{
	{ID: "slime", Title: "Slime", Rarity: "Common", Value: 5, Image: "slime.png"},
	{ID: "goblin", Title: "Goblin", Rarity: "Common", Value: 6, Image: "goblin.png"},
}

func newFixture(t *testing.T, balance float64) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := services.NewFileStore(filepath.Join(t.TempDir(), "db.json"), "default-user-id", zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	catalog, err := engine.NewCatalog(testCards)
	if err != nil {
		t.Fatal(err)
	}

	settings := config.DefaultGameSettings()
	settings.Gacha.RarityWeights = []engine.RarityWeight{{Rarity: "Common", Weight: 1}}

	f := &fixture{
		store:       store,
		history:     services.NewMemoryHistory(),
		broadcaster: &recordingBroadcaster{},
		now:         epoch,
	}
	f.svc, err = services.NewGameService(store, f.history, catalog, settings, zap.NewNop(),
		services.WithClock(func() time.Time { return f.now }))
	if err != nil {
		t.Fatalf("NewGameService failed: %v", err)
	}
	f.svc.SetBroadcaster(f.broadcaster)

	if balance > 0 {
		if err := f.svc.SaveUserData(ctx, "p1", &models.UserData{Balance: balance}); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func (f *fixture) balance(t *testing.T) float64 {
	t.Helper()
	user, err := f.svc.UserData(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	return user.Balance
}
