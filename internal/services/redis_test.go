package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"dvms-arcade-backend/internal/config"
	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/models"
	"dvms-arcade-backend/internal/services"
)

func setupTestRedis(t *testing.T) (*services.RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := &config.Config{RedisURL: mr.Addr()}
	redisService, err := services.NewRedisService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to set up Redis service: %v", err)
	}
	t.Cleanup(func() { redisService.Close() })
	return redisService, mr
}

func TestRedisService_Ledger(t *testing.T) {
	ctx := context.Background()
	redisService, mr := setupTestRedis(t)
	ledger := redisService.Ledger("p1")

	user, err := ledger.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if user.Balance != 0 || user.Inventory == nil {
		t.Errorf("new user = %+v", user)
	}

	err = ledger.Update(ctx, func(user *models.UserData) error {
		user.Balance = 25
		user.Inventory.Add(models.Card{ID: "c1", Title: "Slime", Rarity: "Common", Value: 5})
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stored, err := mr.Get(fmt.Sprintf(services.KeyUserData, "p1"))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"balance":25,"inventory":{"c1":{"id":"c1","title":"Slime","rarity":"Common","value":5,"count":1}}}`
	if stored != want {
		t.Errorf("stored blob = %s\nwant %s", stored, want)
	}

	errStop := errors.New("stop")
	err = ledger.Update(ctx, func(user *models.UserData) error {
		user.Balance = 0
		return errStop
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("expected the callback error back, got %v", err)
	}
	user, _ = ledger.Snapshot(ctx)
	if user.Balance != 25 {
		t.Errorf("aborted update changed the balance to %v", user.Balance)
	}
}

func TestRedisService_LedgerBacksRoundEngine(t *testing.T) {
	ctx := context.Background()
	redisService, _ := setupTestRedis(t)
	ledger := redisService.Ledger("p1")
	if err := ledger.Update(ctx, func(user *models.UserData) error {
		user.Balance = 10
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	round, err := engine.NewRoundEngine(engine.DefaultPayoutTable(), ledger, engine.NewSeededRandom(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := round.StartRound(ctx, 10, 3); err != nil {
		t.Fatal(err)
	}
	if err := round.Reset(); !errors.Is(err, engine.ErrInvalidRoundState) {
		t.Errorf("expected INVALID_ROUND_STATE, got %v", err)
	}

	user, _ := ledger.Snapshot(ctx)
	if user.Balance != 0 {
		t.Errorf("balance = %v, want 0 after the stake", user.Balance)
	}
}

func TestRedisService_RejectsMalformedRecord(t *testing.T) {
	redisService, mr := setupTestRedis(t)
	mr.Set(fmt.Sprintf(services.KeyUserData, "p1"), `{"balance": "lots"}`)

	if _, err := redisService.GetUserData(context.Background(), "p1"); err == nil {
		t.Error("expected an error for a malformed record")
	}
}

func TestRedisService_TransactionHistory(t *testing.T) {
	ctx := context.Background()
	redisService, mr := setupTestRedis(t)

	for i := 0; i < 105; i++ {
		tx := &models.Transaction{
			ID:        fmt.Sprintf("tx-%03d", i),
			UserID:    "p1",
			Type:      models.TransactionTypeRoll,
			CreatedAt: epoch.Add(time.Duration(i) * time.Second),
		}
		if err := redisService.SaveTransaction(ctx, tx); err != nil {
			t.Fatalf("SaveTransaction failed: %v", err)
		}
	}

	members, err := mr.ZMembers(fmt.Sprintf(services.KeyUserTransactions, "p1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != services.HistoryLimit {
		t.Errorf("index holds %d ids, want %d", len(members), services.HistoryLimit)
	}

	txs, err := redisService.GetUserTransactions(ctx, "p1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != services.DefaultHistoryPage {
		t.Fatalf("got %d transactions, want %d", len(txs), services.DefaultHistoryPage)
	}
	if txs[0].ID != "tx-104" || txs[len(txs)-1].ID != "tx-055" {
		t.Errorf("order: first %s last %s", txs[0].ID, txs[len(txs)-1].ID)
	}

	txs, _ = redisService.GetUserTransactions(ctx, "p1", 3)
	if len(txs) != 3 {
		t.Errorf("limit 3 returned %d", len(txs))
	}
}

func TestRedisService_RoundHistory(t *testing.T) {
	ctx := context.Background()
	redisService, _ := setupTestRedis(t)

	record := &models.RoundRecord{
		ID:            "game-1",
		UserID:        "p1",
		GameType:      models.GameTypeMines,
		BetAmount:     10,
		Mines:         3,
		MinePositions: []int{1, 7, 20},
		Status:        "lost",
		EndedAt:       epoch,
	}
	if err := redisService.SaveRound(ctx, record); err != nil {
		t.Fatal(err)
	}

	rounds, err := redisService.GetRoundHistory(ctx, "p1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rounds) != 1 || rounds[0].ID != "game-1" || len(rounds[0].MinePositions) != 3 {
		t.Errorf("rounds = %+v", rounds)
	}

	empty, err := redisService.GetRoundHistory(ctx, "nobody", 10)
	if err != nil || len(empty) != 0 {
		t.Errorf("unknown user: %v %v", empty, err)
	}
}

func TestRedisService_CheckRateLimit(t *testing.T) {
	ctx := context.Background()
	redisService, mr := setupTestRedis(t)

	for i := 0; i < 2; i++ {
		d, err := redisService.CheckRateLimit(ctx, "p1:/roll", 2, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	d, err := redisService.CheckRateLimit(ctx, "p1:/roll", 2, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed || d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Errorf("third request = %+v", d)
	}

	mr.FastForward(time.Minute)
	if d, _ := redisService.CheckRateLimit(ctx, "p1:/roll", 2, time.Minute); !d.Allowed {
		t.Error("window should have expired")
	}

	if err := redisService.ClearRateLimit(ctx, "p1:/roll"); err != nil {
		t.Fatal(err)
	}
}

func TestRedisRequestLimiter(t *testing.T) {
	redisService, _ := setupTestRedis(t)
	limiter := services.NewRedisRequestLimiter(redisService, 1, time.Minute)

	if d, err := limiter.Allow(context.Background(), "k", epoch); err != nil || !d.Allowed {
		t.Fatalf("first request: %+v %v", d, err)
	}
	if d, _ := limiter.Allow(context.Background(), "k", epoch); d.Allowed {
		t.Error("second request should be denied")
	}
}
