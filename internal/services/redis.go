package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dvms-arcade-backend/internal/config"
	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/models"
)

type RedisService struct {
	client *redis.Client
}

func NewRedisService(ctx context.Context, cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisService{client: client}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// Ledger returns the user's record stored as one JSON blob.
func (s *RedisService) Ledger(userID string) engine.Ledger {
	return &redisLedger{redis: s, userID: userID}
}

type redisLedger struct {
	redis  *RedisService
	userID string
}

func (l *redisLedger) Snapshot(ctx context.Context) (*models.UserData, error) {
	return l.redis.GetUserData(ctx, l.userID)
}

func (l *redisLedger) Update(ctx context.Context, fn func(*models.UserData) error) error {
	return l.redis.UpdateUserData(ctx, l.userID, fn)
}

func (s *RedisService) GetUserData(ctx context.Context, userID string) (*models.UserData, error) {
	return readUserData(ctx, s.client, fmt.Sprintf(KeyUserData, userID))
}

func readUserData(ctx context.Context, c redis.Cmdable, key string) (*models.UserData, error) {
	data, err := c.Get(ctx, key).Result()
	if err == redis.Nil {
		return models.NewUserData(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user data: %w", err)
	}

	var user models.UserData
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	user.Normalize()
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("stored user data for %s is invalid: %w", key, err)
	}
	return &user, nil
}

// UpdateUserData runs fn inside a WATCH/MULTI transaction and retries when a
// concurrent writer touched the key. An error from fn aborts without writing
// and is returned unchanged.
func (s *RedisService) UpdateUserData(ctx context.Context, userID string, fn func(*models.UserData) error) error {
	key := fmt.Sprintf(KeyUserData, userID)

	txf := func(tx *redis.Tx) error {
		user, err := readUserData(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := fn(user); err != nil {
			return err
		}
		user.Normalize()

		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to marshal user data: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to update user data for %s: too many concurrent writes", userID)
}

func (s *RedisService) SaveRound(ctx context.Context, round *models.RoundRecord) error {
	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("failed to marshal round: %w", err)
	}
	return s.saveIndexed(ctx,
		fmt.Sprintf(KeyRound, round.ID), data, TTLRound,
		fmt.Sprintf(KeyUserRounds, round.UserID), round.ID, round.EndedAt)
}

func (s *RedisService) GetRoundHistory(ctx context.Context, userID string, limit int64) ([]*models.RoundRecord, error) {
	blobs, err := s.loadIndexed(ctx, fmt.Sprintf(KeyUserRounds, userID), KeyRound, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get round history: %w", err)
	}

	rounds := make([]*models.RoundRecord, 0, len(blobs))
	for _, blob := range blobs {
		var round models.RoundRecord
		if err := json.Unmarshal([]byte(blob), &round); err != nil {
			continue
		}
		rounds = append(rounds, &round)
	}
	return rounds, nil
}

func (s *RedisService) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}
	return s.saveIndexed(ctx,
		fmt.Sprintf(KeyTransaction, tx.ID), data, TTLTransaction,
		fmt.Sprintf(KeyUserTransactions, tx.UserID), tx.ID, tx.CreatedAt)
}

func (s *RedisService) GetUserTransactions(ctx context.Context, userID string, limit int64) ([]*models.Transaction, error) {
	blobs, err := s.loadIndexed(ctx, fmt.Sprintf(KeyUserTransactions, userID), KeyTransaction, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	transactions := make([]*models.Transaction, 0, len(blobs))
	for _, blob := range blobs {
		var tx models.Transaction
		if err := json.Unmarshal([]byte(blob), &tx); err != nil {
			continue
		}
		transactions = append(transactions, &tx)
	}
	return transactions, nil
}

// saveIndexed stores a blob and adds its id to a per-user sorted set scored
// by time; only the newest HistoryLimit ids are kept.
func (s *RedisService) saveIndexed(ctx context.Context, key string, data []byte, ttl time.Duration, indexKey, id string, at time.Time) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, ttl)
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  float64(at.UnixNano()),
			Member: id,
		})
		pipe.ZRemRangeByRank(ctx, indexKey, 0, -(HistoryLimit + 1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// loadIndexed returns the newest blobs of an index, skipping expired ones.
func (s *RedisService) loadIndexed(ctx context.Context, indexKey, keyFormat string, limit int64) ([]string, error) {
	limit = historyPage(limit)

	ids, err := s.client.ZRevRange(ctx, indexKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []string{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, fmt.Sprintf(keyFormat, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("pipeline execution failed: %w", err)
	}

	blobs := make([]string, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue
		}
		blobs = append(blobs, data)
	}
	return blobs, nil
}

// CheckRateLimit counts one hit against key in a fixed window that starts
// with the first hit. Denied decisions carry the window's remaining TTL.
func (s *RedisService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (engine.Decision, error) {
	key = fmt.Sprintf(KeyRateLimit, key)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return engine.Decision{}, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return engine.Decision{}, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	if count <= int64(limit) {
		return engine.Decision{Allowed: true}, nil
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return engine.Decision{RetryAfter: ttl}, nil
}

func (s *RedisService) ClearRateLimit(ctx context.Context, key string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyRateLimit, key)).Err()
}
