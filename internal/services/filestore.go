package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/models"
)

// dbFile is the on-disk layout: {"users": {"<id>": {balance, inventory}}}.
type dbFile struct {
	Users map[string]*models.UserData `json:"users"`
}

// FileStore keeps every player in one JSON file. Each update reads the file,
// applies the change and replaces the file through a rename, under one mutex.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewFileStore opens path, creating it with an empty record for
// defaultUserID when it does not exist.
func NewFileStore(path, defaultUserID string, logger *zap.Logger) (*FileStore, error) {
	s := &FileStore{path: path, logger: logger}

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		db := &dbFile{Users: map[string]*models.UserData{defaultUserID: models.NewUserData()}}
		if err := s.write(db); err != nil {
			return nil, err
		}
		logger.Info("created user data file", zap.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Ledger(userID string) engine.Ledger {
	return &fileLedger{store: s, userID: userID}
}

type fileLedger struct {
	store  *FileStore
	userID string
}

func (l *fileLedger) Snapshot(ctx context.Context) (*models.UserData, error) {
	return l.store.GetUserData(ctx, l.userID)
}

func (l *fileLedger) Update(ctx context.Context, fn func(*models.UserData) error) error {
	return l.store.UpdateUserData(ctx, l.userID, fn)
}

// GetUserData returns a copy of the record; unknown users start empty.
func (s *FileStore) GetUserData(ctx context.Context, userID string) (*models.UserData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.read()
	if err != nil {
		return nil, err
	}
	return userFrom(db, userID)
}

func (s *FileStore) UpdateUserData(ctx context.Context, userID string, fn func(*models.UserData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.read()
	if err != nil {
		return err
	}
	user, err := userFrom(db, userID)
	if err != nil {
		return err
	}
	if err := fn(user); err != nil {
		return err
	}
	user.Normalize()

	db.Users[userID] = user
	return s.write(db)
}

func userFrom(db *dbFile, userID string) (*models.UserData, error) {
	user, ok := db.Users[userID]
	if !ok || user == nil {
		return models.NewUserData(), nil
	}
	user = user.Clone()
	user.Normalize()
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("stored user data for %s is invalid: %w", userID, err)
	}
	return user, nil
}

func (s *FileStore) read() (*dbFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var db dbFile
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if db.Users == nil {
		db.Users = map[string]*models.UserData{}
	}
	return &db, nil
}

func (s *FileStore) write(db *dbFile) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("encode user data: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
