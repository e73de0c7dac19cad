package services

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/models"
)

// FairSeed is one player's provably-fair seed pair. Only the hash of the
// server seed is public until the pair is rotated.
type FairSeed struct {
	serverSeed string
	clientSeed string
	nonce      int64
}

func NewFairSeed() (*FairSeed, error) {
	server, err := generateServerSeed()
	if err != nil {
		return nil, err
	}
	client, err := models.GenerateClientSeed()
	if err != nil {
		return nil, err
	}
	return &FairSeed{serverSeed: server, clientSeed: client}, nil
}

func generateServerSeed() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate server seed: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func (f *FairSeed) ServerHash() string { return HashServerSeed(f.serverSeed) }

func (f *FairSeed) Data() *models.VerificationData {
	return &models.VerificationData{
		ClientSeed:   f.clientSeed,
		ServerHash:   f.ServerHash(),
		CurrentNonce: f.nonce,
	}
}

// roundSeed is the RNG seed of the round played at the current nonce.
func (f *FairSeed) roundSeed() uint64 {
	return MinesSeed(f.serverSeed, f.clientSeed, f.nonce)
}

// Rotate retires the pair and starts a fresh server seed at nonce 0. An empty
// clientSeed keeps the current one.
func (f *FairSeed) Rotate(clientSeed string) (*models.RotateSeedResponse, error) {
	server, err := generateServerSeed()
	if err != nil {
		return nil, err
	}

	resp := &models.RotateSeedResponse{
		PreviousServerSeed: f.serverSeed,
		PreviousClientSeed: f.clientSeed,
		PreviousNonce:      f.nonce,
	}

	f.serverSeed = server
	if clientSeed != "" {
		f.clientSeed = clientSeed
	}
	f.nonce = 0

	resp.Next = *f.Data()
	return resp, nil
}

func HashServerSeed(serverSeed string) string {
	hash := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(hash[:])
}

// MinesSeed derives the RNG seed of one round from
// HMAC-SHA256(serverSeed, "mines:<clientSeed>:<nonce>").
func MinesSeed(serverSeed, clientSeed string, nonce int64) uint64 {
	h := hmac.New(sha256.New, []byte(serverSeed))
	fmt.Fprintf(h, "mines:%s:%d", clientSeed, nonce)
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}

// VerifyMines replays the mine placement of a round.
func VerifyMines(serverSeed, clientSeed string, nonce int64, fieldSize, mines int) ([]int, error) {
	field, err := engine.GenerateMineField(fieldSize, mines, engine.NewSeededRandom(MinesSeed(serverSeed, clientSeed, nonce)))
	if err != nil {
		return nil, err
	}
	return field.Mines(), nil
}

// roundRandom is the RandomSource of a player's RoundEngine, reseeded from
// the fair seed before every round.
type roundRandom struct {
	src engine.RandomSource
}

func (r *roundRandom) reseed(seed uint64) {
	r.src = engine.NewSeededRandom(seed)
}

func (r *roundRandom) IntN(n int) (int, error) { return r.src.IntN(n) }

func (r *roundRandom) Float64() (float64, error) { return r.src.Float64() }
