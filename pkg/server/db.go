package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cardroomd/cardroomd/pkg/server/internal/db"
)

// Database is the persistence contract the engine writes through. Balances
// are read at join/start time; everything else is history and audit. The
// in-memory engine state stays authoritative between actions.
type Database interface {
	// GetPlayerBalance returns the current balance of a player.
	GetPlayerBalance(playerID string) (int64, error)
	// UpdatePlayerBalance applies a signed amount and records the
	// transaction.
	UpdatePlayerBalance(playerID string, amount int64, transactionType, description string) error
	// RecordHand appends a settled hand to the game history.
	RecordHand(playerID, gameID string, stake, net int64, outcome string) error
	// Close closes the database connection.
	Close() error
}

// NewDatabase opens the sqlite database at dbPath, creating the parent
// directory if needed.
func NewDatabase(dbPath string) (Database, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	return db.NewDB(dbPath)
}

// bank adapts Database to the session registry's balance contract.
type bank struct {
	db Database
}

func (b *bank) Balance(userID string) (int64, error) {
	return b.db.GetPlayerBalance(userID)
}

func (b *bank) Apply(userID string, delta int64, txType, description string) error {
	return b.db.UpdatePlayerBalance(userID, delta, txType, description)
}
