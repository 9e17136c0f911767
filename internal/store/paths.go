package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DatabaseFileName is the SQLite file created inside the data directory.
const DatabaseFileName = "experiment.db"

// DataDir returns the default data directory, ~/.nvote.
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".nvote"), nil
}

// DefaultDatabasePath returns ~/.nvote/experiment.db.
func DefaultDatabasePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DatabaseFileName), nil
}
