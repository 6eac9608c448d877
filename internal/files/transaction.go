package files

import (
	"errors"
	"io"
	"log/slog"
	"os"
)

// Transaction groups file writes so that a failed multi-file save leaves
// nothing behind. Files written and directories created through the
// transaction are removed by Rollback unless Commit was called first.
type Transaction struct {
	m         *Manager
	files     []string
	dirs      []string
	committed bool
}

// Begin starts a new write transaction
func (m *Manager) Begin() *Transaction {
	return &Transaction{m: m}
}

// CreateDirectory creates path and remembers the directories it had to create
func (tx *Transaction) CreateDirectory(path string) error {
	top, err := tx.m.CreateDirectory(path)
	if err != nil {
		return err
	}
	if top != "" {
		tx.dirs = append(tx.dirs, top)
	}
	return nil
}

// CreateFile writes a file and records it for rollback as soon as it has been
// created, so a write that fails half way is still cleaned up. A file that
// could not be created is not recorded.
func (tx *Transaction) CreateFile(path string, write func(io.Writer) error) error {
	return tx.m.createFile(tx.m.resolvePath(path), write, func(fullPath string) {
		tx.files = append(tx.files, fullPath)
	})
}

// Commit keeps everything written so far
func (tx *Transaction) Commit() {
	tx.committed = true
}

// Rollback removes recorded files, then the directories the transaction
// created. It is a no-op after Commit.
func (tx *Transaction) Rollback() error {
	if tx.committed {
		return nil
	}

	var errs []error
	for i := len(tx.files) - 1; i >= 0; i-- {
		if err := os.Remove(tx.files[i]); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	for i := len(tx.dirs) - 1; i >= 0; i-- {
		if err := os.RemoveAll(tx.dirs[i]); err != nil {
			errs = append(errs, err)
		}
	}

	tx.m.logger.Warn("Rolled back file transaction",
		slog.Int("files", len(tx.files)),
		slog.Int("directories", len(tx.dirs)))

	tx.files, tx.dirs = nil, nil
	tx.committed = true
	return errors.Join(errs...)
}
