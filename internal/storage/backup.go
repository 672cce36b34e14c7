package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Backup errors.
var (
	ErrBackupExists    = errors.New("backup file already exists")
	ErrBackupCorrupted = errors.New("backup integrity check failed")
)

// BackupInfo describes a completed backup.
type BackupInfo struct {
	Path          string
	FileSize      int64
	Checks        int
	SchemaVersion int
}

// Backup writes a consistent copy of the history database to destPath and
// verifies it. An existing file at destPath is never overwritten.
func (s *SQLiteStorage) Backup(ctx context.Context, destPath string) (*BackupInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(destPath, "destPath"); err != nil {
		return nil, err
	}

	destPath, err := filepath.Abs(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup path: %w", err)
	}
	// destPath is interpolated into VACUUM INTO below.
	if strings.ContainsAny(destPath, "'\";") {
		return nil, fmt.Errorf("invalid backup path: contains forbidden characters")
	}
	if _, statErr := os.Stat(destPath); statErr == nil {
		return nil, ErrBackupExists
	}
	if mkErr := os.MkdirAll(filepath.Dir(destPath), 0750); mkErr != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", mkErr)
	}

	if _, execErr := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); execErr != nil {
		return nil, fmt.Errorf("failed to checkpoint WAL: %w", execErr)
	}

	// #nosec G201 - destPath is validated above
	if _, execErr := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); execErr != nil {
		return nil, fmt.Errorf("failed to backup database: %w", execErr)
	}

	info, err := inspectBackup(ctx, destPath)
	if err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil {
			s.logger.Error("Failed to remove bad backup", "path", destPath, "error", rmErr)
		}
		return nil, err
	}

	s.logger.Info("History backed up", "path", info.Path, "checks", info.Checks, "size", info.FileSize)
	return info, nil
}

func inspectBackup(ctx context.Context, path string) (*BackupInfo, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close backup database", "error", closeErr)
		}
	}()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackupCorrupted, err)
	}
	if result != "ok" {
		return nil, fmt.Errorf("%w: %s", ErrBackupCorrupted, result)
	}

	info := &BackupInfo{Path: path}
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&info.SchemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM checks").Scan(&info.Checks); err != nil {
		return nil, fmt.Errorf("failed to count checks: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}
	info.FileSize = stat.Size()
	return info, nil
}
