// Package storage archives generated report cards and database backups,
// either on the local filesystem or in an S3 bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"reportcard-backend/internal/config"
)

type Storage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Exists(ctx context.Context, key string) (bool, error)
}

func NewFromConfig(cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return NewS3Storage(cfg)
	case "", "local":
		return NewLocalStorage(cfg.Storage.LocalDir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// Backup copies the store file into the archive under a timestamped key
// below prefix and returns that key. It reads the live file directly; WAL
// keeps the copy consistent enough for an operator-grade backup. Keys only
// resolve to the second, so a second backup inside the same one gets a
// numeric suffix instead of overwriting the first.
func Backup(ctx context.Context, st Storage, dbPath, prefix string) (string, error) {
	if prefix == "" {
		prefix = "backups"
	}

	f, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("open store file: %w", err)
	}
	defer f.Close()

	base := fmt.Sprintf("students_backup_%s", time.Now().Format("20060102_150405"))
	key := path.Join(prefix, base+".db")
	for n := 1; ; n++ {
		exists, err := st.Exists(ctx, key)
		if err != nil || !exists {
			break
		}
		key = path.Join(prefix, fmt.Sprintf("%s_%d.db", base, n))
	}

	if err := st.Save(ctx, key, f); err != nil {
		return "", fmt.Errorf("save backup: %w", err)
	}
	return key, nil
}
