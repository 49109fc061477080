package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStoreFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "students.db")
	if err := os.WriteFile(path, []byte("store bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLocalStorageSaveAndExists(t *testing.T) {
	st := NewLocalStorage(t.TempDir())
	ctx := context.Background()

	if ok, err := st.Exists(ctx, "reports/missing.pdf"); err != nil || ok {
		t.Errorf("Exists before save = %v, %v", ok, err)
	}

	if err := st.Save(ctx, "reports/card.pdf", bytes.NewReader([]byte("pdf"))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ok, err := st.Exists(ctx, "reports/card.pdf"); err != nil || !ok {
		t.Errorf("Exists after save = %v, %v", ok, err)
	}
}

func TestBackupUsesConfiguredPrefix(t *testing.T) {
	root := t.TempDir()
	st := NewLocalStorage(root)
	dbPath := writeStoreFile(t)

	key, err := Backup(context.Background(), st, dbPath, "vault/db")
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if !strings.HasPrefix(key, "vault/db/students_backup_") {
		t.Errorf("key = %q, want it under the configured prefix", key)
	}
	if ok, _ := st.Exists(context.Background(), key); !ok {
		t.Errorf("backup key %q not found in archive", key)
	}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "store bytes" {
		t.Errorf("backup content = %q", data)
	}
}

func TestBackupDefaultPrefix(t *testing.T) {
	st := NewLocalStorage(t.TempDir())
	dbPath := writeStoreFile(t)

	key, err := Backup(context.Background(), st, dbPath, "")
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if !strings.HasPrefix(key, "backups/") {
		t.Errorf("key = %q, want the backups/ default", key)
	}
}

func TestBackupNeverOverwrites(t *testing.T) {
	st := NewLocalStorage(t.TempDir())
	dbPath := writeStoreFile(t)
	ctx := context.Background()

	// Two backups back to back; if the timestamps land in the same second
	// the second key must pick up a suffix rather than clobber the first.
	key1, err := Backup(ctx, st, dbPath, "backups")
	if err != nil {
		t.Fatal(err)
	}
	key2, err := Backup(ctx, st, dbPath, "backups")
	if err != nil {
		t.Fatal(err)
	}
	if key1 == key2 {
		t.Fatalf("second backup reused key %q", key1)
	}
	for _, key := range []string{key1, key2} {
		if ok, _ := st.Exists(ctx, key); !ok {
			t.Errorf("backup %q missing from archive", key)
		}
	}
}

func TestBackupMissingStoreFile(t *testing.T) {
	st := NewLocalStorage(t.TempDir())
	if _, err := Backup(context.Background(), st, filepath.Join(t.TempDir(), "nope.db"), ""); err == nil {
		t.Error("expected error for missing store file")
	}
}
