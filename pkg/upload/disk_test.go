package upload_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vango-dev/dnd/pkg/upload"
)

func TestDiskStore_SaveAndClaim(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := upload.NewDiskStore(dir, 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	content := []byte("hello")
	id, err := store.Save(ctx, upload.Meta{Filename: "a.txt", ContentType: "text/plain", Size: 5}, bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	file, err := store.Claim(ctx, id)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if file.Filename != "a.txt" || file.ContentType != "text/plain" || file.Size != 5 {
		t.Errorf("meta = %+v", file.Meta)
	}
	data, err := io.ReadAll(file.Reader)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("data = %q, want %q", data, content)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, id)); !os.IsNotExist(err) {
		t.Errorf("expected file removed after close, stat err = %v", err)
	}
	if _, err := store.Claim(ctx, id); err != upload.ErrNotFound {
		t.Errorf("second Claim err = %v, want %v", err, upload.ErrNotFound)
	}
}

func TestDiskStore_SizeLimit(t *testing.T) {
	ctx := context.Background()
	store, err := upload.NewDiskStore(t.TempDir(), 5)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	tests := []struct {
		name     string
		declared int64
		content  string
	}{
		{"declared too large", 10, "123"},
		{"reader exceeds declared", 4, "123456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(ctx, upload.Meta{Filename: "x", Size: tt.declared}, bytes.NewReader([]byte(tt.content)))
			if err != upload.ErrTooLarge {
				t.Fatalf("err = %v, want %v", err, upload.ErrTooLarge)
			}
		})
	}
}

func TestDiskStore_ClaimAfterRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store1, err := upload.NewDiskStore(dir, 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	id, err := store1.Save(ctx, upload.Meta{Filename: "persist.txt", ContentType: "text/plain"}, bytes.NewReader([]byte("persist me")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	store2, err := upload.NewDiskStore(dir, 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	file, err := store2.Claim(ctx, id)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	defer file.Close()

	if file.Filename != "persist.txt" || file.Size != int64(len("persist me")) {
		t.Errorf("meta = %+v", file.Meta)
	}
}

func TestDiskStore_ClaimRejectsPathIDs(t *testing.T) {
	store, err := upload.NewDiskStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	for _, id := range []string{"", "../etc/passwd", "a/b", "x.meta"} {
		if _, err := store.Claim(context.Background(), id); err != upload.ErrNotFound {
			t.Errorf("Claim(%q) err = %v, want %v", id, err, upload.ErrNotFound)
		}
	}
}

func TestDiskStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := upload.NewDiskStore(dir, 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	oldID, _ := store.Save(ctx, upload.Meta{Filename: "old"}, bytes.NewReader([]byte("old")))
	newID, _ := store.Save(ctx, upload.Meta{Filename: "new"}, bytes.NewReader([]byte("new")))

	past := time.Now().Add(-2 * time.Hour)
	for _, name := range []string{oldID, oldID + ".meta"} {
		if err := os.Chtimes(filepath.Join(dir, name), past, past); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}

	if err := store.Cleanup(ctx, time.Hour); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, oldID)); !os.IsNotExist(err) {
		t.Errorf("old file still present: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, newID)); err != nil {
		t.Errorf("new file removed: %v", err)
	}
}
