package filestore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func testStores(t *testing.T) map[string]Store {
	local, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	return map[string]Store{
		"local":  local,
		"memory": NewMemory(),
	}
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			key := BuildKey(uuid.New(), "EXAME_IMAGEM", "raio-x.png")

			n, err := store.Put(ctx, key, "image/png", strings.NewReader("png-bytes"))
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if n != int64(len("png-bytes")) {
				t.Errorf("size: got %d", n)
			}

			rc, err := store.Get(ctx, key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			data, _ := io.ReadAll(rc)
			rc.Close()
			if string(data) != "png-bytes" {
				t.Errorf("content mismatch: %q", data)
			}

			if err := store.Delete(ctx, key); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestGetMissingKey(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get(ctx, "nope/missing.pdf"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"../escape.pdf", "/abs/path.pdf", "a//b.pdf", ""} {
				if _, err := store.Put(ctx, key, "application/pdf", strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
					t.Errorf("key %q: expected ErrInvalidKey, got %v", key, err)
				}
			}
		})
	}
}

func TestBuildKeyShape(t *testing.T) {
	pid := uuid.New()
	key := BuildKey(pid, "RECEITA", "Receita Final.PDF")

	parts := strings.Split(key, "/")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %q", key)
	}
	if parts[0] != pid.String() || parts[1] != "RECEITA" {
		t.Errorf("unexpected prefix: %q", key)
	}
	if !strings.HasSuffix(parts[2], ".pdf") {
		t.Errorf("extension not normalized: %q", parts[2])
	}
}
