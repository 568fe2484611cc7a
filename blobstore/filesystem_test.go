package blobstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSystemStorePutDeleteURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSystemStore(dir, "http://localhost:4000/")
	if err != nil {
		t.Fatalf("NewFileSystemStore: %v", err)
	}

	data := []byte("not really a jpeg")
	url, err := store.Put(context.Background(), "menu-abc.jpg", bytes.NewReader(data), int64(len(data)), "image/jpeg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "http://localhost:4000/uploads/menu-abc.jpg" {
		t.Fatalf("unexpected URL: %s", url)
	}
	if url != store.URL("menu-abc.jpg") {
		t.Fatalf("Put URL and URL() disagree: %s vs %s", url, store.URL("menu-abc.jpg"))
	}

	got, err := os.ReadFile(filepath.Join(dir, "menu-abc.jpg"))
	if err != nil {
		t.Fatalf("reading stored blob: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("stored blob differs from input")
	}

	if err := store.Delete(context.Background(), "menu-abc.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "menu-abc.jpg")); !os.IsNotExist(err) {
		t.Fatal("blob still present after Delete")
	}
}

func TestFileSystemStoreSizeMismatch(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir(), "http://localhost:4000")
	if err != nil {
		t.Fatalf("NewFileSystemStore: %v", err)
	}

	_, err = store.Put(context.Background(), "short.jpg", strings.NewReader("abc"), 99, "image/jpeg")
	if err == nil {
		t.Fatal("expected size mismatch error")
	}
}

func TestFileSystemStoreDeleteMissing(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir(), "http://localhost:4000")
	if err != nil {
		t.Fatalf("NewFileSystemStore: %v", err)
	}
	if err := store.Delete(context.Background(), "nope.jpg"); err == nil {
		t.Fatal("expected error deleting missing blob")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	data := []byte("pixels")
	if _, err := store.Put(context.Background(), "k1", bytes.NewReader(data), int64(len(data)), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := store.Get("k1")
	if !ok || !bytes.Equal(got, data) {
		t.Fatal("stored blob missing or differs")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 blob, got %d", store.Len())
	}

	if err := store.Delete(context.Background(), "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("blob still present after Delete")
	}
	if err := store.Delete(context.Background(), "k1"); err == nil {
		t.Fatal("expected error deleting missing blob")
	}
}
