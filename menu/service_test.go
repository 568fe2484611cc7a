package menu

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"

	"sherpa/blobstore"
	"sherpa/models"
)

type memImageStore struct {
	mu         sync.Mutex
	docs       []models.MenuImage
	insertFail error
}

func (m *memImageStore) Insert(ctx context.Context, img models.MenuImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertFail != nil {
		return m.insertFail
	}
	m.docs = append(m.docs, img)
	return nil
}

func (m *memImageStore) FindByID(ctx context.Context, id string) (models.MenuImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return models.MenuImage{}, models.ErrNotFound
}

func (m *memImageStore) Update(ctx context.Context, id string, p Patch) (models.MenuImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].ID == id {
			if p.Name != nil {
				m.docs[i].Name = *p.Name
			}
			if p.IsActive != nil {
				m.docs[i].IsActive = *p.IsActive
			}
			return m.docs[i], nil
		}
	}
	return models.MenuImage{}, models.ErrNotFound
}

func (m *memImageStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *memImageStore) ListActive(ctx context.Context) ([]models.MenuImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.MenuImage{}
	for _, d := range m.docs {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memImageStore) ListAll(ctx context.Context, page, limit int) ([]models.MenuImage, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.MenuImage{}, m.docs...), int64(len(m.docs)), nil
}

// countingBlobs wraps a real store and counts calls, so tests can assert
// that rejected uploads never touch blob storage.
type countingBlobs struct {
	inner   *blobstore.MemoryStore
	puts    int
	deletes int
}

func (c *countingBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	c.puts++
	return c.inner.Put(ctx, key, r, size, contentType)
}

func (c *countingBlobs) Delete(ctx context.Context, key string) error {
	c.deletes++
	return c.inner.Delete(ctx, key)
}

func (c *countingBlobs) URL(key string) string { return c.inner.URL(key) }

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (f *fakeBroadcaster) Broadcast(ev models.ChangeEvent) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestService() (*Service, *memImageStore, *countingBlobs, *fakeBroadcaster) {
	store := &memImageStore{}
	blobs := &countingBlobs{inner: blobstore.NewMemoryStore()}
	bcast := &fakeBroadcaster{}
	return NewService(store, blobs, bcast), store, blobs, bcast
}

func TestUploadStoresBlobAndDocument(t *testing.T) {
	svc, store, blobs, bcast := newTestService()

	data := pngBytes(t, 100, 80)
	added, results, err := svc.UploadImages(context.Background(), []Upload{{
		Data:     data,
		Name:     "margherita.png",
		MimeType: "image/png",
		Size:     int64(len(data)),
	}})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if len(added) != 1 || results[0].Error != "" {
		t.Fatalf("expected one clean upload, got added=%d results=%+v", len(added), results)
	}

	img := added[0]
	if img.ID == "" || img.Filename == "" || img.URL == "" {
		t.Fatalf("incomplete image document: %+v", img)
	}
	if !img.IsActive {
		t.Fatal("new uploads must be active")
	}
	if img.Name != "margherita.png" {
		t.Fatalf("expected original name kept, got %q", img.Name)
	}

	if blobs.puts != 1 {
		t.Fatalf("expected one blob put, got %d", blobs.puts)
	}
	if got, ok := blobs.inner.Get(img.Filename); !ok || len(got) == 0 {
		t.Fatal("blob missing under the document's filename key")
	}
	if len(store.docs) != 1 {
		t.Fatalf("expected one document, got %d", len(store.docs))
	}

	if len(bcast.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bcast.events))
	}
	ev, ok := bcast.events[0].(models.ImagesAdded)
	if !ok {
		t.Fatalf("expected ImagesAdded, got %T", bcast.events[0])
	}
	if len(ev.Images) != 1 || ev.Images[0].ID != img.ID {
		t.Fatalf("event payload mismatch: %+v", ev.Images)
	}
}

func TestUploadDownscalesOversizedImage(t *testing.T) {
	svc, _, blobs, _ := newTestService()

	data := pngBytes(t, 2400, 1000)
	added, _, err := svc.UploadImages(context.Background(), []Upload{{
		Data:     data,
		Name:     "big.png",
		MimeType: "image/png",
		Size:     int64(len(data)),
	}})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	stored, ok := blobs.inner.Get(added[0].Filename)
	if !ok {
		t.Fatal("blob not stored")
	}
	decoded, err := png.Decode(bytes.NewReader(stored))
	if err != nil {
		t.Fatalf("stored blob is not a png: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() > maxImageWidth || b.Dy() > maxImageHeight {
		t.Fatalf("stored image not downscaled: %dx%d", b.Dx(), b.Dy())
	}
	if added[0].Size != int64(len(stored)) {
		t.Fatalf("document size %d does not match stored blob %d", added[0].Size, len(stored))
	}
}

func TestUploadRejectsBeforeBlobStore(t *testing.T) {
	cases := []struct {
		name   string
		upload Upload
	}{
		{"oversize", Upload{Data: []byte("x"), Name: "huge.jpg", MimeType: "image/jpeg", Size: MaxUploadSize + 1}},
		{"bad mime", Upload{Data: []byte("%PDF-"), Name: "menu.pdf", MimeType: "application/pdf", Size: 5}},
		{"undecodable", Upload{Data: []byte("not an image"), Name: "junk.png", MimeType: "image/png", Size: 12}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, blobs, bcast := newTestService()

			added, results, err := svc.UploadImages(context.Background(), []Upload{tc.upload})
			if err != nil {
				t.Fatalf("batch-level error for per-file failure: %v", err)
			}
			if len(added) != 0 {
				t.Fatal("rejected upload must not be added")
			}
			if results[0].Error == "" {
				t.Fatal("expected per-file error")
			}
			if blobs.puts != 0 {
				t.Fatalf("rejected upload touched the blob store %d times", blobs.puts)
			}
			if len(store.docs) != 0 || len(bcast.events) != 0 {
				t.Fatal("rejected upload must leave no document or event")
			}
		})
	}
}

func TestUploadBatchPartialFailure(t *testing.T) {
	svc, store, _, bcast := newTestService()

	good := pngBytes(t, 50, 50)
	added, results, err := svc.UploadImages(context.Background(), []Upload{
		{Data: good, Name: "good.png", MimeType: "image/png", Size: int64(len(good))},
		{Data: []byte("junk"), Name: "bad.png", MimeType: "image/png", Size: 4},
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if len(added) != 1 || len(store.docs) != 1 {
		t.Fatalf("expected the good file stored, got added=%d docs=%d", len(added), len(store.docs))
	}
	if results[0].Error != "" || results[1].Error == "" {
		t.Fatalf("unexpected per-file results: %+v", results)
	}

	// One event for the batch, carrying only the successes.
	if len(bcast.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bcast.events))
	}
	ev := bcast.events[0].(models.ImagesAdded)
	if len(ev.Images) != 1 || ev.Images[0].Name != "good.png" {
		t.Fatalf("event must carry only successful uploads: %+v", ev.Images)
	}
}

func TestUploadCompensatesBlobOnInsertFailure(t *testing.T) {
	svc, store, blobs, bcast := newTestService()
	store.insertFail = errors.New("mongo down")

	data := pngBytes(t, 40, 40)
	added, results, err := svc.UploadImages(context.Background(), []Upload{{
		Data:     data,
		Name:     "doomed.png",
		MimeType: "image/png",
		Size:     int64(len(data)),
	}})
	if err != nil {
		t.Fatalf("batch-level error: %v", err)
	}
	if len(added) != 0 || results[0].Error == "" {
		t.Fatal("expected the upload to fail")
	}

	if blobs.puts != 1 || blobs.deletes != 1 {
		t.Fatalf("expected blob put then compensating delete, got puts=%d deletes=%d", blobs.puts, blobs.deletes)
	}
	if blobs.inner.Len() != 0 {
		t.Fatal("orphan blob left behind after failed insert")
	}
	if len(bcast.events) != 0 {
		t.Fatal("failed upload must not broadcast")
	}
}

func TestDeleteImage(t *testing.T) {
	svc, store, blobs, bcast := newTestService()

	data := pngBytes(t, 30, 30)
	added, _, err := svc.UploadImages(context.Background(), []Upload{{
		Data: data, Name: "gone.png", MimeType: "image/png", Size: int64(len(data)),
	}})
	if err != nil {
		t.Fatalf("seed upload failed: %v", err)
	}
	bcast.events = nil

	if err := svc.DeleteImage(context.Background(), added[0].ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if len(store.docs) != 0 {
		t.Fatal("document not removed")
	}
	if blobs.inner.Len() != 0 {
		t.Fatal("blob not removed")
	}
	if len(bcast.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bcast.events))
	}
	ev, ok := bcast.events[0].(models.ImageDeleted)
	if !ok || ev.ID != added[0].ID {
		t.Fatalf("expected ImageDeleted for %s, got %#v", added[0].ID, bcast.events[0])
	}
}

func TestDeleteMissingImage(t *testing.T) {
	svc, _, blobs, bcast := newTestService()

	err := svc.DeleteImage(context.Background(), "no-such-id")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if blobs.deletes != 0 {
		t.Fatal("missing image must not trigger blob deletes")
	}
	if len(bcast.events) != 0 {
		t.Fatal("failed delete must not broadcast")
	}
}

func TestUpdateImagePartialPatch(t *testing.T) {
	svc, _, _, bcast := newTestService()

	data := pngBytes(t, 30, 30)
	added, _, err := svc.UploadImages(context.Background(), []Upload{{
		Data: data, Name: "card.png", MimeType: "image/png", Size: int64(len(data)),
	}})
	if err != nil {
		t.Fatalf("seed upload failed: %v", err)
	}
	bcast.events = nil

	inactive := false
	updated, err := svc.UpdateImage(context.Background(), added[0].ID, Patch{IsActive: &inactive})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.IsActive {
		t.Fatal("isActive not patched")
	}
	if updated.Name != "card.png" {
		t.Fatalf("name changed by an isActive-only patch: %q", updated.Name)
	}

	if len(bcast.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bcast.events))
	}
	ev, ok := bcast.events[0].(models.ImageUpdated)
	if !ok {
		t.Fatalf("expected ImageUpdated, got %T", bcast.events[0])
	}
	if ev.Image.ID != updated.ID || ev.Image.IsActive {
		t.Fatalf("event must carry the full updated document: %+v", ev.Image)
	}
}

func TestUpdateImageValidation(t *testing.T) {
	svc, _, _, bcast := newTestService()

	empty := ""
	if _, err := svc.UpdateImage(context.Background(), "id", Patch{Name: &empty}); err == nil {
		t.Fatal("expected validation error for empty name")
	}
	if _, err := svc.UpdateImage(context.Background(), "id", Patch{}); err == nil {
		t.Fatal("expected validation error for empty patch")
	}
	if len(bcast.events) != 0 {
		t.Fatal("invalid patches must not broadcast")
	}
}
