package menu

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log"
	"path/filepath"
	"strings"
	"time"

	"sherpa/blobstore"
	"sherpa/models"
	"sherpa/saga"
	"sherpa/utils"

	"github.com/disintegration/imaging"
)

const (
	// MaxUploadSize is the per-file limit, matching the client-side check.
	MaxUploadSize = 10 << 20
	// MaxUploadFiles caps how many files one upload request may carry.
	MaxUploadFiles = 10

	maxImageWidth  = 1200
	maxImageHeight = 1600
	maxNameLen     = 255
)

// Upload is one file of an upload batch, already read into memory.
type Upload struct {
	Data     []byte
	Name     string
	MimeType string
	Size     int64
}

// UploadResult reports the per-file outcome of a batch.
type UploadResult struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

// Service applies menu-image mutations: each successful mutation persists,
// then broadcasts exactly one change event.
type Service struct {
	store ImageStore
	blobs blobstore.Store
	bcast models.Broadcaster
}

func NewService(store ImageStore, blobs blobstore.Store, bcast models.Broadcaster) *Service {
	return &Service{store: store, blobs: blobs, bcast: bcast}
}

func validateUpload(u Upload) error {
	if u.Size > MaxUploadSize {
		return models.Invalid("%s exceeds the %dMB size limit", u.Name, MaxUploadSize>>20)
	}
	if !utils.SupportedImageTypes[u.MimeType] {
		return models.Invalid("%s has unsupported type %s", u.Name, u.MimeType)
	}
	return nil
}

// prepare downscales oversized jpeg/png payloads to fit 1200x1600. Webp
// passes through untouched since we cannot re-encode it.
func prepare(u Upload) ([]byte, error) {
	if u.MimeType == "image/webp" {
		return u.Data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(u.Data))
	if err != nil {
		return nil, models.Invalid("%s is not a decodable image", u.Name)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxImageWidth && bounds.Dy() <= maxImageHeight {
		return u.Data, nil
	}

	resized := imaging.Fit(img, maxImageWidth, maxImageHeight, imaging.Lanczos)
	var buf bytes.Buffer
	switch u.MimeType {
	case "image/png":
		err = png.Encode(&buf, resized)
	default:
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, models.Storagef("resize encode", err)
	}
	return buf.Bytes(), nil
}

func blobKey(name, mimeType string) string {
	ext := filepath.Ext(utils.SanitizeFilename(name))
	if ext == "" {
		switch mimeType {
		case "image/png":
			ext = ".png"
		case "image/webp":
			ext = ".webp"
		default:
			ext = ".jpg"
		}
	}
	return "menu-" + utils.GenerateID() + strings.ToLower(ext)
}

// UploadImages stores each file as blob-then-document; a failed document
// insert deletes the already-stored blob again so no orphan remains. One
// imagesAdded event covers the whole batch; per-file failures are reported
// in the results without sinking the rest of the batch.
func (s *Service) UploadImages(ctx context.Context, uploads []Upload) ([]models.MenuImage, []UploadResult, error) {
	if len(uploads) == 0 {
		return nil, nil, models.Invalid("no files provided")
	}
	if len(uploads) > MaxUploadFiles {
		return nil, nil, models.Invalid("at most %d files per upload", MaxUploadFiles)
	}

	var added []models.MenuImage
	results := make([]UploadResult, 0, len(uploads))

	for _, u := range uploads {
		img, err := s.uploadOne(ctx, u)
		if err != nil {
			log.Printf("upload %s: %v", u.Name, err)
			results = append(results, UploadResult{Name: u.Name, Error: err.Error()})
			continue
		}
		added = append(added, img)
		results = append(results, UploadResult{Name: u.Name})
	}

	if len(added) > 0 {
		s.bcast.Broadcast(models.ImagesAdded{Images: added})
	}
	return added, results, nil
}

func (s *Service) uploadOne(ctx context.Context, u Upload) (models.MenuImage, error) {
	if err := validateUpload(u); err != nil {
		return models.MenuImage{}, err
	}

	data, err := prepare(u)
	if err != nil {
		return models.MenuImage{}, err
	}

	now := time.Now()
	key := blobKey(u.Name, u.MimeType)
	img := models.MenuImage{
		ID:         utils.GenerateID(),
		Name:       u.Name,
		Filename:   key,
		Size:       int64(len(data)),
		MimeType:   u.MimeType,
		UploadDate: now,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = saga.Run(ctx,
		saga.Step{
			Name: "store blob",
			Run: func(ctx context.Context) error {
				url, perr := s.blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data)), u.MimeType)
				if perr != nil {
					return perr
				}
				img.URL = url
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.blobs.Delete(ctx, key)
			},
		},
		saga.Step{
			Name: "insert document",
			Run: func(ctx context.Context) error {
				return s.store.Insert(ctx, img)
			},
		},
	)
	if err != nil {
		return models.MenuImage{}, err
	}
	return img, nil
}

// DeleteImage removes the document and its blob. The blob delete is
// best-effort: a leftover file is preferable to a menu entry pointing at
// nothing.
func (s *Service) DeleteImage(ctx context.Context, id string) error {
	img, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, img.Filename); err != nil {
		log.Printf("delete blob %s: %v", img.Filename, err)
	}

	s.bcast.Broadcast(models.ImageDeleted{ID: id})
	return nil
}

// UpdateImage patches name and/or active flag and broadcasts the full
// updated document.
func (s *Service) UpdateImage(ctx context.Context, id string, p Patch) (models.MenuImage, error) {
	if p.Name == nil && p.IsActive == nil {
		return models.MenuImage{}, models.Invalid("nothing to update")
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return models.MenuImage{}, models.Invalid("name must not be empty")
		}
		if len(name) > maxNameLen {
			return models.MenuImage{}, models.Invalid("name must be at most %d characters", maxNameLen)
		}
		p.Name = &name
	}

	img, err := s.store.Update(ctx, id, p)
	if err != nil {
		return models.MenuImage{}, err
	}

	s.bcast.Broadcast(models.ImageUpdated{Image: img})
	return img, nil
}

// ActiveImages is the public storefront view.
func (s *Service) ActiveImages(ctx context.Context) ([]models.MenuImage, error) {
	return s.store.ListActive(ctx)
}

// AllImages is the paginated admin view.
func (s *Service) AllImages(ctx context.Context, page, limit int) ([]models.MenuImage, int64, error) {
	return s.store.ListAll(ctx, page, limit)
}

// ImageByID looks a single image up.
func (s *Service) ImageByID(ctx context.Context, id string) (models.MenuImage, error) {
	return s.store.FindByID(ctx, id)
}

// UploadSummary builds the human-readable outcome line for a batch.
func UploadSummary(added int, results []UploadResult) string {
	failed := len(results) - added
	if failed == 0 {
		return fmt.Sprintf("%d image(s) uploaded", added)
	}
	if added == 0 {
		for _, r := range results {
			if r.Error != "" {
				return fmt.Sprintf("upload failed: %s", r.Error)
			}
		}
	}
	return fmt.Sprintf("%d image(s) uploaded, %d failed", added, failed)
}
