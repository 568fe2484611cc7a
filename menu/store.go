// Package menu manages the uploaded menu-card images: document metadata,
// blob payloads and the change events the storefront listens for.
package menu

import (
	"context"

	"sherpa/models"
)

// Patch holds the mutable fields of an image document. Nil means "leave
// unchanged".
type Patch struct {
	Name     *string
	IsActive *bool
}

// ImageStore is the document-store surface for menu images. FindByID,
// Update and Delete return models.ErrNotFound for unknown ids.
type ImageStore interface {
	Insert(ctx context.Context, img models.MenuImage) error
	FindByID(ctx context.Context, id string) (models.MenuImage, error)
	Update(ctx context.Context, id string, p Patch) (models.MenuImage, error)
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]models.MenuImage, error)
	ListAll(ctx context.Context, page, limit int) ([]models.MenuImage, int64, error)
}
