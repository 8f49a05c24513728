package port

import (
	"context"
	"imgfx/internal/core/domain"
)

type Uploader interface {
	// Upload stores the original image on the backend and returns its storage key and URL.
	Upload(ctx context.Context, data []byte, filename string) (domain.UploadedImage, error)
}

type Processor interface {
	// Process applies effectID to the stored image identified by filename.
	Process(ctx context.Context, filename, effectID string) (domain.ProcessedImage, error)
}

type GalleryFetcher interface {
	// FetchAll returns every processed image known to the backend in server order.
	FetchAll(ctx context.Context) ([]domain.GalleryEntry, error)
}

type URLResolver interface {
	// ResolveURL turns a backend-relative image reference into an absolute URL.
	ResolveURL(ref string) (string, error)
}
