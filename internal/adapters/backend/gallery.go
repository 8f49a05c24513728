package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"imgfx/internal/core/domain"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// entryID accepts both numeric and string identifiers.
type entryID string

func (id *entryID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = entryID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid gallery entry id %s: %w", b, err)
	}
	*id = entryID(n.String())
	return nil
}

type galleryEntry struct {
	ID           entryID `json:"id"`
	OriginalURL  string  `json:"original_url"`
	ProcessedURL string  `json:"processed_url"`
	Effect       string  `json:"effect"`
	CreatedAt    string  `json:"created_at"`
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseCreatedAt(s string) time.Time {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	return time.Time{}
}

// FetchAll lists the gallery, retrying transient failures per the client's RetryPolicy.
func (c *Client) FetchAll(ctx context.Context) ([]domain.GalleryEntry, error) {
	var entries []domain.GalleryEntry

	err := c.retry.do(ctx, func() error {
		var err error
		entries, err = c.fetchGallery(ctx)
		return err
	})
	if err != nil {
		return nil, toWorkflowError(err, domain.KindGalleryFetchFailed, domain.MsgGalleryFetchFailed)
	}

	return entries, nil
}

func (c *Client) fetchGallery(ctx context.Context) ([]domain.GalleryEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(galleryPath), nil)
	if err != nil {
		log.Error().Err(err).Msg("error creating gallery request")
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result []galleryEntry
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, permanent(fmt.Errorf("error unmarshalling gallery response: %w", err))
	}

	entries := make([]domain.GalleryEntry, 0, len(result))
	for _, e := range result {
		entries = append(entries, domain.GalleryEntry{
			ID:           string(e.ID),
			OriginalURL:  e.OriginalURL,
			ProcessedURL: e.ProcessedURL,
			Effect:       e.Effect,
			CreatedAt:    parseCreatedAt(e.CreatedAt),
		})
	}

	return entries, nil
}
