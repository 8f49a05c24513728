package file

import (
	"context"
	"errors"
	"fmt"
	"imgfx/internal/core/domain"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// DefaultMaxDownloadBytes caps downloads when no limit is given.
const DefaultMaxDownloadBytes int64 = 64 << 20

var ErrDownloadTooLarge = errors.New("download exceeds size limit")

// DownloadFile returns the byte content of a file on a provided URL. Bodies larger than
// maxBytes fail with ErrDownloadTooLarge; maxBytes <= 0 means DefaultMaxDownloadBytes.
func DownloadFile(ctx context.Context, path string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDownloadBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		err = fmt.Errorf("error creating request %w", err)
		log.Error().Err(err).Str("path", path).Send()
		return nil, err
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error executing request %w", err)
		log.Error().Err(err).Str("path", path).Send()
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code on download: %d", res.StatusCode)
		log.Error().Err(err).Str("path", path).Send()
		return nil, err
	}

	if res.ContentLength > maxBytes {
		err = fmt.Errorf("%w: %d bytes", ErrDownloadTooLarge, res.ContentLength)
		log.Error().Err(err).Str("path", path).Send()
		return nil, err
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxBytes+1))
	if err != nil {
		err = fmt.Errorf("error reading response %w", err)
		log.Error().Err(err).Str("path", path).Send()
		return nil, err
	}

	if int64(len(buf)) > maxBytes {
		err = fmt.Errorf("%w: more than %d bytes", ErrDownloadTooLarge, maxBytes)
		log.Error().Err(err).Str("path", path).Send()
		return nil, err
	}

	return buf, nil
}

// LoadImage reads a local file into a domain.File. The MIME type comes from the extension,
// or from the content when the extension is unknown.
func LoadImage(path string) (domain.File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("error reading file %w", err)
		log.Error().Err(err).Str("path", path).Send()
		return domain.File{}, err
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(buf)
	}

	log.Debug().Str("path", path).Str("mimeType", mimeType).Int("bytes", len(buf)).Msg("loaded file")

	return domain.File{
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Size:     int64(len(buf)),
		Data:     buf,
	}, nil
}

// SaveFile writes data to path, creating parent directories as needed.
func SaveFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			err = fmt.Errorf("error creating directory %w", err)
			log.Error().Err(err).Str("path", path).Send()
			return err
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		err = fmt.Errorf("error writing file %w", err)
		log.Error().Err(err).Str("path", path).Send()
		return err
	}

	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("saved file")

	return nil
}

// SaveToDir saves bytes under a random name in dir and returns the path.
func SaveToDir(dir string, data []byte, extension string) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}

	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	path := filepath.Join(dir, id.String()+extension)
	if err := SaveFile(path, data); err != nil {
		return "", err
	}

	return path, nil
}

// Downloader exposes DownloadFile as a port.Downloader.
type Downloader struct {
	// MaxBytes caps each download. Zero means DefaultMaxDownloadBytes.
	MaxBytes int64
}

func (d Downloader) DownloadFile(ctx context.Context, url string) ([]byte, error) {
	return DownloadFile(ctx, url, d.MaxBytes)
}
