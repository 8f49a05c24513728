package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"imgfx/internal/core/domain"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

type uploadResponse struct {
	Filename     string `json:"filename"`
	URL          string `json:"url"`
	OriginalName string `json:"original_name"`
	Message      string `json:"message"`
}

// Upload sends data as the multipart field "file".
func (c *Client) Upload(ctx context.Context, data []byte, filename string) (domain.UploadedImage, error) {
	payload, contentType, err := multipartFile("file", filename, data)
	if err != nil {
		return domain.UploadedImage{}, toWorkflowError(err, domain.KindUploadFailed, domain.MsgUploadFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(uploadPath), payload)
	if err != nil {
		log.Error().Err(err).Msg("error creating upload request")
		return domain.UploadedImage{}, toWorkflowError(err, domain.KindUploadFailed, domain.MsgUploadFailed)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return domain.UploadedImage{}, toWorkflowError(err, domain.KindUploadFailed, domain.MsgUploadFailed)
	}

	var result uploadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		err = fmt.Errorf("error unmarshalling upload response: %w", err)
		return domain.UploadedImage{}, toWorkflowError(err, domain.KindUploadFailed, domain.MsgUploadFailed)
	}

	if result.Filename == "" || result.URL == "" {
		err := errors.New("upload response is missing filename or url")
		return domain.UploadedImage{}, toWorkflowError(err, domain.KindUploadFailed, domain.MsgUploadFailed)
	}

	log.Debug().Str("filename", result.Filename).Str("original", result.OriginalName).Msg("image uploaded")

	return domain.UploadedImage{Filename: result.Filename, URL: result.URL}, nil
}

func multipartFile(field, filename string, data []byte) (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filepath.Base(filename)))
	h.Set("Content-Type", http.DetectContentType(data))

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("error creating multipart part: %w", err)
	}

	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("error writing multipart part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("error closing multipart writer: %w", err)
	}

	return buf, w.FormDataContentType(), nil
}
