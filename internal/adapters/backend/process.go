package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"imgfx/internal/core/domain"
	"net/http"

	"github.com/rs/zerolog/log"
)

type processRequest struct {
	Filename string `json:"filename"`
	Effect   string `json:"effect"`
}

type processResponse struct {
	Effect            string `json:"effect"`
	URL               string `json:"url"`
	ProcessedFilename string `json:"processed_filename"`
	Message           string `json:"message"`
}

func (c *Client) Process(ctx context.Context, filename, effectID string) (domain.ProcessedImage, error) {
	if filename == "" || effectID == "" {
		return domain.ProcessedImage{}, domain.NewError(domain.KindPreconditionNotMet, domain.MsgMissingInputs)
	}

	payloadBuf := new(bytes.Buffer)
	err := json.NewEncoder(payloadBuf).Encode(processRequest{Filename: filename, Effect: effectID})
	if err != nil {
		err = fmt.Errorf("error encoding process request: %w", err)
		return domain.ProcessedImage{}, toWorkflowError(err, domain.KindProcessingFailed, domain.MsgProcessingFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(processPath), payloadBuf)
	if err != nil {
		log.Error().Err(err).Msg("error creating process request")
		return domain.ProcessedImage{}, toWorkflowError(err, domain.KindProcessingFailed, domain.MsgProcessingFailed)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return domain.ProcessedImage{}, toWorkflowError(err, domain.KindProcessingFailed, domain.MsgProcessingFailed)
	}

	var result processResponse
	if err := json.Unmarshal(body, &result); err != nil {
		err = fmt.Errorf("error unmarshalling process response: %w", err)
		return domain.ProcessedImage{}, toWorkflowError(err, domain.KindProcessingFailed, domain.MsgProcessingFailed)
	}

	if result.URL == "" {
		err := errors.New("process response is missing url")
		return domain.ProcessedImage{}, toWorkflowError(err, domain.KindProcessingFailed, domain.MsgProcessingFailed)
	}

	if result.Effect == "" {
		result.Effect = effectID
	}

	log.Debug().Str("effect", result.Effect).Str("processed", result.ProcessedFilename).Msg("image processed")

	return domain.ProcessedImage{Effect: result.Effect, URL: result.URL}, nil
}
