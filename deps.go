package main

import (
	"fmt"
	"imgfx/internal/adapters/backend"
	"imgfx/internal/config"
	"imgfx/internal/core/domain"
	"imgfx/internal/core/service"

	"github.com/rs/zerolog"
)

// deps holds what every view shares: one backend client and the configured catalog and validator.
type deps struct {
	cfg       *config.Config
	client    *backend.Client
	catalog   *domain.Catalog
	validator *domain.Validator
}

func newDeps(cfg *config.Config) (*deps, error) {
	catalog, err := domain.NewCatalog(cfg.Effects.Enabled)
	if err != nil {
		return nil, fmt.Errorf("invalid effects.enabled: %w", err)
	}

	validator, err := domain.NewValidator(cfg.Upload.AllowedTypes, cfg.Upload.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid upload settings: %w", err)
	}

	client, err := backend.NewClient(cfg.Backend.BaseURL, backend.WithRetryPolicy(backend.RetryPolicy{
		Attempts:  cfg.Gallery.Retries,
		BaseDelay: cfg.Gallery.Backoff,
		MaxDelay:  cfg.Gallery.MaxDelay,
	}))
	if err != nil {
		return nil, fmt.Errorf("invalid backend settings: %w", err)
	}

	return &deps{cfg: cfg, client: client, catalog: catalog, validator: validator}, nil
}

func (d *deps) newWorkflow(logger *zerolog.Logger) *service.Workflow {
	return service.NewWorkflow(service.WorkflowParams{
		Uploader:  d.client,
		Processor: d.client,
		Gallery:   d.client,
		Catalog:   d.catalog,
		Validator: d.validator,
		Timeout:   d.cfg.Backend.Timeout,
		Logger:    logger,
	})
}
