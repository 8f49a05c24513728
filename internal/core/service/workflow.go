package service

import (
	"context"
	"errors"
	"fmt"
	"imgfx/internal/core/domain"
	"imgfx/internal/core/port"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultTimeout = 30 * time.Second

type WorkflowParams struct {
	Uploader  port.Uploader
	Processor port.Processor
	Gallery   port.GalleryFetcher
	Catalog   *domain.Catalog
	Validator *domain.Validator
	// Timeout bounds every backend call. Zero means DefaultTimeout.
	Timeout time.Duration
	Logger  *zerolog.Logger
}

// processContext identifies an outstanding processing call and the upload/effect pair it was issued for.
type processContext struct {
	token    string
	filename string
	effect   string
}

// Workflow owns the state of one upload → effect → process session. Intents may be
// called from several goroutines; results whose issuing context was superseded in the
// meantime are discarded instead of applied.
type Workflow struct {
	uploader  port.Uploader
	processor port.Processor
	gallery   port.GalleryFetcher
	catalog   *domain.Catalog
	validator *domain.Validator
	timeout   time.Duration
	l         zerolog.Logger

	mu             sync.Mutex
	state          domain.State
	version        uint64
	uploadToken    string
	process        *processContext
	gallerySeq     uint64
	galleryPending int

	notifyMu    sync.Mutex
	delivered   uint64
	subscribers map[uint64]func(domain.State)
	nextSub     uint64
}

func NewWorkflow(p WorkflowParams) *Workflow {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := log.Logger
	if p.Logger != nil {
		logger = *p.Logger
	}

	return &Workflow{
		uploader:    p.Uploader,
		processor:   p.Processor,
		gallery:     p.Gallery,
		catalog:     p.Catalog,
		validator:   p.Validator,
		timeout:     timeout,
		l:           logger.With().Str("component", "workflow").Logger(),
		subscribers: make(map[uint64]func(domain.State)),
	}
}

func (w *Workflow) Catalog() *domain.Catalog {
	return w.catalog
}

// State returns a snapshot of the current state.
func (w *Workflow) State() domain.State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.state.Clone()
}

// Subscribe registers fn to receive a snapshot after every state change. Snapshots are
// delivered one at a time in apply order; a snapshot older than one already delivered is
// skipped. fn must not call intents on w synchronously.
func (w *Workflow) Subscribe(fn func(domain.State)) func() {
	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()

	id := w.nextSub
	w.nextSub++
	w.subscribers[id] = fn

	return func() {
		w.notifyMu.Lock()
		defer w.notifyMu.Unlock()
		delete(w.subscribers, id)
	}
}

// apply runs fn under the state lock and notifies subscribers if fn reports a change.
func (w *Workflow) apply(fn func(s *domain.State) bool) {
	w.mu.Lock()
	if !fn(&w.state) {
		w.mu.Unlock()
		return
	}

	w.version++
	version := w.version
	snapshot := w.state.Clone()
	w.mu.Unlock()

	w.publish(version, snapshot)
}

func (w *Workflow) publish(version uint64, s domain.State) {
	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()

	if version <= w.delivered {
		return
	}
	w.delivered = version

	for _, fn := range w.subscribers {
		fn(s)
	}
}

// Mount performs the initial gallery load for a freshly created workflow.
func (w *Workflow) Mount(ctx context.Context) error {
	return w.RefreshGallery(ctx)
}

// SelectFile validates file and uploads it. A failed validation never reaches the backend.
// Only the most recently issued upload may change the state.
func (w *Workflow) SelectFile(ctx context.Context, file domain.File) error {
	l := w.l.With().
		Str("file", file.Name).
		Str("mimeType", file.MimeType).
		Int64("size", file.Descriptor().SizeBytes).
		Logger()

	if err := w.validator.Validate(file.Descriptor()); err != nil {
		l.Info().Err(err).Msg("file rejected")
		werr := asWorkflowError(err, domain.KindUnsupportedType, domain.MsgUnsupportedType)
		w.apply(func(s *domain.State) bool {
			s.Err = werr
			return true
		})
		return werr
	}

	token := newToken()
	w.apply(func(s *domain.State) bool {
		w.uploadToken = token
		s.Busy.Uploading = true
		// an upload supersedes whatever is being processed for the previous image
		w.invalidateProcess(s)
		return true
	})

	l.Debug().Str("token", token).Msg("uploading")

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	uploaded, err := w.uploader.Upload(ctx, file.Data, file.Name)
	cancel()

	var werr *domain.WorkflowError
	if err != nil {
		werr = asWorkflowError(err, domain.KindUploadFailed, domain.MsgUploadFailed)
	}

	applied := false
	w.apply(func(s *domain.State) bool {
		if w.uploadToken != token {
			return false
		}

		applied = true
		w.uploadToken = ""
		s.Busy.Uploading = false

		if werr != nil {
			s.Err = werr
			return true
		}

		s.UploadedImage = &uploaded
		s.SelectedEffect = ""
		s.ProcessedImage = nil
		s.Err = nil
		w.invalidateProcess(s)
		return true
	})

	if !applied {
		l.Debug().Str("token", token).Err(err).Msg("discarding superseded upload result")
		return domain.ErrSuperseded
	}

	if werr != nil {
		l.Warn().Err(err).Msg("upload failed")
		return werr
	}

	l.Info().Str("filename", uploaded.Filename).Msg("upload complete")
	return nil
}

// SelectEffect chooses the effect for the current upload. Switching to a different effect
// discards any upload or processing still in flight.
func (w *Workflow) SelectEffect(effectID string) error {
	var werr *domain.WorkflowError

	w.apply(func(s *domain.State) bool {
		switch {
		case s.UploadedImage == nil:
			werr = domain.NewError(domain.KindPreconditionNotMet, domain.MsgMissingInputs)
		case !w.catalog.Contains(effectID):
			werr = domain.WrapError(domain.KindPreconditionNotMet,
				fmt.Sprintf("Unknown effect: %s", effectID), domain.ErrUnknownEffect)
		}

		if werr != nil {
			s.Err = werr
			return true
		}

		if s.SelectedEffect != effectID {
			w.invalidateProcess(s)
			w.invalidateUpload(s)
		}

		s.SelectedEffect = effectID
		s.ProcessedImage = nil
		s.Err = nil
		return true
	})

	if werr != nil {
		w.l.Debug().Str("effect", effectID).Err(werr).Msg("effect rejected")
		return werr
	}

	return nil
}

// Process applies the selected effect to the current upload and, once the result is
// stored, refreshes the gallery. At most one processing call is in flight.
func (w *Workflow) Process(ctx context.Context) error {
	var (
		pc   processContext
		werr *domain.WorkflowError
	)

	w.apply(func(s *domain.State) bool {
		switch {
		case s.UploadedImage == nil || s.SelectedEffect == "":
			werr = domain.NewError(domain.KindPreconditionNotMet, domain.MsgMissingInputs)
		case s.Busy.Processing:
			werr = domain.NewError(domain.KindPreconditionNotMet, domain.MsgAlreadyProcessing)
		case s.Busy.Uploading:
			werr = domain.NewError(domain.KindPreconditionNotMet, domain.MsgUploadPending)
		}

		if werr != nil {
			s.Err = werr
			return true
		}

		pc = processContext{
			token:    newToken(),
			filename: s.UploadedImage.Filename,
			effect:   s.SelectedEffect,
		}
		current := pc
		w.process = &current
		s.Busy.Processing = true
		s.Err = nil
		return true
	})

	if werr != nil {
		w.l.Debug().Err(werr).Msg("process request rejected")
		return werr
	}

	l := w.l.With().
		Str("filename", pc.filename).
		Str("effect", pc.effect).
		Str("token", pc.token).
		Logger()

	l.Debug().Msg("processing")

	cctx, cancel := context.WithTimeout(ctx, w.timeout)
	processed, err := w.processor.Process(cctx, pc.filename, pc.effect)
	cancel()

	if err != nil {
		werr = asWorkflowError(err, domain.KindProcessingFailed, domain.MsgProcessingFailed)
	}

	applied := false
	w.apply(func(s *domain.State) bool {
		if w.process == nil || w.process.token != pc.token {
			return false
		}

		applied = true
		w.process = nil
		s.Busy.Processing = false

		if werr != nil {
			s.Err = werr
			return true
		}

		s.ProcessedImage = &processed
		return true
	})

	if !applied {
		l.Debug().Err(err).Msg("discarding superseded processing result")
		return domain.ErrSuperseded
	}

	if werr != nil {
		l.Warn().Err(err).Msg("processing failed")
		return werr
	}

	l.Info().Str("url", processed.URL).Msg("processing complete")

	if err := w.RefreshGallery(ctx); err != nil {
		l.Warn().Err(err).Msg("gallery refresh after processing failed")
	}

	return nil
}

// RefreshGallery replaces the gallery with a fresh listing. When refreshes overlap only
// the most recently issued one is applied; a failure keeps the previous gallery.
func (w *Workflow) RefreshGallery(ctx context.Context) error {
	var seq uint64
	w.apply(func(s *domain.State) bool {
		w.gallerySeq++
		seq = w.gallerySeq
		w.galleryPending++
		s.Busy.LoadingGallery = true
		return true
	})

	cctx, cancel := context.WithTimeout(ctx, w.timeout)
	entries, err := w.gallery.FetchAll(cctx)
	cancel()

	var werr *domain.WorkflowError
	if err != nil {
		werr = asWorkflowError(err, domain.KindGalleryFetchFailed, domain.MsgGalleryFetchFailed)
	}

	w.apply(func(s *domain.State) bool {
		w.galleryPending--
		s.Busy.LoadingGallery = w.galleryPending > 0

		if seq != w.gallerySeq {
			return true
		}

		if werr != nil {
			s.Err = werr
			return true
		}

		if entries == nil {
			entries = []domain.GalleryEntry{}
		}
		s.Gallery = entries
		return true
	})

	if werr != nil {
		w.l.Warn().Err(err).Msg("gallery refresh failed")
		return werr
	}

	w.l.Debug().Int("entries", len(entries)).Msg("gallery refreshed")
	return nil
}

// DismissError clears the error. It is a no-op without one.
func (w *Workflow) DismissError() {
	w.apply(func(s *domain.State) bool {
		if s.Err == nil {
			return false
		}

		s.Err = nil
		return true
	})
}

// invalidateProcess forgets the outstanding processing call, if any; its result will be
// discarded on arrival. Must be called with w.mu held.
func (w *Workflow) invalidateProcess(s *domain.State) {
	if w.process == nil {
		return
	}

	w.l.Debug().Str("token", w.process.token).Msg("processing context superseded")
	w.process = nil
	s.Busy.Processing = false
}

// invalidateUpload forgets the outstanding upload, if any; its result will be discarded
// on arrival. Must be called with w.mu held.
func (w *Workflow) invalidateUpload(s *domain.State) {
	if w.uploadToken == "" {
		return
	}

	w.l.Debug().Str("token", w.uploadToken).Msg("upload context superseded")
	w.uploadToken = ""
	s.Busy.Uploading = false
}

func asWorkflowError(err error, kind domain.ErrorKind, fallback string) *domain.WorkflowError {
	var werr *domain.WorkflowError
	if errors.As(err, &werr) {
		return werr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.KindTimeout, domain.MsgTimeout, err)
	}

	return domain.WrapError(kind, fallback, err)
}

func newToken() string {
	return uuid.Must(uuid.NewV4()).String()
}
