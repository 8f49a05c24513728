package handler

import (
	"context"
	"fmt"
	"imgfx/internal/core/domain"
	"imgfx/internal/core/port"
	"imgfx/internal/core/service"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const renderQueueSize = 16

type RendererParams struct {
	TextSender  port.TextSender
	ImageSender port.ImageSender
	Downloader  port.Downloader
	Resolver    port.URLResolver
	Catalog     *domain.Catalog
	Timeout     time.Duration
}

// Renderer reports workflow state changes to the chat that owns the workflow.
type Renderer struct {
	textSender  port.TextSender
	imageSender port.ImageSender
	downloader  port.Downloader
	resolver    port.URLResolver
	catalog     *domain.Catalog
	timeout     time.Duration
}

func NewRenderer(p RendererParams) *Renderer {
	return &Renderer{
		textSender:  p.TextSender,
		imageSender: p.ImageSender,
		downloader:  p.Downloader,
		resolver:    p.Resolver,
		catalog:     p.Catalog,
		timeout:     p.Timeout,
	}
}

type view struct {
	chatID int64
	last   domain.State
	jobs   chan func(ctx context.Context)
	once   sync.Once
	l      zerolog.Logger
}

// Attach subscribes to wf on behalf of chatID and returns a func that detaches again.
// Messages are sent from a separate goroutine in the order the changes happened.
func (r *Renderer) Attach(chatID int64, wf *service.Workflow) func() {
	v := &view{
		chatID: chatID,
		last:   wf.State(),
		jobs:   make(chan func(ctx context.Context), renderQueueSize),
		l:      log.With().Str("component", "renderer").Int64("chatId", chatID).Logger(),
	}

	unsubscribe := wf.Subscribe(func(s domain.State) {
		r.render(v, s)
	})

	go r.run(v)

	return func() {
		unsubscribe()
		v.once.Do(func() { close(v.jobs) })
	}
}

func (r *Renderer) run(v *view) {
	for job := range v.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		job(ctx)
		cancel()
	}

	v.l.Debug().Msg("renderer stopped")
}

func (r *Renderer) render(v *view, s domain.State) {
	last := v.last
	v.last = s

	if s.Err != nil && s.Err != last.Err {
		r.enqueue(v, r.sendText(v, s.Err.Message))
	}

	if s.UploadedImage != nil && (last.UploadedImage == nil || *s.UploadedImage != *last.UploadedImage) {
		r.enqueue(v, r.sendText(v, "Image uploaded. Pick an effect with /effect <id>, see /effects for the list."))
	}

	if s.SelectedEffect != "" && s.SelectedEffect != last.SelectedEffect {
		text := fmt.Sprintf("Selected effect: %s. Send /process to apply it.", r.catalog.DisplayName(s.SelectedEffect))
		r.enqueue(v, r.sendText(v, text))
	}

	if s.ProcessedImage != nil && (last.ProcessedImage == nil || *s.ProcessedImage != *last.ProcessedImage) {
		r.enqueue(v, r.sendProcessed(v, *s.ProcessedImage))
	}
}

func (r *Renderer) enqueue(v *view, job func(ctx context.Context)) {
	select {
	case v.jobs <- job:
	default:
		v.l.Warn().Msg("render queue full, dropping update")
	}
}

func (r *Renderer) sendText(v *view, text string) func(ctx context.Context) {
	return func(ctx context.Context) {
		_, err := r.textSender.SendMessageReply(ctx, &domain.Message{ChatID: v.chatID}, text)
		if err != nil {
			v.l.Err(err).Msg("failed to send state update")
		}
	}
}

func (r *Renderer) sendProcessed(v *view, image domain.ProcessedImage) func(ctx context.Context) {
	return func(ctx context.Context) {
		message := &domain.Message{ChatID: v.chatID}
		caption := "Processed with " + r.catalog.DisplayName(image.Effect)

		link, err := r.resolver.ResolveURL(image.URL)
		if err != nil {
			v.l.Err(err).Str("url", image.URL).Msg("invalid processed image reference")
			_ = r.textSender.NotifyAndReturnError(ctx, err, message)
			return
		}

		data, err := r.downloader.DownloadFile(ctx, link)
		if err == nil {
			err = r.imageSender.SendImageReply(ctx, message, data, caption)
		}

		if err != nil {
			v.l.Warn().Err(err).Str("url", link).Msg("could not send processed image, sending link")
			r.sendText(v, caption+": "+link)(ctx)
		}
	}
}
