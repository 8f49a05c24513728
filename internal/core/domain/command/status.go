package command

import (
	"context"
	"fmt"
	"imgfx/internal/core/domain"
	"imgfx/internal/core/port"
	"imgfx/internal/core/service"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Status struct {
	sessions   service.SessionStore
	resolver   port.URLResolver
	textSender port.TextSender
	command    string
}

func NewStatus(sessions service.SessionStore, resolver port.URLResolver, textSender port.TextSender, command string) *Status {
	return &Status{sessions: sessions, resolver: resolver, textSender: textSender, command: command}
}

func (s *Status) GetCommand() string {
	return s.command
}

func (s *Status) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	log.Info().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", s.GetCommand()).
		Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wf, err := s.sessions.Session(ctx, message.ChatID)
	if err != nil {
		return s.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error loading session: %w", err), message)
	}

	_, err = s.textSender.SendMessageReply(ctx, message, FormatStatus(wf.State(), wf.Catalog(), s.resolver))
	if err != nil {
		return s.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending status: %w", err), message)
	}

	return nil
}

func FormatStatus(state domain.State, catalog *domain.Catalog, resolver port.URLResolver) string {
	var b strings.Builder

	image := "none"
	if state.UploadedImage != nil {
		image = state.UploadedImage.Filename
	}
	fmt.Fprintf(&b, "Image: %s\n", image)

	effect := "none"
	if state.SelectedEffect != "" {
		effect = catalog.DisplayName(state.SelectedEffect)
	}
	fmt.Fprintf(&b, "Effect: %s\n", effect)

	if state.ProcessedImage != nil {
		fmt.Fprintf(&b, "Result: %s\n", resolve(resolver, state.ProcessedImage.URL))
	}

	fmt.Fprintf(&b, "Status: %s", activity(state.Busy))

	if state.Err != nil {
		fmt.Fprintf(&b, "\nError: %s", state.Err.Message)
	}

	return b.String()
}

func activity(busy domain.Busy) string {
	var parts []string
	if busy.Uploading {
		parts = append(parts, "uploading")
	}
	if busy.Processing {
		parts = append(parts, "processing")
	}
	if busy.LoadingGallery {
		parts = append(parts, "loading gallery")
	}

	if len(parts) == 0 {
		return "idle"
	}

	return strings.Join(parts, ", ")
}
