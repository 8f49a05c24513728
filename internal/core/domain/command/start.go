package command

import (
	"context"
	"fmt"
	"imgfx/internal/core/domain"
	"imgfx/internal/core/port"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

type Start struct {
	textSender port.TextSender
	catalog    *domain.Catalog
	maxBytes   int64
	command    string
}

func NewStart(textSender port.TextSender, catalog *domain.Catalog, maxBytes int64, command string) *Start {
	return &Start{textSender: textSender, catalog: catalog, maxBytes: maxBytes, command: command}
}

func (s *Start) GetCommand() string {
	return s.command
}

func (s *Start) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	log.Info().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", s.GetCommand()).
		Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := s.textSender.SendMessageReply(ctx, message, s.usage())
	if err != nil {
		return s.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending usage: %w", err), message)
	}

	return nil
}

func (s *Start) usage() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Send me a JPEG or PNG image (up to %s), then pick an effect.\n", humanize.IBytes(uint64(s.maxBytes)))
	fmt.Fprintf(&b, "Add an effect ID as the caption, e.g. \"%s\", to select it right away.\n\n", s.catalog.IDs()[0])
	b.WriteString("/effects - list available effects\n")
	b.WriteString("/effect <id> - select an effect\n")
	b.WriteString("/process - apply the selected effect\n")
	b.WriteString("/gallery - show recent results\n")
	b.WriteString("/status - show the current image and effect\n")
	b.WriteString("/dismiss - clear the last error")

	return b.String()
}
