package command

import (
	"context"
	"fmt"
	"imgfx/internal/core/domain"
	"imgfx/internal/core/port"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Effects struct {
	textSender port.TextSender
	catalog    *domain.Catalog
	command    string
}

func NewEffects(textSender port.TextSender, catalog *domain.Catalog, command string) *Effects {
	return &Effects{textSender: textSender, catalog: catalog, command: command}
}

func (e *Effects) GetCommand() string {
	return e.command
}

func (e *Effects) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	log.Info().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", e.GetCommand()).
		Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := e.textSender.SendMessageReply(ctx, message, FormatEffects(e.catalog))
	if err != nil {
		return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending effect list: %w", err), message)
	}

	return nil
}

// FormatEffects lists the catalog one effect per line.
func FormatEffects(catalog *domain.Catalog) string {
	var b strings.Builder
	b.WriteString("Available effects:")

	for _, effect := range catalog.List() {
		fmt.Fprintf(&b, "\n%s: %s - %s", effect.ID, effect.Name, effect.Description)
	}

	return b.String()
}
