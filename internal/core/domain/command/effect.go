package command

import (
	"context"
	"errors"
	"fmt"
	"imgfx/internal/core/domain"
	"imgfx/internal/core/port"
	"imgfx/internal/core/service"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Effect struct {
	sessions   service.SessionStore
	textSender port.TextSender
	command    string
}

func NewEffect(sessions service.SessionStore, textSender port.TextSender, command string) *Effect {
	return &Effect{sessions: sessions, textSender: textSender, command: command}
}

func (e *Effect) GetCommand() string {
	return e.command
}

func (e *Effect) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", e.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	effectID := strings.ToLower(ParseCommandArgs(message.Text))
	if effectID == "" {
		_ = e.textSender.NotifyAndReturnError(ctx, errors.New("usage: /effect <id>, see /effects"), message)
		return nil
	}

	wf, err := e.sessions.Session(ctx, message.ChatID)
	if err != nil {
		return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error loading session: %w", err), message)
	}

	err = wf.SelectEffect(effectID)
	if !settled(err) {
		return e.textSender.NotifyAndReturnError(ctx, err, message)
	}

	l.Debug().Str("effect", effectID).Err(err).Msg("effect selection done")

	return nil
}
