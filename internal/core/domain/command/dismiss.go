package command

import (
	"context"
	"fmt"
	"imgfx/internal/core/domain"
	"imgfx/internal/core/port"
	"imgfx/internal/core/service"
	"time"

	"github.com/rs/zerolog/log"
)

type Dismiss struct {
	sessions   service.SessionStore
	textSender port.TextSender
	command    string
}

func NewDismiss(sessions service.SessionStore, textSender port.TextSender, command string) *Dismiss {
	return &Dismiss{sessions: sessions, textSender: textSender, command: command}
}

func (d *Dismiss) GetCommand() string {
	return d.command
}

func (d *Dismiss) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	log.Info().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", d.GetCommand()).
		Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wf, err := d.sessions.Session(ctx, message.ChatID)
	if err != nil {
		return d.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error loading session: %w", err), message)
	}

	reply := "Nothing to dismiss"
	if wf.State().Err != nil {
		reply = "Error dismissed"
	}
	wf.DismissError()

	_, err = d.textSender.SendMessageReply(ctx, message, reply)
	if err != nil {
		return d.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending reply: %w", err), message)
	}

	return nil
}
