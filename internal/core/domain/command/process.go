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

type Process struct {
	sessions   service.SessionStore
	textSender port.TextSender
	command    string
}

func NewProcess(sessions service.SessionStore, textSender port.TextSender, command string) *Process {
	return &Process{sessions: sessions, textSender: textSender, command: command}
}

func (p *Process) GetCommand() string {
	return p.command
}

func (p *Process) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", p.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wf, err := p.sessions.Session(ctx, message.ChatID)
	if err != nil {
		return p.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error loading session: %w", err), message)
	}

	actionCtx, stopAction := context.WithCancel(ctx)
	defer stopAction()
	go p.textSender.SendChatAction(actionCtx, message.ChatID, domain.UploadingPhoto)

	err = wf.Process(ctx)
	if !settled(err) {
		return p.textSender.NotifyAndReturnError(ctx, err, message)
	}

	l.Debug().Err(err).Msg("processing done")

	return nil
}
