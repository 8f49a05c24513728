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

// Upload handles incoming images. The handler routes photo and image document messages
// here; a caption naming a known effect selects it once the upload completes.
type Upload struct {
	sessions   service.SessionStore
	downloader port.Downloader
	validator  *domain.Validator
	textSender port.TextSender
	command    string
}

func NewUpload(sessions service.SessionStore,
	downloader port.Downloader,
	validator *domain.Validator,
	textSender port.TextSender,
	command string) *Upload {
	return &Upload{
		sessions:   sessions,
		downloader: downloader,
		validator:  validator,
		textSender: textSender,
		command:    command,
	}
}

func (u *Upload) GetCommand() string {
	return u.command
}

func (u *Upload) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("imageName", message.ImageName).
		Str("mimeType", message.ImageMimeType).
		Int64("size", message.ImageSize).
		Str("command", u.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if message.ImageURL == "" {
		_ = u.textSender.NotifyAndReturnError(ctx, errors.New("send an image to upload it"), message)
		return nil
	}

	wf, err := u.sessions.Session(ctx, message.ChatID)
	if err != nil {
		return u.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error loading session: %w", err), message)
	}

	file := domain.File{
		Name:     message.ImageName,
		MimeType: message.ImageMimeType,
		Size:     message.ImageSize,
	}

	// the workflow rejects the descriptor itself, so invalid files are never downloaded
	if err := u.validator.Validate(file.Descriptor()); err == nil {
		actionCtx, stopAction := context.WithCancel(ctx)
		defer stopAction()
		go u.textSender.SendChatAction(actionCtx, message.ChatID, domain.UploadingPhoto)

		file.Data, err = u.downloader.DownloadFile(ctx, message.ImageURL)
		if err != nil {
			err = fmt.Errorf("error downloading image: %w", err)
			return u.textSender.NotifyAndReturnError(ctx, err, message)
		}
		file.Size = int64(len(file.Data))
	}

	err = wf.SelectFile(ctx, file)
	if err != nil {
		l.Debug().Err(err).Msg("upload not applied")
		if settled(err) {
			return nil
		}
		return u.textSender.NotifyAndReturnError(ctx, err, message)
	}

	effectID := strings.ToLower(ParseCommandArgs(message.Text))
	if effectID == "" || !wf.Catalog().Contains(effectID) {
		return nil
	}

	l.Debug().Str("effect", effectID).Msg("selecting effect from caption")

	if err := wf.SelectEffect(effectID); !settled(err) {
		return u.textSender.NotifyAndReturnError(ctx, err, message)
	}

	return nil
}
