package handler

import (
	"context"
	"errors"
	"fmt"
	"imgfx/internal/core/domain"
	"imgfx/internal/core/domain/command"
	"imgfx/internal/core/port"
	"imgfx/internal/core/service"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// FileLocator resolves Telegram file IDs to download links. *bot.Bot implements it.
type FileLocator interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

type CommandParams struct {
	Registry port.CommandRegistry
	Auth     service.Authorizer
	Files    FileLocator
	// TextSender reports attachments that could not be fetched from Telegram.
	TextSender port.TextSender
	Timeout    time.Duration
	// UploadCommand receives every photo or document message, with the caption as arguments.
	UploadCommand string
	// MaxPhotoBytes caps the photo size picked from Telegram's resolutions.
	MaxPhotoBytes int64
}

type Command struct {
	commandRegistry port.CommandRegistry
	auth            service.Authorizer
	files           FileLocator
	textSender      port.TextSender
	timeout         time.Duration
	uploadCommand   string
	maxPhotoBytes   int64
}

func NewCommand(p CommandParams) *Command {
	return &Command{
		commandRegistry: p.Registry,
		auth:            p.Auth,
		files:           p.Files,
		textSender:      p.TextSender,
		timeout:         p.Timeout,
		uploadCommand:   p.UploadCommand,
		maxPhotoBytes:   p.MaxPhotoBytes,
	}
}

// attachment describes an image sent with a message, before it is downloaded.
type attachment struct {
	fileID   string
	name     string
	mimeType string
	size     int64
}

// Matches reports whether update carries a command or an attachment the handler routes.
func Matches(update *models.Update) bool {
	if update.Message == nil {
		return false
	}

	msg := update.Message
	return strings.HasPrefix(msg.Text, "/") || len(msg.Photo) > 0 || msg.Document != nil
}

func (c *Command) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	msg := update.Message
	text := msg.Text

	image := c.findAttachment(msg)
	if image != nil {
		text = c.uploadText(msg.Caption)
	}

	log.Debug().Str("message", text).Msg("received command")

	cmd := command.ParseCommand(text)
	commandHandler, err := c.commandRegistry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Err(err).Msg("no handler for command")
		return
	}

	if c.auth != nil && !c.auth.IsAuthorized(ctx, msg.Chat.ID) {
		log.Debug().Int64("chatId", msg.Chat.ID).Msg("not authorized")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		message := &domain.Message{
			ID:       msg.ID,
			ChatID:   msg.Chat.ID,
			Text:     text,
			Username: getUserNameFromMessage(msg.From),
		}

		if image != nil {
			url, err := c.downloadLink(ctx, image.fileID)
			if err != nil {
				log.Err(err).Str("fileId", image.fileID).Msg("error getting file from telegram api")
				if c.textSender != nil {
					_ = c.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error getting image from telegram: %w", err), message)
				}
				return
			}

			message.ImageURL = url
			message.ImageName = image.name
			message.ImageMimeType = image.mimeType
			message.ImageSize = image.size
		}

		err := commandHandler.Respond(ctx, c.timeout, message)
		if err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

// uploadText routes a media caption to the upload command, dropping a leading command word.
func (c *Command) uploadText(caption string) string {
	caption = strings.TrimSpace(caption)
	if strings.HasPrefix(caption, "/") {
		caption = command.ParseCommandArgs(caption)
	}

	return strings.TrimSpace(c.uploadCommand + " " + caption)
}

func (c *Command) findAttachment(msg *models.Message) *attachment {
	if len(msg.Photo) > 0 {
		photo := findLargestPhoto(msg.Photo, c.maxPhotoBytes)
		return &attachment{
			fileID:   photo.FileID,
			name:     fmt.Sprintf("photo_%s.jpg", photo.FileUniqueID),
			mimeType: "image/jpeg",
			size:     int64(photo.FileSize),
		}
	}

	if msg.Document != nil {
		return &attachment{
			fileID:   msg.Document.FileID,
			name:     msg.Document.FileName,
			mimeType: msg.Document.MimeType,
			size:     int64(msg.Document.FileSize),
		}
	}

	return nil
}

func (c *Command) downloadLink(ctx context.Context, fileID string) (string, error) {
	if c.files == nil {
		return "", errors.New("no file locator configured")
	}

	f, err := c.files.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", err
	}

	return c.files.FileDownloadLink(f), nil
}

// findLargestPhoto picks the largest resolution not above maxBytes. If every resolution is
// too large the smallest one is returned and left for validation to reject.
func findLargestPhoto(photos []models.PhotoSize, maxBytes int64) models.PhotoSize {
	var best, smallest *models.PhotoSize

	for i := range photos {
		photo := &photos[i]

		if smallest == nil || photo.FileSize < smallest.FileSize {
			smallest = photo
		}

		if maxBytes > 0 && int64(photo.FileSize) > maxBytes {
			continue
		}

		if best == nil || photo.FileSize >= best.FileSize {
			best = photo
		}
	}

	if best == nil {
		return *smallest
	}

	return *best
}

func getUserNameFromMessage(user *models.User) string {
	if user == nil {
		return ""
	}

	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
