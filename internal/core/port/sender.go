package port

import (
	"context"
	"imgfx/internal/core/domain"
)

type TextSender interface {
	// SendMessageReply sends text to the message's chat, as a reply when the message has an ID, and returns the
	// ID of the last message sent.
	SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error)
	// SendChatAction repeats a chat action until ctx is done.
	SendChatAction(ctx context.Context, chatID int64, action domain.Action)
	// NotifyAndReturnError reports err to the chat and returns it, or returns the send failure instead.
	NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error
}

type ImageSender interface {
	// SendImageReply uploads image bytes to the message's chat with an optional caption.
	SendImageReply(ctx context.Context, message *domain.Message, image []byte, caption string) error
}
