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

const DefaultGalleryLimit = 10

type Gallery struct {
	sessions   service.SessionStore
	resolver   port.URLResolver
	textSender port.TextSender
	limit      int
	command    string
}

func NewGallery(sessions service.SessionStore,
	resolver port.URLResolver,
	textSender port.TextSender,
	limit int,
	command string) *Gallery {
	if limit <= 0 {
		limit = DefaultGalleryLimit
	}

	return &Gallery{
		sessions:   sessions,
		resolver:   resolver,
		textSender: textSender,
		limit:      limit,
		command:    command,
	}
}

func (g *Gallery) GetCommand() string {
	return g.command
}

func (g *Gallery) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", g.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wf, err := g.sessions.Session(ctx, message.ChatID)
	if err != nil {
		return g.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error loading session: %w", err), message)
	}

	err = wf.RefreshGallery(ctx)
	if err != nil {
		if settled(err) {
			return nil
		}
		return g.textSender.NotifyAndReturnError(ctx, err, message)
	}

	text := FormatGallery(wf.State().Gallery, wf.Catalog(), g.resolver, g.limit)

	_, err = g.textSender.SendMessageReply(ctx, message, text)
	if err != nil {
		return g.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending gallery: %w", err), message)
	}

	return nil
}

// FormatGallery renders the first limit entries, newest first as returned by the backend.
func FormatGallery(entries []domain.GalleryEntry, catalog *domain.Catalog, resolver port.URLResolver, limit int) string {
	if len(entries) == 0 {
		return "The gallery is empty"
	}

	shown := entries
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent results (%d of %d):", len(shown), len(entries))

	for i, entry := range shown {
		fmt.Fprintf(&b, "\n%d. %s", i+1, catalog.DisplayName(entry.Effect))

		if !entry.CreatedAt.IsZero() {
			fmt.Fprintf(&b, " (%s)", entry.CreatedAt.Format("2006-01-02 15:04"))
		}

		if link := resolve(resolver, entry.ProcessedURL); link != "" {
			fmt.Fprintf(&b, "\n%s", link)
		}
	}

	return b.String()
}

func resolve(resolver port.URLResolver, ref string) string {
	if ref == "" || resolver == nil {
		return ref
	}

	u, err := resolver.ResolveURL(ref)
	if err != nil {
		log.Debug().Err(err).Str("ref", ref).Msg("could not resolve image reference")
		return ref
	}

	return u
}
