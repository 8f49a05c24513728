package main

import (
	"context"
	"imgfx/internal/adapters/file"
	"imgfx/internal/adapters/handler"
	"imgfx/internal/adapters/sender"
	"imgfx/internal/config"
	"imgfx/internal/core/domain/command"
	"imgfx/internal/core/service"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const uploadCommand = "/upload"

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot, one workflow per chat",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBot(cmd.Context(), cfg)
	},
}

func runBot(ctx context.Context, cfg *config.Config) error {
	log.Info().Msg("starting imgfx bot...")

	if err := cfg.ValidateTelegram(); err != nil {
		return err
	}

	d, err := newDeps(cfg)
	if err != nil {
		return err
	}

	b, err := bot.New(cfg.Telegram.BotToken, bot.WithDefaultHandler(noOpHandler))
	if err != nil {
		return err
	}

	s := sender.NewTelegram(b)
	// uploads are capped at the upload limit; effect output may be larger than its input
	uploads := file.Downloader{MaxBytes: d.validator.MaxBytes()}
	results := file.Downloader{MaxBytes: file.DefaultMaxDownloadBytes}

	renderer := handler.NewRenderer(handler.RendererParams{
		TextSender:  s,
		ImageSender: s,
		Downloader:  results,
		Resolver:    d.client,
		Catalog:     d.catalog,
		Timeout:     cfg.Backend.Timeout,
	})

	sessions := service.NewSessions(service.SessionParams{
		Factory: func(chatID int64) *service.Workflow {
			l := log.With().Int64("chatId", chatID).Logger()
			return d.newWorkflow(&l)
		},
		IdleTimeout: cfg.Session.IdleTimeout,
		OnCreate:    renderer.Attach,
	})
	defer sessions.Close()

	registry := &command.Registry{}
	registry.Register(command.NewStart(s, d.catalog, d.validator.MaxBytes(), "/start"))
	registry.Register(command.NewStart(s, d.catalog, d.validator.MaxBytes(), "/help"))
	registry.Register(command.NewEffects(s, d.catalog, "/effects"))
	registry.Register(command.NewEffect(sessions, s, "/effect"))
	registry.Register(command.NewUpload(sessions, uploads, d.validator, s, uploadCommand))
	registry.Register(command.NewProcess(sessions, s, "/process"))
	registry.Register(command.NewGallery(sessions, d.client, s, cfg.Gallery.DisplayLimit, "/gallery"))
	registry.Register(command.NewDismiss(sessions, s, "/dismiss"))
	registry.Register(command.NewStatus(sessions, d.client, s, "/status"))

	commandHandler := handler.NewCommand(handler.CommandParams{
		Registry:      registry,
		Auth:          service.NewAuthorizer(cfg.Telegram.AllowedChatIDs, cfg.Telegram.AdminUsername, s),
		Files:         b,
		TextSender:    s,
		Timeout:       cfg.Handler.Timeout,
		UploadCommand: uploadCommand,
		MaxPhotoBytes: d.validator.MaxBytes(),
	})

	b.RegisterHandlerMatchFunc(handler.Matches, commandHandler.Handle)

	log.Info().Strs("commands", registry.ListCommands()).Msg("bot listening")
	b.Start(ctx)

	return nil
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
