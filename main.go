package main

import (
	"context"
	"imgfx/internal/config"
	"imgfx/internal/logging"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "imgfx",
	Short: "Upload images, apply effects and browse results on an imgfx backend",
	Long: `imgfx drives an image effect backend: upload a JPEG or PNG, pick one of the
catalog's effects, process it and browse the gallery of processed images.

Settings come from config.toml (or --config) and IMGFX_* environment variables.

Examples:
  imgfx effects
  imgfx apply --file photo.png --effect sepia --output ./out/
  imgfx gallery --limit 5
  imgfx bot`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logging.Init(c.Log.Level, c.Log.Pretty)

		if err := c.Validate(); err != nil {
			return err
		}

		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the TOML config file (default ./config.toml)")

	rootCmd.AddCommand(botCmd, applyCmd, galleryCmd, effectsCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		cancel()
		os.Exit(1)
	}
}
