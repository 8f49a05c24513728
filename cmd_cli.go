package main

import (
	"context"
	"fmt"
	"imgfx/internal/adapters/file"
	"imgfx/internal/config"
	"imgfx/internal/core/domain/command"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	fileFlag   string
	effectFlag string
	outputFlag string
	limitFlag  int
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Upload an image, apply an effect and print or save the result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runApply(cmd.Context(), cfg, fileFlag, effectFlag, outputFlag, cmd.OutOrStdout())
	},
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List processed images, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit := limitFlag
		if !cmd.Flags().Changed("limit") {
			limit = cfg.Gallery.DisplayLimit
		}
		return runGallery(cmd.Context(), cfg, limit, cmd.OutOrStdout())
	},
}

var effectsCmd = &cobra.Command{
	Use:   "effects",
	Short: "List the available effects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runEffects(cfg, cmd.OutOrStdout())
	},
}

func init() {
	applyCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "JPEG or PNG image to upload")
	applyCmd.Flags().StringVarP(&effectFlag, "effect", "e", "", "Effect ID, see 'imgfx effects'")
	applyCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save the processed image to this file, or into this directory if it ends with a separator")
	_ = applyCmd.MarkFlagRequired("file")
	_ = applyCmd.MarkFlagRequired("effect")

	galleryCmd.Flags().IntVarP(&limitFlag, "limit", "n", 0, "Maximum entries to show (0 = all, default from gallery.display_limit)")
}

// runApply performs one upload, effect, process cycle and reports the result URL.
func runApply(ctx context.Context, cfg *config.Config, input, effect, output string, out io.Writer) error {
	d, err := newDeps(cfg)
	if err != nil {
		return err
	}

	l := log.With().Str("file", input).Str("effect", effect).Logger()
	wf := d.newWorkflow(&l)

	img, err := file.LoadImage(input)
	if err != nil {
		return err
	}

	if err := wf.SelectFile(ctx, img); err != nil {
		return err
	}

	if err := wf.SelectEffect(strings.ToLower(effect)); err != nil {
		return err
	}

	if err := wf.Process(ctx); err != nil {
		return err
	}

	state := wf.State()
	if state.Err != nil {
		l.Warn().Err(state.Err).Msg("processed, but the gallery could not be refreshed")
	}

	link, err := d.client.ResolveURL(state.ProcessedImage.URL)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Processed with %s: %s\n", d.catalog.DisplayName(state.ProcessedImage.Effect), link)

	if output == "" {
		return nil
	}

	data, err := file.DownloadFile(ctx, link, file.DefaultMaxDownloadBytes)
	if err != nil {
		return err
	}

	saved := output
	if isDirTarget(output) {
		saved, err = file.SaveToDir(output, data, path.Ext(state.ProcessedImage.URL))
	} else {
		err = file.SaveFile(output, data)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Saved to %s\n", saved)

	return nil
}

func isDirTarget(output string) bool {
	if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(filepath.Separator)) {
		return true
	}

	info, err := os.Stat(output)
	return err == nil && info.IsDir()
}

func runGallery(ctx context.Context, cfg *config.Config, limit int, out io.Writer) error {
	d, err := newDeps(cfg)
	if err != nil {
		return err
	}

	l := log.With().Str("command", "gallery").Logger()
	wf := d.newWorkflow(&l)

	if err := wf.RefreshGallery(ctx); err != nil {
		return err
	}

	fmt.Fprintln(out, command.FormatGallery(wf.State().Gallery, d.catalog, d.client, limit))

	return nil
}

func runEffects(cfg *config.Config, out io.Writer) error {
	d, err := newDeps(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, command.FormatEffects(d.catalog))

	return nil
}
