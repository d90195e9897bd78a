package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"cinecard/config"
	"cinecard/models"
	"cinecard/services/export"
	"cinecard/services/metadata"
	"cinecard/services/review"
)

type exportOptions struct {
	id       int64
	kind     string
	rating   int
	text     string
	reviewer string
	out      string
}

var exportOpts exportOptions

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a review card to a PNG file",
	Long:  "Fetch a subject's details, compose a committed review card and run it through the export pipeline into a directory.",
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.Int64Var(&exportOpts.id, "id", 0, "TMDB id of the movie or show")
	f.StringVar(&exportOpts.kind, "type", "movie", "media type: movie or tv")
	f.IntVar(&exportOpts.rating, "rating", review.DefaultRating, "star rating 1-5")
	f.StringVar(&exportOpts.text, "text", "", "review text")
	f.StringVar(&exportOpts.reviewer, "name", "", "reviewer name (defaults to DEFAULT_REVIEWER)")
	f.StringVar(&exportOpts.out, "out", "", "output directory (defaults to EXPORT_DIR)")
	_ = exportCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	closer := setupLogging(cfg)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mediaType, err := metadata.NormalizeMediaType(exportOpts.kind)
	if err != nil {
		return err
	}
	fs := afero.NewOsFs()
	details, err := metadata.NewService(cfg, fs).Details(ctx, mediaType, exportOpts.id)
	if err != nil {
		return fmt.Errorf("load %s %d: %w", mediaType, exportOpts.id, err)
	}

	opts := exportOpts
	if opts.reviewer == "" {
		opts.reviewer = cfg.DefaultReviewer
	}
	card, err := composeCard(details, mediaType, opts)
	if err != nil {
		return err
	}

	dir := opts.out
	if dir == "" {
		dir = cfg.ExportDir
	}
	sink := export.NewDirSink(fs, dir)
	exporter, cleanup := export.New(ctx, cfg)
	defer cleanup()

	job, err := exporter.Export(ctx, card, sink)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%dx%d, %s tier)\n", sink.Path(job.Filename), job.Width, job.Height, job.Tier)
	return nil
}

// composeCard builds a committed card from the command-line values.
func composeCard(details *models.SubjectDetails, mediaType string, opts exportOptions) (*review.Card, error) {
	card := review.NewCard(review.SubjectFromDetails(details, mediaType), opts.reviewer)
	if err := card.SetRating(opts.rating); err != nil {
		return nil, fmt.Errorf("rating %d: %w", opts.rating, err)
	}
	if err := card.SetReviewText(opts.text); err != nil {
		return nil, err
	}
	if err := card.CommitEditing(); err != nil {
		return nil, err
	}
	return card, nil
}
