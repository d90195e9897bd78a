package main

import (
	"context"
	"fmt"
	"log"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"cinecard/config"
	"cinecard/models"
	"cinecard/services/metadata"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the metadata response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached metadata response",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := metadata.NewService(cfg, afero.NewOsFs()).ClearCache(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "metadata cache cleared")
		return nil
	},
}

var cacheWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Prefetch the home page lists into the cache",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		n, err := warmCache(cmd.Context(), metadata.NewService(cfg, afero.NewOsFs()))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "warmed %d lists\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd, cacheWarmCmd)
	rootCmd.AddCommand(cacheCmd)
}

type listWarmer interface {
	Trending(ctx context.Context, kind string) ([]models.MediaItem, error)
	PopularMovies(ctx context.Context, count int) ([]models.MediaItem, error)
	TopRatedMovies(ctx context.Context, count int) ([]models.MediaItem, error)
	NowPlayingMovies(ctx context.Context, count int) ([]models.MediaItem, error)
	TopRatedTV(ctx context.Context, count int) ([]models.MediaItem, error)
	OnAirTV(ctx context.Context, count int) ([]models.MediaItem, error)
}

// warmCache fetches the home page lists concurrently. It returns how many
// lists were fetched and the first failure, if any.
func warmCache(ctx context.Context, svc listWarmer) (int, error) {
	lists := map[string]func(context.Context) ([]models.MediaItem, error){
		"trending":           func(ctx context.Context) ([]models.MediaItem, error) { return svc.Trending(ctx, "all") },
		"popular-movies":     func(ctx context.Context) ([]models.MediaItem, error) { return svc.PopularMovies(ctx, 0) },
		"top-rated-movies":   func(ctx context.Context) ([]models.MediaItem, error) { return svc.TopRatedMovies(ctx, 0) },
		"now-playing-movies": func(ctx context.Context) ([]models.MediaItem, error) { return svc.NowPlayingMovies(ctx, 0) },
		"top-rated-tv":       func(ctx context.Context) ([]models.MediaItem, error) { return svc.TopRatedTV(ctx, 0) },
		"on-air-tv":          func(ctx context.Context) ([]models.MediaItem, error) { return svc.OnAirTV(ctx, 0) },
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(3)
	for name, fetch := range lists {
		p.Go(func(ctx context.Context) error {
			items, err := fetch(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			log.Printf("[metadata] warmed %s (%d items)", name, len(items))
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return 0, err
	}
	return len(lists), nil
}
