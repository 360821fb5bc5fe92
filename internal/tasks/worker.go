package tasks

import (
	"context"
	"io"
	"iter"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/placelist/internal/catalog"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/shared"
	"golang.org/x/time/rate"
)

// Worker resolves one batch of bare names against the catalog, one name at a time.
//
// Names are processed sequentially so a single token never has more than one
// request in flight from the same worker.
type Worker struct {
	Catalog catalog.API
	Names   []models.BareArtistName
	Limiter *rate.Limiter // optional, owned by this worker only
	Logger  *log.Logger

	consumed atomic.Bool
}

// NewWorker creates a Worker for names. rps <= 0 disables pacing.
func NewWorker(api catalog.API, names []models.BareArtistName, rps float64, logger *log.Logger) *Worker {
	w := &Worker{Catalog: api, Names: names, Logger: logger}
	if rps > 0 {
		w.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return w
}

// Enrich returns the lazy sequence of results for the worker's names, in input order.
//
// The sequence can be consumed once. Ranging over it again, or over a second
// call's result, yields nothing. Cancelling ctx ends the sequence without a
// result for the name in flight.
func (w *Worker) Enrich(ctx context.Context) iter.Seq[models.EnrichmentResult] {
	return func(yield func(models.EnrichmentResult) bool) {
		if !w.consumed.CompareAndSwap(false, true) {
			return
		}

		for _, name := range w.Names {
			if ctx.Err() != nil {
				return
			}

			res, ok := w.lookup(ctx, name)
			if !ok || !yield(res) {
				return
			}
		}
	}
}

// lookup resolves a single name. ok is false when ctx ended the lookup.
func (w *Worker) lookup(ctx context.Context, name models.BareArtistName) (models.EnrichmentResult, bool) {
	logger := w.logger()

	if err := w.wait(ctx); err != nil {
		return models.EnrichmentResult{}, false
	}
	artists, err := w.Catalog.SearchArtists(ctx, name.Name)
	if err != nil {
		if ctx.Err() != nil {
			return models.EnrichmentResult{}, false
		}
		logger.Warn("artist search failed", "name", name.Name, "err", err)
		return models.Failed(name, err), true
	}

	artist, found := catalog.BestMatch(name.Name, artists)
	if !found {
		logger.Debug("no catalog match", "name", name.Name, "candidates", len(artists))
		return models.NotFound(name), true
	}

	if err := w.wait(ctx); err != nil {
		return models.EnrichmentResult{}, false
	}
	tracks, err := w.Catalog.TopTracks(ctx, artist.ID)
	if err != nil {
		if ctx.Err() != nil {
			return models.EnrichmentResult{}, false
		}
		logger.Warn("top tracks failed", "name", name.Name, "artist_id", artist.ID, "err", err)
		return models.Failed(name, err), true
	}

	return models.Found(models.ArtistWithTracks{Artist: artist, Tracks: tracks}), true
}

func (w *Worker) wait(ctx context.Context) error {
	if w.Limiter == nil {
		return ctx.Err()
	}
	return w.Limiter.Wait(ctx)
}

func (w *Worker) logger() *log.Logger {
	if w.Logger == nil {
		w.Logger = shared.NewLogger(io.Discard)
	}
	return w.Logger
}
