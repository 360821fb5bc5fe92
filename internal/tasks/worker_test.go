package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/placelist/internal/models"
	tu "github.com/desertthunder/placelist/internal/testing"
)

func collect(w *Worker, ctx context.Context) []models.EnrichmentResult {
	var out []models.EnrichmentResult
	for r := range w.Enrich(ctx) {
		out = append(out, r)
	}
	return out
}

func TestWorker(t *testing.T) {
	fake := &tu.FakeCatalog{
		Artists: map[string][]models.Artist{
			"Blur":   {tu.Artist("blur", "Blur", 70)},
			"Quiet":  {tu.Artist("quiet", "Quiet", 10)},
			"Broken": {tu.Artist("broken", "Broken", 30)},
		},
		Tracks: map[string][]models.Track{
			"blur": tu.TracksOf("blur", 2, 200),
		},
		SearchErr:    map[string]error{"Erroring": errors.New("500")},
		TopTracksErr: map[string]error{"broken": errors.New("502")},
	}

	t.Run("emits one result per name in order", func(t *testing.T) {
		w := NewWorker(fake, tu.Names("Blur", "Nobody", "Quiet", "Erroring", "Broken"), 0, nil)
		got := collect(w, context.Background())

		wantKinds := []models.ResultKind{
			models.ResultFound,
			models.ResultNotFound,
			models.ResultFound,
			models.ResultFailed,
			models.ResultFailed,
		}
		if len(got) != len(wantKinds) {
			t.Fatalf("expected %d results, got %d", len(wantKinds), len(got))
		}
		for i, k := range wantKinds {
			if got[i].Kind != k {
				t.Errorf("result %d kind = %v, want %v", i, got[i].Kind, k)
			}
		}

		if !got[0].Enriched() || got[0].Found.Artist.ID != "blur" {
			t.Errorf("expected enriched blur, got %+v", got[0])
		}
		if got[2].Enriched() {
			t.Error("artist without tracks should not count as enriched")
		}
		if got[3].Err == nil || got[3].Name.Name != "Erroring" {
			t.Errorf("failed result should keep name and error, got %+v", got[3])
		}
	})

	t.Run("sequence is not restartable", func(t *testing.T) {
		w := NewWorker(fake, tu.Names("Blur"), 0, nil)
		if n := len(collect(w, context.Background())); n != 1 {
			t.Fatalf("first run yielded %d results", n)
		}
		if n := len(collect(w, context.Background())); n != 0 {
			t.Errorf("second run yielded %d results, want 0", n)
		}
	})

	t.Run("early break stops lookups", func(t *testing.T) {
		f := &tu.FakeCatalog{}
		w := NewWorker(f, tu.Names("a", "b", "c"), 0, nil)
		for range w.Enrich(context.Background()) {
			break
		}
		if n := len(f.Searches()); n != 1 {
			t.Errorf("expected 1 search, got %d", n)
		}
	})

	t.Run("cancelled context ends the sequence", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		w := NewWorker(&tu.FakeCatalog{Gate: make(chan struct{})}, tu.Names("a", "b"), 0, nil)
		if got := collect(w, ctx); len(got) != 0 {
			t.Errorf("expected no results, got %d", len(got))
		}
	})

	t.Run("pacing", func(t *testing.T) {
		w := NewWorker(fake, tu.Names("Blur"), 1000, nil)
		if w.Limiter == nil {
			t.Fatal("expected a limiter when rps > 0")
		}
		if got := collect(w, context.Background()); len(got) != 1 {
			t.Errorf("expected 1 result, got %d", len(got))
		}
	})
}
