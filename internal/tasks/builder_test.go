package tasks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/placelist/internal/catalog"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/retry"
	tu "github.com/desertthunder/placelist/internal/testing"
)

var testUser = models.User{ID: "u1", DisplayName: "User"}

func TestBuilderGetOrCreatePlaylist(t *testing.T) {
	t.Run("reuses exact name", func(t *testing.T) {
		fake := &tu.FakeCatalog{Playlists: []models.Playlist{{ID: "p1", Name: "reykjavik"}, {ID: "p2", Name: "Reykjavík"}}}
		b := NewBuilder(fake, nil)

		p, created, err := b.GetOrCreatePlaylist(context.Background(), testUser, "Reykjavík", models.PlaylistOptions{})
		if err != nil {
			t.Fatalf("GetOrCreatePlaylist() error = %v", err)
		}
		if created || p.ID != "p2" {
			t.Errorf("expected reuse of p2, got %+v created=%v", p, created)
		}
		if len(fake.Created()) != 0 {
			t.Error("no playlist should be created")
		}
	})

	t.Run("creates when missing", func(t *testing.T) {
		fake := &tu.FakeCatalog{}
		b := NewBuilder(fake, nil)

		p, created, err := b.GetOrCreatePlaylist(context.Background(), testUser, "Oslo", models.PlaylistOptions{Public: true})
		if err != nil {
			t.Fatalf("GetOrCreatePlaylist() error = %v", err)
		}
		if !created || p.Name != "Oslo" || !p.Public {
			t.Errorf("unexpected playlist %+v created=%v", p, created)
		}

		again, created, _ := b.GetOrCreatePlaylist(context.Background(), testUser, "Oslo", models.PlaylistOptions{})
		if created || again.ID != p.ID {
			t.Errorf("second call should reuse, got %+v created=%v", again, created)
		}
	})
}

func TestBuilderAddTracks(t *testing.T) {
	t.Run("250 tracks post 100/100/50", func(t *testing.T) {
		fake := &tu.FakeCatalog{}
		b := NewBuilder(fake, nil)

		n, err := b.AddTracks(context.Background(), models.Playlist{ID: "p"}, tu.TracksOf("a", 250, 60), nil)
		if err != nil {
			t.Fatalf("AddTracks() error = %v", err)
		}
		if n != 250 {
			t.Errorf("submitted = %d, want 250", n)
		}

		batches := fake.Batches()
		if len(batches) != 3 || len(batches[0]) != 100 || len(batches[1]) != 100 || len(batches[2]) != 50 {
			t.Errorf("unexpected batch sizes %d", len(batches))
		}
		if batches[2][49] != "spotify:track:a-249" {
			t.Errorf("order not preserved, last uri %s", batches[2][49])
		}
	})

	t.Run("truncates at the playlist ceiling", func(t *testing.T) {
		fake := &tu.FakeCatalog{}
		b := NewBuilder(fake, nil)

		n, err := b.AddTracks(context.Background(), models.Playlist{ID: "p"}, tu.TracksOf("a", MaxPlaylistTracks+150, 60), nil)
		if err != nil {
			t.Fatalf("AddTracks() error = %v", err)
		}
		if n != MaxPlaylistTracks || len(fake.Batches()) != MaxPlaylistTracks/MaxTracksPerRequest {
			t.Errorf("submitted=%d batches=%d", n, len(fake.Batches()))
		}
	})

	t.Run("progress updates per batch", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 10)
		b := NewBuilder(&tu.FakeCatalog{}, nil)

		if _, err := b.AddTracks(context.Background(), models.Playlist{ID: "p"}, tu.TracksOf("a", 150, 60), progress); err != nil {
			t.Fatalf("AddTracks() error = %v", err)
		}
		close(progress)

		var steps []int
		for u := range progress {
			if u.Phase != AddTracks {
				t.Errorf("unexpected phase %v", u.Phase)
			}
			steps = append(steps, u.Step)
		}
		if len(steps) != 2 || steps[1] != 2 {
			t.Errorf("unexpected steps %v", steps)
		}
	})
}

func TestBuilderBuild(t *testing.T) {
	artists := []models.ArtistWithTracks{awt("a", 90, 5, 60), awt("b", 80, 5, 60)}

	t.Run("success", func(t *testing.T) {
		fake := &tu.FakeCatalog{}
		res := NewBuilder(fake, nil).Build(context.Background(), BuildRequest{
			User: testUser, Name: "Bergen", Artists: artists, TracksPerArtist: 3,
		}, nil)

		if res.Failed {
			t.Fatalf("unexpected failure: %s", res.Message)
		}
		if res.Submitted != 6 || res.Playlist.Name != "Bergen" {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("catalog failure becomes a failed result", func(t *testing.T) {
		fake := &tu.FakeCatalog{AddErr: errors.New("Insufficient client scope")}
		res := NewBuilder(fake, nil).Build(context.Background(), BuildRequest{
			User: testUser, Name: "Bergen", Artists: artists, TracksPerArtist: 1,
		}, nil)

		if !res.Failed {
			t.Fatal("expected failed result")
		}
		if !strings.Contains(res.Message, "Insufficient client scope") {
			t.Errorf("message should carry the raw error, got %q", res.Message)
		}
		if res.Playlist.ID == "" {
			t.Error("playlist should be reported even when adding fails")
		}
	})

	t.Run("listing failure", func(t *testing.T) {
		fake := &tu.FakeCatalog{PlaylistsErr: errors.New("boom")}
		res := NewBuilder(fake, nil).Build(context.Background(), BuildRequest{User: testUser, Name: "x"}, nil)
		if !res.Failed || !strings.Contains(res.Message, "boom") {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("missing name or user", func(t *testing.T) {
		b := NewBuilder(&tu.FakeCatalog{}, nil)
		if res := b.Build(context.Background(), BuildRequest{User: testUser}, nil); !res.Failed {
			t.Error("expected failure without a name")
		}
		if res := b.Build(context.Background(), BuildRequest{Name: "x"}, nil); !res.Failed {
			t.Error("expected failure without a user")
		}
	})

	t.Run("rate limited batch is retried without double posting", func(t *testing.T) {
		var posts atomic.Int32
		svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			switch {
			case req.Method == http.MethodGet:
				_, _ = io.WriteString(w, `{"items":[{"id":"p1","name":"Bergen"}],"next":null}`)
			case strings.HasSuffix(req.URL.Path, "/tracks"):
				if posts.Add(1) == 1 {
					w.Header().Set("Retry-After", "2")
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				w.WriteHeader(http.StatusCreated)
				_, _ = io.WriteString(w, `{"snapshot_id":"s"}`)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer svr.Close()

		var waits []time.Duration
		r := &retry.Retrier{Sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}}
		api := catalog.NewRetrying(catalog.New("token", catalog.Options{BaseURL: svr.URL}), r)

		res := NewBuilder(api, nil).Build(context.Background(), BuildRequest{
			User: testUser, Name: "Bergen", Artists: artists[:1], TracksPerArtist: 2,
		}, nil)

		if res.Failed {
			t.Fatalf("unexpected failure: %s", res.Message)
		}
		if got := posts.Load(); got != 2 {
			t.Errorf("expected 2 posts (one rejected, one accepted), got %d", got)
		}
		if len(waits) != 1 || waits[0] != 2*time.Second {
			t.Errorf("expected a single 2s wait, got %v", waits)
		}
	})
}
