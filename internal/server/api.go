package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/desertthunder/placelist/internal/tasks"
	"github.com/go-chi/chi/v5"
)

// Locator resolves Wikipedia pages to locations and their bands.
type Locator interface {
	Lookup(ctx context.Context, page string) (models.Location, error)
	BandsIn(ctx context.Context, locationURI string) ([]models.BareArtistName, error)
}

// API serves the control routes over one [tasks.Coordinator].
type API struct {
	Locator     Locator
	Coordinator *tasks.Coordinator
	Builder     *tasks.Builder
	Defaults    shared.PlaylistConfig
	Logger      *log.Logger

	// runs outlive the request that started them
	runCtx context.Context

	mu       sync.Mutex
	location *models.Location
}

// NewAPI creates the control API. Enrichment runs started through it end when ctx is done.
func NewAPI(ctx context.Context, locator Locator, coord *tasks.Coordinator, builder *tasks.Builder, defaults shared.PlaylistConfig, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &API{
		Locator:     locator,
		Coordinator: coord,
		Builder:     builder,
		Defaults:    defaults,
		Logger:      logger,
		runCtx:      ctx,
	}
}

// SetBuilder replaces the playlist builder, e.g. after a new token is obtained.
func (a *API) SetBuilder(b *tasks.Builder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Builder = b
}

func (a *API) builder() *tasks.Builder {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Builder
}

// Register adds the /api routes to r.
func (a *API) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", a.State)
		r.Post("/locations", a.StartLocation)
		r.Post("/stop", a.Stop)
		r.Post("/clear", a.Clear)
		r.Post("/playlists", a.CreatePlaylist)
	})
}

// StateResponse is the body of GET /api/state.
type StateResponse struct {
	RunID           string                    `json:"run_id"`
	Location        *models.Location          `json:"location,omitempty"`
	Total           int                       `json:"total"`
	Fetched         int                       `json:"fetched"`
	Loading         bool                      `json:"loading"`
	Progress        float64                   `json:"progress"`
	TracksPerArtist int                       `json:"tracks_per_artist"`
	Hours           float64                   `json:"hours"`
	Cut             int                       `json:"cut"`
	Seconds         float64                   `json:"selected_seconds"`
	Artists         []models.ArtistWithTracks `json:"artists"`
}

// State reports the live list and where it would be cut for the requested settings.
func (a *API) State(w http.ResponseWriter, r *http.Request) {
	tpa, hours, err := a.settings(r.URL.Query().Get("tracks_per_artist"), r.URL.Query().Get("hours"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snap := a.Coordinator.Snapshot()
	cut := tasks.Partition(snap.Artists, tpa, hours)

	a.mu.Lock()
	loc := a.location
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, StateResponse{
		RunID:           snap.RunID,
		Location:        loc,
		Total:           snap.Total,
		Fetched:         snap.Fetched,
		Loading:         snap.Loading,
		Progress:        snap.Progress(),
		TracksPerArtist: tpa,
		Hours:           hours,
		Cut:             cut,
		Seconds:         tasks.Duration(tasks.Selection(snap.Artists, cut), tpa).Seconds(),
		Artists:         snap.Artists,
	})
}

type locationRequest struct {
	Page string `json:"page"`
}

type locationResponse struct {
	RunID    string          `json:"run_id"`
	Location models.Location `json:"location"`
	Names    int             `json:"names"`
}

// StartLocation resolves a page, lists its bands and starts a new enrichment run.
func (a *API) StartLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	loc, err := a.Locator.Lookup(r.Context(), req.Page)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	names, err := a.Locator.BandsIn(r.Context(), loc.URI)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	a.mu.Lock()
	a.location = &loc
	a.mu.Unlock()

	runID := a.Coordinator.Start(a.runCtx, names)
	a.Logger.Info("enrichment started", "location", loc.Name, "names", len(names), "run", runID)
	writeJSON(w, http.StatusAccepted, locationResponse{RunID: runID, Location: loc, Names: len(names)})
}

// Stop halts loading and keeps the live list.
func (a *API) Stop(w http.ResponseWriter, r *http.Request) {
	a.Coordinator.StopLoading()
	w.WriteHeader(http.StatusNoContent)
}

// Clear halts loading and empties the live list.
func (a *API) Clear(w http.ResponseWriter, r *http.Request) {
	a.Coordinator.Clear()

	a.mu.Lock()
	a.location = nil
	a.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

type playlistRequest struct {
	Name            string   `json:"name"`
	TracksPerArtist *int     `json:"tracks_per_artist"`
	Hours           *float64 `json:"hours"`
}

// CreatePlaylist builds a playlist from the artists above the cut.
func (a *API) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tpa, hours := a.Defaults.TracksPerArtist, a.Defaults.TargetHours
	if req.TracksPerArtist != nil {
		tpa = *req.TracksPerArtist
	}
	if req.Hours != nil {
		hours = *req.Hours
	}
	if err := checkSettings(tpa, hours); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// The build waits out rate limits for as long as the catalog asks.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		a.Logger.Debug("write deadline not cleared", "err", err)
	}

	snap := a.Coordinator.Snapshot()
	selected := tasks.Selection(snap.Artists, tasks.Partition(snap.Artists, tpa, hours))

	builder := a.builder()
	user, err := builder.Catalog.Me(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, tasks.BuildResult{Failed: true, Message: err.Error()})
		return
	}

	res := builder.Build(r.Context(), tasks.BuildRequest{
		User:            user,
		Name:            req.Name,
		Artists:         selected,
		TracksPerArtist: tpa,
		Options:         models.PlaylistOptions{Public: a.Defaults.Public},
	}, nil)
	writeJSON(w, http.StatusOK, res)
}

func (a *API) settings(tpaParam, hoursParam string) (int, float64, error) {
	tpa, hours := a.Defaults.TracksPerArtist, a.Defaults.TargetHours

	if tpaParam != "" {
		n, err := strconv.Atoi(tpaParam)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: tracks_per_artist %q", shared.ErrInvalidArgument, tpaParam)
		}
		tpa = n
	}
	if hoursParam != "" {
		h, err := strconv.ParseFloat(hoursParam, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: hours %q", shared.ErrInvalidArgument, hoursParam)
		}
		hours = h
	}
	if err := checkSettings(tpa, hours); err != nil {
		return 0, 0, err
	}
	return tpa, hours, nil
}

func checkSettings(tpa int, hours float64) error {
	if tpa <= 0 {
		return fmt.Errorf("%w: tracks_per_artist must be positive, got %d", shared.ErrInvalidArgument, tpa)
	}
	if hours <= 0 {
		return fmt.Errorf("%w: hours must be positive, got %v", shared.ErrInvalidArgument, hours)
	}
	return nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrLocationNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
