package tasks

import (
	"context"
	"io"
	"slices"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/placelist/internal/catalog"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of names handed to each worker.
const DefaultBatchSize = 250

// CatalogFactory builds the catalog client a single worker uses.
type CatalogFactory func(token string) catalog.API

// CoordinatorOpts configures a [Coordinator].
type CoordinatorOpts struct {
	Token             string
	BatchSize         int     // names per worker (default: 250)
	RequestsPerSecond float64 // per-worker pacing, 0 disables it
	NewCatalog        CatalogFactory
	Logger            *log.Logger
}

// Snapshot is a read-only copy of the coordinator's state.
type Snapshot struct {
	RunID   string
	Total   int
	Fetched int
	Loading bool
	Artists []models.ArtistWithTracks
}

// Progress returns Fetched/Total in [0,1]. A run with nothing to load is complete.
func (s Snapshot) Progress() float64 {
	if s.Total == 0 {
		return 1
	}
	return min(1, float64(s.Fetched)/float64(s.Total))
}

// message is what a worker goroutine sends to the merge loop.
type message struct {
	runID  string
	result models.EnrichmentResult
}

// Coordinator runs enrichment workers in parallel and merges their results
// into a live artist list ordered by descending popularity.
//
// All state is owned by the coordinator. Workers only send messages; a single
// merge goroutine per run applies them, and results from a stopped or cleared
// run are dropped.
type Coordinator struct {
	mu sync.Mutex

	token      string
	batchSize  int
	rps        float64
	newCatalog CatalogFactory
	logger     *log.Logger

	runID   string
	alive   bool
	names   []models.BareArtistName
	live    []models.ArtistWithTracks
	seen    map[string]struct{}
	fetched int
	cancel  context.CancelFunc
	done    chan struct{}

	subs    map[int]chan Snapshot
	nextSub int
}

// NewCoordinator creates an idle Coordinator.
func NewCoordinator(opts CoordinatorOpts) *Coordinator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.NewCatalog == nil {
		opts.NewCatalog = func(token string) catalog.API {
			return catalog.New(token, catalog.Options{Logger: opts.Logger})
		}
	}

	return &Coordinator{
		token:      opts.Token,
		batchSize:  opts.BatchSize,
		rps:        opts.RequestsPerSecond,
		newCatalog: opts.NewCatalog,
		logger:     opts.Logger,
		subs:       make(map[int]chan Snapshot),
	}
}

// SetToken replaces the credential used by the next run. Running workers keep theirs.
func (c *Coordinator) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Start discards any previous run and begins enriching names.
//
// Workers run until they finish, ctx is done, or the run is stopped or cleared.
// Start returns immediately and returns the new run's id.
func (c *Coordinator) Start(ctx context.Context, names []models.BareArtistName) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()

	runID := shared.GenerateID()
	c.runID = runID
	c.names = slices.Clone(names)
	c.seen = make(map[string]struct{})
	done := make(chan struct{})
	c.done = done

	if len(names) == 0 {
		close(done)
		c.publish()
		return runID
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.alive = true

	batches := lo.Chunk(c.names, c.batchSize)
	inbox := make(chan message, len(batches))
	logger := shared.WithLogger(c.logger, "run", runID)

	g, gctx := errgroup.WithContext(runCtx)
	for i, batch := range batches {
		w := NewWorker(c.newCatalog(c.token), batch, c.rps, shared.WithLogger(logger, "worker", i))
		g.Go(func() error {
			return c.work(gctx, runID, w, inbox)
		})
	}

	go func() {
		_ = g.Wait()
		close(inbox)
	}()
	go c.merge(runID, inbox, done)

	logger.Info("enrichment started", "names", len(names), "workers", len(batches))
	c.publish()
	return runID
}

// work forwards a worker's results to the merge loop.
func (c *Coordinator) work(ctx context.Context, runID string, w *Worker, inbox chan<- message) error {
	for res := range w.Enrich(ctx) {
		select {
		case inbox <- message{runID: runID, result: res}:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// merge applies messages for runID until every worker has exited.
//
// Everything already queued is applied before subscribers are notified, so a
// burst of results costs one snapshot rather than one per result.
func (c *Coordinator) merge(runID string, inbox <-chan message, done chan<- struct{}) {
	defer close(done)

	for msg := range inbox {
		batch := []message{msg}
	drain:
		for {
			select {
			case m, ok := <-inbox:
				if !ok {
					break drain
				}
				batch = append(batch, m)
			default:
				break drain
			}
		}
		c.apply(batch)
	}

	c.finish(runID)
}

func (c *Coordinator) apply(batch []message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	applied := 0
	for _, msg := range batch {
		if !c.accepts(msg.runID) {
			continue
		}
		c.receive(msg.result)
		applied++
	}

	if applied > 0 {
		c.publish()
	}
}

// accepts reports whether a message from runID may still change state.
func (c *Coordinator) accepts(runID string) bool {
	return c.alive && runID == c.runID
}

// receive merges one result. Caller holds mu.
func (c *Coordinator) receive(res models.EnrichmentResult) {
	c.fetched++

	if !res.Enriched() {
		return
	}

	id := res.Found.Artist.ID
	if _, dup := c.seen[id]; dup {
		return
	}
	c.seen[id] = struct{}{}
	c.live = insertSorted(c.live, res.Found)
}

// insertSorted inserts awt before the first artist with lower popularity,
// after any with equal popularity.
func insertSorted(live []models.ArtistWithTracks, awt models.ArtistWithTracks) []models.ArtistWithTracks {
	p := awt.Artist.Popularity
	i := sort.Search(len(live), func(i int) bool { return live[i].Artist.Popularity < p })
	return slices.Insert(live, i, awt)
}

func (c *Coordinator) finish(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.accepts(runID) {
		return
	}
	c.alive = false
	c.cancel()
	c.cancel = nil
	c.logger.Info("enrichment finished", "run", runID, "fetched", c.fetched, "artists", len(c.live))
	c.publish()
}

// StopLoading terminates outstanding workers and keeps what has been merged.
// Progress reads complete afterwards.
func (c *Coordinator) StopLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.runID == "" {
		return
	}
	if c.alive {
		c.alive = false
		c.cancel()
		c.cancel = nil
	}
	c.fetched = len(c.names)
	c.logger.Info("enrichment stopped", "run", c.runID, "artists", len(c.live))
	c.publish()
}

// Clear terminates outstanding workers and discards the names and the live list.
// The token is kept.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	c.publish()
}

// reset returns the coordinator to its initial state. Caller holds mu.
func (c *Coordinator) reset() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.alive = false
	c.runID = ""
	c.names = nil
	c.live = nil
	c.seen = nil
	c.fetched = 0
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Coordinator) snapshot() Snapshot {
	return Snapshot{
		RunID:   c.runID,
		Total:   len(c.names),
		Fetched: c.fetched,
		Loading: c.alive,
		Artists: slices.Clone(c.live),
	}
}

// Subscribe returns a channel that receives the latest snapshot after every
// state change, and a function that ends the subscription.
//
// Slow readers miss intermediate snapshots, never the latest one.
func (c *Coordinator) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Snapshot, 1)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
		})
	}
}

// publish offers the current snapshot to every subscriber without blocking. Caller holds mu.
func (c *Coordinator) publish() {
	if len(c.subs) == 0 {
		return
	}
	s := c.snapshot()
	for _, ch := range c.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// Wait blocks until the current run's workers have exited, or ctx is done.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
