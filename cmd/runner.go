package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/placelist/internal/catalog"
	"github.com/desertthunder/placelist/internal/graph"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/repositories"
	"github.com/desertthunder/placelist/internal/retry"
	"github.com/desertthunder/placelist/internal/server"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/desertthunder/placelist/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var humanPrinter = message.NewPrinter(language.English)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	locator    server.Locator
	newCatalog func(token string) catalog.API
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Locator    server.Locator                 // defaults to the configured knowledge graph
	Catalog    func(token string) catalog.API // defaults to the Spotify Web API
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		locator:    opts.Locator,
		newCatalog: opts.Catalog,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, locationCommand, artistsCommand, enrichCommand, tuiCommand, serveCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Load reads the config file named by --config (defaults when absent), applies
// the dotenv file and environment, and sets the log level.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")

	config := shared.DefaultConfig()
	if _, err := os.Stat(r.configPath); err == nil {
		if config, err = shared.LoadConfig(r.configPath); err != nil {
			return ctx, err
		}
	}
	if err := shared.LoadEnv(config, cmd.String("env-file")); err != nil {
		return ctx, err
	}

	r.config = config
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
	return ctx, nil
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) graphClient() server.Locator {
	if r.locator != nil {
		return r.locator
	}
	return graph.NewFromConfig(r.config.Graph, r.httpClient, r.logger)
}

// discover resolves page and lists the bare names of its bands.
func (r *Runner) discover(ctx context.Context, page string) (models.Location, []models.BareArtistName, error) {
	if page == "" {
		return models.Location{}, nil, fmt.Errorf("%w: wikipedia page url", shared.ErrMissingArgument)
	}

	g := r.graphClient()
	loc, err := g.Lookup(ctx, page)
	if err != nil {
		return models.Location{}, nil, err
	}
	names, err := g.BandsIn(ctx, loc.URI)
	if err != nil {
		return loc, nil, err
	}
	r.logger.Info("location resolved", "name", loc.Name, "names", len(names))
	return loc, names, nil
}

// catalogClient builds the retrying catalog client for token.
func (r *Runner) catalogClient(token string) catalog.API {
	if r.newCatalog != nil {
		return r.newCatalog(token)
	}
	api := catalog.New(token, catalog.Options{
		Market:     r.config.Enrichment.Market,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
	})
	return catalog.NewRetrying(api, retry.New(r.logger))
}

// catalogFactory builds per-worker catalog clients, served from cache when it is enabled.
func (r *Runner) catalogFactory(cache *repositories.Cache) tasks.CatalogFactory {
	return func(token string) catalog.API {
		return cache.Wrap(r.catalogClient(token), r.logger)
	}
}

func (r *Runner) coordinator(token string, batchSize int, cache *repositories.Cache) *tasks.Coordinator {
	if batchSize <= 0 {
		batchSize = r.config.Enrichment.BatchSize
	}
	return tasks.NewCoordinator(tasks.CoordinatorOpts{
		Token:             token,
		BatchSize:         batchSize,
		RequestsPerSecond: r.config.Enrichment.RequestsPerSecond,
		NewCatalog:        r.catalogFactory(cache),
		Logger:            r.logger,
	})
}

func (r *Runner) openCache() (*repositories.Cache, error) {
	cache, err := repositories.OpenCache(r.config.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup cache: %w", err)
	}
	return cache, nil
}

func (r *Runner) saveConfig() {
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warn("failed to save config", "path", r.configPath, "error", err)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := humanPrinter.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain("\n"+format+"\n", args...)
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// isAuthError reports whether err calls for `placelist auth`.
func isAuthError(err error) bool {
	return errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrAuthFailed)
}
