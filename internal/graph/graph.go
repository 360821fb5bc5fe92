// Package graph discovers locations and the artists associated with them from
// the DBpedia SPARQL endpoint.
package graph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/agukrapo/go-http-client/requests"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

const (
	DefaultEndpoint = "https://dbpedia.org/sparql"
	DefaultGraph    = "http://dbpedia.org"
	DefaultTimeout  = 30000
	resultsFormat   = "application/sparql-results+json"
)

type httpClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Options configures a [Client]. Zero values select the defaults.
type Options struct {
	Endpoint     string
	DefaultGraph string
	TimeoutMS    int
	HTTPClient   httpClient
	Logger       *log.Logger
}

// Client queries the knowledge graph.
type Client struct {
	endpoint     string
	defaultGraph string
	timeoutMS    int
	httpClient   httpClient
	logger       *log.Logger
}

// New creates a graph client.
func New(opts Options) *Client {
	c := &Client{
		endpoint:     lo.Ternary(opts.Endpoint == "", DefaultEndpoint, opts.Endpoint),
		defaultGraph: lo.Ternary(opts.DefaultGraph == "", DefaultGraph, opts.DefaultGraph),
		timeoutMS:    lo.Ternary(opts.TimeoutMS <= 0, DefaultTimeout, opts.TimeoutMS),
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(io.Discard)
	}
	return c
}

// NewFromConfig creates a graph client from the [graph] config section.
func NewFromConfig(cfg shared.GraphConfig, client *http.Client, logger *log.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return New(Options{
		Endpoint:     cfg.Endpoint,
		DefaultGraph: cfg.DefaultGraph,
		TimeoutMS:    cfg.TimeoutMS,
		HTTPClient:   client,
		Logger:       logger,
	})
}

// PageIRI normalises a Wikipedia page URL to the http IRI DBpedia stores.
func PageIRI(page string) (string, error) {
	page = strings.TrimSpace(page)
	if page == "" {
		return "", fmt.Errorf("%w: wikipedia page", shared.ErrMissingArgument)
	}

	u, err := url.Parse(page)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q is not a page URL", shared.ErrInvalidInput, page)
	}
	if strings.ContainsAny(page, "<> \"{}|\\^`") {
		return "", fmt.Errorf("%w: %q is not a valid IRI", shared.ErrInvalidInput, page)
	}
	return strings.Replace(page, "https://", "http://", 1), nil
}

// LocationOf resolves a Wikipedia page to the location it describes.
//
// Returns [shared.ErrLocationNotFound] when the graph has no English abstract for the page.
func (c *Client) LocationOf(ctx context.Context, page string) (models.Location, error) {
	iri, err := PageIRI(page)
	if err != nil {
		return models.Location{}, err
	}

	body, err := c.query(ctx, locationQuery(iri))
	if err != nil {
		return models.Location{}, err
	}

	first := gjson.GetBytes(body, "results.bindings.0")
	if !first.Exists() {
		return models.Location{}, fmt.Errorf("%w: %s", shared.ErrLocationNotFound, page)
	}

	loc := models.Location{
		URI:      first.Get("Location.value").String(),
		Name:     first.Get("Name.value").String(),
		Abstract: first.Get("Abstract.value").String(),
		Image:    first.Get("Image.value").String(),
		Page:     page,
	}
	if loc.URI == "" {
		return models.Location{}, fmt.Errorf("%w: binding without location", shared.ErrUnexpectedResponse)
	}
	return loc, nil
}

// BandsIn lists the music groups whose hometown or birthplace lies within location.
// Rows are de-duplicated by graph resource, keeping the first name seen.
func (c *Client) BandsIn(ctx context.Context, locationURI string) ([]models.BareArtistName, error) {
	if locationURI == "" || strings.ContainsAny(locationURI, "<> ") {
		return nil, fmt.Errorf("%w: location uri %q", shared.ErrInvalidInput, locationURI)
	}

	body, err := c.query(ctx, bandsQuery(locationURI))
	if err != nil {
		return nil, err
	}

	var names []models.BareArtistName
	gjson.GetBytes(body, "results.bindings").ForEach(func(_, b gjson.Result) bool {
		name := strings.TrimSpace(b.Get("Name.value").String())
		if name != "" {
			names = append(names, models.BareArtistName{Name: name, GraphURI: b.Get("Band.value").String()})
		}
		return true
	})

	names = lo.UniqBy(names, func(n models.BareArtistName) string {
		return lo.Ternary(n.GraphURI == "", "name:"+n.Name, n.GraphURI)
	})
	c.logger.Info("discovered artists", "location", locationURI, "count", len(names))
	return names, nil
}

func (c *Client) query(ctx context.Context, q string) ([]byte, error) {
	params := url.Values{}
	params.Set("default-graph-uri", c.defaultGraph)
	params.Set("query", q)
	params.Set("format", resultsFormat)
	params.Set("timeout", strconv.Itoa(c.timeoutMS))

	b := requests.New(c.endpoint + "?" + params.Encode())
	b.Header("Accept", resultsFormat)
	req, err := b.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrAPIRequest, err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: sparql endpoint returned status %d", shared.ErrServiceUnavailable, res.StatusCode)
	}
	if !gjson.ValidBytes(body) || !gjson.GetBytes(body, "results.bindings").IsArray() {
		return nil, fmt.Errorf("%w: sparql response without results.bindings", shared.ErrUnexpectedResponse)
	}
	return body, nil
}
