package graph

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/placelist/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const locationResponse = `{"head":{"vars":["Location","Name","Abstract","Image"]},"results":{"bindings":[
	{"Location":{"type":"uri","value":"http://dbpedia.org/resource/Reykjavík"},
	 "Name":{"type":"literal","xml:lang":"en","value":"Reykjavík"},
	 "Abstract":{"type":"literal","xml:lang":"en","value":"Reykjavík is the capital of Iceland."},
	 "Image":{"type":"uri","value":"http://commons.wikimedia.org/thumb.jpg"}}
]}}`

const bandsResponse = `{"results":{"bindings":[
	{"Band":{"value":"http://dbpedia.org/resource/Sigur_Rós"},"Name":{"value":"Sigur Rós"}},
	{"Band":{"value":"http://dbpedia.org/resource/Múm"},"Name":{"value":"múm"}},
	{"Band":{"value":"http://dbpedia.org/resource/Sigur_Rós"},"Name":{"value":"Sigur Ros"}},
	{"Band":{"value":"http://dbpedia.org/resource/Nameless"},"Name":{"value":"  "}}
]}}`

func newTestGraph(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	svr := httptest.NewServer(h)
	t.Cleanup(svr.Close)
	return New(Options{Endpoint: svr.URL + "/sparql"})
}

func TestPageIRI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "https rewritten", in: "https://en.wikipedia.org/wiki/Reykjavík", want: "http://en.wikipedia.org/wiki/Reykjavík"},
		{name: "http kept", in: "http://en.wikipedia.org/wiki/Oslo", want: "http://en.wikipedia.org/wiki/Oslo"},
		{name: "empty", in: " ", wantErr: shared.ErrMissingArgument},
		{name: "not a url", in: "Reykjavik", wantErr: shared.ErrInvalidInput},
		{name: "iri injection", in: "https://en.wikipedia.org/wiki/x> ?s ?p <y", wantErr: shared.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := PageIRI(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_LocationOf(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		client := newTestGraph(t, func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			require.Equal(t, "/sparql", req.URL.Path)
			require.Equal(t, "http://dbpedia.org", q.Get("default-graph-uri"))
			require.Equal(t, "application/sparql-results+json", q.Get("format"))
			require.Equal(t, "30000", q.Get("timeout"))
			require.Contains(t, q.Get("query"), "foaf:isPrimaryTopicOf <http://en.wikipedia.org/wiki/Reykjavík>")

			_, _ = io.WriteString(w, locationResponse)
		})

		loc, err := client.LocationOf(context.Background(), "https://en.wikipedia.org/wiki/Reykjavík")
		require.NoError(t, err)
		assert.Equal(t, "http://dbpedia.org/resource/Reykjavík", loc.URI)
		assert.Equal(t, "Reykjavík", loc.Name)
		assert.Equal(t, "http://commons.wikimedia.org/thumb.jpg", loc.Image)
		assert.Equal(t, "https://en.wikipedia.org/wiki/Reykjavík", loc.Page)
	})

	t.Run("no bindings", func(t *testing.T) {
		t.Parallel()

		client := newTestGraph(t, func(w http.ResponseWriter, req *http.Request) {
			_, _ = io.WriteString(w, `{"results":{"bindings":[]}}`)
		})

		_, err := client.LocationOf(context.Background(), "https://en.wikipedia.org/wiki/Nowhere")
		require.ErrorIs(t, err, shared.ErrLocationNotFound)
	})

	t.Run("endpoint error", func(t *testing.T) {
		t.Parallel()

		client := newTestGraph(t, func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.LocationOf(context.Background(), "https://en.wikipedia.org/wiki/Oslo")
		require.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})

	t.Run("malformed response", func(t *testing.T) {
		t.Parallel()

		client := newTestGraph(t, func(w http.ResponseWriter, req *http.Request) {
			_, _ = io.WriteString(w, `<html>Virtuoso error</html>`)
		})

		_, err := client.LocationOf(context.Background(), "https://en.wikipedia.org/wiki/Oslo")
		require.ErrorIs(t, err, shared.ErrUnexpectedResponse)
	})
}

func TestClient_BandsIn(t *testing.T) {
	t.Parallel()

	client := newTestGraph(t, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query().Get("query")
		require.Equal(t, 6, strings.Count(q, "?Band a schema:MusicGroup"))
		require.Equal(t, 5, strings.Count(q, "UNION"))
		require.Contains(t, q, "?Band dbo:hometown <http://dbpedia.org/resource/Reykjavík>")
		require.Contains(t, q, "?p2 dbo:isPartOf <http://dbpedia.org/resource/Reykjavík>")

		_, _ = io.WriteString(w, bandsResponse)
	})

	names, err := client.BandsIn(context.Background(), "http://dbpedia.org/resource/Reykjavík")
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Equal(t, "Sigur Rós", names[0].Name)
	assert.Equal(t, "http://dbpedia.org/resource/Sigur_Rós", names[0].GraphURI)
	assert.Equal(t, "múm", names[1].Name)

	_, err = client.BandsIn(context.Background(), "")
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestClient_Lookup(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/sparql", func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, `{"results":{"bindings":[{"Location":{"value":"http://dbpedia.org/resource/Torshavn"},"Abstract":{"value":"..."}}]}}`)
	})
	mux.HandleFunc("/wiki/Torshavn", func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, `<html><head>
			<title>Torshavn - Wikipedia</title>
			<meta property="og:image" content="https://upload.wikimedia.org/torshavn.jpg">
		</head><body></body></html>`)
	})
	svr := httptest.NewServer(mux)
	defer svr.Close()

	client := New(Options{Endpoint: svr.URL + "/sparql"})

	loc, err := client.Lookup(context.Background(), svr.URL+"/wiki/Torshavn")
	require.NoError(t, err)
	assert.Equal(t, "Torshavn", loc.Name)
	assert.Equal(t, "https://upload.wikimedia.org/torshavn.jpg", loc.Image)

	loc, err = client.Lookup(context.Background(), svr.URL+"/wiki/Missing_Page")
	require.NoError(t, err)
	assert.Equal(t, "Missing Page", loc.Name)
}
