// package formatter renders an enrichment run (the ranked artists and the cut) as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/agukrapo/go-http-client/requests"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/desertthunder/placelist/internal/tasks"
	"github.com/samber/lo"
)

// Format is an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat accepts a format name or a common alias ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: format %q (want one of %v)", shared.ErrInvalidFlag, s, Formats)
}

// Export is a ranked artist list with the cut computed for its settings.
type Export struct {
	Location        models.Location
	TracksPerArtist int
	TargetHours     float64
	Cut             int
	Artists         []models.ArtistWithTracks
}

// NewExport computes the cut of artists for the given settings.
func NewExport(loc models.Location, artists []models.ArtistWithTracks, tracksPerArtist int, targetHours float64) Export {
	return Export{
		Location:        loc,
		TracksPerArtist: tracksPerArtist,
		TargetHours:     targetHours,
		Cut:             tasks.Partition(artists, tracksPerArtist, targetHours),
		Artists:         artists,
	}
}

// Selected returns the artists above the cut.
func (e Export) Selected() []models.ArtistWithTracks {
	return tasks.Selection(e.Artists, e.Cut)
}

// Duration is the length of the selected tracks.
func (e Export) Duration() time.Duration {
	return tasks.Duration(e.Selected(), e.TracksPerArtist)
}

type artistRow struct {
	Rank       int            `json:"rank"`
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Popularity int            `json:"popularity"`
	Followers  int            `json:"followers"`
	Genres     []string       `json:"genres"`
	Selected   bool           `json:"selected"`
	Seconds    float64        `json:"seconds"`
	Tracks     []models.Track `json:"tracks"`
}

type jsonExport struct {
	Location        models.Location `json:"location"`
	TracksPerArtist int             `json:"tracks_per_artist"`
	TargetHours     float64         `json:"target_hours"`
	Cut             int             `json:"cut"`
	Seconds         float64         `json:"selected_seconds"`
	Artists         []artistRow     `json:"artists"`
}

func (e Export) rows() []artistRow {
	return lo.Map(e.Artists, func(a models.ArtistWithTracks, i int) artistRow {
		tracks := tasks.SelectedTracks([]models.ArtistWithTracks{a}, e.TracksPerArtist)
		return artistRow{
			Rank:       i + 1,
			ID:         a.Artist.ID,
			Name:       a.Artist.Name,
			Popularity: a.Artist.Popularity,
			Followers:  a.Artist.Followers.Total,
			Genres:     a.Artist.Genres,
			Selected:   i <= e.Cut,
			Seconds:    tasks.Duration([]models.ArtistWithTracks{a}, e.TracksPerArtist).Seconds(),
			Tracks:     tracks,
		}
	})
}

// ToJSON renders the export with each artist's capped tracks.
func ToJSON(e Export) ([]byte, error) {
	data, err := json.MarshalIndent(jsonExport{
		Location:        e.Location,
		TracksPerArtist: e.TracksPerArtist,
		TargetHours:     e.TargetHours,
		Cut:             e.Cut,
		Seconds:         e.Duration().Seconds(),
		Artists:         e.rows(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ToCSV renders one row per artist with columns: Rank, ID, Name, Popularity, Followers, Tracks, Seconds, Selected
func ToCSV(e Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "ID", "Name", "Popularity", "Followers", "Tracks", "Seconds", "Selected"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range e.rows() {
		record := []string{
			strconv.Itoa(row.Rank),
			row.ID,
			row.Name,
			strconv.Itoa(row.Popularity),
			strconv.Itoa(row.Followers),
			strconv.Itoa(len(row.Tracks)),
			strconv.FormatFloat(row.Seconds, 'f', -1, 64),
			strconv.FormatBool(row.Selected),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ToMarkdown renders the selection as a numbered list, followed by the artists
// below the cut. imageFilename is optional.
func ToMarkdown(e Export, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title(e))
	if imageFilename != "" {
		fmt.Fprintf(&buf, "![%s](%s)\n\n", e.Location.Name, imageFilename)
	}
	if e.Location.Abstract != "" {
		fmt.Fprintf(&buf, "> %s\n\n", e.Location.Abstract)
	}

	selected := e.Selected()
	fmt.Fprintf(&buf, "**Artists**: %d of %d\n", len(selected), len(e.Artists))
	fmt.Fprintf(&buf, "**Tracks per artist**: %d\n", e.TracksPerArtist)
	fmt.Fprintf(&buf, "**Length**: %s (target %gh)\n\n", FormatDuration(e.Duration()), e.TargetHours)

	buf.WriteString("## Selected\n\n")
	for i, a := range selected {
		fmt.Fprintf(&buf, "%d. %s (popularity %d) [%s]\n", i+1, a.Artist.Name, a.Artist.Popularity,
			FormatDuration(tasks.Duration([]models.ArtistWithTracks{a}, e.TracksPerArtist)))
		for _, t := range tasks.SelectedTracks([]models.ArtistWithTracks{a}, e.TracksPerArtist) {
			fmt.Fprintf(&buf, "   - %s [%s]\n", t.Name, FormatDuration(t.Duration()))
		}
	}

	if rest := e.Artists[len(selected):]; len(rest) > 0 {
		buf.WriteString("\n## Below the cut\n\n")
		for i, a := range rest {
			fmt.Fprintf(&buf, "%d. %s (popularity %d)\n", len(selected)+i+1, a.Artist.Name, a.Artist.Popularity)
		}
	}
	return buf.Bytes(), nil
}

// ToText renders one line per artist with a marker line at the cut.
func ToText(e Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Location: %s\n", title(e))
	fmt.Fprintf(&buf, "Artists: %d\n", len(e.Artists))
	fmt.Fprintf(&buf, "Selected: %d (%s)\n\n", len(e.Selected()), FormatDuration(e.Duration()))

	for i, a := range e.Artists {
		fmt.Fprintf(&buf, "%d. %s (%d)\n", i+1, a.Artist.Name, a.Artist.Popularity)
		if i == e.Cut && i < len(e.Artists)-1 {
			buf.WriteString("---- cut ----\n")
		}
	}
	return buf.Bytes(), nil
}

// Render dispatches to the renderer for f.
func Render(e Export, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ToJSON(e)
	case FormatCSV:
		return ToCSV(e)
	case FormatMarkdown:
		return ToMarkdown(e, "")
	case FormatText:
		return ToText(e)
	}
	return nil, fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, f)
}

// WriteFile renders e to path, or to a name derived from the location when path is empty.
// Returns the path written.
func WriteFile(e Export, f Format, path string) (string, error) {
	if path == "" {
		path = Slug(title(e)) + "." + extension(f)
	}

	data, err := Render(e, f)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", f, err)
	}
	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes {dir}/README.md and, when the location has an image,
// {dir}/cover.jpg. A failed image download is logged to stderr and skipped.
func WriteMarkdownExport(ctx context.Context, e Export, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = Slug(title(e))
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var cover string
	if e.Location.Image != "" {
		data, err := DownloadImage(ctx, http.DefaultClient, e.Location.Image)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			path := filepath.Join(outputDir, "cover.jpg")
			if err := os.WriteFile(path, data, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
			} else {
				cover = "cover.jpg"
				result.CoverImage = path
				result.Files = append(result.Files, path)
			}
		}
	}

	md, err := ToMarkdown(e, cover)
	if err != nil {
		return nil, err
	}
	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, md, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

// DownloadImage fetches url and returns the raw bytes.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: image URL", shared.ErrMissingArgument)
	}

	req, err := requests.New(url).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

// FormatDuration renders d as h:mm:ss, or m:ss under an hour.
func FormatDuration(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	h, m, s := secs/3600, secs%3600/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Slug lower-cases s and joins its words with '-'. Non-ASCII letters are kept.
func Slug(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r == '_' || r == '-' || r > 127 || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9'))
	})
	if len(words) == 0 {
		return "placelist"
	}
	return strings.Join(words, "-")
}

func title(e Export) string {
	return lo.Ternary(e.Location.Name != "", e.Location.Name, "placelist")
}

func extension(f Format) string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}
