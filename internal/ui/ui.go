package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/placelist/internal/formatter"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/tasks"
)

const (
	MinTracksPerArtist = 1
	MaxTracksPerArtist = 10
	MinTargetHours     = 1
)

// Options configures a [Model].
type Options struct {
	Location        models.Location
	Names           []models.BareArtistName
	PlaylistName    string // defaults to the location name
	TracksPerArtist int
	TargetHours     float64
	Public          bool
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	coord   *tasks.Coordinator
	builder *tasks.Builder
	opts    Options

	sub         <-chan tasks.Snapshot
	unsubscribe func()

	snap     tasks.Snapshot
	cut      int
	tpa      int
	hours    float64
	list     list.Model
	progress progress.Model
	help     help.Model
	keys     keyMap
	width    int
	height   int

	buildCh     <-chan tasks.ProgressUpdate
	buildDone   <-chan tasks.BuildResult
	building    bool
	buildUpdate tasks.ProgressUpdate
	result      *tasks.BuildResult
}

// NewModel creates a TUI for one location. The run starts in [Model.Init].
func NewModel(ctx context.Context, coord *tasks.Coordinator, builder *tasks.Builder, opts Options) *Model {
	if opts.PlaylistName == "" {
		opts.PlaylistName = opts.Location.Name
	}
	sub, unsubscribe := coord.Subscribe()

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = opts.Location.Name
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return &Model{
		ctx:         ctx,
		coord:       coord,
		builder:     builder,
		opts:        opts,
		sub:         sub,
		unsubscribe: unsubscribe,
		cut:         -1,
		tpa:         clampTracks(opts.TracksPerArtist),
		hours:       max(opts.TargetHours, MinTargetHours),
		list:        l,
		progress:    progress.New(progress.WithDefaultGradient()),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts enrichment and begins listening for snapshots.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.start(), m.waitForSnapshot())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, max(msg.Height-10, 5))
		m.progress.Width = max(msg.Width-8, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case snapshotMsg:
		m.snap = tasks.Snapshot(msg)
		return m, tea.Batch(m.recompute(), m.waitForSnapshot())

	case buildProgressMsg:
		m.buildUpdate = tasks.ProgressUpdate(msg)
		return m, m.waitForBuild()

	case buildDoneMsg:
		res := tasks.BuildResult(msg)
		m.result = &res
		m.building = false
		m.buildCh, m.buildDone = nil, nil
		return m, nil

	case progress.FrameMsg:
		p, cmd := m.progress.Update(msg)
		m.progress = p.(progress.Model)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.unsubscribe()
		m.coord.StopLoading()
		return m, tea.Quit
	case "s":
		m.coord.StopLoading()
		return m, nil
	case "c":
		m.coord.Clear()
		m.result = nil
		return m, nil
	case "+", "=":
		m.tpa = clampTracks(m.tpa + 1)
		return m, m.recompute()
	case "-":
		m.tpa = clampTracks(m.tpa - 1)
		return m, m.recompute()
	case "]":
		m.hours++
		return m, m.recompute()
	case "[":
		m.hours = max(m.hours-1, MinTargetHours)
		return m, m.recompute()
	case "p":
		return m, m.startBuild()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// recompute re-partitions the live list for the current settings.
func (m *Model) recompute() tea.Cmd {
	m.cut = tasks.Partition(m.snap.Artists, m.tpa, m.hours)
	return m.list.SetItems(artistItems(m.snap.Artists, m.cut, m.tpa))
}

func (m *Model) start() tea.Cmd {
	return func() tea.Msg {
		m.coord.Start(m.ctx, m.opts.Names)
		return snapshotMsg(m.coord.Snapshot())
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		select {
		case s := <-sub:
			return snapshotMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) startBuild() tea.Cmd {
	if m.building {
		return nil
	}

	selected := tasks.Selection(m.snap.Artists, m.cut)
	req := tasks.BuildRequest{
		Name:            m.opts.PlaylistName,
		Artists:         selected,
		TracksPerArtist: m.tpa,
		Options:         models.PlaylistOptions{Public: m.opts.Public},
	}

	m.building = true
	m.result = nil
	m.buildUpdate = tasks.ProgressUpdate{Message: "Starting..."}
	ch := make(chan tasks.ProgressUpdate, 50)
	done := make(chan tasks.BuildResult, 1)
	m.buildCh, m.buildDone = ch, done

	go func() {
		defer close(ch)
		user, err := m.builder.Catalog.Me(m.ctx)
		if err != nil {
			done <- tasks.BuildResult{Failed: true, Message: err.Error()}
			return
		}
		req.User = user
		done <- m.builder.Build(m.ctx, req, ch)
	}()

	return m.waitForBuild()
}

// waitForBuild relays build progress until the channel closes, then delivers the result.
func (m *Model) waitForBuild() tea.Cmd {
	ch, done := m.buildCh, m.buildDone
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return buildDoneMsg(<-done)
		}
		return buildProgressMsg(update)
	}
}

// View renders the run status, the ranked list and the playlist status.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("placelist: %s", m.opts.Location.Name)))
	b.WriteString("\n")

	status := "done"
	if m.snap.Loading {
		status = "loading"
	}
	fmt.Fprintf(&b, "%s  %d/%d names • %d artists • %s\n",
		m.progress.ViewAs(m.snap.Progress()), m.snap.Fetched, m.snap.Total, len(m.snap.Artists), status)

	selected := tasks.Selection(m.snap.Artists, m.cut)
	fmt.Fprintf(&b, "%d tracks/artist • target %gh • %d artists above the cut (%s)\n\n",
		m.tpa, m.hours, len(selected), formatter.FormatDuration(tasks.Duration(selected, m.tpa)))

	if len(m.snap.Artists) == 0 {
		b.WriteString(styles.help.Render("No artists yet."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteString("\n")
		if m.cut < len(m.snap.Artists)-1 {
			b.WriteString(styles.cut.Render(fmt.Sprintf("cut after #%d %s", m.cut+1, cutName(selected))))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.renderPlaylist())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderPlaylist() string {
	switch {
	case m.building:
		return styles.warn.Render(fmt.Sprintf("Building %q: %s", m.opts.PlaylistName, m.buildUpdate.Message))
	case m.result == nil:
		return ""
	case m.result.Failed:
		return styles.err.Render("Playlist failed: " + m.result.Message)
	default:
		msg := fmt.Sprintf("✓ %s: %d tracks", m.result.Playlist.Name, m.result.Submitted)
		if m.result.Playlist.URL != "" {
			msg += " " + m.result.Playlist.URL
		}
		return styles.ok.Render(msg)
	}
}

func cutName(selected []models.ArtistWithTracks) string {
	if len(selected) == 0 {
		return ""
	}
	return "(" + selected[len(selected)-1].Artist.Name + ")"
}

func clampTracks(n int) int {
	return min(max(n, MinTracksPerArtist), MaxTracksPerArtist)
}
