package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundscout/internal/models"
	"github.com/desertthunder/soundscout/internal/shared"
	"github.com/desertthunder/soundscout/internal/tasks"
)

// loadingInterval is how often the status line changes while a playlist is generated.
const loadingInterval = 2 * time.Second

var loadingMessages = []string{
	"Scouting for the perfect vibes...",
	"Finding common ground...",
	"Blending both sets of favourites...",
	"Checking the vibe...",
	"Digging through the crates...",
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	session *tasks.Session
	logger  *log.Logger

	state     tasks.State
	formStage models.AppStage
	form      listenerForm
	results   list.Model
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
	width     int
	height    int
	notice    string

	busy    bool
	gen     uint64
	loading int

	exporting    bool
	progressChan chan tasks.ProgressUpdate
	exportDone   chan Msg
	progress     tasks.ProgressUpdate

	lookupID     uint64
	lookupCancel context.CancelFunc
	artistChan   chan Msg
	suggestion   int
}

// NewModel creates a new TUI model driving session.
func NewModel(ctx context.Context, session *tasks.Session, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	m := &Model{
		ctx:     ctx,
		session: session,
		logger:  logger,
		form:    newListenerForm(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    newKeyMap(),
		width:   80,
		height:  24,
	}
	m.results = newResultList(nil, m.width-4, m.height-10)
	m.formStage = -1
	m.refresh()
	return m
}

// Init starts the cursor blink in the first input.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQuit) {
			return m, m.quit()
		}
		switch m.state.Stage {
		case models.InputListener1, models.InputListener2:
			return m, m.handleInputKeys(msg)
		default:
			return m, m.handleResultKeys(msg)
		}

	case Msg:
		return m, m.handleMsg(msg)

	case spinner.TickMsg:
		if !m.busy && !m.exporting && m.state.ArtistStatus != tasks.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.inputStage() {
		return m, m.form.update(msg)
	}
	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgGenerated:
		data := msg.data.(generatedData)
		if data.gen != m.gen {
			return nil
		}
		m.busy = false
		m.refresh()
		if data.err != nil {
			if !errors.Is(data.err, shared.ErrStale) && m.state.Status != tasks.Error {
				m.notice = shared.UserMessage(data.err)
			}
			return nil
		}
		m.results = newResultList(m.state.Playlist, m.width-4, m.height-10)
		return nil

	case MsgLoadingTick:
		if !m.busy {
			return nil
		}
		m.loading = (m.loading + 1) % len(loadingMessages)
		return tickLoading()

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return waitForProgress(m.progressChan, m.exportDone)

	case MsgExported:
		data := msg.data.(exportedData)
		m.exporting = false
		m.progressChan, m.exportDone = nil, nil
		m.refresh()
		if data.err != nil && !errors.Is(data.err, shared.ErrStale) && m.state.ExportStatus != tasks.Error {
			m.notice = shared.UserMessage(data.err)
		}
		return nil

	case MsgArtistSong:
		data := msg.data.(artistData)
		if data.lookup != m.lookupID {
			return nil
		}
		m.refresh()
		return waitArtist(m.artistChan)

	case MsgArtistDone:
		data := msg.data.(artistData)
		if data.lookup != m.lookupID {
			return nil
		}
		m.refresh()
		if data.err != nil {
			m.logger.Debug("artist lookup ended", "error", data.err)
		}
		return nil
	}
	return nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.reset) {
		m.reset()
		return nil
	}
	if m.busy {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.next):
		return m.form.move(1)
	case key.Matches(msg, m.keys.prev):
		return m.form.move(-1)
	case key.Matches(msg, m.keys.submit):
		if m.state.Stage == models.InputListener1 {
			return m.next()
		}
		return m.generate(models.SizeTaster)
	case key.Matches(msg, m.keys.full) && m.state.Stage == models.InputListener2:
		return m.generate(models.SizeFull)
	case key.Matches(msg, m.keys.back) && m.state.Stage == models.InputListener2:
		m.commit()
		m.do(m.session.Back())
		return nil
	case key.Matches(msg, m.keys.lookup):
		return m.lookupArtist()
	case key.Matches(msg, m.keys.cycle):
		if n := len(m.state.ArtistSongs); n > 0 {
			m.suggestion = (m.suggestion + 1) % n
		}
		return nil
	case key.Matches(msg, m.keys.addSong):
		if m.suggestion < len(m.state.ArtistSongs) {
			m.form.addSong(models.SongWithArtist{Title: m.state.ArtistSongs[m.suggestion], Artist: m.state.Artist})
		}
		return nil
	}

	if m.form.focus == fieldGenres {
		switch {
		case key.Matches(msg, m.keys.left):
			m.form.moveGenre(-1)
		case key.Matches(msg, m.keys.right):
			m.form.moveGenre(1)
		case key.Matches(msg, m.keys.toggle):
			m.do(m.session.ToggleGenre(m.listener(), m.form.genre()))
		}
		return nil
	}

	m.notice = ""
	return m.form.update(msg)
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) tea.Cmd {
	if m.busy {
		if key.Matches(msg, m.keys.reset) {
			m.reset()
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.reset), key.Matches(msg, m.keys.restart):
		m.reset()
		return nil
	case key.Matches(msg, m.keys.fullKey) && m.state.Stage == models.TasterResult:
		if m.exporting {
			m.notice = shared.UserMessage(shared.ErrExportInFlight)
			return nil
		}
		return m.generate(models.SizeFull)
	case key.Matches(msg, m.keys.export):
		return m.startExport()
	case key.Matches(msg, m.keys.back):
		if !m.exporting {
			m.do(m.session.Back())
		}
		return nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return cmd
}

func (m *Model) inputStage() bool {
	return m.state.Stage == models.InputListener1 || m.state.Stage == models.InputListener2
}

func (m *Model) listener() models.Source {
	if m.state.Stage == models.InputListener2 {
		return models.SecondListener
	}
	return models.FirstListener
}

// refresh copies the session state and reloads the form when the input step changed.
func (m *Model) refresh() {
	m.state = m.session.Snapshot()
	if !m.inputStage() {
		m.formStage = m.state.Stage
		return
	}
	if m.formStage == m.state.Stage {
		return
	}

	m.formStage = m.state.Stage
	if m.state.Stage == models.InputListener2 {
		m.form.load(m.state.Second, m.state.Vibe, true)
	} else {
		m.form.load(m.state.First, "", false)
	}
}

// commit writes the form into the session.
func (m *Model) commit() {
	if !m.inputStage() {
		return
	}
	who := m.listener()
	genres := m.state.First.Genres
	if who == models.SecondListener {
		genres = m.state.Second.Genres
		m.session.SetVibe(m.form.vibe.Value())
	}
	m.do(m.session.SetPreferences(who, m.form.preferences(genres)))
}

// do records err as the notice and refreshes the state.
func (m *Model) do(err error) {
	m.notice = ""
	if err != nil {
		m.notice = shared.UserMessage(err)
	}
	m.refresh()
}

func (m *Model) next() tea.Cmd {
	m.commit()
	m.do(m.session.Next())
	return nil
}

func (m *Model) generate(size models.Size) tea.Cmd {
	m.commit()
	if !m.session.CanGenerate() {
		m.notice = shared.UserMessage(shared.ErrInsufficientInput)
		return nil
	}

	m.busy = true
	m.notice = ""
	m.loading = 0
	m.gen++
	gen, session, ctx := m.gen, m.session, m.ctx

	run := func() tea.Msg {
		p, err := session.Generate(ctx, size)
		return generatedMsg(gen, p, err)
	}
	return tea.Batch(run, m.spinner.Tick, tickLoading())
}

func tickLoading() tea.Cmd {
	return tea.Tick(loadingInterval, func(t time.Time) tea.Msg {
		return loadingTickMsg(t)
	})
}

func (m *Model) startExport() tea.Cmd {
	if m.exporting || m.state.Playlist == nil {
		return nil
	}
	m.exporting = true
	m.notice = ""
	m.progress = tasks.ProgressUpdate{}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan, m.exportDone = progress, done

	session, ctx := m.session, m.ctx
	go func() {
		ref, err := session.Export(ctx, progress)
		close(progress)
		done <- exportedMsg(ref, err)
	}()
	return tea.Batch(waitForProgress(progress, done), m.spinner.Tick)
}

func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) lookupArtist() tea.Cmd {
	artist := m.form.lastArtist()
	if artist == "" {
		m.notice = "Type an artist first to see their songs."
		return nil
	}
	m.cancelLookup()

	ctx, cancel := context.WithCancel(m.ctx)
	m.lookupID++
	id := m.lookupID
	ch := make(chan Msg, 32)
	m.lookupCancel, m.artistChan = cancel, ch
	m.suggestion = 0
	m.notice = ""

	session := m.session
	go func() {
		defer close(ch)
		err := session.LookupArtist(ctx, artist, func(title string) {
			select {
			case ch <- artistSongMsg(id, title):
			case <-ctx.Done():
			}
		})
		select {
		case ch <- artistDoneMsg(id, err):
		case <-ctx.Done():
		}
	}()

	m.state.ArtistStatus = tasks.Loading
	m.state.Artist = artist
	m.state.ArtistSongs = nil
	return tea.Batch(waitArtist(ch), m.spinner.Tick)
}

func waitArtist(ch <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) cancelLookup() {
	if m.lookupCancel != nil {
		m.lookupCancel()
		m.lookupCancel = nil
	}
}

func (m *Model) reset() {
	m.cancelLookup()
	m.session.Reset()
	m.busy = false
	m.exporting = false
	m.progressChan, m.exportDone = nil, nil
	m.notice = ""
	m.suggestion = 0
	m.form = newListenerForm()
	m.results = newResultList(nil, m.width-4, m.height-10)
	m.formStage = -1
	m.refresh()
}

func (m *Model) quit() tea.Cmd {
	m.cancelLookup()
	return tea.Quit
}

// View renders the UI based on the current stage.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("SoundScout"))
	b.WriteString("\n")

	switch m.state.Stage {
	case models.InputListener1, models.InputListener2:
		b.WriteString(m.renderInput())
	default:
		b.WriteString(m.renderResult())
	}

	if m.notice != "" {
		fmt.Fprintf(&b, "\n%s\n", styles.warn.Render(m.notice))
	}
	return b.String()
}

func (m *Model) renderInput() string {
	var b strings.Builder

	listener := models.FirstListener
	prefs := m.state.First
	if m.state.Stage == models.InputListener2 {
		listener, prefs = models.SecondListener, m.state.Second
	}
	fmt.Fprintf(&b, "%s\n\n", styles.Source(listener))
	b.WriteString(m.form.view(prefs.Genres))
	b.WriteString(m.renderSuggestions())

	if m.state.Status == tasks.Error && m.state.Err != "" {
		fmt.Fprintf(&b, "\n%s\n", styles.err.Render(m.state.Err))
	}

	if m.busy {
		fmt.Fprintf(&b, "\n%s %s\n", m.spinner.View(), loadingMessages[m.loading])
		return b.String()
	}

	bindings := []key.Binding{m.keys.next, m.keys.lookup}
	if m.state.Stage == models.InputListener1 {
		bindings = append(bindings, key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next listener")))
	} else {
		bindings = append(bindings,
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "taster")),
			m.keys.full, m.keys.back)
	}
	bindings = append(bindings, m.keys.reset, m.keys.forceQuit)
	fmt.Fprintf(&b, "\n%s", m.help.ShortHelpView(bindings))
	return b.String()
}

func (m *Model) renderSuggestions() string {
	if m.state.Artist == "" {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s", styles.label.Render("Songs by "+m.state.Artist))
	if m.state.ArtistStatus == tasks.Loading {
		fmt.Fprintf(&b, " %s", m.spinner.View())
	}
	b.WriteString("\n")

	if m.state.ArtistStatus == tasks.Error {
		fmt.Fprintf(&b, "%s\n", styles.err.Render(m.state.ArtistErr))
	}

	songs := m.state.ArtistSongs
	start := max(0, min(m.suggestion-4, len(songs)-8))
	for i := start; i < len(songs) && i < start+8; i++ {
		if i == m.suggestion {
			fmt.Fprintf(&b, "%s\n", styles.focused.Render("▸ "+songs[i]))
		} else {
			fmt.Fprintf(&b, "  %s\n", songs[i])
		}
	}
	if len(songs) > 0 {
		fmt.Fprintf(&b, "%s\n", m.help.ShortHelpView([]key.Binding{m.keys.cycle, m.keys.addSong}))
	}
	return b.String()
}

func (m *Model) renderResult() string {
	var b strings.Builder

	if m.busy {
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), loadingMessages[m.loading])
		return b.String()
	}
	if m.state.Playlist == nil {
		return styles.err.Render("No playlist available\n\nPress r to start over, q to quit")
	}

	counts := m.state.Playlist.CountBySource()
	fmt.Fprintf(&b, "%s • %d songs (%s %d, %s %d, %s %d)",
		m.state.Vibe, len(m.state.Playlist.Songs),
		styles.Source(models.Both), counts[models.Both],
		styles.Source(models.FirstListener), counts[models.FirstListener],
		styles.Source(models.SecondListener), counts[models.SecondListener])
	if m.state.Record > 0 {
		fmt.Fprintf(&b, " • saved as #%d", m.state.Record)
	}
	b.WriteString("\n\n")
	b.WriteString(m.results.View())
	b.WriteString("\n\n")
	b.WriteString(m.renderExport())

	bindings := []key.Binding{}
	if m.state.Stage == models.TasterResult && !m.exporting {
		bindings = append(bindings, m.keys.fullKey)
	}
	if !m.exporting && m.state.ExportStatus != tasks.Success {
		bindings = append(bindings, m.keys.export)
	}
	bindings = append(bindings, m.keys.back, m.keys.restart, m.keys.quit)
	fmt.Fprintf(&b, "\n%s", m.help.ShortHelpView(bindings))
	return b.String()
}

func (m *Model) renderExport() string {
	switch {
	case m.exporting:
		msg := m.progress.Message
		if msg == "" {
			msg = "Connecting to Spotify..."
		}
		return fmt.Sprintf("%s %s\n", m.spinner.View(), msg)
	case m.state.ExportStatus == tasks.Success && m.state.Remote != nil:
		r := m.state.Remote
		summary := styles.ok.Render(fmt.Sprintf("✓ Added %d of %d songs to Spotify", r.Added, r.Requested))
		if r.Resolved > r.Added {
			summary += styles.help.Render(fmt.Sprintf(" (%d more matched, over the %d track limit)", r.Resolved-r.Added, tasks.MaxTracksPerRequest))
		}
		return fmt.Sprintf("%s\n%s\n", summary, r.URL)
	case m.state.ExportStatus == tasks.Error:
		return styles.err.Render("Export failed: "+m.state.ExportErr) + "\n"
	}
	return ""
}
