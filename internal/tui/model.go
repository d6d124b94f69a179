package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"orgcal/internal/agenda"
	"orgcal/internal/library"
	"orgcal/internal/model"
)

type pane int

const (
	paneFiles pane = iota
	paneDocument
	paneAgenda
	paneCount
)

// Options configures the terminal UI.
type Options struct {
	Library   *library.Library
	WeekStart time.Weekday
	Location  *time.Location
	// Updates, if set, delivers snapshots published by background reloads.
	Updates <-chan *library.Snapshot
	Now     func() time.Time
}

type snapshotMsg struct{ snap *library.Snapshot }

type reloadedMsg struct {
	snap *library.Snapshot
	err  error
}

type fileItem struct {
	name      string
	headlines int
	err       string
}

func (i fileItem) Title() string { return i.name }

func (i fileItem) Description() string {
	if i.err != "" {
		return "error: " + i.err
	}
	if i.headlines == 1 {
		return "1 headline"
	}
	return fmt.Sprintf("%d headlines", i.headlines)
}

func (i fileItem) FilterValue() string { return i.name }

// Model is the Bubble Tea model of the agenda browser: a file list, the
// selected document and the agenda of one week.
type Model struct {
	ctx       context.Context
	lib       *library.Library
	updates   <-chan *library.Snapshot
	weekStart time.Weekday
	loc       *time.Location
	now       func() time.Time

	snap     *library.Snapshot
	week     agenda.Week
	selected string

	files   list.Model
	doc     viewport.Model
	agenda  viewport.Model
	focus   pane
	width   int
	height  int
	err     error
	loading bool
}

// New creates the model from the library's current snapshot.
func New(opts Options) Model {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(colorHighlight).
		BorderForeground(colorPrimary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		BorderForeground(colorPrimary)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Files"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	m := Model{
		ctx:       context.Background(),
		lib:       opts.Library,
		updates:   opts.Updates,
		weekStart: opts.WeekStart,
		loc:       opts.Location,
		now:       opts.Now,
		files:     l,
		doc:       viewport.New(0, 0),
		agenda:    viewport.New(0, 0),
	}
	m.week = m.thisWeek()
	m.setSnapshot(opts.Library.Snapshot())
	return m
}

// Run starts the program on the terminal and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	m := New(opts)
	m.ctx = ctx

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func waitForSnapshot(ch <-chan *library.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg{snap: snap}
	}
}

func (m Model) reload() tea.Cmd {
	ctx, lib := m.ctx, m.lib
	return func() tea.Msg {
		snap, err := lib.Reload(ctx)
		return reloadedMsg{snap: snap, err: err}
	}
}

func (m Model) thisWeek() agenda.Week {
	return agenda.WeekOf(m.now().In(m.loc), m.weekStart)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case snapshotMsg:
		m.setSnapshot(msg.snap)
		return m, waitForSnapshot(m.updates)

	case reloadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.setSnapshot(msg.snap)
		}
		return m, nil

	case tea.KeyMsg:
		if m.files.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.focus = (m.focus + 1) % paneCount
			return m, nil
		case "shift+tab":
			m.focus = (m.focus + paneCount - 1) % paneCount
			return m, nil
		case "[":
			m.setWeek(m.week.Prev())
			return m, nil
		case "]":
			m.setWeek(m.week.Next())
			return m, nil
		case "t":
			m.setWeek(m.thisWeek())
			return m, nil
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.reload()
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case paneFiles:
		m.files, cmd = m.files.Update(msg)
		m.syncSelection()
	case paneDocument:
		m.doc, cmd = m.doc.Update(msg)
	case paneAgenda:
		m.agenda, cmd = m.agenda.Update(msg)
	}
	return m, cmd
}

func (m *Model) setSnapshot(snap *library.Snapshot) {
	m.snap = snap

	parseErrs := make(map[string]string, len(snap.ParseErrors))
	for _, pe := range snap.ParseErrors {
		parseErrs[pe.Filename] = pe.Reason
	}

	items := make([]list.Item, 0, len(snap.Documents)+len(snap.Failures))
	index := 0
	for _, d := range snap.Documents {
		if d.Filename == m.selected {
			index = len(items)
		}
		items = append(items, fileItem{name: d.Filename, headlines: len(d.Headlines), err: parseErrs[d.Filename]})
	}
	for _, f := range snap.Failures {
		items = append(items, fileItem{name: f.Filename, err: f.Err.Error()})
	}
	m.files.SetItems(items)
	if len(items) > 0 {
		m.files.Select(index)
	}

	m.selected = ""
	m.syncSelection()
	m.renderAgenda()
}

func (m *Model) setWeek(w agenda.Week) {
	m.week = w
	m.renderAgenda()
}

// syncSelection shows the selected document if the selection changed.
func (m *Model) syncSelection() {
	item, ok := m.files.SelectedItem().(fileItem)
	if !ok {
		m.selected = ""
		m.doc.SetContent(emptyStyle.Render("no documents"))
		return
	}
	if item.name == m.selected {
		return
	}
	m.selected = item.name

	doc, found := m.snap.Document(item.name)
	if !found {
		m.doc.SetContent(errorStyle.Render(item.err))
	} else {
		m.doc.SetContent(renderDocument(doc))
	}
	m.doc.GotoTop()
}

func (m *Model) renderAgenda() {
	m.agenda.SetContent(renderWeek(m.week, m.snap.Agenda, m.now().In(m.loc)))
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	paneHeight := max(m.height-1, 6)
	leftWidth := max(m.width/3, 20)
	rightWidth := max(m.width-leftWidth, 20)
	docHeight := paneHeight / 2
	agendaHeight := paneHeight - docHeight

	// Borders take two cells, pane titles one line.
	m.files.SetSize(leftWidth-2, paneHeight-2)
	m.doc.Width, m.doc.Height = rightWidth-2, max(docHeight-3, 1)
	m.agenda.Width, m.agenda.Height = rightWidth-2, max(agendaHeight-3, 1)
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	style := func(p pane) lipgloss.Style {
		if m.focus == p {
			return focusedPaneStyle
		}
		return paneStyle
	}

	docTitle := "Document"
	if m.selected != "" {
		docTitle = m.selected
	}

	left := style(paneFiles).Render(m.files.View())
	top := style(paneDocument).Render(paneTitle.Render(docTitle) + "\n" + m.doc.View())
	bottom := style(paneAgenda).Render(paneTitle.Render(m.week.String()) + "\n" + m.agenda.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.JoinVertical(lipgloss.Left, top, bottom))
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine())
}

func (m Model) statusLine() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d documents · %d entries · %d skipped",
		len(m.snap.Documents), len(m.snap.Agenda.Entries), m.snap.Agenda.SkippedCount())
	if n := len(m.snap.Failures) + len(m.snap.ParseErrors); n > 0 {
		fmt.Fprintf(&b, " · %d unreadable", n)
	}
	switch {
	case m.loading:
		b.WriteString(" · reloading")
	case m.err != nil:
		b.WriteString(" · " + errorStyle.Render("reload failed: "+m.err.Error()))
	case !m.snap.LoadedAt.IsZero():
		b.WriteString(" · loaded " + m.snap.LoadedAt.In(m.loc).Format("15:04:05"))
	}

	keys := statusKey.Render("tab") + " focus  " +
		statusKey.Render("[ ]") + " week  " +
		statusKey.Render("t") + " today  " +
		statusKey.Render("r") + " reload  " +
		statusKey.Render("q") + " quit"

	return statusBar.Width(max(m.width, 1)).Render(b.String() + "   " + keys)
}

func renderDocument(doc model.Document) string {
	lines := strings.Split(doc.RawText, "\n")
	for i, line := range lines {
		if rest := strings.TrimLeft(line, "*"); len(rest) < len(line) && strings.HasPrefix(rest, " ") {
			lines[i] = headlineStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func renderWeek(w agenda.Week, a agenda.Agenda, now time.Time) string {
	entries := w.Entries(a)

	var b strings.Builder
	for i := range 7 {
		day := w.Start.AddDate(0, 0, i)
		next := w.Start.AddDate(0, 0, i+1)

		header := dayHeader
		if !now.Before(day) && now.Before(next) {
			header = todayHeader
		}
		b.WriteString(header.Render(day.Format("Mon Jan 02")))
		b.WriteByte('\n')

		n := 0
		for len(entries) > 0 && entries[0].Time.Before(next) {
			e := entries[0]
			entries = entries[1:]
			fmt.Fprintf(&b, "  %s  %s\n", timeStyle.Render(e.Time.In(day.Location()).Format("15:04")), e.Label)
			n++
		}
		if n == 0 {
			b.WriteString("  " + emptyStyle.Render("-") + "\n")
		}
	}

	if len(a.Skipped) > 0 {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("%d skipped", len(a.Skipped))) + "\n")
		for _, s := range a.Skipped {
			fmt.Fprintf(&b, "  %s:%d %s (%s)\n", s.Filename, s.Line, s.Label, s.Slot)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
