package movies

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adorostkar/gorate/internal/filter"
	"github.com/adorostkar/gorate/internal/model"
	"github.com/adorostkar/gorate/internal/ui"
)

// Fixed widths for the short columns; title and genre share the rest.
var fixedWidths = map[int]int{
	model.ColumnYear:    6,
	model.ColumnRating:  7,
	model.ColumnVotes:   10,
	model.ColumnRuntime: 9,
}

type Model struct {
	table   table.Model
	input   textinput.Model
	movies  []model.Movie
	rows    *filter.Rows
	visible []int
	label   filter.TextLabel
	opts    filter.Options
	width   int
	height  int
	loading bool
	err     error
}

func New(opts filter.Options) Model {
	ti := textinput.New()
	ti.Prompt = "Search: "
	ti.Placeholder = "title or genre, space separated"
	ti.CharLimit = 256

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorBorder).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F9FAFB")).
		Background(ui.ColorPrimary)
	t.SetStyles(styles)

	return Model{
		table:   t,
		input:   ti,
		rows:    filter.NewRows(model.Columns, nil),
		opts:    opts,
		loading: true,
	}
}

func columns(width int) []table.Column {
	rest := width
	for _, w := range fixedWidths {
		rest -= w
	}
	// Each column carries two cells of padding.
	rest -= 2 * len(model.Columns)
	if rest < 20 {
		rest = 20
	}
	cols := make([]table.Column, len(model.Columns))
	for i, title := range model.Columns {
		w, ok := fixedWidths[i]
		if !ok {
			switch i {
			case model.ColumnTitle:
				w = rest * 3 / 5
			default:
				w = rest - rest*3/5
			}
		}
		cols[i] = table.Column{Title: title, Width: w}
	}
	return cols
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.MoviesLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.movies = msg.Movies
		data := make([][]string, len(msg.Movies))
		for i, mv := range msg.Movies {
			data[i] = mv.Cells()
		}
		m.rows = filter.NewRows(model.Columns, data)
		m.applyFilter()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - lipgloss.Width(m.input.Prompt) - 1
		m.table.SetColumns(columns(msg.Width))
		m.table.SetWidth(msg.Width)
		// Search line above, plot line below.
		h := msg.Height - 2
		if h < 3 {
			h = 3
		}
		m.table.SetHeight(h)
		return m, nil

	case tea.KeyMsg:
		if m.input.Focused() {
			switch {
			case key.Matches(msg, ui.Keys.Back), key.Matches(msg, ui.Keys.Open):
				m.input.Blur()
				m.table.Focus()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			m.applyFilter()
			return m, cmd
		}
		if key.Matches(msg, ui.Keys.Search) {
			m.table.Blur()
			return m, m.input.Focus()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// applyFilter runs the row filter over the loaded movies and shows the
// rows it leaves visible.
func (m *Model) applyFilter() {
	f, err := filter.New(m.opts, m.input, m.rows, &m.label)
	if err != nil {
		m.err = err
		return
	}
	if _, err := f.Apply(); err != nil {
		m.err = err
		return
	}
	m.visible = m.rows.VisibleIndexes()
	rows := make([]table.Row, len(m.visible))
	for i, idx := range m.visible {
		rows[i] = table.Row(m.rows.Data[idx])
	}
	m.table.SetRows(rows)
	if len(rows) > 0 && m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m Model) View() string {
	if m.loading {
		return "\n  Scanning movie folders..."
	}
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v", m.err)
	}

	search := m.input.View()
	if !m.input.Focused() && m.input.Value() == "" {
		search = ui.StyleMuted.Render("  / to search")
	}

	detail := ""
	if mv := m.SelectedMovie(); mv != nil {
		switch {
		case mv.Plot != "":
			detail = mv.Plot
		case !mv.Enriched():
			detail = "No metadata: " + mv.Path
		}
	}
	if m.width > 0 {
		detail = lipgloss.NewStyle().MaxWidth(m.width).Render(detail)
	}

	return search + "\n" + m.table.View() + "\n" + ui.StyleMuted.Render(detail)
}

// SelectedMovie returns the movie under the cursor, or nil when no row is
// visible.
func (m Model) SelectedMovie() *model.Movie {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.visible) {
		return nil
	}
	mv := m.movies[m.visible[c]]
	return &mv
}

func (m Model) IsSearching() bool {
	return m.input.Focused()
}

func (m Model) Query() string {
	return m.input.Value()
}

// CountText is the visible-row label written by the last filter run.
func (m Model) CountText() string {
	return m.label.Text
}

func (m Model) VisibleCount() int {
	return len(m.visible)
}

func (m Model) IsLoading() bool {
	return m.loading
}

func (m Model) ShortHelp() []key.Binding {
	if m.input.Focused() {
		return []key.Binding{ui.Keys.Back}
	}
	return []key.Binding{
		ui.Keys.Search,
		ui.Keys.Open,
		ui.Keys.Refresh,
		ui.Keys.Quit,
	}
}
