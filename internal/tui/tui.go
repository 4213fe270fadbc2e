package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codeforiati/gbstats/internal/aggregate"
	"github.com/codeforiati/gbstats/internal/config"
	"github.com/codeforiati/gbstats/internal/db"
	"github.com/codeforiati/gbstats/internal/pipeline"
	"github.com/codeforiati/gbstats/internal/progress"
	"github.com/codeforiati/gbstats/internal/report"
)

// Tab represents a dashboard tab
type Tab int

const (
	TabSummary Tab = iota
	TabSignatories
	TabProgress
	TabRuns
)

const tabCount = 4

func (t Tab) String() string {
	return []string{"Summary", "Signatories", "Progress", "Runs"}[t]
}

// Model is the main TUI model
type Model struct {
	// Config
	cfg *config.Config

	// State
	currentTab  Tab
	width       int
	height      int
	ready       bool
	loading     bool
	lastRefresh time.Time
	err         error

	// Data
	summary  *aggregate.Result
	homepage *aggregate.HomepageStats
	series   progress.Series
	runs     []pipeline.Run

	// Components
	spinner spinner.Model
	table   table.Model
}

// tickMsg is sent periodically to refresh data
type tickMsg time.Time

// dataMsg carries refreshed data
type dataMsg struct {
	summary  *aggregate.Result
	homepage *aggregate.HomepageStats
	series   progress.Series
	runs     []pipeline.Run
	err      error
}

// NewModel creates a new TUI model
func NewModel(cfg *config.Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Signatory", Width: 36},
			{Title: "IATI", Width: 5},
			{Title: "Hum", Width: 5},
			{Title: "2.02+", Width: 6},
			{Title: "G202", Width: 5},
			{Title: "G203", Width: 5},
			{Title: "Trace", Width: 6},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = tableHeaderStyle
	styles.Selected = tableSelectedStyle
	t.SetStyles(styles)

	return Model{
		cfg:        cfg,
		currentTab: TabSummary,
		loading:    true,
		spinner:    s,
		table:      t,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.refreshData,
		tickEvery(30*time.Second),
	)
}

// tickEvery returns a command that ticks every duration
func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshData reads the latest outputs and run history
func (m Model) refreshData() tea.Msg {
	return loadData(m.cfg)
}

func loadData(cfg *config.Config) dataMsg {
	var data dataMsg

	// 산출물
	var summary aggregate.Result
	if err := readJSON(filepath.Join(cfg.OutputDir(), report.SummaryFile), &summary); err == nil {
		data.summary = &summary
	} else if !errors.Is(err, os.ErrNotExist) {
		data.err = err
	}

	var homepage aggregate.HomepageStats
	if err := readJSON(filepath.Join(cfg.OutputDir(), report.HomepageFile), &homepage); err == nil {
		data.homepage = &homepage
	}

	// 진행 이력
	series, err := progress.LoadCSV(cfg.HistoryPath())
	if err != nil {
		data.err = err
	}
	data.series = series

	// 실행 이력
	if _, err := os.Stat(cfg.CacheDBPath()); err == nil {
		database, err := db.Open(cfg.CacheDBPath())
		if err != nil {
			data.err = err
			return data
		}
		defer database.Close()

		if runs, err := pipeline.NewService(database).List("", 10); err == nil {
			data.runs = runs
		}
	}

	return data
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s 파싱 실패: %w", filepath.Base(path), err)
	}
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1":
			m.currentTab = TabSummary
		case "2":
			m.currentTab = TabSignatories
		case "3":
			m.currentTab = TabProgress
		case "4":
			m.currentTab = TabRuns
		case "r":
			m.loading = true
			return m, m.refreshData
		case "tab":
			m.currentTab = Tab((int(m.currentTab) + 1) % tabCount)
		case "shift+tab":
			m.currentTab = Tab((int(m.currentTab) + tabCount - 1) % tabCount)
		default:
			if m.currentTab == TabSignatories {
				var cmd tea.Cmd
				m.table, cmd = m.table.Update(msg)
				return m, cmd
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		if msg.Height > 12 {
			m.table.SetHeight(msg.Height - 10)
		}

	case tickMsg:
		return m, tea.Batch(
			m.refreshData,
			tickEvery(30*time.Second),
		)

	case dataMsg:
		m.summary = msg.summary
		m.homepage = msg.homepage
		m.series = msg.series
		m.runs = msg.runs
		m.err = msg.err
		m.loading = false
		m.lastRefresh = time.Now()
		m.table.SetRows(signatoryRows(msg.summary))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func signatoryRows(summary *aggregate.Result) []table.Row {
	if summary == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(summary.Order))
	for _, name := range summary.Order {
		f := summary.Signatories[name]
		rows = append(rows, table.Row{
			name,
			Check(f.UsesIATI),
			Check(f.PublishesHumanitarian),
			Check(f.UsesV202OrLater),
			Check(f.HasGranular202),
			Check(f.HasGranular203),
			Check(f.HasTraceability),
		})
	}
	return rows
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}

	var b strings.Builder

	// Header
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Tabs
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(statusErrorStyle.Render("  ✗ " + m.err.Error()))
		b.WriteString("\n\n")
	}

	// Content
	switch m.currentTab {
	case TabSummary:
		b.WriteString(m.renderSummaryTab())
	case TabSignatories:
		b.WriteString(m.renderSignatoriesTab())
	case TabProgress:
		b.WriteString(m.renderProgressTab())
	case TabRuns:
		b.WriteString(m.renderRunsTab())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderHeader() string {
	title := "📊 Grand Bargain Transparency"
	refresh := fmt.Sprintf("Last refresh: %s", m.lastRefresh.Format("15:04:05"))
	if m.loading {
		refresh = m.spinner.View() + " refreshing"
	}

	headerWidth := m.width
	if headerWidth < 60 {
		headerWidth = 60
	}

	left := lipgloss.NewStyle().Bold(true).Render(title)
	right := lipgloss.NewStyle().Foreground(mutedColor).Render(refresh)

	gap := headerWidth - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 0 {
		gap = 0
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#2D3748")).
		Foreground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1).
		Width(headerWidth).
		Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderTabs() string {
	var tabs []string
	for i := 0; i < tabCount; i++ {
		tab := Tab(i)
		style := tabStyle
		if tab == m.currentTab {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("[%d]%s", i+1, tab.String())))
	}
	return strings.Join(tabs, " ")
}

func (m Model) renderFooter() string {
	help := "  [1-4] Switch tabs  [Tab] Next  [↑/↓] Scroll  [r] Refresh  [q] Quit"
	return helpStyle.Render(help)
}

func (m Model) renderSummaryTab() string {
	var b strings.Builder

	if m.summary == nil {
		b.WriteString(statusMutedStyle.Render("  No results yet"))
		b.WriteString("\n\n")
		b.WriteString(subtitleStyle.Render("  Run: gbstats run"))
		return b.String()
	}

	c := m.summary.Counts
	lines := []struct {
		label string
		n     int
	}{
		{progress.ColumnIATI, c.IATI},
		{progress.ColumnHumanitarian, c.Humanitarian},
		{progress.ColumnV202, c.V202OrLater},
		{progress.ColumnGranular202, c.Granular202},
		{progress.ColumnGranular203, c.Granular203},
		{progress.ColumnTraceability, c.Traceability},
	}

	var body strings.Builder
	body.WriteString(titleStyle.Render(fmt.Sprintf("🤝 %d signatories", c.TotalSignatories)))
	body.WriteString("\n")
	for _, l := range lines {
		pct := 0.0
		if c.TotalSignatories > 0 {
			pct = float64(l.n) / float64(c.TotalSignatories)
		}
		body.WriteString(fmt.Sprintf("%-50s %s %3d\n", l.label, RenderProgressBar(pct, 20), l.n))
	}
	b.WriteString(boxStyle.Render(strings.TrimSuffix(body.String(), "\n")))

	if m.homepage != nil {
		h := m.homepage
		b.WriteString("\n\n")
		b.WriteString(boxStyle.Width(40).Render(
			titleStyle.Render("🏠 Homepage") + "\n" +
				fmt.Sprintf("Publishers:   %d\n", h.Publishers) +
				fmt.Sprintf("IATI:         %s\n", statusActiveStyle.Render(fmt.Sprintf("%d", h.IATI))) +
				fmt.Sprintf("Humanitarian: %s", statusActiveStyle.Render(fmt.Sprintf("%d", h.Humanitarian))),
		))
	}

	return b.String()
}

func (m Model) renderSignatoriesTab() string {
	if m.summary == nil || len(m.summary.Order) == 0 {
		return statusMutedStyle.Render("  No signatories")
	}
	return m.table.View()
}

func (m Model) renderProgressTab() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("📈 Progress"))
	b.WriteString("\n\n")

	if len(m.series) == 0 {
		b.WriteString(statusMutedStyle.Render("  No snapshots"))
		return b.String()
	}

	b.WriteString(subtitleStyle.Render(fmt.Sprintf("  %-12s %6s %6s %6s %6s %6s %6s %6s", "Date", "Total", "IATI", "Hum", "2.02+", "G202", "G203", "Trace")))
	b.WriteString("\n")

	// 최근 15개
	start := 0
	if len(m.series) > 15 {
		start = len(m.series) - 15
	}
	for _, s := range m.series[start:] {
		b.WriteString(fmt.Sprintf("  %-12s %6d %6d %6d %6d %6d %6d %6d\n",
			s.Date, s.Total, s.IATI, s.Humanitarian, s.V202, s.Granular202, s.Granular203, s.Traceability))
	}

	return b.String()
}

func (m Model) renderRunsTab() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🔄 Runs"))
	b.WriteString("\n\n")

	if len(m.runs) == 0 {
		b.WriteString(statusMutedStyle.Render("  No runs"))
		return b.String()
	}

	for _, r := range m.runs {
		icon := StatusIcon(r.Status)
		duration := ""
		if r.StartedAt.Valid && r.CompletedAt.Valid {
			duration = statusMutedStyle.Render(" " + FormatDuration(r.CompletedAt.Time.Sub(r.StartedAt.Time)))
		}
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		b.WriteString(fmt.Sprintf("  %s %s %s (%s, %s)%s\n",
			icon, r.CreatedAt.Format("2006-01-02 15:04"), id, r.Rules, r.Status, duration))
		if r.Error.Valid {
			b.WriteString(statusErrorStyle.Render("      " + r.Error.String))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Run starts the TUI
func Run(cfg *config.Config) error {
	p := tea.NewProgram(
		NewModel(cfg),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
