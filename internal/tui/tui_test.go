package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codeforiati/gbstats/internal/aggregate"
	"github.com/codeforiati/gbstats/internal/config"
	"github.com/codeforiati/gbstats/internal/report"
)

func TestLoadDataEmptyProject(t *testing.T) {
	cfg := config.DefaultConfig(t.TempDir())

	data := loadData(cfg)
	if data.err != nil {
		t.Fatalf("빈 프로젝트 로드 에러: %v", data.err)
	}
	if data.summary != nil || data.homepage != nil {
		t.Error("산출물이 없으면 nil이어야 함")
	}
	if len(data.series) != 0 || len(data.runs) != 0 {
		t.Errorf("series %d, runs %d", len(data.series), len(data.runs))
	}
}

func TestModelRendersSummary(t *testing.T) {
	cfg := config.DefaultConfig(t.TempDir())

	res := aggregate.Result{
		Order: []string{"Org A", "Org B"},
		Signatories: map[string]aggregate.Flags{
			"Org A": {UsesIATI: true},
			"Org B": {},
		},
		Counts: aggregate.Counts{TotalSignatories: 2, IATI: 1},
	}
	w := report.NewWriter(cfg.OutputDir())
	if err := w.Summary(res); err != nil {
		t.Fatal(err)
	}
	if err := w.Homepage(aggregate.HomepageStats{Signatories: 2, Publishers: 3, IATI: 1}); err != nil {
		t.Fatal(err)
	}

	data := loadData(cfg)
	if data.err != nil {
		t.Fatal(data.err)
	}
	if data.summary == nil || data.summary.Counts.IATI != 1 {
		t.Fatalf("summary = %+v", data.summary)
	}

	var m tea.Model = NewModel(cfg)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = m.Update(data)

	view := m.View()
	if !strings.Contains(view, "2 signatories") {
		t.Errorf("요약 탭에 서명기관 수가 없음:\n%s", view)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	view = m.View()
	if !strings.Contains(view, "Org A") {
		t.Errorf("서명기관 탭에 행이 없음:\n%s", view)
	}

	if rows := m.(Model).table.Rows(); len(rows) != 2 || rows[0][1] != Check(true) {
		t.Errorf("table rows = %v", rows)
	}
}

func TestTabCycle(t *testing.T) {
	var m tea.Model = NewModel(config.DefaultConfig(t.TempDir()))
	for i := 0; i < tabCount; i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	if m.(Model).currentTab != TabSummary {
		t.Errorf("탭 순환 후 = %s", m.(Model).currentTab)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.(Model).currentTab != TabRuns {
		t.Errorf("shift+tab = %s, want Runs", m.(Model).currentTab)
	}
}

func TestRenderProgressBarClamps(t *testing.T) {
	if RenderProgressBar(-1, 10) != RenderProgressBar(0, 10) {
		t.Error("음수는 0으로")
	}
	if RenderProgressBar(2, 10) != RenderProgressBar(1, 10) {
		t.Error("1 초과는 1로")
	}
}
