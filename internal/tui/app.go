// Package tui holds the terminal screens: the run browser opened by the
// bare command and the wizard that collects a new run's inputs.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/project"
)

// RunSource is the read side of the orchestrator the browser needs.
type RunSource interface {
	ListRuns(limit int) ([]*models.Run, error)
	GetRun(id int64) (*models.Run, error)
	GetExecutionsForRun(runID int64) ([]*models.Execution, error)
	GetProjectSpec(runID int64) (*project.Snapshot, error)
	DeleteRun(runID int64) error
}

type screen int

const (
	screenRuns screen = iota
	screenAgents
	screenSpec
)

const (
	runListLimit  = 20
	refreshPeriod = 2 * time.Second
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Spec    key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Back    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "agents")),
	Spec:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "spec")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Back:    key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "back")),
	Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, "["+h.Key+"] "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, "  "))
}

// cursor is a selection index kept inside [0, n).
type cursor struct {
	pos int
	n   int
}

func (c *cursor) reset(n int) {
	c.n = n
	c.pos = min(c.pos, max(n-1, 0))
}

func (c *cursor) up() {
	if c.pos > 0 {
		c.pos--
	}
}

func (c *cursor) down() {
	if c.pos < c.n-1 {
		c.pos++
	}
}

// App is the run browser. It lists recent runs, the agents that ran for
// one of them, and the specification the run left behind.
type App struct {
	source RunSource
	screen screen

	runs      []*models.Run
	runCursor cursor

	run         *models.Run
	executions  []*models.Execution
	agentCursor cursor

	specView viewport.Model

	width, height int
	err           error
}

func NewApp(source RunSource) *App {
	return &App{
		source:   source,
		screen:   screenRuns,
		specView: viewport.New(80, 20),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.fetchRuns, tick())
}

type refreshTick time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshPeriod, func(t time.Time) tea.Msg { return refreshTick(t) })
}

type runsMsg struct {
	runs []*models.Run
	err  error
}

type agentsMsg struct {
	run        *models.Run
	executions []*models.Execution
	err        error
}

type specMsg struct {
	spec *project.Snapshot
	err  error
}

type deletedMsg struct{ err error }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.specView.Width = msg.Width
		a.specView.Height = max(msg.Height-4, 5)
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return a, tea.Quit
		}
		switch a.screen {
		case screenRuns:
			return a.onRunsKey(msg)
		case screenAgents:
			return a.onAgentsKey(msg)
		case screenSpec:
			return a.onSpecKey(msg)
		}

	case refreshTick:
		if a.screen == screenRuns && a.anyRunning() {
			return a, tea.Batch(a.fetchRuns, tick())
		}
		return a, tick()

	case runsMsg:
		a.err = msg.err
		a.runs = msg.runs
		a.runCursor.reset(len(a.runs))

	case agentsMsg:
		a.err = msg.err
		if msg.err == nil {
			a.run, a.executions = msg.run, msg.executions
			a.agentCursor = cursor{n: len(msg.executions)}
			a.screen = screenAgents
		}

	case specMsg:
		a.err = msg.err
		if msg.err == nil {
			a.specView.SetContent(RenderSpec(msg.spec) + renderCode(msg.spec))
			a.specView.GotoTop()
			a.screen = screenSpec
		}

	case deletedMsg:
		a.err = msg.err
		return a, a.fetchRuns
	}

	return a, nil
}

func (a *App) anyRunning() bool {
	for _, r := range a.runs {
		if r.Status == models.RunStatusRunning {
			return true
		}
	}
	return false
}

func (a *App) selectedRun() *models.Run {
	if a.runCursor.pos >= len(a.runs) {
		return nil
	}
	return a.runs[a.runCursor.pos]
}

func (a *App) onRunsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		return a, tea.Quit
	case key.Matches(msg, keys.Up):
		a.runCursor.up()
	case key.Matches(msg, keys.Down):
		a.runCursor.down()
	case key.Matches(msg, keys.Refresh):
		return a, a.fetchRuns
	}

	run := a.selectedRun()
	if run == nil {
		return a, nil
	}
	switch {
	case key.Matches(msg, keys.Open):
		return a, a.fetchAgents(run.ID)
	case key.Matches(msg, keys.Spec):
		return a, a.fetchSpec(run.ID)
	case key.Matches(msg, keys.Delete):
		// Deleting a live run would pull its workspace out from under it.
		if run.Status != models.RunStatusRunning {
			return a, a.remove(run.ID)
		}
	}
	return a, nil
}

func (a *App) onAgentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		a.screen = screenRuns
		a.run, a.executions = nil, nil
	case key.Matches(msg, keys.Up):
		a.agentCursor.up()
	case key.Matches(msg, keys.Down):
		a.agentCursor.down()
	case key.Matches(msg, keys.Spec):
		return a, a.fetchSpec(a.run.ID)
	}
	return a, nil
}

func (a *App) onSpecKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Back) {
		if a.run != nil {
			a.screen = screenAgents
		} else {
			a.screen = screenRuns
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.specView, cmd = a.specView.Update(msg)
	return a, cmd
}

func (a *App) fetchRuns() tea.Msg {
	runs, err := a.source.ListRuns(runListLimit)
	return runsMsg{runs: runs, err: err}
}

func (a *App) fetchAgents(id int64) tea.Cmd {
	return func() tea.Msg {
		run, err := a.source.GetRun(id)
		if err != nil {
			return agentsMsg{err: err}
		}
		execs, err := a.source.GetExecutionsForRun(id)
		return agentsMsg{run: run, executions: execs, err: err}
	}
}

func (a *App) fetchSpec(id int64) tea.Cmd {
	return func() tea.Msg {
		spec, err := a.source.GetProjectSpec(id)
		return specMsg{spec: spec, err: err}
	}
}

func (a *App) remove(id int64) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{err: a.source.DeleteRun(id)}
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	codeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2)

	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	completeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (a *App) View() string {
	var b strings.Builder
	switch a.screen {
	case screenRuns:
		a.viewRuns(&b)
	case screenAgents:
		a.viewAgents(&b)
	case screenSpec:
		b.WriteString(titleStyle.Render("Project Specification") + "\n\n")
		b.WriteString(a.specView.View() + "\n\n")
		b.WriteString(helpLine(keys.Up, keys.Down, keys.Back))
	}
	return b.String()
}

// highlight marks the selected row and dims finished runs.
func highlight(b *strings.Builder, line string, selected, dim bool) {
	switch {
	case selected:
		b.WriteString(selectedStyle.Render("▶ "+line) + "\n")
	case dim:
		b.WriteString("  " + dimStyle.Render(line) + "\n")
	default:
		b.WriteString("  " + line + "\n")
	}
}

func (a *App) viewRuns(b *strings.Builder) {
	b.WriteString(titleStyle.Render("Acadia") + "\n\n")
	if a.err != nil {
		fmt.Fprintf(b, "Error: %v\n", a.err)
	}

	if len(a.runs) == 0 {
		b.WriteString("No runs yet. Start one with 'acadia run'.\n")
	} else {
		b.WriteString("Recent Runs\n───────────\n")
		for i, r := range a.runs {
			line := fmt.Sprintf("#%-3d %-18s %s  %-4s  %s",
				r.ID, r.PipelineName, runBadge(r.Status), shortAge(r.CreatedAt), Truncate(r.InitialPrompt, 35))
			highlight(b, line, i == a.runCursor.pos, r.Status != models.RunStatusRunning)
		}
	}

	b.WriteString("\n" + helpLine(keys.Open, keys.Spec, keys.Delete, keys.Refresh, keys.Quit))
}

func (a *App) viewAgents(b *strings.Builder) {
	r := a.run
	fmt.Fprintf(b, "%s  %s\n\n", titleStyle.Render(fmt.Sprintf("Run #%d: %s", r.ID, r.PipelineName)), runBadge(r.Status))
	b.WriteString(r.InitialPrompt + "\n\n")

	if r.Focus != "" {
		b.WriteString(labelStyle.Render("Focus: ") + string(r.Focus) + "  ")
	}
	if r.Model != "" {
		b.WriteString(labelStyle.Render("Model: ") + string(r.Model))
	}
	b.WriteString("\n" + labelStyle.Render("Workspace: ") + dimStyle.Render(r.WorkspacePath) + "\n")
	if r.Error != "" {
		b.WriteString(failedStyle.Render("Error: "+r.Error) + "\n")
	}

	b.WriteString("\nAgents\n──────\n")
	if len(a.executions) == 0 {
		b.WriteString("(no agents have run yet)\n")
	}
	for i, e := range a.executions {
		highlight(b, agentLine(e), i == a.agentCursor.pos, false)
	}
	if a.agentCursor.pos < len(a.executions) {
		if e := a.executions[a.agentCursor.pos]; e.Error != "" {
			b.WriteString("\n" + failedStyle.Render(e.Error) + "\n")
		}
	}

	b.WriteString("\n" + helpLine(keys.Up, keys.Down, keys.Spec, keys.Back))
}

func runBadge(s models.RunStatus) string {
	switch s {
	case models.RunStatusRunning:
		return runningStyle.Render("● running")
	case models.RunStatusComplete:
		return completeStyle.Render("✓ complete")
	case models.RunStatusFailed:
		return failedStyle.Render("✗ failed")
	case models.RunStatusPending:
		return dimStyle.Render("○ pending")
	}
	return string(s)
}

// agentLine renders e.g. "2. Solutions Architect  ✓  Completed  3s".
func agentLine(e *models.Execution) string {
	mark := "○"
	switch e.Status {
	case models.ExecStatusRunning:
		mark = runningStyle.Render("●")
	case models.ExecStatusComplete:
		mark = completeStyle.Render("✓")
	case models.ExecStatusFailed:
		mark = failedStyle.Render("✗")
	}

	line := fmt.Sprintf("%d. %-20s %s  %-11s", e.SequenceNum, e.Role, mark, e.FinalState)
	switch {
	case e.StartedAt != nil && e.CompletedAt != nil:
		line += "  " + dimStyle.Render(formatDuration(e.CompletedAt.Sub(*e.StartedAt)))
	case e.StartedAt != nil && e.Status == models.ExecStatusRunning:
		line += "  " + runningStyle.Render(formatDuration(time.Since(*e.StartedAt))+"...")
	}
	return line
}

// RenderSpec formats a snapshot's fields for the terminal, summarising
// generated code by line count.
func RenderSpec(spec *project.Snapshot) string {
	if spec == nil {
		return "(no specification saved)\n"
	}

	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label+": ") + value + "\n")
	}
	unset := dimStyle.Render("(unset)")

	if spec.ProjectDescription != nil {
		row("Description", *spec.ProjectDescription)
	} else {
		row("Description", unset)
	}

	if sc := spec.ProjectScope; sc != nil {
		row("Scope", fmt.Sprintf("crud=%t login=%t external_urls=%t",
			sc.RequiresCRUD, sc.RequiresLogin, sc.RequiresExternalURLs))
	} else {
		row("Scope", unset)
	}

	switch {
	case spec.ExternalURLs == nil:
		row("External URLs", unset)
	case len(spec.ExternalURLs) == 0:
		row("External URLs", dimStyle.Render("(none passed validation)"))
	default:
		row("External URLs", "")
		for _, u := range spec.ExternalURLs {
			b.WriteString("  • " + u + "\n")
		}
	}

	for _, c := range []struct {
		label string
		code  *string
	}{{"Backend code", spec.BackendCode}, {"Frontend code", spec.FrontendCode}} {
		if c.code == nil {
			row(c.label, unset)
			continue
		}
		row(c.label, fmt.Sprintf("%d lines", strings.Count(*c.code, "\n")+1))
	}

	return b.String()
}

// renderCode appends the generated sources for the scrollable spec view.
func renderCode(spec *project.Snapshot) string {
	if spec == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range []struct {
		label string
		code  *string
	}{{"Backend", spec.BackendCode}, {"Frontend", spec.FrontendCode}} {
		if c.code == nil {
			continue
		}
		b.WriteString("\n" + titleStyle.Render(c.label) + "\n")
		b.WriteString(codeStyle.Render(*c.code) + "\n")
	}
	return b.String()
}

func shortAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// Truncate shortens s to maxLen runes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
