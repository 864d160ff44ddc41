package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/TheAllen/Acadia/internal/models"
)

var ErrCancelled = errors.New("input cancelled")

type step int

const (
	stepDescription step = iota
	stepFocus
	stepBackend
	stepFrontend
	stepModel
	stepDone
)

type choice string

func (c choice) FilterValue() string { return string(c) }
func (c choice) Title() string       { return string(c) }
func (c choice) Description() string { return "" }

// Wizard collects the UserInputs for a run. Answers already present in the
// initial inputs are not asked again.
type Wizard struct {
	inputs    models.UserInputs
	step      step
	text      textinput.Model
	options   list.Model
	cancelled bool
	err       error
}

func NewWizard(initial models.UserInputs) *Wizard {
	ti := textinput.New()
	ti.Placeholder = "a minimal todo list app"
	ti.CharLimit = 500
	ti.Width = 60
	ti.Focus()

	opts := list.New(nil, list.NewDefaultDelegate(), 60, 14)
	opts.SetShowHelp(false)
	opts.SetShowStatusBar(false)
	opts.SetFilteringEnabled(false)

	w := &Wizard{inputs: initial, step: stepDescription, text: ti, options: opts}
	w.step = w.nextStep(stepDescription)
	w.prepare()
	return w
}

// nextStep returns the first step at or after s that still needs an answer.
func (w *Wizard) nextStep(s step) step {
	for ; s < stepDone; s++ {
		switch s {
		case stepDescription:
			if strings.TrimSpace(w.inputs.ProjectToBuild) == "" {
				return s
			}
		case stepFocus:
			if w.inputs.Focus == "" {
				return s
			}
		case stepBackend:
			if w.inputs.NeedsBackend() && w.inputs.BackendLanguage == "" {
				return s
			}
		case stepFrontend:
			if w.inputs.NeedsFrontend() && w.inputs.FrontendLanguage == "" {
				return s
			}
		case stepModel:
			if w.inputs.Model == "" {
				return s
			}
		}
	}
	return stepDone
}

func (w *Wizard) prepare() {
	var title string
	var values []string
	switch w.step {
	case stepFocus:
		title, values = "What type of project are you building?", models.Focuses()
	case stepBackend:
		title, values = "Backend language", models.BackendLanguages()
	case stepFrontend:
		title, values = "Frontend language", models.FrontendLanguages()
	case stepModel:
		title, values = "Which model should do the work?", models.ModelChoices()
	default:
		return
	}

	items := make([]list.Item, len(values))
	for i, v := range values {
		items[i] = choice(v)
	}
	w.options.Title = title
	w.options.SetItems(items)
	w.options.Select(0)
}

// Submit records value as the answer to the current step and moves on.
func (w *Wizard) Submit(value string) error {
	value = strings.TrimSpace(value)
	switch w.step {
	case stepDescription:
		if value == "" {
			return errors.New("describe the project to build")
		}
		w.inputs.ProjectToBuild = value
	case stepFocus:
		f, ok := models.ParseFocus(value)
		if !ok {
			return errors.New("unknown focus " + value)
		}
		w.inputs.Focus = f
	case stepBackend:
		w.inputs.BackendLanguage = value
	case stepFrontend:
		w.inputs.FrontendLanguage = value
	case stepModel:
		w.inputs.Model = models.ParseModelChoice(value)
	case stepDone:
		return nil
	}

	w.step = w.nextStep(w.step + 1)
	w.prepare()
	return nil
}

func (w *Wizard) Done() bool { return w.step == stepDone }

func (w *Wizard) Inputs() models.UserInputs { return w.inputs }

func (w *Wizard) Init() tea.Cmd {
	return textinput.Blink
}

func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.options.SetSize(msg.Width, min(msg.Height-4, 14))
		return w, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			w.cancelled = true
			return w, tea.Quit

		case "enter":
			value := w.text.Value()
			if w.step != stepDescription {
				item, ok := w.options.SelectedItem().(choice)
				if !ok {
					return w, nil
				}
				value = string(item)
			}
			w.err = w.Submit(value)
			if w.Done() {
				return w, tea.Quit
			}
			return w, nil
		}
	}

	var cmd tea.Cmd
	if w.step == stepDescription {
		w.text, cmd = w.text.Update(msg)
	} else {
		w.options, cmd = w.options.Update(msg)
	}
	return w, cmd
}

func (w *Wizard) View() string {
	if w.Done() {
		return ""
	}

	s := titleStyle.Render("New Acadia run") + "\n\n"
	if w.step == stepDescription {
		s += "What are we building today?\n\n" + w.text.View() + "\n"
	} else {
		s += w.options.View() + "\n"
	}
	if w.err != nil {
		s += "\n" + failedStyle.Render(w.err.Error()) + "\n"
	}
	s += "\n" + helpStyle.Render("[enter] confirm  [esc] cancel")
	return s
}

// RunWizard asks for whatever initial is missing. It returns ErrCancelled if
// the operator quits early.
func RunWizard(initial models.UserInputs) (models.UserInputs, error) {
	w := NewWizard(initial)
	if w.Done() {
		return w.Inputs(), nil
	}

	if _, err := tea.NewProgram(w).Run(); err != nil {
		return models.UserInputs{}, err
	}
	if w.cancelled || !w.Done() {
		return models.UserInputs{}, ErrCancelled
	}
	return w.Inputs(), nil
}
