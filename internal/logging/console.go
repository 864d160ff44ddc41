package logging

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoLabel    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("43"))
	testingLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	errorLabel   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	infoText  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorText = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Console prints role-labelled progress lines for the operator. A nil
// Console discards everything.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Info(role, msg string) {
	c.print(infoLabel, infoText, role, msg)
}

// Testing is used for validation phases (URL probes, build checks).
func (c *Console) Testing(role, msg string) {
	c.print(testingLabel, infoText, role, msg)
}

func (c *Console) Error(role, msg string) {
	c.print(errorLabel, errorText, role, msg)
}

func (c *Console) print(label, text lipgloss.Style, role, msg string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, label.Render("["+role+"]")+" "+text.Render(msg))
}
