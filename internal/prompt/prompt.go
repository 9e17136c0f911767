// Package prompt asks for module and version details on the terminal.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user leaves the prompt with Esc or Ctrl+C.
var ErrCancelled = errors.New("prompt cancelled")

// Question is one line of input.
type Question struct {
	Key    string
	Prompt string

	// Default is used when the answer is left empty.
	Default string

	// Validate, when set, must accept the answer before the prompt moves on.
	Validate func(string) error
}

// model is a bubbletea model that asks one question at a time.
type model struct {
	questions []Question
	idx       int
	inputs    []textinput.Model
	err       error
	done      bool
}

func newModel(questions []Question) model {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = q.Default
		ti.CharLimit = 512
		inputs[i] = ti
	}
	m := model{
		questions: questions,
		inputs:    inputs,
	}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if validate := m.questions[m.idx].Validate; validate != nil {
				if err := validate(m.answer(m.idx)); err != nil {
					m.err = err
					return m, nil
				}
			}
			m.err = nil
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.idx]
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", q.Prompt, m.inputs[m.idx].View())
	if m.err != nil {
		fmt.Fprintf(&b, "  %v\n", m.err)
	}
	return b.String()
}

// answer returns the trimmed input of question i, or its default when empty.
func (m model) answer(i int) string {
	v := strings.TrimSpace(m.inputs[i].Value())
	if v == "" {
		return m.questions[i].Default
	}
	return v
}

func (m model) answers() map[string]string {
	out := make(map[string]string, len(m.questions))
	for i, q := range m.questions {
		out[q.Key] = m.answer(i)
	}
	return out
}

// Ask runs the prompt on in/out and returns answers keyed by Question.Key.
func Ask(questions []Question, in io.Reader, out io.Writer) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	p := tea.NewProgram(newModel(questions), tea.WithInput(in), tea.WithOutput(out))
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(model)
	if !ok || !final.done {
		return nil, ErrCancelled
	}
	return final.answers(), nil
}
