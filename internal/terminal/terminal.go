// Package terminal prints agent status lines and asks the operator questions.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// PrintCommand selects the color of an agent status line.
type PrintCommand int

const (
	AiCall PrintCommand = iota
	UnitTest
	Issue
)

func (p PrintCommand) String() string {
	switch p {
	case AiCall:
		return "ai_call"
	case UnitTest:
		return "unit_test"
	case Issue:
		return "issue"
	}
	return "unknown"
}

// ErrNoAnswer is returned when input ends before the operator answered.
var ErrNoAnswer = errors.New("no answer from operator")

// Console is the textual channel to the operator.
type Console struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool

	agent    lipgloss.Style
	aiCall   lipgloss.Style
	unitTest lipgloss.Style
	issue    lipgloss.Style
	question lipgloss.Style
}

// NewConsole creates a console over the given streams. Forms are only used when
// both streams are terminals.
func NewConsole(in io.Reader, out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: isTTY(in) && isTTY(out),
		agent:       r.NewStyle().Foreground(lipgloss.Color("2")),
		aiCall:      r.NewStyle().Foreground(lipgloss.Color("6")),
		unitTest:    r.NewStyle().Foreground(lipgloss.Color("5")),
		issue:       r.NewStyle().Foreground(lipgloss.Color("1")),
		question:    r.NewStyle().Foreground(lipgloss.Color("4")),
	}
}

// Stdio returns a console over the process's stdin and stdout.
func Stdio() *Console {
	return NewConsole(os.Stdin, os.Stdout)
}

func isTTY(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PrintAgentMsg prints "Agent: <role>: <statement>" with the statement colored by cmd.
func (c *Console) PrintAgentMsg(cmd PrintCommand, role, statement string) {
	style := c.aiCall
	switch cmd {
	case UnitTest:
		style = c.unitTest
	case Issue:
		style = c.issue
	}
	fmt.Fprintf(c.out, "%s %s\n", c.agent.Render("Agent: "+role+":"), style.Render(statement))
}

// Ask prints a question and returns the trimmed answer line.
func (c *Console) Ask(question string) (string, error) {
	fmt.Fprintf(c.out, "\n%s\n", c.question.Render(question))
	line, err := c.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoAnswer
		}
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// ConfirmSafeCode asks the operator whether the AI-written code may be executed.
// It keeps asking until the answer is "1" (continue) or "2" (stop).
func (c *Console) ConfirmSafeCode() (bool, error) {
	const warning = "WARNING: You are about to run code written entirely by AI. " +
		"Review your code and confirm you wish to continue."

	if c.interactive {
		ok := false
		err := huh.NewConfirm().
			Title(warning).
			Affirmative("All good").
			Negative("Lets stop this project").
			Value(&ok).
			Run()
		if err != nil {
			return false, fmt.Errorf("confirm form: %w", err)
		}
		return ok, nil
	}

	for {
		answer, err := c.Ask(warning + "\n[1] All good\n[2] Lets stop this project")
		if err != nil {
			return false, err
		}
		switch answer {
		case "1":
			return true, nil
		case "2":
			return false, nil
		}
		fmt.Fprintln(c.out, c.issue.Render("Invalid input. Please select '1' or '2'"))
	}
}

// AutoConfirm approves every confirmation without asking. Used for unattended runs.
type AutoConfirm struct{}

// ConfirmSafeCode always returns true.
func (AutoConfirm) ConfirmSafeCode() (bool, error) { return true, nil }
