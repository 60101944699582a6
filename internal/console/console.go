// Package console writes user-facing messages, asks for confirmation and
// draws the citation progress bar.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Console is the terminal the CLI talks to. Messages go to out; prompts
// and progress go to errOut so stdout stays pipeable.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	bar    progress.Model
}

// New creates a Console.
func New(in io.Reader, out, errOut io.Writer) *Console {
	return &Console{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
	}
}

// Success prints a confirmation message.
func (c *Console) Success(format string, args ...any) {
	fmt.Fprintln(c.out, successStyle.Render("✅ "+fmt.Sprintf(format, args...)))
}

// Info prints a neutral message.
func (c *Console) Info(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Warn prints a warning.
func (c *Console) Warn(format string, args ...any) {
	fmt.Fprintln(c.out, warnStyle.Render("⚠️  "+fmt.Sprintf(format, args...)))
}

// Error prints an error message to errOut.
func (c *Console) Error(format string, args ...any) {
	fmt.Fprintln(c.errOut, errorStyle.Render("❌ "+fmt.Sprintf(format, args...)))
}

// Confirm asks a yes/no question. Anything but "y" or "yes" declines,
// including end of input.
func (c *Console) Confirm(question string) (bool, error) {
	fmt.Fprintf(c.errOut, "%s %s ", warnStyle.Render("⚠️  "+question), mutedStyle.Render("[y/N]:"))
	answer, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("console: read answer: %w", err)
	}
	if err == io.EOF {
		fmt.Fprintln(c.errOut)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Progress redraws the progress line for done of total steps and ends the
// line once done reaches total.
func (c *Console) Progress(label string, done, total int) {
	if total <= 0 {
		return
	}
	pct := float64(done) / float64(total)
	fmt.Fprintf(c.errOut, "\r%s %s %s", label, c.bar.ViewAs(pct), mutedStyle.Render(fmt.Sprintf("%d/%d", done, total)))
	if done >= total {
		fmt.Fprintln(c.errOut)
	}
}
