// Package prompt implements interactive terminal confirmation for
// capability grants issued from the CLI, so a human operator sees what
// access they are about to hand a component before the Lifecycle
// Manager's overlay is mutated.
package prompt

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
)

// TerminalPrompter confirms capability grants against the controlling
// terminal.
type TerminalPrompter struct{}

// NewTerminalPrompter creates a new TerminalPrompter.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{}
}

// IsInteractive reports whether stdin is attached to a terminal, rather
// than a pipe or a file.
func (p *TerminalPrompter) IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Confirm asks the user whether to proceed with a grant described by
// description, defaulting to "no".
func (p *TerminalPrompter) Confirm(description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title("About to grant").
		Description(description).
		Affirmative("Grant").
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}
	return ok, nil
}

// FormatNonInteractiveError explains why a grant was refused when stdin
// is not a terminal and --yes was not passed.
func FormatNonInteractiveError(description string) error {
	return fmt.Errorf("refusing to grant %q without confirmation in non-interactive mode; pass --yes to skip the prompt", description)
}
