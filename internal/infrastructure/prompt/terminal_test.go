package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalPrompterIsInteractive(t *testing.T) {
	prompter := NewTerminalPrompter()
	assert.IsType(t, true, prompter.IsInteractive())
}

func TestFormatNonInteractiveError(t *testing.T) {
	t.Parallel()

	err := FormatNonInteractiveError("network access to api.example.com")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "network access to api.example.com")
	assert.Contains(t, err.Error(), "--yes")
}
