package cli

import (
	"strings"
	"testing"
)

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := runCLI(t, nil, "completion", shell)
			if err != nil {
				t.Fatalf("completion %s error: %v", shell, err)
			}
			if !strings.Contains(out, "nugetfetch") {
				t.Errorf("completion %s output does not mention nugetfetch", shell)
			}
		})
	}

	if _, err := runCLI(t, nil, "completion", "tcsh"); err == nil {
		t.Error("completion should reject unknown shells")
	}
}
