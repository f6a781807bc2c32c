package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptManager_GetInterpreterPrompt(t *testing.T) {
	tempDir := t.TempDir()

	files := map[string]string{
		"identity.md":    "Identity Content",
		"commands.md":    "Commands Content",
		"frequencies.md": "Frequencies Content",
		"user.md":        "User Content",
		"extra.md":       "Extra Content",
		"notes.txt":      "Ignored Content",
	}

	for name, content := range files {
		err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}

	pm := NewPromptManager(tempDir)
	prompt, err := pm.GetInterpreterPrompt()
	if err != nil {
		t.Fatal(err)
	}

	expectedParts := []string{
		"Identity Content",
		"Commands Content",
		"Frequencies Content",
		"User Content",
		"Extra Content",
	}

	for _, part := range expectedParts {
		if !strings.Contains(prompt, part) {
			t.Errorf("Prompt missing expected part: %s", part)
		}
	}
	if strings.Contains(prompt, "Ignored Content") {
		t.Error("Non-markdown files should be skipped")
	}

	// Verify order
	if strings.Index(prompt, "Identity Content") >= strings.Index(prompt, "Commands Content") {
		t.Error("Identity should be before Commands")
	}
	if strings.Index(prompt, "Commands Content") >= strings.Index(prompt, "Frequencies Content") {
		t.Error("Commands should be before Frequencies")
	}
	if strings.Index(prompt, "User Content") >= strings.Index(prompt, "Extra Content") {
		t.Error("Known files should be before the rest")
	}
}

func TestPromptManager_MissingDirectory(t *testing.T) {
	pm := NewPromptManager(filepath.Join(t.TempDir(), "nope"))
	if _, err := pm.GetInterpreterPrompt(); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}
