package prompts

import (
	"strings"
	"testing"
)

func TestUserPrompt(t *testing.T) {
	t.Run("substitutes fields", func(t *testing.T) {
		got := UserPrompt(UserPromptData{
			NumItems:    3,
			Description: "speed limits",
			LawText:     "Section 123 - Speed Limits",
		})
		for _, want := range []string{
			"generate 3 concise",
			"exactly 3 sets",
			"speed limits",
			"Section 123 - Speed Limits",
			"<video_script>",
			"<keywords>",
			"<title>",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
	})

	t.Run("defaults to one item", func(t *testing.T) {
		got := UserPrompt(UserPromptData{Description: "x", LawText: "y"})
		if !strings.Contains(got, "generate 1 concise") {
			t.Error("zero NumItems should default to 1")
		}
	})
}

func TestSystemPrompt(t *testing.T) {
	if strings.TrimSpace(SystemPrompt()) == "" {
		t.Fatal("system prompt is empty")
	}
}
