// Package prompts holds the embedded prompt templates for script generation.
package prompts

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// UserPromptData fills the script generation template.
type UserPromptData struct {
	NumItems    int
	Description string
	LawText     string
}

// SystemPrompt returns the system prompt for script generation.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt for script generation.
func UserPrompt(data UserPromptData) string {
	if data.NumItems <= 0 {
		data.NumItems = 1
	}
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}
