package prompts

import "strings"

// PromptSource records where a template came from, for diagnostics and for
// the file-overrides-win precedence rule.
type PromptSource struct {
	BuiltIn bool
	Path    string // set when BuiltIn is false
}

// Template is one role's prompt, with {key} placeholders expanded at
// render time.
type Template struct {
	Role     AgentRole
	Name     string
	Template string
	Source   PromptSource
}

// Render substitutes every {key} occurrence with vars[key]. A placeholder
// with no matching key is left verbatim — callers can render in stages,
// or downstream tooling can flag what's still unresolved.
func (t Template) Render(vars map[string]string) string {
	out := t.Template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// RenderTask is sugar over Render for the three variables almost every
// template uses.
func (t Template) RenderTask(title, description, context string) string {
	return t.Render(map[string]string{
		"title":       title,
		"description": description,
		"context":     context,
	})
}
