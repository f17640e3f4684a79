package prompts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewRegistryLoadsDefaultsForEveryRole(t *testing.T) {
	r := New(nil)
	if r.Count() != len(builtInTemplates()) {
		t.Fatalf("Count() = %d, want %d", r.Count(), len(builtInTemplates()))
	}
	tpl, ok := r.Get(RoleCoder)
	if !ok || !tpl.Source.BuiltIn {
		t.Fatalf("expected built-in coder template, got %+v, %v", tpl, ok)
	}
}

func TestTemplateRenderSubstitutesKnownLeavesUnknownVerbatim(t *testing.T) {
	tpl := Template{Template: "Hello {name}, task is {task}"}
	out := tpl.Render(map[string]string{"name": "Ada"})
	if out != "Hello Ada, task is {task}" {
		t.Fatalf("Render = %q", out)
	}
}

func TestTemplateRenderTask(t *testing.T) {
	tpl := Template{Template: "{title}: {description}\n{context}"}
	out := tpl.RenderTask("T", "D", "C")
	if out != "T: D\nC" {
		t.Fatalf("RenderTask = %q", out)
	}
}

func TestRegistrySetOverridesBuiltin(t *testing.T) {
	r := New(nil)
	r.Set(Template{Role: RoleCoder, Name: "coder", Template: "custom", Source: PromptSource{BuiltIn: false, Path: "/x"}})
	tpl, ok := r.Get(RoleCoder)
	if !ok || tpl.Template != "custom" {
		t.Fatalf("Get(Coder) = %+v, %v", tpl, ok)
	}
}

func TestLoadFromProjectOverridesKnownStemsAndIgnoresUnknown(t *testing.T) {
	dir := t.TempDir()
	promptsDir := filepath.Join(dir, ".claude", "prompts")
	if err := os.MkdirAll(promptsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(promptsDir, "coder.md"), []byte("project coder prompt"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(promptsDir, "unknown_role.md"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := New(nil)
	r.LoadFromProject(dir)

	tpl, ok := r.Get(RoleCoder)
	if !ok || tpl.Template != "project coder prompt" {
		t.Fatalf("Get(Coder) = %+v, %v", tpl, ok)
	}
	if tpl.Source.BuiltIn {
		t.Fatal("expected file source after override")
	}
}

func TestLoadFromProjectMissingDirIsNotError(t *testing.T) {
	r := New(nil)
	before := r.Count()
	r.LoadFromProject(t.TempDir())
	if r.Count() != before {
		t.Fatalf("Count changed after loading from empty project: %d vs %d", r.Count(), before)
	}
}
