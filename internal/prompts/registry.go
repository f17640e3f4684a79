package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"autotundra/internal/shared/logging"
)

// Registry serves one Template per AgentRole, pre-loaded with built-in
// defaults and reloadable from a project's `.claude/prompts/` directory.
type Registry struct {
	mu        sync.RWMutex
	templates map[AgentRole]Template
	log       logging.Logger
}

// New constructs a Registry pre-loaded with built-in defaults for every
// role.
func New(log logging.Logger) *Registry {
	r := &Registry{
		templates: make(map[AgentRole]Template),
		log:       logging.OrNop(log),
	}
	r.loadDefaults()
	return r
}

func (r *Registry) loadDefaults() {
	for _, tpl := range builtInTemplates() {
		r.templates[tpl.Role] = tpl
	}
}

// Get returns the template registered for role, if any.
func (r *Registry) Get(role AgentRole) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[role]
	return tpl, ok
}

// Set installs or overrides a role's template.
func (r *Registry) Set(tpl Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tpl.Role] = tpl
}

// Count returns how many roles currently have a template.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Roles lists every role currently registered.
func (r *Registry) Roles() []AgentRole {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AgentRole, 0, len(r.templates))
	for role := range r.templates {
		out = append(out, role)
	}
	return out
}

// LoadFromProject scans <projectRoot>/.claude/prompts/*.md, mapping each
// file stem to a role via roleFromPromptName and installing it as a file
// override. Unknown stems and unreadable files are skipped; a missing
// directory is not an error.
func (r *Registry) LoadFromProject(projectRoot string) {
	dir := filepath.Join(projectRoot, ".claude", "prompts")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			r.log.Warn("skipping unreadable prompt override", "path", path, "error", err)
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		role, ok := roleFromPromptName(stem)
		if !ok {
			continue
		}
		r.templates[role] = Template{
			Role:     role,
			Name:     stem,
			Template: string(content),
			Source:   PromptSource{BuiltIn: false, Path: path},
		}
	}
}
