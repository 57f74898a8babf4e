package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/interviewace/simulation-engine/internal/models"
)

// Catalog holds the scenario templates available for new sessions.
// Built-in templates are always present; LoadFromDir overlays YAML
// files on top of them (same role_type replaces the built-in).
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*models.ScenarioTemplate
}

// New creates a catalog pre-populated with the built-in scenarios.
func New() *Catalog {
	c := &Catalog{templates: make(map[string]*models.ScenarioTemplate)}
	for _, tmpl := range builtinTemplates() {
		c.templates[tmpl.RoleType] = tmpl
	}
	return c
}

// LoadFromDir loads all YAML scenario files from a directory. Files
// that fail to parse or validate are skipped with a warning.
func (c *Catalog) LoadFromDir(dir string) error {
	slog.Info("loading scenarios from directory", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		if err := c.LoadFromFile(file); err != nil {
			slog.Warn("failed to load scenario", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("scenarios loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single scenario template from a YAML file.
func (c *Catalog) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var tmpl models.ScenarioTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validate(&tmpl); err != nil {
		return err
	}

	c.mu.Lock()
	c.templates[tmpl.RoleType] = &tmpl
	c.mu.Unlock()

	slog.Info("scenario loaded", "role_type", tmpl.RoleType, "title", tmpl.Title)
	return nil
}

func validate(tmpl *models.ScenarioTemplate) error {
	if tmpl.RoleType == "" {
		return fmt.Errorf("role_type is required")
	}
	if len(tmpl.Competencies) == 0 {
		return fmt.Errorf("scenario %q: competencies must be non-empty", tmpl.RoleType)
	}
	if tmpl.Budget < 0 || tmpl.Time < 0 {
		return fmt.Errorf("scenario %q: budget and time must be >= 0", tmpl.RoleType)
	}
	return nil
}

// Get retrieves a template by role type, or nil.
func (c *Catalog) Get(roleType string) *models.ScenarioTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.templates[roleType]
}

// List returns all templates sorted by role type.
func (c *Catalog) List() []*models.ScenarioTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*models.ScenarioTemplate, 0, len(c.templates))
	for _, tmpl := range c.templates {
		result = append(result, tmpl)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RoleType < result[j].RoleType })
	return result
}

// Add programmatically registers a template.
func (c *Catalog) Add(tmpl *models.ScenarioTemplate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates[tmpl.RoleType] = tmpl
}
