package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/interviewace/simulation-engine/internal/models"
)

func TestBuiltinScenarios(t *testing.T) {
	c := New()

	tests := []struct {
		roleType string
		budget   int
		time     int
	}{
		{"cloud-architect", 15000, 480},
		{"devops-engineer", 12000, 360},
		{"cybersecurity-analyst", 8000, 240},
		{"ux-designer", 10000, 600},
	}

	for _, tt := range tests {
		tmpl := c.Get(tt.roleType)
		if tmpl == nil {
			t.Fatalf("builtin scenario %q not found", tt.roleType)
		}
		if tmpl.Budget != tt.budget {
			t.Errorf("%s: budget = %d, want %d", tt.roleType, tmpl.Budget, tt.budget)
		}
		if tmpl.Time != tt.time {
			t.Errorf("%s: time = %d, want %d", tt.roleType, tmpl.Time, tt.time)
		}
		if len(tmpl.Competencies) == 0 {
			t.Errorf("%s: no competencies", tt.roleType)
		}
		if len(tmpl.Events.Stakeholder) == 0 || len(tmpl.Events.Technical) == 0 {
			t.Errorf("%s: empty event library", tt.roleType)
		}
	}

	if c.Get("astronaut") != nil {
		t.Error("unknown role type should return nil")
	}
}

func TestListIsSorted(t *testing.T) {
	c := New()
	list := c.List()
	if len(list) != 4 {
		t.Fatalf("expected 4 builtin scenarios, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].RoleType >= list[i].RoleType {
			t.Errorf("list not sorted: %s before %s", list[i-1].RoleType, list[i].RoleType)
		}
	}
}

func TestLoadFromFileOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cloud.yaml")
	content := `
role_type: cloud-architect
role_name: Cloud Architect
title: Custom Migration
objective: Migrate everything.
competencies:
  - cost management
budget: 20000
time: 300
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	tmpl := c.Get("cloud-architect")
	if tmpl.Budget != 20000 || tmpl.Time != 300 {
		t.Errorf("override not applied: budget=%d time=%d", tmpl.Budget, tmpl.Time)
	}
	if tmpl.Title != "Custom Migration" {
		t.Errorf("unexpected title: %s", tmpl.Title)
	}
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"missing_role_type.yaml", "role_name: X\ncompetencies: [a]\nbudget: 1\ntime: 1\n"},
		{"no_competencies.yaml", "role_type: x\nbudget: 1\ntime: 1\n"},
		{"negative_budget.yaml", "role_type: x\ncompetencies: [a]\nbudget: -5\ntime: 1\n"},
		{"garbage.yaml", "{{{not yaml"},
	}

	for _, tt := range tests {
		path := filepath.Join(dir, tt.name)
		if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
			t.Fatal(err)
		}
		c := New()
		if err := c.LoadFromFile(path); err == nil {
			t.Errorf("%s: expected load error", tt.name)
		}
	}
}

func TestLoadFromDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	good := `
role_type: data-engineer
role_name: Data Engineer
title: Pipelines
objective: Build pipelines.
competencies: [pipeline design]
budget: 9000
time: 200
`
	if err := os.WriteFile(filepath.Join(dir, "good.yaml"), []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New()
	if err := c.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	if c.Get("data-engineer") == nil {
		t.Error("good scenario not loaded")
	}
}

func TestAdd(t *testing.T) {
	c := New()
	c.Add(&models.ScenarioTemplate{RoleType: "pm", Competencies: []string{"planning"}})
	if c.Get("pm") == nil {
		t.Error("Add did not register template")
	}
}
