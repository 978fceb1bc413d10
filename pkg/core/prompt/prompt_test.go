package prompt

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSystemOrFallback(t *testing.T) {
	if got := SystemOr("never.registered", "default wording"); got != "default wording" {
		t.Errorf("SystemOr = %q, want fallback", got)
	}

	Get().Register(&Template{ID: "test.override", System: "registered wording"})
	if got := SystemOr("test.override", "default wording"); got != "registered wording" {
		t.Errorf("SystemOr = %q, want registered wording", got)
	}
}

func TestRegisterRejectsEmptyID(t *testing.T) {
	if err := Get().Register(&Template{System: "x"}); err == nil {
		t.Error("Register should reject an empty ID")
	}
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "boundary")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	content := `{"system_prompt": "You locate section starts."}`
	if err := os.WriteFile(filepath.Join(sub, "locate.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadFromDirectory(dir); err != nil {
		t.Fatal(err)
	}
	got, ok := Get().System("boundary.locate")
	if !ok || got != "You locate section starts." {
		t.Errorf("System(boundary.locate) = %q, %v", got, ok)
	}
}

func TestLoadFromMissingDirectory(t *testing.T) {
	if err := LoadFromDirectory(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("want error for missing directory")
	}
}
