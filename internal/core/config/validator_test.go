package config

import (
	"fmt"
	"os"
	"testing"
)

func TestValidateWorkspacePaths(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "grammarsym-test")
	if err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	cfg := DefaultConfig()
	cfg.Workspace.Paths = []string{"/non/existent/path", tmpFile.Name()}

	errs := Validate(cfg)
	want := []string{
		`workspace.paths[0] "/non/existent/path" does not exist`,
		fmt.Sprintf("workspace.paths[1] %q is not a directory", tmpFile.Name()),
	}
	for _, target := range want {
		found := false
		for _, err := range errs {
			if err.Error() == target {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected error %q, got %v", target, errs)
		}
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspace.Paths = []string{t.TempDir()}
	cfg.Logging.Level = "chatty"
	cfg.Compat.SkipWidth = 0

	errs := Validate(cfg)
	if len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %d: %v", len(errs), errs)
	}
}

func TestValidateDefaultsClean(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspace.Paths = []string{t.TempDir()}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Fatalf("Expected no errors, got %v", errs)
	}
}
