package config

import (
	"os"
	"path/filepath"
	"strings"

	domainerrors "grammarsym/internal/core/errors"
)

type ResolvedPaths struct {
	ProjectRoot string
	Workspace   []string
}

// ResolvePaths anchors workspace paths at the project root, which is either
// configured or detected from cwd.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, domainerrors.New(domainerrors.CodeValidationError, "cwd must not be empty")
	}

	projectRoot := cfg.Paths.ProjectRoot
	if projectRoot != "" {
		projectRoot = ResolveRelative(cwd, projectRoot)
	} else {
		root, err := DetectProjectRoot([]string{cwd})
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectRoot = root
	}

	resolved := ResolvedPaths{ProjectRoot: filepath.Clean(projectRoot)}
	seen := make(map[string]bool, len(cfg.Workspace.Paths))
	for _, p := range cfg.Workspace.Paths {
		abs := ResolveRelative(projectRoot, p)
		if seen[abs] {
			continue
		}
		seen[abs] = true
		resolved.Workspace = append(resolved.Workspace, abs)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate looking for a config file or
// repository marker, falling back to the working directory.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		DefaultFileName,
		".git",
		"go.mod",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
