package query

import (
	"grammarsym/internal/engine/symbols"
	"grammarsym/internal/manifest"
)

type GrammarSummary struct {
	Name            string
	Type            manifest.GrammarType
	File            string
	SymbolCount     int
	ActionCount     int
	DependencyCount int
	DependentCount  int
}

type GrammarDetails struct {
	Name         string
	Type         manifest.GrammarType
	Path         string
	File         string
	Dependencies []string
	Dependents   []string
	Missing      []string
	Counts       symbols.ActionCounts
	Unreferenced []string
}

// ImpactResult lists the grammars that must be relinked when Grammar changes.
type ImpactResult struct {
	Grammar  string
	Direct   []string
	Indirect []string
}
