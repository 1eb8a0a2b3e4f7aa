package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	domainerrors "grammarsym/internal/core/errors"
	"grammarsym/internal/engine/symbols"
	"grammarsym/internal/query"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	kindColor    = color.New(color.FgYellow)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	okColor      = color.New(color.FgGreen, color.Bold)
)

type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(cmd *cobra.Command) (*printer, error) {
	flags := cmd.Root().PersistentFlags()
	colorFlag, _ := flags.GetString("color")
	format, _ := flags.GetString("format")

	switch colorFlag {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
	default:
		return nil, domainerrors.Newf(domainerrors.CodeValidationError, "unknown color mode: %s", colorFlag)
	}
	switch format {
	case "pretty", "json":
	default:
		return nil, domainerrors.Newf(domainerrors.CodeValidationError, "unknown format: %s", format)
	}
	return &printer{w: cmd.OutOrStdout(), json: format == "json"}, nil
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) heading(format string, args ...any) {
	headingColor.Fprintf(p.w, format+"\n", args...)
}

func location(info symbols.SymbolInfo) string {
	if info.Definition == nil {
		return info.Source
	}
	start := info.Definition.Range.Start
	// Positions are zero-based; editors count from one.
	return fmt.Sprintf("%s:%d:%d", info.Source, start.Row+1, start.Column+1)
}

func (p *printer) symbolList(title string, infos []symbols.SymbolInfo) error {
	if p.json {
		if infos == nil {
			infos = []symbols.SymbolInfo{}
		}
		return p.encode(infos)
	}
	p.heading("%s (%d)", title, len(infos))
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, info := range infos {
		line := fmt.Sprintf("  %s\t%s\t%s", kindColor.Sprint(info.Kind), info.Name, location(info))
		if info.Description != "" {
			line += "\t" + info.Description
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

func (p *printer) symbol(info *symbols.SymbolInfo) error {
	if p.json {
		return p.encode(info)
	}
	p.heading("%s", info.Name)
	fmt.Fprintf(p.w, "  kind    %s\n", kindColor.Sprint(info.Kind))
	fmt.Fprintf(p.w, "  source  %s\n", location(*info))
	if info.Description != "" {
		fmt.Fprintf(p.w, "  %s\n", info.Description)
	}
	return nil
}

type actionListing struct {
	Type     string               `json:"type"`
	Entries  []symbols.SymbolInfo `json:"entries"`
	Degraded bool                 `json:"degraded"`
	Error    string               `json:"error,omitempty"`
}

func (p *printer) actions(at symbols.ActionType, list symbols.ActionList) error {
	if p.json {
		out := actionListing{Type: at.String(), Entries: list.Entries, Degraded: list.Degraded()}
		if out.Entries == nil {
			out.Entries = []symbols.SymbolInfo{}
		}
		if list.Err != nil {
			out.Error = list.Err.Error()
		}
		return p.encode(out)
	}
	if list.Degraded() {
		warnColor.Fprintf(os.Stderr, "warning: %s listing degraded: %v\n", at, list.Err)
	}
	return p.symbolList(at.String(), list.Entries)
}

func (p *printer) counts(grammar string, counts symbols.ActionCounts) error {
	if p.json {
		return p.encode(counts)
	}
	p.heading("%s actions", grammar)
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for at := symbols.GlobalNamedActions; at <= symbols.LexerPredicates; at++ {
		fmt.Fprintf(tw, "  %s\t%d\n", at, counts.Get(at))
	}
	return tw.Flush()
}

func (p *printer) names(title string, names []string) error {
	if p.json {
		if names == nil {
			names = []string{}
		}
		return p.encode(names)
	}
	p.heading("%s (%d)", title, len(names))
	for _, name := range names {
		fmt.Fprintf(p.w, "  %s\n", name)
	}
	return nil
}

func (p *printer) grammars(rows []query.GrammarSummary) error {
	if p.json {
		if rows == nil {
			rows = []query.GrammarSummary{}
		}
		return p.encode(rows)
	}
	p.heading("grammars (%d)", len(rows))
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tTYPE\tFILE\tSYMBOLS\tACTIONS\tDEPS\tDEPENDENTS")
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.Name, r.Type, r.File, r.SymbolCount, r.ActionCount, r.DependencyCount, r.DependentCount)
	}
	return tw.Flush()
}

func (p *printer) impact(res query.ImpactResult) error {
	if p.json {
		return p.encode(res)
	}
	p.heading("changing %s affects", res.Grammar)
	fmt.Fprintf(p.w, "  direct    %s\n", joinOrDash(res.Direct))
	fmt.Fprintf(p.w, "  indirect  %s\n", joinOrDash(res.Indirect))
	return nil
}

func (p *printer) health(status query.HealthStatus) {
	c := okColor
	if status.Status != "up" {
		c = warnColor
	}
	c.Fprintf(p.w, "workspace %s\n", status.Status)
	for _, key := range []string{"workspace", "dependencies", "cycles"} {
		if v, ok := status.Components[key]; ok {
			fmt.Fprintf(p.w, "  %-12s %s\n", key, v)
		}
	}
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
