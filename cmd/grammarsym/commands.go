package main

import (
	"strconv"
	"strings"

	domainerrors "grammarsym/internal/core/errors"
	"grammarsym/internal/engine/symbols"
	"grammarsym/internal/engine/syntax"

	"github.com/spf13/cobra"
)

var outlineCmd = &cobra.Command{
	Use:   "outline <grammar>",
	Short: "List top-level symbols in outline order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		local, _ := cmd.Flags().GetBool("local")
		infos, err := s.svc.Outline(cmd.Context(), args[0], local)
		if err != nil {
			return err
		}
		return s.out.symbolList(args[0]+" outline", infos)
	},
}

var actionsCmd = &cobra.Command{
	Use:   "actions <grammar> <type>",
	Short: "List actions or predicates of one type",
	Long: `Types: globalNamed, localNamed, parserAction, lexerAction,
parserPredicate, lexerPredicate.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, ok := symbols.ParseActionType(args[1])
		if !ok {
			return domainerrors.Newf(domainerrors.CodeValidationError, "unknown action type: %s", args[1])
		}
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		list, err := s.svc.Actions(cmd.Context(), args[0], at)
		if err != nil {
			return err
		}
		return s.out.actions(at, list)
	},
}

var countsCmd = &cobra.Command{
	Use:   "counts <grammar>",
	Short: "Count actions and predicates per type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		counts, err := s.svc.Counts(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return s.out.counts(args[0], counts)
	},
}

var occurrencesCmd = &cobra.Command{
	Use:   "occurrences <grammar> <name>",
	Short: "Find declarations of and references to a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		local, _ := cmd.Flags().GetBool("local")
		infos, err := s.svc.Occurrences(cmd.Context(), args[0], args[1], local)
		if err != nil {
			return err
		}
		return s.out.symbolList(args[1]+" occurrences", infos)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <grammar> <name>",
	Short: "Resolve a name and show where it is declared",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		info, err := s.svc.Info(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return s.out.symbol(info)
	},
}

var atCmd = &cobra.Command{
	Use:   "at <grammar> <line:column>",
	Short: "Show the innermost symbol at a one-based position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := parsePosition(args[1])
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		info, err := s.svc.SymbolAtPosition(cmd.Context(), args[0], pos)
		if err != nil {
			return err
		}
		return s.out.symbol(info)
	},
}

var unreferencedCmd = &cobra.Command{
	Use:   "unreferenced <grammar>",
	Short: "List declarations nothing references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		names, err := s.svc.Unreferenced(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return s.out.names(args[0]+" unreferenced", names)
	},
}

var grammarsCmd = &cobra.Command{
	Use:   "grammars [filter]",
	Short: "Summarize loaded grammars",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		filter := ""
		if len(args) == 1 {
			filter = args[0]
		}
		limit, _ := cmd.Flags().GetInt("limit")
		rows, err := s.svc.ListGrammars(cmd.Context(), filter, limit)
		if err != nil {
			return err
		}
		return s.out.grammars(rows)
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact <grammar>",
	Short: "List grammars affected by a change to one grammar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		res, err := s.svc.Impact(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return s.out.impact(res)
	},
}

func init() {
	outlineCmd.Flags().Bool("local", false, "omit built-ins and dependency symbols")
	occurrencesCmd.Flags().Bool("local", false, "search only the grammar itself")
	grammarsCmd.Flags().Int("limit", 0, "maximum rows (0 for all)")
}

// parsePosition reads "line:column", both counted from one.
func parsePosition(s string) (syntax.Position, error) {
	line, col, ok := strings.Cut(s, ":")
	if !ok {
		return syntax.Position{}, domainerrors.Newf(domainerrors.CodeValidationError, "position %q is not line:column", s)
	}
	row, err := strconv.Atoi(line)
	if err != nil || row < 1 {
		return syntax.Position{}, domainerrors.Newf(domainerrors.CodeValidationError, "invalid line in %q", s)
	}
	column, err := strconv.Atoi(col)
	if err != nil || column < 1 {
		return syntax.Position{}, domainerrors.Newf(domainerrors.CodeValidationError, "invalid column in %q", s)
	}
	return syntax.Position{Row: row - 1, Column: column - 1}, nil
}
