package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/healthlens/internal/glossary"
	"github.com/ppiankov/healthlens/internal/text"
)

var glossaryFile string

// glossaryCmd represents the glossary command
var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage the trusted glossary",
	Long: `Manage the trusted glossary of medical terms and their accepted phrasings.

A term mentioned in an article without any of its accepted phrasings is
reported as a glossary mismatch. The glossary file is YAML:

  flu:
    - influenza
    - seasonal flu

Edits are written to --file, the glossary.path config value, or
~/.healthlens/glossary.yaml (seeded from the built-in glossary).`,
}

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary terms and accepted phrasings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, path, err := openGlossary()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if path != "" {
			fmt.Fprintf(os.Stderr, "Glossary: %s\n\n", path)
		}
		for _, e := range g.Entries() {
			phrases := "(no accepted phrasing)"
			if len(e.Phrases) > 0 {
				phrases = strings.Join(e.Phrases, ", ")
			}
			fmt.Fprintf(out, "%-14s %s\n", e.Term, phrases)
		}
		fmt.Fprintf(os.Stderr, "\n%d terms\n", g.Len())
		return nil
	},
}

var glossaryAddCmd = &cobra.Command{
	Use:   "add <term> [phrase...]",
	Short: "Add a term or replace its accepted phrasings",
	Example: `  healthlens glossary add measles "measles virus" rubeola
  healthlens glossary add detox`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, path, err := openGlossary()
		if err != nil {
			return err
		}
		if err := g.Add(args[0], args[1:]...); err != nil {
			return err
		}
		if err := g.SaveFile(path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %q to %s\n", strings.ToLower(strings.TrimSpace(args[0])), path)
		return nil
	},
}

var glossaryRemoveCmd = &cobra.Command{
	Use:   "remove <term>",
	Short: "Remove a term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, path, err := openGlossary()
		if err != nil {
			return err
		}
		if !g.Remove(args[0]) {
			return fmt.Errorf("term not in glossary: %s", args[0])
		}
		if err := g.SaveFile(path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %q from %s\n", args[0], path)
		return nil
	},
}

var glossaryCheckCmd = &cobra.Command{
	Use:   "check [file|-]",
	Short: "Compare a text against the glossary without scoring it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		g, _, err := openGlossary()
		if err != nil {
			return err
		}

		mismatches, err := g.Compare(text.ExtractTextBlocks(raw))
		if err != nil {
			return err
		}
		for _, m := range mismatches {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", m.Term, m.Status)
		}
		if len(mismatches) == 0 {
			fmt.Fprintln(os.Stderr, "✓ No glossary mismatches")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)
	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryRemoveCmd)
	glossaryCmd.AddCommand(glossaryCheckCmd)

	glossaryCmd.PersistentFlags().StringVar(&glossaryFile, "file", "", "glossary YAML file")
}

// openGlossary loads the editable glossary. A missing file yields the
// built-in glossary, which is saved to that path on the first edit.
func openGlossary() (*glossary.Glossary, string, error) {
	path, err := glossaryPath()
	if err != nil {
		return nil, "", err
	}

	g, err := glossary.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug().Str("path", path).Msg("glossary file not found, using built-in glossary")
		return glossary.Default(), path, nil
	}
	if err != nil {
		return nil, "", err
	}
	return g, path, nil
}

func glossaryPath() (string, error) {
	if glossaryFile != "" {
		return glossaryFile, nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Glossary.Path != "" {
		return cfg.Glossary.Path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, ".healthlens", "glossary.yaml"), nil
}
