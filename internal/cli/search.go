package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/healthlens/internal/text"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query> <file...>",
	Short: "Find articles mentioning a phrase and highlight each match",
	Long: `Search looks for a phrase (case-insensitive) in article files and prints
every matching article with occurrences wrapped in **double asterisks**.
Regular-expression characters in the query match literally.

Example:
  healthlens search "vitamin c" articles/*.txt`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, files := args[0], args[1:]

	var corpus []string
	var names []string
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		corpus = append(corpus, text.ExtractTextBlocks(string(data)))
		names = append(names, path)
	}

	out := cmd.OutOrStdout()
	matched := 0
	for i, doc := range corpus {
		hits, err := text.Highlight(query, []string{doc})
		if err != nil {
			return err
		}
		for _, h := range hits {
			matched++
			fmt.Fprintf(out, "%s:\n  %s\n\n", names[i], h)
		}
	}

	fmt.Fprintf(os.Stderr, "%d of %d files mention %q\n", matched, len(files), query)
	return nil
}
