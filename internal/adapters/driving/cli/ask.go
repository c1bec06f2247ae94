package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieve the chunks most similar to the question and ask the language
model to answer from them.

Examples:
  docpilot ask "What is the notice period in the supplier contract?"
  docpilot ask --sources -k 8 "Who approved the 2024 budget?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector index statistics",
	RunE:  runStats,
}

func init() {
	askCmd.Flags().Bool("sources", false, "print the retrieved chunks instead of an answer")
	askCmd.Flags().IntP("top-k", "k", 0, "number of chunks to retrieve with --sources (0 = configured default)")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(statsCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := answerService()
	if err != nil {
		return err
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("question is empty")
	}

	sources, _ := cmd.Flags().GetBool("sources")
	if sources {
		k, _ := cmd.Flags().GetInt("top-k")
		hits, err := svc.Retrieve(cmd.Context(), question, k)
		if err != nil {
			return explain(err)
		}
		if len(hits) == 0 {
			cmd.Println("No matching chunks.")
			return nil
		}
		for i, hit := range hits {
			cmd.Printf("%s %s #%d %s\n", heading(fmt.Sprintf("[%d]", i+1)),
				hit.Chunk.Source, hit.Chunk.Position, dim(fmt.Sprintf("(score: %.3f)", hit.Score)))
			cmd.Printf("    %s\n\n", snippet(hit.Chunk.Text, 240))
		}
		return nil
	}

	answer, err := svc.Answer(cmd.Context(), question)
	if err != nil {
		return explain(err)
	}
	cmd.Println(answer)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	svc, err := answerService()
	if err != nil {
		return err
	}

	stats, err := svc.Stats(cmd.Context())
	if err != nil {
		return explain(err)
	}

	cmd.Println(heading("Vector index"))
	cmd.Printf("  Chunks:    %d\n", stats.Count)
	cmd.Printf("  Dimension: %d\n", stats.Dimension)
	cmd.Printf("  Type:      %s\n", stats.Type)
	return nil
}

// explain adds a next step to errors the user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, domain.ErrIndexNotBuilt):
		return fmt.Errorf("%w: run 'docpilot ingest' first", err)
	case errors.Is(err, domain.ErrIndexCorrupt):
		return fmt.Errorf("%w: run 'docpilot reindex' to rebuild", err)
	case errors.Is(err, domain.ErrAuthRequired), errors.Is(err, domain.ErrAuthExpired):
		return fmt.Errorf("%w: run 'docpilot auth login'", err)
	default:
		return err
	}
}

// snippet flattens whitespace and truncates to n runes.
func snippet(s string, n int) string {
	return truncate(strings.Join(strings.Fields(s), " "), n)
}
