package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Download documents and rebuild the index",
	Long: `Mirror the configured remote folder into the local staging area, then
extract text and rebuild the vector index.

Files whose local copy is at least as new as the remote one are skipped
unless --force is given.

Examples:
  docpilot ingest
  docpilot ingest --force
  docpilot ingest --fix-corrupted --cleanup
  docpilot ingest --download-only`,
	RunE: runIngest,
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract text from staged documents",
	RunE:  runExtract,
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Chunk and embed processed texts into the vector index",
	RunE:  runEmbed,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-extract and re-embed without downloading",
	Long: `Run extraction and embedding over the staged documents and swap the
new index in. Only one reindex runs at a time.`,
	RunE: runReindex,
}

func init() {
	ingestCmd.Flags().Bool("force", false, "re-download every file")
	ingestCmd.Flags().Bool("fix-corrupted", false, "re-fetch staged files that fail integrity checks")
	ingestCmd.Flags().Bool("cleanup", false, "remove temporary files from the staging area")
	ingestCmd.Flags().Bool("download-only", false, "skip extraction and embedding")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(reindexCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	svc, err := ingestService()
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	fix, _ := cmd.Flags().GetBool("fix-corrupted")
	cleanup, _ := cmd.Flags().GetBool("cleanup")
	downloadOnly, _ := cmd.Flags().GetBool("download-only")

	ctx := cmd.Context()

	if cleanup {
		removed, err := svc.Cleanup(ctx)
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		cmd.Printf("Removed %d temporary files\n", removed)
	}

	progress := newProgress(cmd.OutOrStdout(), "Downloading")
	stats, err := svc.Ingest(ctx, domain.IngestOptions{Force: force, Progress: progress.Func()})
	progress.Finish()
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	printIngestStats(cmd, stats)

	if fix {
		repair, err := svc.Repair(ctx)
		if err != nil {
			return fmt.Errorf("repair: %w", err)
		}
		cmd.Printf("Integrity: %d checked, %d corrupted, %d repaired, %d failed\n",
			repair.Checked, repair.Corrupted, repair.Repaired, repair.Failed)
	}

	if downloadOnly {
		return nil
	}

	if err := extract(cmd); err != nil {
		return err
	}
	return embed(cmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	return extract(cmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	return embed(cmd)
}

func extract(cmd *cobra.Command) error {
	svc, err := extractionService()
	if err != nil {
		return err
	}

	progress := newProgress(cmd.OutOrStdout(), "Extracting")
	stats, err := svc.Extract(cmd.Context(), progress.Func())
	progress.Finish()
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	cmd.Printf("%s %d processed, %d skipped, %d failed\n",
		heading("Extracted:"), stats.Processed, stats.Skipped, stats.Failed)
	return nil
}

func embed(cmd *cobra.Command) error {
	svc, err := indexService()
	if err != nil {
		return err
	}

	progress := newProgress(cmd.OutOrStdout(), "Embedding")
	stats, err := svc.Build(cmd.Context(), progress.Func())
	progress.Finish()
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	printIndexStats(cmd, stats)

	// A running serve process picks up the new index through its watcher;
	// this process reloads its own copy directly.
	if services.Answer != nil {
		services.Answer.Reload()
	}
	return nil
}

func runReindex(cmd *cobra.Command, _ []string) error {
	svc, err := maintenanceService()
	if err != nil {
		return err
	}

	cmd.Println("Reindexing...")
	result, err := svc.Reindex(cmd.Context())
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}

	cmd.Printf("%s %d processed, %d skipped, %d failed\n",
		heading("Extracted:"), result.Extract.Processed, result.Extract.Skipped, result.Extract.Failed)
	printIndexStats(cmd, &result.Index)
	return nil
}

func printIngestStats(cmd *cobra.Command, s *domain.IngestStats) {
	cmd.Println(heading("Ingest complete"))
	cmd.Printf("  Total:        %d\n", s.Total)
	cmd.Printf("  Downloaded:   %s\n", ok(fmt.Sprint(s.Downloaded)))
	cmd.Printf("  Skipped:      %d\n", s.Skipped)
	if s.Redownloaded > 0 {
		cmd.Printf("  Redownloaded: %d\n", s.Redownloaded)
	}
	if s.Failed > 0 {
		cmd.Printf("  Failed:       %s\n", fail(fmt.Sprint(s.Failed)))
	} else {
		cmd.Printf("  Failed:       0\n")
	}
	cmd.Printf("  Folders:      %d\n", s.FoldersProcessed)
	cmd.Printf("  Duration:     %s\n", s.Duration.Round(time.Millisecond))
}

func printIndexStats(cmd *cobra.Command, s *domain.IndexStats) {
	cmd.Printf("Stored %d chunks | dim=%d\n", s.Chunks, s.Dimension)
	cmd.Println(dim(fmt.Sprintf("  %d documents embedded with %s", s.Documents, s.Provider)))
}
