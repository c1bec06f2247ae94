package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Browse processed documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List processed documents",
	RunE:  runDocsList,
}

var docsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print the extracted text of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsShow,
}

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Join every processed text into one document",
	Long: `Write every processed text, in name order, into a single document with a
header and per-document separators. With --upload the document is also
uploaded to the configured upload folder.`,
	RunE: runConsolidate,
}

func init() {
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsShowCmd)
	rootCmd.AddCommand(docsCmd)

	consolidateCmd.Flags().Bool("upload", false, "upload the consolidated document to the source")
	rootCmd.AddCommand(consolidateCmd)
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	svc, err := documentService()
	if err != nil {
		return err
	}

	names, err := svc.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	if len(names) == 0 {
		cmd.Println("No processed documents. Run 'docpilot ingest' first.")
		return nil
	}

	for _, name := range names {
		cmd.Println(name)
	}
	cmd.Println(dim(fmt.Sprintf("%d documents", len(names))))
	return nil
}

func runDocsShow(cmd *cobra.Command, args []string) error {
	svc, err := documentService()
	if err != nil {
		return err
	}

	content, err := svc.Get(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("document %q not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	cmd.Println(content)
	return nil
}

func runConsolidate(cmd *cobra.Command, _ []string) error {
	svc, err := consolidateService()
	if err != nil {
		return err
	}

	upload, _ := cmd.Flags().GetBool("upload")
	if upload {
		result, err := svc.Publish(cmd.Context())
		if err != nil {
			return explain(fmt.Errorf("publishing: %w", err))
		}
		cmd.Printf("Uploaded %s\n", ok(result.ID))
		if result.WebURL != "" {
			cmd.Printf("  %s\n", result.WebURL)
		}
		return nil
	}

	path, err := svc.Consolidate(cmd.Context())
	if err != nil {
		return fmt.Errorf("consolidating: %w", err)
	}
	cmd.Printf("Wrote %s\n", path)
	return nil
}
