package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var ingestContentType string

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Upload a source document and queue it for extraction",
	Long: `Stores the file in object storage and creates a PENDING document.
Ingestion is idempotent on content: re-submitting a file already on record
prints the existing document instead of creating a duplicate.

Example:
  apflow ingest invoice-0042.pdf
  apflow ingest scan.png --content-type image/png`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestContentType, "content-type", "", "MIME type (default: guessed from extension)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	contentType := ingestContentType
	if contentType == "" {
		contentType = guessContentType(path)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.extraction.Ingest(cmd.Context(), fileBytes, contentType)
	if err != nil {
		return err
	}

	fmt.Printf("document %s (state=%s, version=%d)\n", doc.ID, doc.State, doc.Version)
	return nil
}

func guessContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
