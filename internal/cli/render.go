package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	snapio "github.com/schemasnap/schemasnap/pkg/io"
	"github.com/schemasnap/schemasnap/pkg/render/readable"
)

// renderCommand creates the render command for re-rendering exported documents.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		expandDepth int
		output      string
	)

	cmd := &cobra.Command{
		Use:   "render [document.json]",
		Short: "Render an exported JSON document as readable text",
		Long: `Render an exported JSON document as readable text.

The document is the portable JSON format produced by 'schemasnap snapshot
--json'. Rendering is deterministic, so the same document always produces
the same text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapio.ImportSnapshot(args[0])
			if err != nil {
				return err
			}

			text, err := serializeDocument(cmd.Context(), snap, expandDepth)
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Print(text)
				return nil
			}
			if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Document rendered")
			printFile(output)
			return nil
		},
	}

	cmd.Flags().IntVarP(&expandDepth, "expand-depth", "d", readable.DefaultExpandDepth, "how many nesting levels to expand inline")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
