package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schemasnap/schemasnap/pkg/render/dot"
)

// visualizeCommand creates the visualize command for diagram output.
func (c *CLI) visualizeCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "visualize [source]",
		Short: "Render a snapshot as a Graphviz diagram",
		Long: `Render a snapshot as a Graphviz diagram.

The source is a capturable file (SQLite database or manifest) or an
exported JSON document. Groups become clusters, entities become boxes,
and reference attributes become labeled edges.

SVG output is rendered in-process with Graphviz; DOT output can be fed to
external Graphviz tooling.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "svg", "dot":
			default:
				return fmt.Errorf("unsupported format %q (want svg or dot)", format)
			}
			return c.runVisualize(cmd, args[0], format, output, detailed, noCache)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg (default), dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default input name with new extension)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include entity attributes in node labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the capture cache")

	return cmd
}

func (c *CLI) runVisualize(cmd *cobra.Command, input, format, output string, detailed, noCache bool) error {
	ctx := cmd.Context()

	snap, err := c.loadSnapshot(ctx, input, noCache)
	if err != nil {
		return err
	}

	spin := startSpinner(ctx, "Rendering diagram...")

	src := dot.ToDOT(snap, dot.Options{Detailed: detailed})
	var data []byte
	if format == "svg" {
		data, err = dot.RenderSVG(src)
		if err != nil {
			spin.fail("Rendering failed")
			return err
		}
	} else {
		data = []byte(src)
	}
	spin.stop()

	if output == "" {
		output = outputName(input, format)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Diagram rendered")
	printFile(output)
	return nil
}

// outputName swaps the input's extension for the output format.
func outputName(input, format string) string {
	base := input
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base + "." + format
}
