package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// browseCommand creates the browse command for interactive inspection.
func (c *CLI) browseCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "browse [source]",
		Short: "Inspect a snapshot interactively",
		Long: `Inspect a snapshot interactively.

The source is a capturable file (SQLite database or manifest) or an
exported JSON document. Entities are listed grouped by type; selecting
one shows its attributes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.loadSnapshot(cmd.Context(), args[0], noCache)
			if err != nil {
				return err
			}

			model := NewBrowseModel(snap)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the capture cache")

	return cmd
}
