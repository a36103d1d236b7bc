package cli

import (
	"fmt"

	"github.com/javanhut/arbor/internal/colors"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every item from the tree",
	Long: `Remove every item from the tree.

Modes:
  arbor reset              # Empty the tree; undo brings it back
  arbor reset --hard       # DANGER: Empty the tree and discard all history

Examples:
  arbor reset
  arbor reset --hard --session scratch`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var resetHard bool

func init() {
	resetCmd.Flags().BoolVar(&resetHard, "hard", false, "DANGER: Also discard undo and redo history")
}

func runReset(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	removed := s.store.Len()
	s.store.Clear()

	if resetHard {
		s.history.Init(s.store)
		if err := s.save(); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %d item(s) and all history of %s\n",
			colors.WarningText("Discarded"), removed, colors.Bold(s.name))
		return nil
	}

	if removed == 0 {
		fmt.Fprintln(out, colors.Gray("Tree is already empty."))
		return nil
	}
	if err := s.commit(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %d item(s) (use 'arbor undo' to restore)\n", colors.SuccessText("Removed"), removed)
	return nil
}
