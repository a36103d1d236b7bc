package cli

import (
	"fmt"
	"io"

	"github.com/javanhut/arbor/internal/colors"
	"github.com/javanhut/arbor/internal/history"
	"github.com/javanhut/arbor/internal/names"
	"github.com/javanhut/arbor/internal/tree"
	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Revert the last edit",
	Long: `Restores the tree to the state before the last edit. Undone states can be
brought back with 'arbor redo' until a new edit is made.

Examples:
  arbor undo
  arbor undo -n 3`,
	Args: cobra.NoArgs,
	RunE: runUndo,
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Re-apply the last undone edit",
	Args:  cobra.NoArgs,
	RunE:  runRedo,
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the session history",
	Long: `Shows every history state of the session, oldest first. The current state
is marked with '*'; states that can be redone are listed after it.

Each state is named after the hash of its contents, so identical trees share
a name.

Examples:
  arbor log
  arbor log --session draft`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <name>",
	Short: "Print the tree stored in a history state",
	Long: `Prints the tree of a history state without restoring it. The state is
given by the name shown in 'arbor log' or a hash prefix of at least 8 characters.

Examples:
  arbor snapshot swift-river-1a2b3c4d
  arbor snapshot 1a2b3c4d`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

var (
	undoSteps int
	redoSteps int
)

func init() {
	undoCmd.Flags().IntVarP(&undoSteps, "steps", "n", 1, "Number of edits to undo")
	redoCmd.Flags().IntVarP(&redoSteps, "steps", "n", 1, "Number of edits to redo")
}

func runUndo(cmd *cobra.Command, args []string) error {
	return step(cmd, "undo", undoSteps, func(s *session) bool { return s.history.Undo(s.store) })
}

func runRedo(cmd *cobra.Command, args []string) error {
	return step(cmd, "redo", redoSteps, func(s *session) bool { return s.history.Redo(s.store) })
}

// step applies move up to n times and saves once if anything moved.
func step(cmd *cobra.Command, what string, n int, move func(*session) bool) error {
	out := cmd.OutOrStdout()
	if n < 1 {
		return fmt.Errorf("--steps must be at least 1")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	done := 0
	for done < n && move(s) {
		done++
	}
	if done == 0 {
		fmt.Fprintf(out, "Nothing to %s.\n", what)
		return nil
	}
	if err := s.save(); err != nil {
		return err
	}

	present, _ := s.history.Present()
	fmt.Fprintf(out, "%s %d step(s), now at %s (%d item(s))\n",
		colors.SuccessText(what+":"), done, colors.Current(names.Name(present.Hash())), present.Len())
	return nil
}

func runLog(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(out, "%s %s\n", colors.SectionHeader("Session"), colors.Bold(s.name))

	state := s.history.State()
	for _, snap := range state.Past {
		printState(out, " ", snap, colors.Gray)
	}
	if state.Present != nil {
		printState(out, "*", *state.Present, colors.Current)
	}
	// Future is stored most recent first; the next redo is listed first.
	for _, snap := range state.Future {
		printState(out, " ", snap, colors.Undone)
	}

	undo, redo := s.history.Depth()
	fmt.Fprintf(out, "\n%s\n", colors.Dim(fmt.Sprintf("%d undo, %d redo available", undo, redo)))
	return nil
}

func printState(w io.Writer, marker string, snap history.Snapshot, paint func(string) string) {
	fmt.Fprintf(w, "%s %s %s\n", marker, paint(names.Name(snap.Hash())), colors.Gray(fmt.Sprintf("%d item(s)", snap.Len())))
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	match, err := s.findState(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %s\n", colors.SectionHeader("State"), names.Name(match.Hash()))
	if match.Len() == 0 {
		fmt.Fprintln(out, colors.Gray("(empty)"))
		return nil
	}
	view := tree.New(match.Items())
	printTree(out, view, topLevel(view))
	return nil
}
