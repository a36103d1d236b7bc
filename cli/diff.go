package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/javanhut/arbor/internal/colors"
	"github.com/javanhut/arbor/internal/diff"
	"github.com/javanhut/arbor/internal/history"
	"github.com/javanhut/arbor/internal/names"
	"github.com/javanhut/arbor/internal/tree"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff [<state>] [<state>]",
	Short: "Show differences between history states",
	Long: `Show item changes between two history states of the session.

Examples:
  arbor diff                      # Previous state vs current
  arbor diff <state>              # A state vs current
  arbor diff <state1> <state2>    # Between two states
  arbor diff --stat               # Show summary statistics only`,
	Args: cobra.MaximumNArgs(2),
	RunE: runDiff,
}

var diffStat bool

func init() {
	diffCmd.Flags().BoolVar(&diffStat, "stat", false, "Show only statistics")
}

func runDiff(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	present, ok := s.history.Present()
	if !ok {
		return fmt.Errorf("session %s has no history", s.name)
	}

	var from, to history.Snapshot
	switch len(args) {
	case 0:
		state := s.history.State()
		if len(state.Past) == 0 {
			fmt.Fprintln(out, colors.Gray("No earlier state to compare with."))
			return nil
		}
		from, to = state.Past[len(state.Past)-1], present
	case 1:
		if from, err = s.findState(args[0]); err != nil {
			return err
		}
		to = present
	case 2:
		if from, err = s.findState(args[0]); err != nil {
			return err
		}
		if to, err = s.findState(args[1]); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "%s %s %s %s\n", colors.SectionHeader("Diff"),
		colors.Gray(names.Name(from.Hash())), colors.Gray(".."), colors.Current(names.Name(to.Hash())))

	changes := diff.Items(from.Items(), to.Items())
	if len(changes) == 0 {
		fmt.Fprintln(out, "No changes.")
		return nil
	}
	if !diffStat {
		for _, c := range changes {
			printChange(out, c)
		}
		fmt.Fprintln(out)
	}

	stats := diff.Summarize(changes)
	fmt.Fprintf(out, "%d item(s) changed: %s, %s, %s\n", len(changes),
		colors.Green(fmt.Sprintf("%d added", stats.Added)),
		colors.Yellow(fmt.Sprintf("%d modified", stats.Modified)),
		colors.Red(fmt.Sprintf("%d removed", stats.Removed)))
	return nil
}

func printChange(w io.Writer, c diff.Change) {
	switch c.Type {
	case diff.Added:
		fmt.Fprintf(w, "%s %s\n", colors.Green("+"), formatItem(*c.New))
	case diff.Removed:
		fmt.Fprintf(w, "%s %s\n", colors.Red("-"), formatItem(*c.Old))
	case diff.Modified:
		var parts []string
		if c.Fields.Label {
			parts = append(parts, fmt.Sprintf("label %q -> %q", c.Old.Label, c.New.Label))
		}
		if c.Fields.Parent {
			parts = append(parts, fmt.Sprintf("parent %s -> %s", parentName(c.Old.Parent), parentName(c.New.Parent)))
		}
		if len(c.Fields.Payload) > 0 {
			parts = append(parts, "payload "+strings.Join(c.Fields.Payload, ","))
		}
		fmt.Fprintf(w, "%s %s: %s\n", colors.Yellow("~"), formatItem(*c.New), strings.Join(parts, "; "))
	}
}

func parentName(id tree.ID) string {
	if id == tree.Root {
		return rootParent
	}
	return id.String()
}
