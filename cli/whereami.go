package cli

import (
	"fmt"
	"time"

	"github.com/javanhut/arbor/internal/check"
	"github.com/javanhut/arbor/internal/colors"
	"github.com/javanhut/arbor/internal/names"
	"github.com/spf13/cobra"
)

var whereamiCmd = &cobra.Command{
	Use:     "whereami",
	Aliases: []string{"wai", "status"},
	Short:   "Show current session information",
	Long: `Display information about the current session including:
- Session name and current history state
- Item and root counts
- Available undo and redo steps
- When the session was last saved`,
	Args: cobra.NoArgs,
	RunE: runWhereami,
}

func runWhereami(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(out, "Session: %s\n", colors.Bold(s.name))
	if present, ok := s.history.Present(); ok {
		fmt.Fprintf(out, "State: %s\n", colors.Current(names.Name(present.Hash())))
	}

	report := check.Forest(s.store.GetAll())
	fmt.Fprintf(out, "Items: %d (%d root(s))\n", report.Items, report.Roots)
	if len(report.Dangling) > 0 || len(report.Cycles) > 0 || len(report.Duplicates) > 0 {
		fmt.Fprintf(out, "Problems: %s\n", colors.WarningText("run 'arbor check' for details"))
	}

	undo, redo := s.history.Depth()
	fmt.Fprintf(out, "History: %d undo, %d redo\n", undo, redo)

	if rec, err := s.archive.DB().GetSession(s.name); err == nil {
		fmt.Fprintf(out, "Saved: %s\n", formatTimeAgo(rec.UpdatedAt))
	}
	return nil
}

// formatTimeAgo formats a time as a human-readable "time ago" string
func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute")
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "hour")
	case duration < 7*24*time.Hour:
		return plural(int(duration.Hours()/24), "day")
	case duration < 30*24*time.Hour:
		return plural(int(duration.Hours()/(7*24)), "week")
	case duration < 365*24*time.Hour:
		return plural(int(duration.Hours()/(30*24)), "month")
	default:
		return plural(int(duration.Hours()/(365*24)), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
