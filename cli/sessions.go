package cli

import (
	"fmt"

	"github.com/javanhut/arbor/internal/colors"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and manage editing sessions",
	Long: `Each session is an independent tree with its own undo history. New sessions
are started with 'arbor init --session <name>'.

Examples:
  arbor sessions
  arbor sessions use draft
  arbor sessions rm draft`,
	Args: cobra.NoArgs,
	RunE: runSessionsList,
}

var sessionsUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a session the default for this workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsUse,
}

var sessionsRemoveCmd = &cobra.Command{
	Use:     "rm <name>",
	Aliases: []string{"remove"},
	Short:   "Delete a session and its history",
	Args:    cobra.ExactArgs(1),
	RunE:    runSessionsRemove,
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openArchive()
	if err != nil {
		return err
	}
	defer a.Close()

	names, err := a.Sessions()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(out, colors.Gray("No sessions. Run 'arbor init' to start one."))
		return nil
	}

	current := resolveSessionName(a, cfg)
	for _, name := range names {
		if name == current {
			fmt.Fprintf(out, "* %s\n", colors.Current(name))
		} else {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}

func runSessionsUse(cmd *cobra.Command, args []string) error {
	a, err := openArchive()
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	exists, err := a.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("no session named %q (start it with 'arbor init --session %s')", name, name)
	}
	if err := a.DB().PutMeta(metaCurrentSession, name); err != nil {
		return fmt.Errorf("failed to switch session: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s session %s\n", colors.SuccessText("Switched to"), colors.Bold(name))
	return nil
}

func runSessionsRemove(cmd *cobra.Command, args []string) error {
	a, err := openArchive()
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	if err := a.Delete(name); err != nil {
		return fmt.Errorf("failed to delete session %q: %w", name, err)
	}
	if current, err := a.DB().GetMeta(metaCurrentSession); err == nil && current == name {
		if err := a.DB().PutMeta(metaCurrentSession, ""); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s session %s\n", colors.SuccessText("Deleted"), name)
	return nil
}
