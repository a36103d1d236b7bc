package cli

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/javanhut/arbor/internal/archive"
	"github.com/javanhut/arbor/internal/check"
	"github.com/javanhut/arbor/internal/colors"
	"github.com/javanhut/arbor/internal/config"
	"github.com/javanhut/arbor/internal/history"
	"github.com/javanhut/arbor/internal/tree"
	"github.com/spf13/cobra"
)

var (
	workspaceDir = config.WorkspaceDirName
	sessionName  string
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor is an indexed tree editor with undo history",
	Long: `Arbor keeps a tree of labeled items in a workspace and records every
edit as a snapshot, so any change can be undone and redone.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupColors,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a workspace session",
	Long: `Creates the workspace directory (if needed) and starts a new session whose
first history state is either empty or the contents of an items file.

Examples:
  arbor init
  arbor init --from items.json
  arbor init --from items.yaml --session draft`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initFrom   string
	initFormat string
	initForce  bool
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workspaceDir, "dir", config.WorkspaceDirName, "Workspace directory")
	rootCmd.PersistentFlags().StringVarP(&sessionName, "session", "s", "", "Session to operate on (default: current session)")

	initCmd.Flags().StringVar(&initFrom, "from", "", "Seed the session from a JSON or YAML items file")
	initCmd.Flags().StringVar(&initFormat, "format", "", "Format of --from (json or yaml, default: by extension)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing session")

	// Workspace
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(sessionsCmd, whereamiCmd)
	sessionsCmd.AddCommand(sessionsUseCmd, sessionsRemoveCmd)

	// Editing
	rootCmd.AddCommand(addCmd, removeCmd, moveCmd, renameCmd, setCmd)
	rootCmd.AddCommand(importCmd, exportCmd, resetCmd)

	// Viewing
	rootCmd.AddCommand(listCmd, showCmd, pathCmd, descendantsCmd)

	// History
	rootCmd.AddCommand(undoCmd, redoCmd, logCmd, snapshotCmd, diffCmd)
}

func setupColors(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(workspaceDir)
	if err != nil {
		// init and config must still work with a broken file.
		log.Printf("Warning: %v", err)
		return nil
	}
	if !cfg.Color.UI {
		colors.SetColorEnabled(false)
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var items []tree.Item
	if initFrom != "" {
		items, err = readItemsFile(initFrom, initFormat)
		if err != nil {
			return err
		}
		if err := vetItems(items, "initialized"); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(workspaceDir, 0755); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	a, err := archive.Open(workspaceDir)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer a.Close()

	name := resolveSessionName(a, cfg)
	exists, err := a.Exists(name)
	if err != nil {
		return err
	}
	if exists && !initForce {
		return fmt.Errorf("session %q already exists (use --force to start it over)", name)
	}

	st := tree.New(items)

	mgr := history.NewManager(cfg.Core.HistoryLimit)
	mgr.Init(st)
	if err := a.Save(name, mgr); err != nil {
		return fmt.Errorf("failed to save session %q: %w", name, err)
	}

	fmt.Fprintf(out, "%s session %s with %d item(s) in %s\n",
		colors.SuccessText("Initialized"), colors.Bold(name), st.Len(), workspaceDir)
	return nil
}

// vetItems refuses items that reuse a label, like add does, and logs
// dangling parents and cycles.
func vetItems(items []tree.Item, action string) error {
	report := check.Forest(items)
	if len(report.Duplicates) > 0 {
		d := report.Duplicates[0]
		return fmt.Errorf("label %q is used by items %s, nothing was %s", d.Label, joinIDs(d.IDs), action)
	}
	for _, d := range report.Dangling {
		log.Printf("Warning: item %s points at missing parent %s", d.Item, d.Parent)
	}
	for _, c := range report.Cycles {
		log.Printf("Warning: parent links form a cycle: %v", c)
	}
	return nil
}

func joinIDs(ids []tree.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
