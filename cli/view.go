package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/javanhut/arbor/internal/colors"
	"github.com/javanhut/arbor/internal/tree"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "ls [id]",
	Aliases: []string{"list"},
	Short:   "Show the tree",
	Long: `Shows the whole tree, or the subtree under one item.

Items whose parent does not exist are shown at the top level.

Examples:
  arbor ls
  arbor ls chapter-1
  arbor ls --flat`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one item with its payload",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var pathCmd = &cobra.Command{
	Use:   "path <id>",
	Short: "Show the chain of ancestors of an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runPath,
}

var descendantsCmd = &cobra.Command{
	Use:   "descendants <id>",
	Short: "List every item below an item, depth first",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescendants,
}

var listFlat bool

func init() {
	listCmd.Flags().BoolVar(&listFlat, "flat", false, "List items in insertion order without nesting")
}

func runList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if s.store.Len() == 0 {
		fmt.Fprintln(out, colors.Gray("(empty)"))
		return nil
	}

	if listFlat {
		for _, item := range s.store.GetAll() {
			fmt.Fprintln(out, formatItem(item))
		}
		return nil
	}

	var roots []tree.Item
	if len(args) == 1 {
		item, err := s.mustGet(args[0])
		if err != nil {
			return err
		}
		roots = []tree.Item{item}
	} else {
		roots = topLevel(s.store)
	}
	printTree(out, s.store, roots)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	item, err := s.mustGet(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %s\n", colors.SectionHeader("Item"), colors.ItemID(item.ID.String()))
	fmt.Fprintf(out, "  label:    %s\n", colors.Label(item.Label))
	if item.IsRoot() {
		fmt.Fprintf(out, "  parent:   %s\n", colors.Gray("(none)"))
	} else if s.store.Has(item.Parent) {
		fmt.Fprintf(out, "  parent:   %s\n", colors.ItemID(item.Parent.String()))
	} else {
		fmt.Fprintf(out, "  parent:   %s %s\n", colors.ItemID(item.Parent.String()), colors.WarningText("(missing)"))
	}
	fmt.Fprintf(out, "  children: %d\n", len(s.store.GetChildren(item.ID)))

	if len(item.Extra) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, colors.SectionHeader("Payload"))
		for _, k := range item.ExtraKeys() {
			fmt.Fprintf(out, "  %s = %s\n", k, colors.InfoText(compactJSON(item.Extra[k])))
		}
	}
	return nil
}

func runPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	item, err := s.mustGet(args[0])
	if err != nil {
		return err
	}

	chain := s.store.GetAllParents(item.ID)
	labels := make([]string, len(chain))
	for i, item := range chain {
		// chain runs item -> root; print root first
		labels[len(chain)-1-i] = colors.Label(item.Label)
	}
	fmt.Fprintln(out, strings.Join(labels, colors.Gray(" / ")))
	return nil
}

func runDescendants(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	root, err := s.mustGet(args[0])
	if err != nil {
		return err
	}
	for _, item := range s.store.GetAllChildren(root.ID) {
		fmt.Fprintln(out, formatItem(item))
	}
	return nil
}

// topLevel returns items with no parent or a parent that is not stored.
func topLevel(s *tree.Store) []tree.Item {
	var roots []tree.Item
	for _, item := range s.GetAll() {
		if item.IsRoot() || !s.Has(item.Parent) {
			roots = append(roots, item)
		}
	}
	return roots
}

// printTree writes an indented outline. Items reached twice (only possible
// through a parent cycle) are printed once.
func printTree(w io.Writer, s *tree.Store, roots []tree.Item) {
	type frame struct {
		item  tree.Item
		depth int
	}
	seen := make(map[tree.ID]bool)
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{roots[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[f.item.ID] {
			continue
		}
		seen[f.item.ID] = true

		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", f.depth), formatItem(f.item))

		children := s.GetChildren(f.item.ID)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], f.depth + 1})
		}
	}
}

func formatItem(item tree.Item) string {
	return fmt.Sprintf("%s %s", colors.Label(item.Label), colors.ItemID("("+item.ID.String()+")"))
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
