package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/javanhut/arbor/internal/colors"
	"github.com/javanhut/arbor/internal/diff"
	"github.com/javanhut/arbor/internal/keys"
	"github.com/javanhut/arbor/internal/tree"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <label> [key=value...]",
	Short: "Add an item",
	Long: `Adds a new item with the given label. Labels are unique within a session;
adding a label that is already taken is refused and nothing is recorded.

Payload fields are given as key=value. Values that parse as JSON are stored
as JSON, anything else is stored as a string.

Examples:
  arbor add Chapters
  arbor add "Chapter 1" --parent 3f2a...
  arbor add Intro --id intro --parent chapter-1 words=1200 draft=true`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var removeCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove an item and all of its descendants",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

var moveCmd = &cobra.Command{
	Use:   "mv <id> <new-parent>",
	Short: "Move an item under a new parent",
	Long: `Moves an item (and its subtree) under another item. Use "-" as the new
parent to make the item a root.

Examples:
  arbor mv intro chapter-2
  arbor mv intro -`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

var renameCmd = &cobra.Command{
	Use:   "rename <id> <label>",
	Short: "Change an item's label",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var setCmd = &cobra.Command{
	Use:   "set <id> key=value...",
	Short: "Set payload fields on an item",
	Long: `Sets payload fields on an item. Values that parse as JSON are stored as JSON,
anything else is stored as a string. Use --unset to remove fields.

Examples:
  arbor set intro words=1500 tags='["draft","short"]'
  arbor set intro status=done
  arbor set intro --unset tags`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

var (
	addParent string
	addID     string
	setUnset  string
)

// rootParent is how the command line spells the null parent.
const rootParent = "-"

func init() {
	addCmd.Flags().StringVarP(&addParent, "parent", "p", "", "Parent item id (default: new root)")
	addCmd.Flags().StringVar(&addID, "id", "", "Item id (default: generated per core.id_style)")
	setCmd.Flags().StringVar(&setUnset, "unset", "", "Comma separated payload fields to remove")
}

func runAdd(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	extra, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}

	id := tree.ID(addID)
	if id.IsInt() {
		return fmt.Errorf("invalid id %q", addID)
	}
	if id == tree.Root {
		if id, err = keys.Generate(s.store, s.cfg.Core.IDStyle); err != nil {
			return err
		}
	}
	parent, err := s.parent(addParent)
	if err != nil {
		return err
	}
	if s.store.Has(id) {
		return fmt.Errorf("item %q already exists", id)
	}

	item := tree.Item{ID: id, Parent: parent, Label: args[0], Extra: extra}
	if err := s.store.AddItem(item); err != nil {
		var dup *tree.DuplicateLabelError
		if errors.As(err, &dup) {
			return fmt.Errorf("label %q is already used by item %s, nothing was added", dup.Label, dup.Existing)
		}
		return err
	}
	if err := s.commit(); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %s %s\n", colors.SuccessText("Added"), colors.Label(item.Label), colors.ItemID(id.String()))
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
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
	descendants := len(s.store.GetAllChildren(item.ID))

	s.store.RemoveItem(item.ID)
	if err := s.commit(); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %s %s", colors.SuccessText("Removed"), colors.Label(item.Label), colors.ItemID(item.ID.String()))
	if descendants > 0 {
		fmt.Fprintf(out, " and %d descendant(s)", descendants)
	}
	fmt.Fprintln(out)
	return nil
}

func runMove(cmd *cobra.Command, args []string) error {
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
	parent, err := s.parent(args[1])
	if err != nil {
		return err
	}
	if parent != tree.Root {
		if parent == item.ID {
			return fmt.Errorf("cannot move %s under itself", item.ID)
		}
		for _, d := range s.store.GetAllChildren(item.ID) {
			if d.ID == parent {
				return fmt.Errorf("cannot move %s under its own descendant %s", item.ID, parent)
			}
		}
	}
	if item.Parent == parent {
		fmt.Fprintln(out, colors.Gray("Already there, nothing changed."))
		return nil
	}

	item.Parent = parent
	s.store.UpdateItem(item)
	if err := s.commit(); err != nil {
		return err
	}

	where := "the top level"
	if parent != tree.Root {
		where = parent.String()
	}
	fmt.Fprintf(out, "%s %s to %s\n", colors.SuccessText("Moved"), colors.Label(item.Label), colors.ItemID(where))
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
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
	label := args[1]
	if item.Label == label {
		fmt.Fprintln(out, colors.Gray("Label unchanged, nothing changed."))
		return nil
	}
	if holder, taken := s.store.LabelHolder(label); taken {
		return fmt.Errorf("label %q is already used by item %s, nothing was renamed", label, holder)
	}

	old := item.Label
	item.Label = label
	s.store.UpdateItem(item)
	if err := s.commit(); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %s to %s\n", colors.SuccessText("Renamed"), colors.Label(old), colors.Label(label))
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
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
	fields, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	var unset []string
	if setUnset != "" {
		unset = strings.Split(setUnset, ",")
	}
	if len(fields) == 0 && len(unset) == 0 {
		return fmt.Errorf("nothing to set. See: arbor set --help")
	}

	updated := item.Clone()
	if updated.Extra == nil {
		updated.Extra = map[string]json.RawMessage{}
	}
	for k, v := range fields {
		updated.Extra[k] = v
	}
	for _, k := range unset {
		delete(updated.Extra, strings.TrimSpace(k))
	}

	changes := diff.Items([]tree.Item{item}, []tree.Item{updated})
	if len(changes) == 0 {
		fmt.Fprintln(out, colors.Gray("Values unchanged, nothing changed."))
		return nil
	}

	s.store.UpdateItem(updated)
	if err := s.commit(); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %s on %s\n", colors.SuccessText("Updated"),
		strings.Join(changes[0].Fields.Payload, ", "), colors.ItemID(item.ID.String()))
	return nil
}

// parseAssignments turns key=value arguments into payload fields.
func parseAssignments(args []string) (map[string]json.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	fields := make(map[string]json.RawMessage, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q (expected key=value)", arg)
		}
		switch key {
		case "id", "parent", "label":
			return nil, fmt.Errorf("%q is not a payload field", key)
		}
		fields[key] = payloadValue(value)
	}
	return fields, nil
}

// payloadValue keeps valid JSON as is and quotes everything else.
func payloadValue(s string) json.RawMessage {
	if s != "" && json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	quoted, _ := json.Marshal(s)
	return quoted
}
