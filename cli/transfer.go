package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/javanhut/arbor/internal/colors"
	"github.com/javanhut/arbor/internal/tree"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the tree with the items in a file",
	Long: `Replaces the whole tree with the items listed in a JSON or YAML file. The
import is recorded as one edit and can be undone.

Files hold a list of items, each with id, parent and label; any other field
is kept as payload.

Examples:
  arbor import items.json
  arbor import outline.yml
  arbor import dump.txt --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the tree's items as JSON or YAML",
	Long: `Writes every item of the current state in insertion order.

Examples:
  arbor export
  arbor export --format yaml
  arbor export -o items.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var (
	importFormat string
	exportFormat string
	exportOutput string
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "", "Input format: json or yaml (default: by extension)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Output format: json or yaml (default: by extension, else json)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
}

func runImport(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	items, err := readItemsFile(args[0], importFormat)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := vetItems(items, "imported"); err != nil {
		return err
	}
	s.store.Replace(items)
	if err := s.commit(); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %d item(s) from %s\n", colors.SuccessText("Imported"), s.store.Len(), args[0])
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := resolveFormat(exportOutput, exportFormat)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := encodeItems(s.store.GetAll(), format)
	if err != nil {
		return err
	}

	if exportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOutput, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d item(s) to %s\n", colors.SuccessText("Exported"), s.store.Len(), exportOutput)
	return nil
}

// resolveFormat picks the explicit format, else one from the file extension,
// else JSON.
func resolveFormat(path, explicit string) (string, error) {
	switch strings.ToLower(explicit) {
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	case "":
	default:
		return "", fmt.Errorf("unknown format %q (expected json or yaml)", explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return formatJSON, nil
	}
}

func readItemsFile(path, format string) ([]tree.Item, error) {
	format, err := resolveFormat(path, format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	items, err := decodeItems(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return items, nil
}

// decodeItems parses a list of items. YAML documents are converted to JSON
// first so both formats share Item's decoding rules.
func decodeItems(data []byte, format string) ([]tree.Item, error) {
	if format == formatYAML {
		var docs []map[string]any
		if err := yaml.Unmarshal(data, &docs); err != nil {
			return nil, err
		}
		converted, err := json.Marshal(docs)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	var items []tree.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	seen := make(map[tree.ID]bool, len(items))
	for i, item := range items {
		if seen[item.ID] {
			return nil, fmt.Errorf("item %d: id %q appears more than once", i, item.ID)
		}
		seen[item.ID] = true
	}
	return items, nil
}

func encodeItems(items []tree.Item, format string) ([]byte, error) {
	if items == nil {
		items = []tree.Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, err
	}
	if format != formatYAML {
		return append(data, '\n'), nil
	}

	var docs []any
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	return yaml.Marshal(docs)
}
