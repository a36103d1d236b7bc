package cli

import (
	"fmt"
	"strings"

	"github.com/javanhut/arbor/internal/colors"
	"github.com/javanhut/arbor/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get and set configuration options",
	Long: `Get and set arbor configuration options.

Configuration can be set at two levels:
- Global (~/.arborconfig) - applies to all workspaces
- Workspace (.arbor/config) - applies to the current workspace only

Keys:
  core.session         session used when --session is not given
  core.id_style        generated item ids: uuid or phrase
  core.history_limit   undo depth kept per session, 0 for unlimited
  color.ui             colored output

Examples:
  arbor config core.id_style phrase
  arbor config --global core.history_limit 200
  arbor config --list
  arbor config core.session`,
	RunE: runConfig,
}

var (
	configGlobal bool
	configList   bool
)

func init() {
	configCmd.Flags().BoolVar(&configGlobal, "global", false, "Use global config file")
	configCmd.Flags().BoolVar(&configList, "list", false, "List all configuration")
}

func runConfig(cmd *cobra.Command, args []string) error {
	// Handle --list flag
	if configList {
		return listConfig(cmd)
	}

	// Handle get value (1 arg)
	if len(args) == 1 {
		return getConfigValue(cmd, args[0])
	}

	// Handle set value (2 args)
	if len(args) == 2 {
		return setConfigValue(cmd, args[0], args[1], configGlobal)
	}

	// Invalid usage
	return fmt.Errorf("invalid usage. See: arbor config --help")
}

func listConfig(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	section := ""
	for _, key := range config.Keys {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if s, _, _ := strings.Cut(key, "."); s != section {
			if section != "" {
				fmt.Fprintln(out)
			}
			section = s
			fmt.Fprintln(out, colors.SectionHeader(section+":"))
		}
		if value == "" {
			fmt.Fprintf(out, "  %s = %s\n", key, colors.Gray("(not set)"))
		} else {
			fmt.Fprintf(out, "  %s = %s\n", key, colors.InfoText(value))
		}
	}
	return nil
}

func getConfigValue(cmd *cobra.Command, key string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}

	if value == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", key, colors.Gray("(not set)"))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), value)
	}
	return nil
}

func setConfigValue(cmd *cobra.Command, key, value string, global bool) error {
	if err := config.SetValue(workspaceDir, key, value, global); err != nil {
		return err
	}

	scope := "workspace"
	if global {
		scope = "global"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s config: %s = %s\n",
		colors.SuccessText("Set"),
		scope,
		colors.Bold(key),
		colors.InfoText(value))
	return nil
}
