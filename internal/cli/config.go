package cli

import (
	"fmt"

	"github.com/nextbase-labs/nextbase/internal/branding"
	"github.com/nextbase-labs/nextbase/internal/config"
	"github.com/nextbase-labs/nextbase/internal/pkgmanager"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write ` + branding.DisplayName() + ` configuration stored at ~/` + branding.HomeDir() + `/config.yaml.

Keys:
  template_repo     git URL of the project template
  template_branch   branch or tag of the template to clone
  package_manager   yarn, npm, pnpm, bun or auto
  install_command   shell command run instead of "<package_manager> install"
  install_timeout   deadline for the install step (e.g. 10m); 0 disables it
  initial_branch    default branch of the new repository`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if key == config.KeyPackageManager && value != pkgmanager.Auto {
			if _, err := pkgmanager.Lookup(value); err != nil {
				return usageError(err)
			}
		}
		if err := config.Set(key, value); err != nil {
			return usageError(fmt.Errorf("setting config key %q: %w", key, err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !config.IsKnownKey(args[0]) {
			return usageError(fmt.Errorf("unknown config key %q", args[0]))
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.Get(args[0]))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every configuration value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		all := config.All()
		fmt.Fprintln(out, mutedStyle.Render("# "+config.FilePath()))
		for _, k := range config.Keys {
			fmt.Fprintf(out, "%s = %s\n", k, all[k])
		}
		return nil
	},
}
