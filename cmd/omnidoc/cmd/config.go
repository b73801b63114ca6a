package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Config prints the merged configuration as YAML: defaults, then the
config file, then OMNIDOC_* environment variables and flags. Secrets
are redacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings := viper.GetViper().AllSettings()
		redact(settings, "api_key")

		out, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		if file := viper.ConfigFileUsed(); file != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", file)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// redact blanks every occurrence of key in a nested settings map.
func redact(m map[string]any, key string) {
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			redact(nested, key)
			continue
		}
		if k == key {
			if s, ok := v.(string); ok && s != "" {
				m[k] = "[redacted]"
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}
