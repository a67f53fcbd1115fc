package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/smartpick/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set smartpick configuration values.

Without arguments, lists all configuration keys and the configured servers.
With one argument, shows the value of that key.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/smartpick/config.yaml (XDG compliant)
unless SMARTPICK_CONFIG points elsewhere.

Keys are in the format: section.key
Sections: picker, provider, log, servers (servers.<language> is the command)

Examples:
  smartpick config                          # List all keys
  smartpick config picker.output            # Get picker.output
  smartpick config picker.output json       # Print results as JSON
  smartpick config servers.go "gopls -remote=auto"`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	switch len(args) {
	case 0:
		return listConfig(out, cfg, paths)
	case 1:
		return getConfig(out, cfg, args[0])
	case 2:
		return setConfig(out, cfg, paths, args[0], args[1])
	}

	return nil
}

func listConfig(out io.Writer, cfg *config.Config, paths *config.Paths) error {
	fmt.Fprintf(out, "%sConfiguration Keys%s\n", colorBold, colorReset)
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintln(out)

	var failedKeys []string
	for _, key := range config.ListKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			failedKeys = append(failedKeys, key)
			continue
		}
		fmt.Fprintf(out, "  %s%s%s = %s\n", colorCyan, key, colorReset, displayValue(value))
	}

	if len(cfg.Servers) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%sServers%s\n", colorBold, colorReset)
		for _, s := range cfg.Servers {
			fmt.Fprintf(out, "  %sservers.%s%s = %s %s(%s)%s\n",
				colorCyan, s.Language, colorReset, s.Command,
				colorDim, strings.Join(s.Extensions, " "), colorReset)
		}
	}

	if len(failedKeys) > 0 {
		fmt.Fprintf(out, "\n%sWarning:%s Failed to retrieve keys: %s\n", colorYellow, colorReset, strings.Join(failedKeys, ", "))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Config file: %s\n", paths.ConfigFile())

	return nil
}

func displayValue(v string) string {
	if v == "" {
		return colorDim + "(not set)" + colorReset
	}
	return v
}

func getConfig(out io.Writer, cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, displayValue(value))
	return nil
}

func setConfig(out io.Writer, cfg *config.Config, paths *config.Paths, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.SaveToFile(paths.ConfigFile()); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s%s%s = %s\n", colorCyan, key, colorReset, value)
	fmt.Fprintf(out, "%sSaved to:%s %s\n", colorGreen, colorReset, paths.ConfigFile())

	return nil
}
