// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"mnetest/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the config command tree for managing the
// mnetest configuration file.
func newConfigCommand(app *App, rootOpts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mnetest configuration",
		Long: `Manage the mnetest configuration file.

Configuration locations (first found wins):
  - Linux:   ~/.config/mnetest/config.cue
  - macOS:   ~/Library/Application Support/mnetest/config.cue
  - Windows: %APPDATA%\mnetest\config.cue
  - ./config.cue in the current directory as a fallback`,
	}

	configCmd.AddCommand(newConfigShowCommand(app, rootOpts))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigPathCommand())
	configCmd.AddCommand(newConfigSetCommand(app, rootOpts))
	configCmd.AddCommand(newConfigDumpCommand(app, rootOpts))

	return configCmd
}

func newConfigShowCommand(app *App, rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			cfg, path, err := app.Config.LoadWithPath(cmd.Context(), config.LoadOptions{ConfigFilePath: rootOpts.cfgFile})
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Fprintln(stdout, TitleStyle.Render("Configuration"))
			if path == "" {
				fmt.Fprintln(stdout, VerboseStyle.Render("(using built-in defaults, no config file found)"))
			} else {
				fmt.Fprintln(stdout, VerboseStyle.Render("loaded from "+path))
			}
			fmt.Fprintln(stdout)

			fmt.Fprintf(stdout, "  %s %s\n", CmdStyle.Render("runner:"), SuccessStyle.Render(cfg.Runner.String()))
			fmt.Fprintf(stdout, "  %s %s\n", CmdStyle.Render("package:"), SuccessStyle.Render(cfg.Package.String()))
			fmt.Fprintf(stdout, "  %s %s\n", CmdStyle.Render("extra_args:"), SuccessStyle.Render(displayList(cfg.ExtraArgs)))
			fmt.Fprintf(stdout, "  %s %s\n", CmdStyle.Render("env_file:"), SuccessStyle.Render(displayOrNone(cfg.EnvFile.String())))
			fmt.Fprintf(stdout, "  %s %s\n", CmdStyle.Render("hooks.pre_run:"), SuccessStyle.Render(displayOrNone(cfg.Hooks.PreRun.String())))
			fmt.Fprintf(stdout, "  %s %s\n", CmdStyle.Render("ui.color_scheme:"), SuccessStyle.Render(cfg.UI.ColorScheme.String()))
			fmt.Fprintf(stdout, "  %s %s\n", CmdStyle.Render("ui.verbose:"), SuccessStyle.Render(strconv.FormatBool(cfg.UI.Verbose)))

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			if err := config.CreateDefaultConfig(""); err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}

			path, err := configFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s Configuration file ready at %s\n", passIcon, path)
			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newConfigSetCommand(app *App, rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value and write the config file.

Available keys:
  runner           test runner executable
  package          coverage package
  env_file         dotenv file loaded before each run
  hooks.pre_run    shell script run before the test invocation
  ui.color_scheme  auto, dark or light
  ui.verbose       true or false`,
		Example: `  mnetest config set runner pytest
  mnetest config set ui.verbose true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			key, value := args[0], args[1]

			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: rootOpts.cfgFile})
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}

			if valid, errs := cfg.IsValid(); !valid {
				return fmt.Errorf("rejected value for %s: %w", key, errs[0])
			}

			if err := config.Save(cfg, ""); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Fprintf(stdout, "%s Set %s = %s\n", passIcon, key, value)
			return nil
		},
	}
}

func newConfigDumpCommand(app *App, rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: rootOpts.cfgFile})
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		},
	}
}

// setConfigValue assigns a dotted key. Validation happens afterwards on
// the whole config, so cross-field rules see the final state.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "runner":
		cfg.Runner = config.RunnerName(value)
	case "package":
		cfg.Package = config.PackageName(value)
	case "env_file":
		cfg.EnvFile = config.EnvFilePath(value)
	case "hooks.pre_run":
		cfg.Hooks.PreRun = config.HookScript(value)
	case "ui.color_scheme":
		cfg.UI.ColorScheme = config.ColorScheme(value)
	case "ui.verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for ui.verbose: %q", value)
		}
		cfg.UI.Verbose = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// configFilePath returns the platform path of the config file, whether
// or not it exists yet.
func configFilePath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt), nil
}

func displayList(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, " ")
}

func displayOrNone(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}
