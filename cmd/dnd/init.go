package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dnd/internal/config"
	"github.com/vango-dev/dnd/internal/errors"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default dnd.json",
		Long: `Write a dnd.json with default settings for "dnd serve".

Examples:
  dnd init
  dnd init ./site --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing dnd.json")

	return cmd
}

func runInit(dir string, force bool) error {
	if config.Exists(dir) && !force {
		return errors.New(errors.CLIUsage).
			WithDetailf("%s already exists", filepath.Join(dir, config.ConfigFileName)).
			WithSuggestion("Pass --force to overwrite it.")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, config.ConfigFileName)
	if err := config.New().SaveTo(path); err != nil {
		return err
	}
	success("Wrote %s", path)
	info("Run \"dnd serve --config %s\" to start the bridge", path)
	return nil
}
