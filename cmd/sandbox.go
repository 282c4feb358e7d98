package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sharpclaw/mk8/internal/config"
	"github.com/sharpclaw/mk8/internal/container"
)

func sandboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Inspect the sandbox registry",
	}
	cmd.AddCommand(sandboxResolveCmd())
	cmd.AddCommand(sandboxListCmd())
	cmd.AddCommand(sandboxShowCmd())
	return cmd
}

func openSandboxRegistry() (*container.Registry, func(), error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	appDir := config.ExpandHome(cfg.Mk8shell.AppDataDir)
	reg, err := container.NewRegistry(filepath.Join(appDir, "sandboxes.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("load sandbox registry: %w", err)
	}
	return reg, func() { reg.Close() }, nil
}

func printSandboxEntry(e container.Entry) {
	fmt.Printf("id:           %s\n", e.ID)
	fmt.Printf("rootPath:     %s\n", e.RootPath)
	fmt.Printf("registeredAt: %s\n", e.RegisteredAtUTC)
}

func sandboxResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve a sandbox id against the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, closeFn, err := openSandboxRegistry()
			if err != nil {
				return err
			}
			defer closeFn()

			entry, err := reg.Resolve(args[0])
			if err != nil {
				return err
			}
			printSandboxEntry(entry)
			return nil
		},
	}
}

func sandboxListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered sandbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, closeFn, err := openSandboxRegistry()
			if err != nil {
				return err
			}
			defer closeFn()

			entries := reg.Entries()
			for _, e := range entries {
				fmt.Printf("%s  %s  %s\n", e.ID, e.RootPath, e.RegisteredAtUTC)
			}
			fmt.Printf("%d sandbox(es)\n", len(entries))
			return nil
		},
	}
}

func sandboxShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one sandbox's registry entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, closeFn, err := openSandboxRegistry()
			if err != nil {
				return err
			}
			defer closeFn()

			entry, err := reg.Resolve(args[0])
			if err != nil {
				return err
			}
			printSandboxEntry(entry)
			return nil
		},
	}
}
