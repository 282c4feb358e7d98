package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sharpclaw/mk8/internal/config"
	"github.com/sharpclaw/mk8/internal/container"
	"github.com/sharpclaw/mk8/internal/store/pg"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("mk8 doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  mk8.shell app data:")
	appDir := config.ExpandHome(cfg.Mk8shell.AppDataDir)
	checkSigningKey(appDir)
	checkSandboxRegistry(appDir)
	checkGlobalEnv(appDir)

	fmt.Println()
	fmt.Println("  Database:")
	if cfg.Database.PostgresDSN == "" {
		fmt.Println("    DSN:         (not set; SHARPCLAW_POSTGRES_DSN)")
	} else {
		db, err := pg.OpenDB(cfg.Database.PostgresDSN)
		if err != nil {
			fmt.Printf("    Status:      CONNECT FAILED (%s)\n", err)
		} else {
			defer db.Close()
			fmt.Println("    Status:      OK")
		}
	}

	fmt.Println()
	fmt.Println("  External Tools:")
	checkBinary("docker")
	checkBinary("git")
	checkBinary("curl")

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkSigningKey(appDir string) {
	path := filepath.Join(appDir, "mk8.shell.key")
	if _, err := container.LoadOrCreateKey(path); err != nil {
		fmt.Printf("    %-12s NOT READABLE (%s)\n", "Signing key:", err)
		return
	}
	fmt.Printf("    %-12s %s (OK)\n", "Signing key:", path)
}

func checkSandboxRegistry(appDir string) {
	path := filepath.Join(appDir, "sandboxes.json")
	reg, err := container.NewRegistry(path)
	if err != nil {
		fmt.Printf("    %-12s PARSE FAILED (%s)\n", "Sandboxes:", err)
		return
	}
	reg.Close()
	fmt.Printf("    %-12s %s (OK)\n", "Sandboxes:", path)
}

func checkGlobalEnv(appDir string) {
	path := filepath.Join(appDir, "globalenv.json")
	g, err := container.LoadGlobalEnvCached(path)
	if err != nil {
		fmt.Printf("    %-12s PARSE FAILED (%s)\n", "Global env:", err)
		return
	}
	status := "(OK, default)"
	if _, err := os.Stat(path); err == nil {
		status = "(OK)"
	}
	fmt.Printf("    %-12s %s %s\n", "Global env:", path, status)
	fmt.Printf("    %-12s disableHardcodedGigablacklist=%v disableMk8shellEnvsGigablacklist=%v\n",
		"", g.DisableHardcodedGigablacklist, g.DisableMk8shellEnvsGigablacklist)
}

func checkBinary(name string) {
	path, err := exec.LookPath(name)
	if err != nil {
		fmt.Printf("    %-12s NOT FOUND\n", name+":")
	} else {
		fmt.Printf("    %-12s %s\n", name+":", path)
	}
}
