package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sharpclaw/mk8/internal/config"
	"github.com/sharpclaw/mk8/internal/container"
	"github.com/sharpclaw/mk8/internal/job"
	"github.com/sharpclaw/mk8/internal/mk8shell"
	"github.com/sharpclaw/mk8/internal/permission"
	"github.com/sharpclaw/mk8/internal/store"
	"github.com/sharpclaw/mk8/internal/store/pg"
	"github.com/sharpclaw/mk8/internal/transport"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the AgentJob chat-stream gateway",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	stores, err := pg.NewPGStores(store.Config{PostgresDSN: cfg.Database.PostgresDSN})
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	appDir := config.ExpandHome(cfg.Mk8shell.AppDataDir)
	registry, err := container.NewRegistry(filepath.Join(appDir, "sandboxes.json"))
	if err != nil {
		slog.Error("failed to load sandbox registry", "error", err)
		os.Exit(1)
	}
	defer registry.Close()

	containers := container.New(registry, filepath.Join(appDir, "mk8.shell.key"), filepath.Join(appDir, "globalenv.json"))
	fragments, err := mk8shell.NewFragmentRegistry(nil)
	if err != nil {
		slog.Error("failed to seed fragment registry", "error", err)
		os.Exit(1)
	}

	events := make(chan job.Event, 256)
	worker := job.NewWorker(containers, fragments, mk8shell.VarBag{})

	roleLookup := func(ctx context.Context, agentID string) (permission.RolePermissions, error) {
		return store.ResolveRole(ctx, stores.Roles, stores.Grants, agentID)
	}
	preapprovalLookup := func(ctx context.Context, channelID, contextID, taskID string) (permission.PreapprovalSet, error) {
		return stores.Preapprovals.LoadSet(ctx, channelID, contextID, taskID)
	}

	manager := job.NewManager(roleLookup, preapprovalLookup, worker, events).WithPersistence(stores.Jobs)
	wsServer := transport.NewServer(manager, nil)

	go func() {
		for ev := range events {
			wsServer.Broadcast(ev)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/ws", wsServer)

	addr := cfg.Gateway.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	httpServer := &http.Server{Addr: addr, Handler: mux}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("graceful shutdown initiated", "signal", sig)
		close(events)
		httpServer.Shutdown(context.Background())
		cancel()
	}()

	slog.Info("mk8 gateway starting", "version", Version, "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("gateway error", "error", err)
		os.Exit(1)
	}
}
