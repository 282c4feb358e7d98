package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/sharpclaw/mk8/internal/config"
	"github.com/sharpclaw/mk8/internal/job"
	"github.com/sharpclaw/mk8/internal/mk8shell"
	"github.com/sharpclaw/mk8/internal/permission"
	"github.com/sharpclaw/mk8/internal/store/pg"
	"github.com/sharpclaw/mk8/pkg/protocol"
)

func jobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and drive AgentJob records",
	}
	cmd.AddCommand(jobGetCmd())
	cmd.AddCommand(jobListCmd())
	cmd.AddCommand(jobStatusCmd())
	cmd.AddCommand(jobSubmitCmd())
	cmd.AddCommand(jobApproveCmd())
	cmd.AddCommand(jobCancelCmd())
	return cmd
}

// gatewayWSURL derives the ws:// URL for the running `mk8 serve` process
// from the same config.GatewayConfig.ListenAddr serve.go binds.
func gatewayWSURL() (string, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	addr := cfg.Gateway.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "ws://" + addr + "/ws", nil
}

// dialGateway opens a client connection to the gateway's /ws endpoint,
// sends cmd, and returns the single reply event it broadcasts back.
// The gateway fans every reply out to all connected clients (spec.md §6
// "Chat-stream events"); a one-shot CLI invocation only ever has itself
// connected, so the first message back is always its own.
func dialGateway(c clientPayload) (protocol.Event, error) {
	url, err := gatewayWSURL()
	if err != nil {
		return protocol.Event{}, err
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return protocol.Event{}, fmt.Errorf("dial gateway at %s: %w", url, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(c); err != nil {
		return protocol.Event{}, fmt.Errorf("send command: %w", err)
	}
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var ev protocol.Event
	if err := conn.ReadJSON(&ev); err != nil {
		return protocol.Event{}, fmt.Errorf("read gateway reply: %w", err)
	}
	return ev, nil
}

// clientPayload mirrors transport.clientCommand's wire shape; it's
// redeclared here rather than imported since transport keeps that type
// unexported.
type clientPayload struct {
	Action       string                      `json:"action"`
	JobID        string                      `json:"jobId,omitempty"`
	Approver     string                      `json:"approver,omitempty"`
	ApproverKind permission.ApproverKind     `json:"approverKind,omitempty"`
	ActionType   string                      `json:"actionType,omitempty"`
	AgentID      string                      `json:"agentId,omitempty"`
	ChannelID    string                      `json:"channelId,omitempty"`
	Kind         job.Kind                    `json:"kind,omitempty"`
	Caller       string                      `json:"caller,omitempty"`
	GlobalAction permission.GlobalAction     `json:"globalAction,omitempty"`
	ResourceKind permission.ResourceKind     `json:"resourceKind,omitempty"`
	ResourceID   string                      `json:"resourceId,omitempty"`
	ContextID    string                      `json:"contextId,omitempty"`
	TaskID       string                      `json:"taskId,omitempty"`
	SandboxID    string                      `json:"sandboxId,omitempty"`
	Script       *mk8shell.Script            `json:"script,omitempty"`
	SubAgentRole *permission.RolePermissions `json:"subAgentRole,omitempty"`
}

func printEvent(ev protocol.Event) error {
	if ev.Type == protocol.EventError {
		return fmt.Errorf("gateway: %s", ev.Error)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ev)
}

func jobSubmitCmd() *cobra.Command {
	var kind, caller, agentID, actionType, globalAction, resourceKind, resourceID string
	var channelID, contextID, taskID, sandboxID, scriptPath string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new AgentJob to the running gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := clientPayload{
				Action: "submit", Kind: job.Kind(kind), Caller: caller, AgentID: agentID,
				ActionType: actionType, GlobalAction: permission.GlobalAction(globalAction),
				ResourceKind: permission.ResourceKind(resourceKind), ResourceID: resourceID,
				ChannelID: channelID, ContextID: contextID, TaskID: taskID, SandboxID: sandboxID,
			}
			if scriptPath != "" {
				data, err := os.ReadFile(scriptPath)
				if err != nil {
					return fmt.Errorf("read script file: %w", err)
				}
				var script mk8shell.Script
				if err := json.Unmarshal(data, &script); err != nil {
					return fmt.Errorf("parse script file: %w", err)
				}
				payload.Script = &script
			}
			ev, err := dialGateway(payload)
			if err != nil {
				return err
			}
			return printEvent(ev)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(job.KindShellExecution), "job kind (ShellExecution|Transcription|CreateSubAgent)")
	cmd.Flags().StringVar(&caller, "caller", "", "caller identity")
	cmd.Flags().StringVar(&agentID, "agent", "", "agent id the job runs as")
	cmd.Flags().StringVar(&actionType, "action-type", "", "action type string passed to permission resolution")
	cmd.Flags().StringVar(&globalAction, "global-action", "", "global action (e.g. CreateSubAgent) for non-resource actions")
	cmd.Flags().StringVar(&resourceKind, "resource-kind", "", "resource kind (SafeShell|DangerousShell|...)")
	cmd.Flags().StringVar(&resourceID, "resource-id", "", "resource id within resource-kind")
	cmd.Flags().StringVar(&channelID, "channel", "", "channel id scoping pre-approvals")
	cmd.Flags().StringVar(&contextID, "context", "", "context id scoping pre-approvals")
	cmd.Flags().StringVar(&taskID, "task", "", "task id scoping pre-approvals")
	cmd.Flags().StringVar(&sandboxID, "sandbox", "", "sandbox id to execute against")
	cmd.Flags().StringVar(&scriptPath, "script", "", "path to a JSON-encoded mk8shell.Script")
	return cmd
}

func jobApproveCmd() *cobra.Command {
	var approver, approverKind string
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a job awaiting approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := dialGateway(clientPayload{
				Action: "approve", JobID: args[0], Approver: approver,
				ApproverKind: permission.ApproverKind(approverKind),
			})
			if err != nil {
				return err
			}
			return printEvent(ev)
		},
	}
	cmd.Flags().StringVar(&approver, "approver", "", "approver identity")
	cmd.Flags().StringVar(&approverKind, "approver-kind", "", "approver kind (WhitelistedAgent|SameLevelUser|WhitelistedUser)")
	return cmd
}

func jobCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a non-terminal job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := dialGateway(clientPayload{Action: "cancel", JobID: args[0]})
			if err != nil {
				return err
			}
			return printEvent(ev)
		},
	}
}

// jobStatusCmd is read-only, so it goes straight at Postgres rather than
// round-tripping through the gateway's live Manager (status never
// mutates state, unlike submit/approve/cancel).
func jobStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show one job's current status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			js, closeFn, err := openJobStore()
			if err != nil {
				return err
			}
			defer closeFn()
			j, err := js.Get(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(j.Status)
			return nil
		},
	}
}

func openJobStore() (*pg.JobStore, func(), error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.PostgresDSN == "" {
		return nil, nil, fmt.Errorf("SHARPCLAW_POSTGRES_DSN environment variable is not set")
	}
	db, err := pg.OpenDB(cfg.Database.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	return pg.NewJobStore(db), func() { db.Close() }, nil
}

func jobGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one job's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			js, closeFn, err := openJobStore()
			if err != nil {
				return err
			}
			defer closeFn()
			j, err := js.Get(context.Background(), args[0])
			if err != nil {
				return err
			}
			printJob(j)
			return nil
		},
	}
}

func jobListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			js, closeFn, err := openJobStore()
			if err != nil {
				return err
			}
			defer closeFn()
			jobs, err := js.ListByStatus(context.Background(), job.Status(status))
			if err != nil {
				return err
			}
			for _, j := range jobs {
				printJob(j)
			}
			fmt.Printf("%d job(s)\n", len(jobs))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", string(job.StatusQueued), "status to filter by")
	return cmd
}

func printJob(j *job.AgentJob) {
	fmt.Printf("%s  %-8s %-16s %-16s sandbox=%s agent=%s\n",
		j.ID, j.Kind, j.Status, j.ActionType, j.SandboxID, j.AgentID)
}
