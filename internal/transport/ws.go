// Package transport hosts the chat-stream's WebSocket push path: an
// alternative to SSE for clients that want a bidirectional connection
// (submit/approve/cancel RPCs plus the same event stream pkg/protocol
// defines), grounded on a gateway server's
// Upgrader/handleWebSocket/Client shape.
package transport

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sharpclaw/mk8/internal/job"
	"github.com/sharpclaw/mk8/internal/mk8shell"
	"github.com/sharpclaw/mk8/internal/permission"
	"github.com/sharpclaw/mk8/pkg/protocol"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Server upgrades chat-stream connections and bridges each one to a
// job.Manager. One Server serves many concurrent WebSocket clients;
// each client gets its own read/write goroutine pair.
type Server struct {
	manager *job.Manager

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

// AllowedOrigins, when non-empty, restricts CheckOrigin to that set
// (empty = allow all, a dev-mode fallback).
func NewServer(manager *job.Manager, allowedOrigins []string) *Server {
	s := &Server{manager: manager, clients: map[string]*client{}}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowedOrigins {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	return s
}

// ServeHTTP upgrades the connection and runs the client loop until the
// connection closes or the request context is cancelled.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("transport: websocket upgrade failed", "error", err)
		return
	}
	c := &client{id: r.RemoteAddr, conn: conn, server: s}
	s.register(c)
	defer func() {
		s.unregister(c)
		conn.Close()
	}()
	c.run(r.Context())
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c.id)
}

// Broadcast pushes ev to every connected client, dropping it for any
// client whose write queue can't keep up rather than blocking.
func (s *Server) Broadcast(ev job.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.send(ev)
	}
}

type client struct {
	id     string
	conn   *websocket.Conn
	server *Server

	writeMu sync.Mutex
}

// clientCommand is an inbound RPC: {"action":"submit|approve|cancel", ...}
type clientCommand struct {
	Action       string                  `json:"action"`
	JobID        string                  `json:"jobId,omitempty"`
	Approver     string                  `json:"approver,omitempty"`
	ApproverKind permission.ApproverKind `json:"approverKind,omitempty"`
	ActionType   string                  `json:"actionType,omitempty"`
	AgentID      string                  `json:"agentId,omitempty"`
	ChannelID    string                  `json:"channelId,omitempty"`

	// submit-only fields.
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

func (c *client) run(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.writeMu.Lock()
				c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				err := c.conn.WriteMessage(websocket.PingMessage, nil)
				c.writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		var cmd clientCommand
		if err := c.conn.ReadJSON(&cmd); err != nil {
			return
		}
		c.handle(ctx, cmd)
	}
}

func (c *client) handle(ctx context.Context, cmd clientCommand) {
	switch cmd.Action {
	case "submit":
		j, err := c.server.manager.Submit(ctx, job.SubmitRequest{
			Kind: cmd.Kind, Caller: cmd.Caller, AgentID: cmd.AgentID,
			ActionType: cmd.ActionType, GlobalAction: cmd.GlobalAction,
			ResourceKind: cmd.ResourceKind, ResourceID: cmd.ResourceID,
			ChannelID: cmd.ChannelID, ContextID: cmd.ContextID, TaskID: cmd.TaskID,
			SandboxID: cmd.SandboxID, Script: cmd.Script, SubAgentRole: cmd.SubAgentRole,
		})
		if err != nil {
			c.sendError(err.Error())
			return
		}
		// Submit's own transitions already broadcast via manager.emit;
		// this direct reply just saves the caller from having to
		// correlate a job id out of the general broadcast stream.
		c.send(job.Event{Type: job.EventToolCallStart, Job: j})
	case "approve":
		if err := c.server.manager.Approve(ctx, cmd.JobID, cmd.Approver, cmd.ApproverKind); err != nil {
			c.sendError(err.Error())
		}
	case "cancel":
		if err := c.server.manager.Cancel(cmd.JobID); err != nil {
			c.sendError(err.Error())
		}
	default:
		c.sendError("unknown action: " + cmd.Action)
	}
}

func (c *client) send(ev job.Event) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteJSON(ev.ToProtocol())
}

func (c *client) sendError(msg string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteJSON(protocol.Event{Type: protocol.EventError, Error: msg})
}
