package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sharpclaw/mk8/internal/job"
	"github.com/sharpclaw/mk8/internal/mk8shell"
	"github.com/sharpclaw/mk8/internal/permission"
)

// JobStore implements store.JobStore backed by Postgres, one row per
// job. It keeps no in-memory cache: every read queries the database.
type JobStore struct {
	db *sql.DB
}

// NewJobStore builds a JobStore bound to db.
func NewJobStore(db *sql.DB) *JobStore { return &JobStore{db: db} }

type jobRow struct {
	Kind         job.Kind
	Caller       string
	AgentID      string
	ActionType   string
	ResourceKind permission.ResourceKind
	ResourceID   string
	ChannelID    string
	ContextID    string
	TaskID       string
	SandboxID    string
	Script       *mk8shell.Script
	SubAgentRole *permission.RolePermissions
	SubAgentID   string
	Verdict      *permission.Verdict
	Result       *job.ExecutionResult
	Failure      *mk8shell.Failure
}

func toRow(j *job.AgentJob) jobRow {
	return jobRow{
		Kind: j.Kind, Caller: j.Caller, AgentID: j.AgentID,
		ActionType: j.ActionType, ResourceKind: j.ResourceKind, ResourceID: j.ResourceID,
		ChannelID: j.ChannelID, ContextID: j.ContextID, TaskID: j.TaskID,
		SandboxID: j.SandboxID, Script: j.Script,
		SubAgentRole: j.SubAgentRole, SubAgentID: j.SubAgentID,
		Verdict: j.Verdict, Result: j.Result, Failure: j.Failure,
	}
}

// Insert persists a newly submitted job (spec.md §4.6 "Submit" step 1).
func (s *JobStore) Insert(ctx context.Context, j *job.AgentJob) error {
	row := toRow(j)
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, payload, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		j.ID, string(j.Status), payload, j.CreatedAt, j.UpdatedAt,
	)
	return err
}

// Update persists the current status/verdict/result/failure for an
// existing job after a lifecycle transition.
func (s *JobStore) Update(ctx context.Context, j *job.AgentJob) error {
	row := toRow(j)
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE jobs SET status = $2, payload = $3, updated_at = $4 WHERE id = $1`,
		j.ID, string(j.Status), payload, j.UpdatedAt,
	)
	return err
}

// ErrJobNotFound is returned by Get for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// Get loads a single job record by id.
func (s *JobStore) Get(ctx context.Context, id string) (*job.AgentJob, error) {
	var status string
	var payload []byte
	var createdAt, updatedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT status, payload, created_at, updated_at FROM jobs WHERE id = $1`, id,
	).Scan(&status, &payload, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query job: %w", err)
	}
	return rowToJob(id, job.Status(status), payload, createdAt, updatedAt)
}

// ListByStatus lists every job currently in status, oldest first.
func (s *JobStore) ListByStatus(ctx context.Context, status job.Status) ([]*job.AgentJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload, created_at, updated_at FROM jobs WHERE status = $1 ORDER BY created_at ASC`,
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("query jobs by status: %w", err)
	}
	defer rows.Close()

	var out []*job.AgentJob
	for rows.Next() {
		var id string
		var payload []byte
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &payload, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		j, err := rowToJob(id, status, payload, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func rowToJob(id string, status job.Status, payload []byte, createdAt, updatedAt time.Time) (*job.AgentJob, error) {
	var row jobRow
	if err := json.Unmarshal(payload, &row); err != nil {
		return nil, fmt.Errorf("unmarshal job payload: %w", err)
	}
	return &job.AgentJob{
		ID: id, Status: status, Kind: row.Kind, Caller: row.Caller, AgentID: row.AgentID,
		ActionType: row.ActionType, ResourceKind: row.ResourceKind, ResourceID: row.ResourceID,
		ChannelID: row.ChannelID, ContextID: row.ContextID, TaskID: row.TaskID,
		SandboxID: row.SandboxID, Script: row.Script,
		SubAgentRole: row.SubAgentRole, SubAgentID: row.SubAgentID,
		Verdict: row.Verdict, Result: row.Result, Failure: row.Failure,
		CreatedAt: createdAt, UpdatedAt: updatedAt,
	}, nil
}
