package job

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sharpclaw/mk8/internal/container"
	"github.com/sharpclaw/mk8/internal/executor"
	"github.com/sharpclaw/mk8/internal/mk8shell"
)

// Worker runs the body of one dispatched job: for a ShellExecution job,
// builds a task container, compiles the script, and runs the verb
// executor; for a Transcription job, opens a broadcast channel and
// blocks until the job is cancelled (spec.md §4.6 "Worker"). A job
// never hard-fails the caller on a non-catastrophic error — it records
// the failure on the job instead.
type Worker struct {
	containers *container.Container
	fragments  mk8shell.FragmentResolver
	vars       mk8shell.VarBag

	broadcasts *Broadcaster
}

// NewWorker builds a Worker bound to the task-container factory and
// fragment resolver every compiled script needs.
func NewWorker(containers *container.Container, fragments mk8shell.FragmentResolver, vars mk8shell.VarBag) *Worker {
	return &Worker{containers: containers, fragments: fragments, vars: vars, broadcasts: NewBroadcaster()}
}

// Broadcaster exposes the transcription fan-out so segment producers
// (audio device verbs) and subscribers (the transport layer) outside
// this package can Publish/Subscribe per job id.
func (w *Worker) Broadcaster() *Broadcaster { return w.broadcasts }

// Run dispatches on j.Kind and records the outcome directly on j. Run
// never returns an error: every failure mode (container, compile, step)
// is captured as job state instead (spec.md §9 "Exceptions for control
// flow").
func (w *Worker) Run(ctx context.Context, j *AgentJob) {
	switch j.Kind {
	case KindTranscription:
		w.runTranscription(ctx, j)
	case KindCreateSubAgent:
		w.runCreateSubAgent(ctx, j)
	default:
		w.runShell(ctx, j)
	}
}

// runCreateSubAgent never touches a container: by the time a
// CreateSubAgent job reaches Executing, Submit has already confirmed
// the requested role Dominates-checks clean against the parent's, so
// this step is pure bookkeeping — mint the new agent identity and
// record it on the job.
func (w *Worker) runCreateSubAgent(_ context.Context, j *AgentJob) {
	if j.SubAgentRole == nil {
		j.Status = StatusFailed
		j.Failure = &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "create-sub-agent job has no requested role"}
		return
	}
	j.SubAgentID = uuid.NewString()
	j.Result = &ExecutionResult{FinalOutput: j.SubAgentID}
	j.Status = StatusCompleted
}

func (w *Worker) runShell(ctx context.Context, j *AgentJob) {
	if j.Script == nil {
		j.Status = StatusFailed
		j.Failure = &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "shell-execution job has no script"}
		return
	}

	ws, err := w.containers.Create(j.SandboxID)
	if err != nil {
		j.Status = StatusFailed
		j.Failure = &mk8shell.Failure{Kind: mk8shell.ErrorKindSandboxNotFound, Detail: err.Error()}
		return
	}

	compiled, err := mk8shell.Compile(*j.Script, w.vars, w.fragments)
	if err != nil {
		j.Status = StatusFailed
		j.Failure = &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: err.Error()}
		return
	}

	exec := executor.New(ws)
	scriptResult := exec.Run(ctx, compiled, w.vars)

	// Cleanup (when owed) and result-finalization bookkeeping depend on
	// disjoint inputs — cleanup only needs the compiled cleanup list,
	// bookkeeping only needs the step results already in hand — so they
	// run concurrently instead of serializing a potentially slow cleanup
	// step ahead of bookkeeping that's ready immediately.
	var g errgroup.Group
	var statuses []string
	var finalOutput string
	g.Go(func() error {
		statuses = make([]string, len(scriptResult.StepResults))
		for i, sr := range scriptResult.StepResults {
			if sr.Succeeded() {
				statuses[i] = "Completed"
			} else {
				statuses[i] = "Failed"
			}
		}
		if len(scriptResult.StepResults) > 0 {
			finalOutput = scriptResult.StepResults[len(scriptResult.StepResults)-1].Output
		}
		return nil
	})
	if scriptResult.NeedsCleanup {
		g.Go(func() error {
			scriptResult.CleanupResults = exec.RunCleanup(ctx, compiled, w.vars)
			return nil
		})
	}
	g.Wait()

	j.Result = &ExecutionResult{StepStatuses: statuses, FinalOutput: finalOutput, Captures: scriptResult.Captures}

	select {
	case <-ctx.Done():
		j.Status = StatusCancelled
		return
	default:
	}

	if scriptResult.Failure != nil {
		j.Status = StatusFailed
		j.Failure = scriptResult.Failure
		return
	}
	j.Status = StatusCompleted
}

func (w *Worker) runTranscription(ctx context.Context, j *AgentJob) {
	topic := w.broadcasts.Open(j.ID)
	defer w.broadcasts.Close(j.ID)
	slog.Info("job: transcription channel opened", "job", j.ID)

	<-ctx.Done()
	if topic.Stopped() {
		j.Status = StatusCompleted
	} else {
		j.Status = StatusCancelled
	}
}
