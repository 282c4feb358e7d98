package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/time/rate"

	"github.com/sharpclaw/mk8/internal/container"
	"github.com/sharpclaw/mk8/internal/mk8shell"
	"github.com/sharpclaw/mk8/internal/mk8shell/safety"
)

// procRunRateLimit bounds ProcRun invocations per task container as
// defense-in-depth alongside the command-template whitelist
// (SPEC_FULL.md DOMAIN STACK: "per-sandbox ProcRun invocation rate
// limiting inside the verb executor").
const procRunRateLimit = 5 // per second
const procRunBurst = 10

// ProcRunner executes the ProcRun verb: construct a process with an
// explicit argument list (never a shell string), inherit no parent env
// beyond the allowlist, capped stdout/stderr (spec.md §4.4).
type ProcRunner struct {
	ws      *container.Workspace
	limiter *rate.Limiter

	mu sync.Mutex
}

// NewProcRunner builds a rate-limited runner, one per task container.
func NewProcRunner(ws *container.Workspace) *ProcRunner {
	return &ProcRunner{ws: ws, limiter: rate.NewLimiter(rate.Limit(procRunRateLimit), procRunBurst)}
}

func (p *ProcRunner) Run(ctx context.Context, op *mk8shell.Operation) *StepResult {
	if len(op.Args) == 0 {
		return &StepResult{Failure: &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "ProcRun requires a binary as args[0]"}}
	}
	binary, args := op.Args[0], op.Args[1:]

	if hit, matched := p.ws.Blacklist.CheckAll(binary, args); matched {
		return &StepResult{Failure: &mk8shell.Failure{Kind: mk8shell.ErrorKindGigablacklistHit, Detail: "matched pattern: " + hit}}
	}

	if err := p.ws.Templates.Validate(binary, args, p.ws.SandboxRoot, p.ws.Blacklist); err != nil {
		return &StepResult{Failure: &mk8shell.Failure{Kind: mk8shell.ErrorKindPermissionDenied, Detail: err.Error()}}
	}

	wd := p.ws.SandboxRoot
	if op.WorkingDirectory != "" {
		resolved, err := safety.Resolve(op.WorkingDirectory, p.ws.SandboxRoot, p.ws.Blacklist)
		if err != nil {
			return &StepResult{Failure: &mk8shell.Failure{Kind: mk8shell.ErrorKindPathViolation, Detail: err.Error()}}
		}
		wd = resolved
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return &StepResult{Failure: &mk8shell.Failure{Kind: mk8shell.ErrorKindCancelled, Detail: err.Error()}}
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = wd
	cmd.Env = allowlistedEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := &StepResult{Output: stdout.String()}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			res.Failure = &mk8shell.Failure{Kind: mk8shell.ErrorKindStepTimeout, Detail: "process exceeded step timeout"}
			return res
		}
		var exitErr *exec.ExitError
		if ok := exitError(err, &exitErr); ok {
			res.ExitCode = exitErr.ExitCode()
			res.Failure = &mk8shell.Failure{Kind: mk8shell.ErrorKindStepNonZeroExit, Detail: stderr.String()}
			return res
		}
		res.Failure = &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
		return res
	}
	if op.CaptureAs != "" {
		res.Captured = stdout.String()
	}
	return res
}

func exitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

// allowlistedEnv builds the child process env from only the names the
// env allowlist permits, reading from the current process env
// (spec.md §4.4: "inherit no parent env beyond the env allowlist").
func allowlistedEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		name, _, ok := splitEnvKV(kv)
		if ok && safety.IsEnvNameAllowed(name) {
			env = append(env, kv)
		}
	}
	return env
}

func splitEnvKV(kv string) (name, value string, ok bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return "", "", false
}
