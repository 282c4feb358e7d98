package executor

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/sharpclaw/mk8/internal/container"
	"github.com/sharpclaw/mk8/internal/mk8shell"
	"github.com/sharpclaw/mk8/internal/mk8shell/safety"
)

func init() {
	register(mk8shell.VerbEnvGet, envGet)
	register(mk8shell.VerbEnvList, envList)
	register(mk8shell.VerbEnvExists, envExists)
}

// envGet reads sandbox variables first, falling back to the allowlisted
// process environment. Names outside the allowlist never resolve,
// mirroring the restriction ProcRun applies to its child environment.
func envGet(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "EnvGet requires a name"}
	}
	name := op.Args[0]
	if !safety.IsEnvNameAllowed(name) {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindPermissionDenied, Detail: "env name not allowlisted: " + name}
	}
	if v, ok := ws.Variables[name]; ok {
		return v, nil
	}
	return os.Getenv(name), nil
}

// envList returns the allowlisted env names that are actually set, one
// per line, checking sandbox variables ahead of the process environment.
func envList(_ context.Context, _ *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	var set []string
	for _, name := range safety.AllowedEnvNames() {
		if _, ok := ws.Variables[name]; ok {
			set = append(set, name)
			continue
		}
		if _, ok := os.LookupEnv(name); ok {
			set = append(set, name)
		}
	}
	return strings.Join(set, "\n"), nil
}

func envExists(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "EnvExists requires a name"}
	}
	name := op.Args[0]
	if !safety.IsEnvNameAllowed(name) {
		return strconv.FormatBool(false), nil
	}
	if _, ok := ws.Variables[name]; ok {
		return strconv.FormatBool(true), nil
	}
	_, ok := os.LookupEnv(name)
	return strconv.FormatBool(ok), nil
}
