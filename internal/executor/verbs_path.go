package executor

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/sharpclaw/mk8/internal/container"
	"github.com/sharpclaw/mk8/internal/mk8shell"
)

func init() {
	register(mk8shell.VerbPathJoin, pathJoin)
	register(mk8shell.VerbPathBaseName, pathBaseName)
	register(mk8shell.VerbPathDirName, pathDirName)
	register(mk8shell.VerbPathExt, pathExt)
	register(mk8shell.VerbPathClean, pathClean)
	register(mk8shell.VerbPathIsAbs, pathIsAbs)
	register(mk8shell.VerbPathRel, pathRel)
	register(mk8shell.VerbPathMatch, pathMatch)
	register(mk8shell.VerbPathToSlash, pathToSlash)
	register(mk8shell.VerbPathFromSlash, pathFromSlash)
}

// Path verbs are pure string manipulation: no filesystem access, no
// sanitizer involvement (spec.md §3 "Path verbs").

func pathJoin(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	return filepath.Join(op.Args...), nil
}

func pathBaseName(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "PathBaseName requires 1 arg"}
	}
	return filepath.Base(op.Args[0]), nil
}

func pathDirName(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "PathDirName requires 1 arg"}
	}
	return filepath.Dir(op.Args[0]), nil
}

func pathExt(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "PathExt requires 1 arg"}
	}
	return filepath.Ext(op.Args[0]), nil
}

func pathClean(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "PathClean requires 1 arg"}
	}
	return filepath.Clean(op.Args[0]), nil
}

func pathIsAbs(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "PathIsAbs requires 1 arg"}
	}
	return strconv.FormatBool(filepath.IsAbs(op.Args[0])), nil
}

func pathRel(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "PathRel requires base, target"}
	}
	rel, err := filepath.Rel(op.Args[0], op.Args[1])
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "PathRel: " + err.Error()}
	}
	return rel, nil
}

func pathMatch(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "PathMatch requires pattern, name"}
	}
	matched, err := filepath.Match(op.Args[0], op.Args[1])
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "PathMatch: " + err.Error()}
	}
	return strconv.FormatBool(matched), nil
}

func pathToSlash(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "PathToSlash requires 1 arg"}
	}
	return filepath.ToSlash(op.Args[0]), nil
}

func pathFromSlash(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "PathFromSlash requires 1 arg"}
	}
	return filepath.FromSlash(op.Args[0]), nil
}
