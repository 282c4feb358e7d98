package mk8shell

// CompiledScript is the flat, fully-resolved operation list the executor
// consumes, plus the finalized options (spec.md §4.1 "Compile pipeline").
type CompiledScript struct {
	Operations []Operation
	Cleanup    []Operation
	Options    Options
}

// Compile runs the full script-compiler pipeline in the order spec.md
// §4.1 requires: fill option defaults, expand ForEach/If/batch/Include,
// enforce the expanded-op ceiling, validate labels and onFailure jumps,
// then resolve $VAR/$PREV substitution and captureAs registration per
// step. No script that fails any stage reaches the executor.
func Compile(script Script, vars VarBag, fragments FragmentResolver) (*CompiledScript, error) {
	opts, err := script.Options.WithDefaults()
	if err != nil {
		return nil, err
	}

	expanded, err := expand(script.Operations, vars, fragments)
	if err != nil {
		return nil, err
	}
	if err := validateLabelsAndJumps(expanded); err != nil {
		return nil, err
	}

	captures := newCaptureState()
	for i := range expanded {
		op := &expanded[i]
		if err := resolveArgs(op, vars, opts.PipeStepOutput, i, captures); err != nil {
			return nil, err
		}
		if deferred := op.compileMeta; deferred != nil && deferred.deferredIf != nil {
			if err := resolveDeferredIfBranches(deferred.deferredIf, vars, opts.PipeStepOutput, i, captures); err != nil {
				return nil, err
			}
		}
		if op.CaptureAs != "" {
			if err := captures.register(op.CaptureAs, op.Verb, i); err != nil {
				return nil, err
			}
		}
	}

	expandedCleanup, err := expand(script.Cleanup, vars, fragments)
	if err != nil {
		return nil, err
	}
	if err := validateLabelsAndJumps(expandedCleanup); err != nil {
		return nil, err
	}
	for i := range expandedCleanup {
		op := &expandedCleanup[i]
		if err := resolveArgs(op, vars, opts.PipeStepOutput, i, captures); err != nil {
			return nil, err
		}
		if deferred := op.compileMeta; deferred != nil && deferred.deferredIf != nil {
			if err := resolveDeferredIfBranches(deferred.deferredIf, vars, opts.PipeStepOutput, i, captures); err != nil {
				return nil, err
			}
		}
		if op.CaptureAs != "" {
			if err := captures.register(op.CaptureAs, op.Verb, i); err != nil {
				return nil, err
			}
		}
	}

	return &CompiledScript{
		Operations: expanded,
		Cleanup:    expandedCleanup,
		Options:    opts,
	}, nil
}

// resolveDeferredIfBranches substitutes vars into a deferred If's
// predicate arg and Then/Else branches. A deferred If's branches bypass
// the normal expansion pass (spec.md §4.1: FileExists/DirExists stay
// annotated for runtime evaluation instead of being resolved at compile
// time), so their args are never touched by the top-level resolveArgs
// loop unless done here explicitly.
func resolveDeferredIfBranches(spec *IfSpec, vars VarBag, pipeStepOutput bool, stepIdx int, captures *captureState) error {
	spec.Arg = substitute(spec.Arg, vars)
	if spec.Then != nil {
		if err := resolveArgs(spec.Then, vars, pipeStepOutput, stepIdx, captures); err != nil {
			return err
		}
	}
	if spec.Else != nil {
		if err := resolveArgs(spec.Else, vars, pipeStepOutput, stepIdx, captures); err != nil {
			return err
		}
	}
	return nil
}
