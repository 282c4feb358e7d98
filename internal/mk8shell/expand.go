package mk8shell

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sharpclaw/mk8/internal/mk8shell/safety"
)

// deferredPredicates are evaluated by the executor at runtime, not by the
// compiler, because they depend on filesystem state that may not exist
// until a prior step has run (spec.md §4.1 "If": "FileExists/DirExists
// predicates are always included, annotated for runtime evaluation").
var deferredPredicates = map[string]bool{
	"FileExists": true,
	"DirExists":  true,
}

// expander carries the state shared by a single expansion pass: the
// fragment resolver. Nesting depth is passed along as an argument.
type expander struct {
	fragments FragmentResolver
}

// expand runs the full compile-time expansion pass over ops (ForEach, If,
// batch verbs, Include), enforcing spec.md §4.1's structural limits, and
// returns the flat operation list the rest of the compiler pipeline
// operates on.
func expand(ops []Operation, vars VarBag, fragments FragmentResolver) ([]Operation, error) {
	e := &expander{fragments: fragments}
	out, err := e.expandOps(ops, vars, 0)
	if err != nil {
		return nil, err
	}
	if len(out) > MaxExpandedOps {
		return nil, &CompileError{Reason: "expanded script exceeds 1024 operations"}
	}
	return out, nil
}

func (e *expander) expandOps(ops []Operation, vars VarBag, depth int) ([]Operation, error) {
	var out []Operation
	for i, op := range ops {
		expanded, err := e.expandOne(op, vars, depth, i)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
		if len(out) > MaxExpandedOps {
			return nil, &CompileError{Step: i, Verb: op.Verb, Reason: "expanded script exceeds 1024 operations"}
		}
	}
	return out, nil
}

func (e *expander) expandOne(op Operation, vars VarBag, depth, stepIdx int) ([]Operation, error) {
	switch op.Verb {
	case VerbForEach:
		return e.expandForEach(op, vars, depth, stepIdx)
	case VerbIf:
		return e.expandIf(op, vars, depth, stepIdx)
	case VerbInclude:
		return e.expandInclude(op, vars, depth, stepIdx)
	case VerbFileWriteMany, VerbFileCopyMany, VerbFileDeleteMany:
		return expandBatch(op, stepIdx)
	default:
		return []Operation{op}, nil
	}
}

func (e *expander) expandForEach(op Operation, vars VarBag, depth, stepIdx int) ([]Operation, error) {
	if depth >= MaxNestingDepth {
		return nil, &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "ForEach nesting exceeds depth 3"}
	}
	if op.ForEach == nil {
		return nil, &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "ForEach missing forEach spec"}
	}
	if len(op.ForEach.Items) > MaxForEachItems {
		return nil, &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "ForEach items exceed 256"}
	}
	if op.ForEach.Body == nil {
		return nil, &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "ForEach missing body"}
	}
	if op.ForEach.Body.Verb == VerbForEach {
		return nil, &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "ForEach body may not itself be a ForEach"}
	}

	var out []Operation
	for idx, item := range op.ForEach.Items {
		iterVars := make(VarBag, len(vars)+2)
		for k, v := range vars {
			iterVars[k] = v
		}
		iterVars[varItem] = item
		iterVars[varIndex] = strconv.Itoa(idx)

		bodyCopy := cloneOperation(op.ForEach.Body)
		substituteOpLiterals(bodyCopy, iterVars)

		expanded, err := e.expandOps([]Operation{*bodyCopy}, iterVars, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func (e *expander) expandIf(op Operation, vars VarBag, depth, stepIdx int) ([]Operation, error) {
	if op.If == nil {
		return nil, &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "If missing if spec"}
	}
	if op.If.Then == nil {
		return nil, &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "If missing then branch"}
	}

	if deferredPredicates[op.If.Predicate] {
		deferred := cloneOperation(&op)
		deferred.compileMeta = &stepMeta{deferredIf: op.If}
		return []Operation{*deferred}, nil
	}

	taken, err := evalPredicate(op.If.Predicate, op.If.Arg, vars, stepIdx, op.Verb)
	if err != nil {
		return nil, err
	}

	var branch *Operation
	if taken {
		branch = op.If.Then
	} else {
		branch = op.If.Else
	}
	if branch == nil {
		return nil, nil
	}
	return e.expandOps([]Operation{*cloneOperation(branch)}, vars, depth)
}

func evalPredicate(predicate, arg string, vars VarBag, stepIdx int, verb Verb) (bool, error) {
	prev := vars[varPrev]
	switch predicate {
	case "PrevContains":
		return strings.Contains(prev, arg), nil
	case "PrevEmpty":
		return strings.TrimSpace(prev) == "", nil
	case "PrevStartsWith":
		return strings.HasPrefix(prev, arg), nil
	case "PrevEndsWith":
		return strings.HasSuffix(prev, arg), nil
	case "PrevEquals":
		return prev == arg, nil
	case "PrevMatch":
		return matchRegex(arg, prev)
	case "PrevLineCount":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, &CompileError{Step: stepIdx, Verb: verb, Reason: "PrevLineCount arg must be an integer"}
		}
		return len(strings.Split(strings.TrimRight(prev, "\n"), "\n")) == n, nil
	case "CaptureEmpty":
		return strings.TrimSpace(vars[arg]) == "", nil
	case "CaptureContains":
		name, needle, ok := splitCaptureArg(arg)
		if !ok {
			return false, &CompileError{Step: stepIdx, Verb: verb, Reason: "CaptureContains arg must be \"name:substring\""}
		}
		return strings.Contains(vars[name], needle), nil
	case "EnvEquals":
		name, want, ok := splitCaptureArg(arg)
		if !ok {
			return false, &CompileError{Step: stepIdx, Verb: verb, Reason: "EnvEquals arg must be \"NAME:value\""}
		}
		if !safety.IsEnvNameAllowed(name) {
			return false, &CompileError{Step: stepIdx, Verb: verb, Reason: "EnvEquals references non-allowlisted env var \"" + name + "\""}
		}
		return vars[name] == want, nil
	default:
		return false, &CompileError{Step: stepIdx, Verb: verb, Reason: "unknown If predicate \"" + predicate + "\""}
	}
}

func splitCaptureArg(arg string) (name, rest string, ok bool) {
	idx := strings.IndexByte(arg, ':')
	if idx < 0 {
		return "", "", false
	}
	return arg[:idx], arg[idx+1:], true
}

func matchRegex(pattern, value string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, &CompileError{Reason: "PrevMatch pattern is not a valid regular expression: " + err.Error()}
	}
	return re.MatchString(value), nil
}

func (e *expander) expandInclude(op Operation, vars VarBag, depth, stepIdx int) ([]Operation, error) {
	if depth >= MaxNestingDepth {
		return nil, &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "Include nesting exceeds depth 3"}
	}
	if !validFragmentID(op.Include) {
		return nil, &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "invalid fragment id \"" + op.Include + "\""}
	}
	if e.fragments == nil {
		return nil, &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "no fragment registry configured"}
	}
	ops, ok := e.fragments.Resolve(op.Include)
	if !ok {
		return nil, &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "fragment \"" + op.Include + "\" not found"}
	}
	return e.expandOps(ops, vars, depth+1)
}

func expandBatch(op Operation, stepIdx int) ([]Operation, error) {
	if len(op.BatchEntries) > MaxBatchEntries {
		return nil, &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "batch entries exceed 64"}
	}
	var single Verb
	switch op.Verb {
	case VerbFileWriteMany:
		single = VerbFileWrite
	case VerbFileCopyMany:
		single = VerbFileCopy
	case VerbFileDeleteMany:
		single = VerbFileDelete
	}
	out := make([]Operation, 0, len(op.BatchEntries))
	for _, entry := range op.BatchEntries {
		child := cloneOperation(&op)
		child.Verb = single
		child.Args = append([]string(nil), entry...)
		child.BatchEntries = nil
		out = append(out, *child)
	}
	return out, nil
}

// cloneOperation performs a deep-enough copy to make expansion safe to
// run per ForEach iteration (so substitution on one iteration's copy
// never leaks into another's).
func cloneOperation(op *Operation) *Operation {
	c := *op
	c.Args = append([]string(nil), op.Args...)
	if op.ForEach != nil {
		fe := *op.ForEach
		fe.Items = append([]string(nil), op.ForEach.Items...)
		if op.ForEach.Body != nil {
			fe.Body = cloneOperation(op.ForEach.Body)
		}
		c.ForEach = &fe
	}
	if op.If != nil {
		ifs := *op.If
		if op.If.Then != nil {
			ifs.Then = cloneOperation(op.If.Then)
		}
		if op.If.Else != nil {
			ifs.Else = cloneOperation(op.If.Else)
		}
		c.If = &ifs
	}
	if op.BatchEntries != nil {
		be := make([][]string, len(op.BatchEntries))
		for i, entry := range op.BatchEntries {
			be[i] = append([]string(nil), entry...)
		}
		c.BatchEntries = be
	}
	return &c
}

// substituteOpLiterals rewrites $ITEM/$INDEX (and any other currently
// known var) references inside a ForEach body copy before recursive
// expansion, so nested If predicates and Args see the resolved text.
func substituteOpLiterals(op *Operation, vars VarBag) {
	for i, a := range op.Args {
		op.Args[i] = substitute(a, vars)
	}
	if op.WorkingDirectory != "" {
		op.WorkingDirectory = substitute(op.WorkingDirectory, vars)
	}
	if op.If != nil {
		op.If.Arg = substitute(op.If.Arg, vars)
		if op.If.Then != nil {
			substituteOpLiterals(op.If.Then, vars)
		}
		if op.If.Else != nil {
			substituteOpLiterals(op.If.Else, vars)
		}
	}
	for i := range op.BatchEntries {
		for j, v := range op.BatchEntries[i] {
			op.BatchEntries[i][j] = substitute(v, vars)
		}
	}
}
