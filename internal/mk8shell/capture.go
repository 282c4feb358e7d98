package mk8shell

// captureState tracks captureAs registrations across compilation
// (spec.md §4.1 "Captures").
type captureState struct {
	names         map[string]bool
	fromProcess   map[string]bool // captured from a ProcRun step — blocked from later ProcRun args
	count         int
}

func newCaptureState() *captureState {
	return &captureState{names: map[string]bool{}, fromProcess: map[string]bool{}}
}

var reservedVarNames = map[string]bool{
	varWorkspace: true, varCWD: true, varUser: true, varPrev: true, varItem: true, varIndex: true,
}

// register validates and records a captureAs name for step at stepIdx.
func (c *captureState) register(name string, verb Verb, stepIdx int) error {
	if reservedVarNames[name] {
		return &CompileError{Step: stepIdx, Verb: verb, Reason: "captureAs name \"" + name + "\" shadows a reserved variable"}
	}
	if c.names[name] {
		return &CompileError{Step: stepIdx, Verb: verb, Reason: "captureAs name \"" + name + "\" already registered"}
	}
	if c.count >= MaxCaptures {
		return &CompileError{Step: stepIdx, Verb: verb, Reason: "more than 16 captures in script"}
	}
	c.names[name] = true
	c.count++
	if verb == VerbProcRun {
		c.fromProcess[name] = true
	}
	return nil
}

// checkProcRunArgs rejects any ProcRun arg that references a capture that
// came from a process-spawning step (spec.md §4.1 "Captures": "captured
// values from any process-spawning step are blocked from appearing in
// subsequent ProcRun args").
func (c *captureState) checkProcRunArgs(op *Operation, stepIdx int) error {
	if op.Verb != VerbProcRun {
		return nil
	}
	for _, a := range op.Args {
		for name := range c.fromProcess {
			if referencesVar(a, name) {
				return &CompileError{Step: stepIdx, Verb: op.Verb, Reason: "ProcRun arg references capture \"" + name + "\" from a prior process-spawning step"}
			}
		}
	}
	return nil
}
