package mk8shell

import (
	"strconv"
	"strings"
	"testing"
)

func TestCompile_ForEachUnrolls(t *testing.T) {
	script := Script{
		Operations: []Operation{
			{
				Verb: VerbForEach,
				ForEach: &ForEachSpec{
					Items: []string{"a.txt", "b.txt", "c.txt"},
					Body: &Operation{
						Verb: VerbFileExists,
						Args: []string{"$ITEM"},
					},
				},
			},
		},
	}
	out, err := Compile(script, VarBag{}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(out.Operations) != 3 {
		t.Fatalf("expected 3 unrolled ops, got %d", len(out.Operations))
	}
	for i, want := range []string{"a.txt", "b.txt", "c.txt"} {
		if out.Operations[i].Args[0] != want {
			t.Errorf("op %d: got arg %q, want %q", i, out.Operations[i].Args[0], want)
		}
	}
}

func TestCompile_NestedForEachRejected(t *testing.T) {
	script := Script{
		Operations: []Operation{
			{
				Verb: VerbForEach,
				ForEach: &ForEachSpec{
					Items: []string{"x"},
					Body: &Operation{
						Verb: VerbForEach,
						ForEach: &ForEachSpec{
							Items: []string{"y"},
							Body:  &Operation{Verb: VerbEcho, Args: []string{"hi"}},
						},
					},
				},
			},
		},
	}
	_, err := Compile(script, VarBag{}, nil)
	if err == nil {
		t.Fatal("expected compile error for nested ForEach body, got nil")
	}
}

func TestCompile_ForEachOverLimit(t *testing.T) {
	items := make([]string, MaxForEachItems+1)
	for i := range items {
		items[i] = "x"
	}
	script := Script{
		Operations: []Operation{
			{
				Verb: VerbForEach,
				ForEach: &ForEachSpec{
					Items: items,
					Body:  &Operation{Verb: VerbEcho, Args: []string{"$ITEM"}},
				},
			},
		},
	}
	if _, err := Compile(script, VarBag{}, nil); err == nil {
		t.Fatal("expected compile error for >256 ForEach items")
	}
}

func TestCompile_BatchVerbUnrolls(t *testing.T) {
	script := Script{
		Operations: []Operation{
			{
				Verb: VerbFileWriteMany,
				BatchEntries: [][]string{
					{"a.txt", "hello"},
					{"b.txt", "world"},
				},
			},
		},
	}
	out, err := Compile(script, VarBag{}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(out.Operations) != 2 {
		t.Fatalf("expected 2 unrolled ops, got %d", len(out.Operations))
	}
	for _, op := range out.Operations {
		if op.Verb != VerbFileWrite {
			t.Errorf("expected FileWrite, got %s", op.Verb)
		}
	}
}

func TestCompile_BatchOverLimitRejected(t *testing.T) {
	entries := make([][]string, MaxBatchEntries+1)
	for i := range entries {
		entries[i] = []string{"f", "v"}
	}
	script := Script{Operations: []Operation{{Verb: VerbFileWriteMany, BatchEntries: entries}}}
	if _, err := Compile(script, VarBag{}, nil); err == nil {
		t.Fatal("expected compile error for >64 batch entries")
	}
}

func TestCompile_IncludeInlinesFragment(t *testing.T) {
	reg, err := NewFragmentRegistry(map[string][]Operation{
		"greet": {{Verb: VerbEcho, Args: []string{"hi"}}},
	})
	if err != nil {
		t.Fatalf("NewFragmentRegistry: %v", err)
	}
	script := Script{Operations: []Operation{{Verb: VerbInclude, Include: "greet"}}}
	out, err := Compile(script, VarBag{}, reg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(out.Operations) != 1 || out.Operations[0].Verb != VerbEcho {
		t.Fatalf("expected inlined Echo op, got %+v", out.Operations)
	}
}

func TestNewFragmentRegistry_RejectsNestedInclude(t *testing.T) {
	_, err := NewFragmentRegistry(map[string][]Operation{
		"bad": {{Verb: VerbInclude, Include: "other"}},
	})
	if err == nil {
		t.Fatal("expected error seeding a fragment containing Include")
	}
}

func TestCompile_UnknownFragmentRejected(t *testing.T) {
	reg, _ := NewFragmentRegistry(map[string][]Operation{})
	script := Script{Operations: []Operation{{Verb: VerbInclude, Include: "missing"}}}
	if _, err := Compile(script, VarBag{}, reg); err == nil {
		t.Fatal("expected compile error for unknown fragment id")
	}
}

func TestCompile_LabelsUniqueAndJumpsForwardOnly(t *testing.T) {
	script := Script{
		Operations: []Operation{
			{Verb: VerbEcho, Args: []string{"1"}, Label: "start", OnFailure: "goto:end"},
			{Verb: VerbEcho, Args: []string{"2"}, Label: "end"},
		},
	}
	if _, err := Compile(script, VarBag{}, nil); err != nil {
		t.Fatalf("expected valid forward jump to compile, got %v", err)
	}

	backward := Script{
		Operations: []Operation{
			{Verb: VerbEcho, Args: []string{"1"}, Label: "start"},
			{Verb: VerbEcho, Args: []string{"2"}, Label: "end", OnFailure: "goto:start"},
		},
	}
	if _, err := Compile(backward, VarBag{}, nil); err == nil {
		t.Fatal("expected compile error for backward jump")
	}

	dup := Script{
		Operations: []Operation{
			{Verb: VerbEcho, Args: []string{"1"}, Label: "same"},
			{Verb: VerbEcho, Args: []string{"2"}, Label: "same"},
		},
	}
	if _, err := Compile(dup, VarBag{}, nil); err == nil {
		t.Fatal("expected compile error for duplicate label")
	}
}

func TestCompile_PrevVarRejectedWithoutPipeStepOutput(t *testing.T) {
	script := Script{
		Operations: []Operation{
			{Verb: VerbEcho, Args: []string{"$PREV"}},
		},
	}
	if _, err := Compile(script, VarBag{}, nil); err == nil {
		t.Fatal("expected compile error for $PREV without pipeStepOutput")
	}
}

func TestCompile_PrevVarRejectedInProcRun(t *testing.T) {
	script := Script{
		Options:    Options{PipeStepOutput: true},
		Operations: []Operation{{Verb: VerbProcRun, Args: []string{"$PREV"}}},
	}
	if _, err := Compile(script, VarBag{}, nil); err == nil {
		t.Fatal("expected compile error for $PREV inside ProcRun args")
	}
}

func TestCompile_CaptureShadowAndLimit(t *testing.T) {
	shadow := Script{Operations: []Operation{{Verb: VerbEcho, Args: []string{"x"}, CaptureAs: "CWD"}}}
	if _, err := Compile(shadow, VarBag{}, nil); err == nil {
		t.Fatal("expected compile error for captureAs shadowing reserved var")
	}

	var ops []Operation
	for i := 0; i < MaxCaptures+1; i++ {
		ops = append(ops, Operation{Verb: VerbEcho, Args: []string{"x"}, CaptureAs: "c" + strconv.Itoa(i)})
	}
	if _, err := Compile(Script{Operations: ops}, VarBag{}, nil); err == nil {
		t.Fatal("expected compile error for >16 captures")
	}
}

func TestCompile_ProcRunCannotConsumePriorProcessCapture(t *testing.T) {
	script := Script{
		Operations: []Operation{
			{Verb: VerbProcRun, Args: []string{"echo", "hi"}, CaptureAs: "out"},
			{Verb: VerbProcRun, Args: []string{"echo", "$out"}},
		},
	}
	if _, err := Compile(script, VarBag{}, nil); err == nil {
		t.Fatal("expected compile error for ProcRun consuming a process-sourced capture")
	}
}

func TestCompile_IfCompileTimeBranchSelection(t *testing.T) {
	script := Script{
		Operations: []Operation{
			{
				Verb: VerbIf,
				If: &IfSpec{
					Predicate: "PrevEquals",
					Arg:       "ready",
					Then:      &Operation{Verb: VerbEcho, Args: []string{"yes"}},
					Else:      &Operation{Verb: VerbEcho, Args: []string{"no"}},
				},
			},
		},
	}
	out, err := Compile(script, VarBag{varPrev: "ready"}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(out.Operations) != 1 || out.Operations[0].Args[0] != "yes" {
		t.Fatalf("expected Then branch selected, got %+v", out.Operations)
	}
}

func TestCompile_IfFileExistsDeferredToRuntime(t *testing.T) {
	script := Script{
		Operations: []Operation{
			{
				Verb: VerbIf,
				If: &IfSpec{
					Predicate: "FileExists",
					Arg:       "out.txt",
					Then:      &Operation{Verb: VerbEcho, Args: []string{"present"}},
				},
			},
		},
	}
	out, err := Compile(script, VarBag{}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(out.Operations) != 1 {
		t.Fatalf("expected deferred If to pass through as one op, got %d", len(out.Operations))
	}
	if out.Operations[0].compileMeta == nil || out.Operations[0].compileMeta.deferredIf == nil {
		t.Fatal("expected deferredIf to be annotated on the compiled op")
	}
}

func TestCompile_Deterministic(t *testing.T) {
	script := Script{
		Operations: []Operation{
			{
				Verb: VerbForEach,
				ForEach: &ForEachSpec{
					Items: []string{"a", "b"},
					Body:  &Operation{Verb: VerbEcho, Args: []string{"$ITEM-$INDEX"}},
				},
			},
		},
	}
	a, err := Compile(script, VarBag{}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	b, err := Compile(script, VarBag{}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(a.Operations) != len(b.Operations) {
		t.Fatal("expected identical op counts across identical compiles")
	}
	for i := range a.Operations {
		if strings.Join(a.Operations[i].Args, ",") != strings.Join(b.Operations[i].Args, ",") {
			t.Fatalf("compile output diverged at op %d", i)
		}
	}
}
