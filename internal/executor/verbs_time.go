package executor

import (
	"context"
	"strconv"
	"time"

	"github.com/sharpclaw/mk8/internal/container"
	"github.com/sharpclaw/mk8/internal/mk8shell"
)

func init() {
	register(mk8shell.VerbTimeNowUTC, timeNowUTC)
	register(mk8shell.VerbTimeFormat, timeFormat)
	register(mk8shell.VerbTimeParse, timeParse)
	register(mk8shell.VerbTimeAddDuration, timeAddDuration)
	register(mk8shell.VerbTimeDiff, timeDiff)
	register(mk8shell.VerbTimeUnix, timeUnix)
	register(mk8shell.VerbTimeZoneConvert, timeZoneConvert)
}

func timeNowUTC(_ context.Context, _ *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	return time.Now().UTC().Format(time.RFC3339), nil
}

// timeFormat parses args[0] as RFC3339 and reformats it per the Go
// reference-layout string in args[1].
func timeFormat(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TimeFormat requires timestamp, layout"}
	}
	t, err := time.Parse(time.RFC3339, op.Args[0])
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "TimeFormat: " + err.Error()}
	}
	return t.Format(op.Args[1]), nil
}

// timeParse parses args[0] using the layout in args[1], returning RFC3339 UTC.
func timeParse(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TimeParse requires value, layout"}
	}
	t, err := time.Parse(op.Args[1], op.Args[0])
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "TimeParse: " + err.Error()}
	}
	return t.UTC().Format(time.RFC3339), nil
}

// timeAddDuration adds the Go duration string in args[1] to the RFC3339
// timestamp in args[0].
func timeAddDuration(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TimeAddDuration requires timestamp, duration"}
	}
	t, err := time.Parse(time.RFC3339, op.Args[0])
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "TimeAddDuration: " + err.Error()}
	}
	d, err := time.ParseDuration(op.Args[1])
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TimeAddDuration: " + err.Error()}
	}
	return t.Add(d).UTC().Format(time.RFC3339), nil
}

// timeDiff returns the Go duration string between two RFC3339 timestamps
// (args[1] - args[0]).
func timeDiff(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TimeDiff requires a, b"}
	}
	a, err := time.Parse(time.RFC3339, op.Args[0])
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "TimeDiff: " + err.Error()}
	}
	b, err := time.Parse(time.RFC3339, op.Args[1])
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "TimeDiff: " + err.Error()}
	}
	return b.Sub(a).String(), nil
}

func timeUnix(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 1 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TimeUnix requires a timestamp"}
	}
	t, err := time.Parse(time.RFC3339, op.Args[0])
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "TimeUnix: " + err.Error()}
	}
	return strconv.FormatInt(t.Unix(), 10), nil
}

// timeZoneConvert reformats the RFC3339 timestamp in args[0] into the IANA
// zone named in args[1].
func timeZoneConvert(_ context.Context, op *mk8shell.Operation, _ *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "TimeZoneConvert requires timestamp, zone"}
	}
	t, err := time.Parse(time.RFC3339, op.Args[0])
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "TimeZoneConvert: " + err.Error()}
	}
	loc, err := time.LoadLocation(op.Args[1])
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "TimeZoneConvert: " + err.Error()}
	}
	return t.In(loc).Format(time.RFC3339), nil
}
