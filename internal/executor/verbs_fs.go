package executor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sharpclaw/mk8/internal/container"
	"github.com/sharpclaw/mk8/internal/mk8shell"
	"github.com/sharpclaw/mk8/internal/mk8shell/safety"
)

func init() {
	register(mk8shell.VerbFileRead, fileRead)
	register(mk8shell.VerbFileWrite, fileWrite)
	register(mk8shell.VerbFileAppend, fileAppend)
	register(mk8shell.VerbFileDelete, fileDelete)
	register(mk8shell.VerbFileCopy, fileCopy)
	register(mk8shell.VerbFileMove, fileMove)
	register(mk8shell.VerbFileExists, fileExists)
	register(mk8shell.VerbFileStat, fileStat)
	register(mk8shell.VerbFilePatch, filePatch)
	register(mk8shell.VerbFileReplaceLines, fileReplaceLines)
	register(mk8shell.VerbFileTouch, fileTouch)
	register(mk8shell.VerbFileTruncate, fileTruncate)
	register(mk8shell.VerbFileSize, fileSize)
	register(mk8shell.VerbFileHash, fileHash)
	register(mk8shell.VerbFileTail, fileTail)
	register(mk8shell.VerbFileHead, fileHead)
	register(mk8shell.VerbFileCountLines, fileCountLines)
	register(mk8shell.VerbFileReadRange, fileReadRange)
	register(mk8shell.VerbFileAppendLines, fileAppendLines)
	register(mk8shell.VerbFileSymlinkRead, fileSymlinkRead)

	register(mk8shell.VerbDirList, dirList)
	register(mk8shell.VerbDirCreate, dirCreate)
	register(mk8shell.VerbDirDelete, dirDelete)
	register(mk8shell.VerbDirExists, dirExists)
	register(mk8shell.VerbDirCopy, dirCopy)
	register(mk8shell.VerbDirMove, dirMove)
	register(mk8shell.VerbDirSize, dirSize)
	register(mk8shell.VerbDirWalk, dirWalk)
}

func pathFail(err error) *mk8shell.Failure {
	return &mk8shell.Failure{Kind: mk8shell.ErrorKindPathViolation, Detail: err.Error()}
}

func resolveRead(op *mk8shell.Operation, ws *container.Workspace, argIdx int) (string, *mk8shell.Failure) {
	if argIdx >= len(op.Args) {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: fmt.Sprintf("%s requires arg %d", op.Verb, argIdx)}
	}
	p, err := safety.Resolve(op.Args[argIdx], ws.SandboxRoot, ws.Blacklist)
	if err != nil {
		return "", pathFail(err)
	}
	return p, nil
}

func resolveWrite(op *mk8shell.Operation, ws *container.Workspace, argIdx int) (string, *mk8shell.Failure) {
	if argIdx >= len(op.Args) {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: fmt.Sprintf("%s requires arg %d", op.Verb, argIdx)}
	}
	p, err := safety.ResolveForWrite(op.Args[argIdx], ws.SandboxRoot, ws.Blacklist)
	if err != nil {
		return "", pathFail(err)
	}
	return p, nil
}

func fileRead(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	if err := safety.CheckHardlink(p); err != nil {
		return "", pathFail(err)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return string(data), nil
}

func fileWrite(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveWrite(op, ws, 0)
	if f != nil {
		return "", f
	}
	content := ""
	if len(op.Args) > 1 {
		content = op.Args[1]
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return "", nil
}

func fileAppend(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveWrite(op, ws, 0)
	if f != nil {
		return "", f
	}
	content := ""
	if len(op.Args) > 1 {
		content = op.Args[1]
	}
	fh, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	defer fh.Close()
	if _, err := fh.WriteString(content); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return "", nil
}

func fileDelete(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveWrite(op, ws, 0)
	if f != nil {
		return "", f
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return "", nil
}

func fileCopy(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	src, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	dst, f := resolveWrite(op, ws, 1)
	if f != nil {
		return "", f
	}
	if err := safety.CheckHardlink(src); err != nil {
		return "", pathFail(err)
	}
	in, err := os.Open(src)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return "", nil
}

func fileMove(ctx context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	if out, f := fileCopy(ctx, op, ws); f != nil {
		return out, f
	}
	src, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	if err := os.Remove(src); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return "", nil
}

func fileExists(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	info, err := os.Stat(p)
	return strconv.FormatBool(err == nil && !info.IsDir()), nil
}

func fileStat(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	info, err := os.Stat(p)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return fmt.Sprintf("size=%d mode=%s modTime=%s isDir=%t", info.Size(), info.Mode(), info.ModTime().UTC().Format("2006-01-02T15:04:05Z"), info.IsDir()), nil
}

// filePatch replaces the first occurrence of args[1] with args[2] in
// the file at args[0], a structured-edit verb narrower than a raw
// TextReplace + FileWrite round trip.
func filePatch(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 3 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "FilePatch requires path, find, replace"}
	}
	p, f := resolveWrite(op, ws, 0)
	if f != nil {
		return "", f
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	find, replace := op.Args[1], op.Args[2]
	if !strings.Contains(string(data), find) {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "FilePatch: pattern not found"}
	}
	updated := strings.Replace(string(data), find, replace, 1)
	if err := os.WriteFile(p, []byte(updated), 0o644); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return "", nil
}

// fileReplaceLines replaces the 1-indexed inclusive line range
// [args[1],args[2]] with args[3].
func fileReplaceLines(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 4 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "FileReplaceLines requires path, startLine, endLine, content"}
	}
	p, f := resolveWrite(op, ws, 0)
	if f != nil {
		return "", f
	}
	start, err1 := strconv.Atoi(op.Args[1])
	end, err2 := strconv.Atoi(op.Args[2])
	if err1 != nil || err2 != nil || start < 1 || end < start {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "FileReplaceLines: invalid line range"}
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	lines := strings.Split(string(data), "\n")
	if end > len(lines) {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "FileReplaceLines: range exceeds file length"}
	}
	replacement := strings.Split(op.Args[3], "\n")
	newLines := append([]string{}, lines[:start-1]...)
	newLines = append(newLines, replacement...)
	newLines = append(newLines, lines[end:]...)
	if err := os.WriteFile(p, []byte(strings.Join(newLines, "\n")), 0o644); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return "", nil
}

func dirList(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		if e.IsDir() {
			names[i] = e.Name() + "/"
		} else {
			names[i] = e.Name()
		}
	}
	return strings.Join(names, "\n"), nil
}

func dirCreate(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveWrite(op, ws, 0)
	if f != nil {
		return "", f
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return "", nil
}

func dirDelete(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveWrite(op, ws, 0)
	if f != nil {
		return "", f
	}
	if err := os.RemoveAll(p); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return "", nil
}

func dirExists(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	info, err := os.Stat(p)
	return strconv.FormatBool(err == nil && info.IsDir()), nil
}

func fileTouch(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveWrite(op, ws, 0)
	if f != nil {
		return "", f
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	now := time.Now()
	if fh, err := os.OpenFile(p, os.O_CREATE, 0o644); err == nil {
		fh.Close()
	} else {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	if err := os.Chtimes(p, now, now); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return "", nil
}

// fileTruncate resizes the file at args[0] to the byte length in args[1].
func fileTruncate(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "FileTruncate requires path, size"}
	}
	p, f := resolveWrite(op, ws, 0)
	if f != nil {
		return "", f
	}
	size, err := strconv.ParseInt(op.Args[1], 10, 64)
	if err != nil || size < 0 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "FileTruncate: invalid size"}
	}
	if err := os.Truncate(p, size); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return "", nil
}

func fileSize(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	info, err := os.Stat(p)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return strconv.FormatInt(info.Size(), 10), nil
}

// fileHash returns the hex-encoded sha256 of the file at args[0].
func fileHash(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	if err := safety.CheckHardlink(p); err != nil {
		return "", pathFail(err)
	}
	fh, err := os.Open(p)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	defer fh.Close()
	h := sha256.New()
	if _, err := io.Copy(h, fh); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// fileTail returns the last args[1] lines of the file at args[0].
func fileTail(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "FileTail requires path, n"}
	}
	n, err := strconv.Atoi(op.Args[1])
	if err != nil || n < 0 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "FileTail: invalid n"}
	}
	lines, f := readFileLines(op, ws, 0)
	if f != nil {
		return "", f
	}
	if n > len(lines) {
		n = len(lines)
	}
	return strings.Join(lines[len(lines)-n:], "\n"), nil
}

// fileHead returns the first args[1] lines of the file at args[0].
func fileHead(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "FileHead requires path, n"}
	}
	n, err := strconv.Atoi(op.Args[1])
	if err != nil || n < 0 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "FileHead: invalid n"}
	}
	lines, f := readFileLines(op, ws, 0)
	if f != nil {
		return "", f
	}
	if n > len(lines) {
		n = len(lines)
	}
	return strings.Join(lines[:n], "\n"), nil
}

func fileCountLines(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	lines, f := readFileLines(op, ws, 0)
	if f != nil {
		return "", f
	}
	return strconv.Itoa(len(lines)), nil
}

// fileReadRange reads the 1-indexed inclusive line range
// [args[1],args[2]] from the file at args[0].
func fileReadRange(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 3 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "FileReadRange requires path, startLine, endLine"}
	}
	start, err1 := strconv.Atoi(op.Args[1])
	end, err2 := strconv.Atoi(op.Args[2])
	if err1 != nil || err2 != nil || start < 1 || end < start {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "FileReadRange: invalid line range"}
	}
	lines, f := readFileLines(op, ws, 0)
	if f != nil {
		return "", f
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > len(lines) {
		return "", nil
	}
	return strings.Join(lines[start-1:end], "\n"), nil
}

// fileAppendLines appends each remaining arg as its own line.
func fileAppendLines(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	if len(op.Args) < 2 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindCompile, Detail: "FileAppendLines requires path, line..."}
	}
	p, f := resolveWrite(op, ws, 0)
	if f != nil {
		return "", f
	}
	fh, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	defer fh.Close()
	for _, line := range op.Args[1:] {
		if _, err := fh.WriteString(line + "\n"); err != nil {
			return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
		}
	}
	return "", nil
}

// fileSymlinkRead reports the link target of args[0], failing if it
// isn't a symlink. Informational only: it never opens the target.
func fileSymlinkRead(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	info, err := os.Lstat(p)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "FileSymlinkRead: not a symlink"}
	}
	target, err := os.Readlink(p)
	if err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return target, nil
}

func readFileLines(op *mk8shell.Operation, ws *container.Workspace, argIdx int) ([]string, *mk8shell.Failure) {
	p, f := resolveRead(op, ws, argIdx)
	if f != nil {
		return nil, f
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	if len(data) == 0 {
		return nil, nil
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n"), nil
}

func dirCopy(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	src, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	dst, f := resolveWrite(op, ws, 1)
	if f != nil {
		return "", f
	}
	walkErr := filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, in)
		return err
	})
	if walkErr != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: walkErr.Error()}
	}
	return dst, nil
}

func dirMove(ctx context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	if out, f := dirCopy(ctx, op, ws); f != nil {
		return out, f
	}
	src, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	if err := os.RemoveAll(src); err != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: err.Error()}
	}
	return "", nil
}

func dirSize(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	var total int64
	walkErr := filepath.Walk(p, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if walkErr != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: walkErr.Error()}
	}
	return strconv.FormatInt(total, 10), nil
}

// dirWalk lists every file path under args[0], relative to it, recursively.
func dirWalk(_ context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure) {
	p, f := resolveRead(op, ws, 0)
	if f != nil {
		return "", f
	}
	var names []string
	walkErr := filepath.Walk(p, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == p {
			return nil
		}
		rel, err := filepath.Rel(p, path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			rel += "/"
		}
		names = append(names, rel)
		return nil
	})
	if walkErr != nil {
		return "", &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: walkErr.Error()}
	}
	return strings.Join(names, "\n"), nil
}
