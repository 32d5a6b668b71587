package utils

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// SafeCommand is an exec.Cmd whose stderr is kept in memory, so a detector
// that dies mid-run still leaves its traceback behind for the error report.
type SafeCommand struct {
	*exec.Cmd
	Stderr *bytes.Buffer
}

// NewSafeCommand binds the command to ctx and captures its stderr.
// The command is not started.
func NewSafeCommand(ctx context.Context, name string, args ...string) *SafeCommand {
	buf := new(bytes.Buffer)
	c := exec.CommandContext(ctx, name, args...)
	c.Stderr = buf
	return &SafeCommand{Cmd: c, Stderr: buf}
}

// crashLogLines caps how much detector stderr is echoed in an error report.
const crashLogLines = 40

// ShowError prints a boxed error report to stderr, followed by the tail of
// the detector's stderr when s captured any. It does not exit; callers
// return the error so cobra sets the exit status.
func ShowError(context string, err error, s *SafeCommand) {
	writeError(os.Stderr, context, err, s)
}

func writeError(w io.Writer, context string, err error, s *SafeCommand) {
	const rule = "---------------------------------------------------------"
	fmt.Fprintf(w, "\n%s\n🚨 EMOJIFY ERROR: %s\n", rule, context)
	if err != nil {
		fmt.Fprintf(w, "DETAILS: %v\n", err)
	}
	if s != nil && s.Stderr != nil && s.Stderr.Len() > 0 {
		fmt.Fprintf(w, "\nDETECTOR CRASH LOGS:\n%s\n", tail(s.Stderr.String(), crashLogLines))
	}
	fmt.Fprintln(w, rule)
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return fmt.Sprintf("... (%d lines omitted)\n%s", len(lines)-n, strings.Join(lines[len(lines)-n:], "\n"))
}

// GenerateImageID derives a stable run id for an input file from its path,
// size and modification time. Re-processing an unchanged file yields the same id.
func GenerateImageID(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s-%d-%d", path, info.Size(), info.ModTime().UnixNano())
	return hex.EncodeToString(h.Sum(nil)), nil
}
