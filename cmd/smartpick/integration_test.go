//go:build !windows

package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const (
	keyDown  = "\x1b[B"
	keyEnter = "\r"
	keyCtrlC = "\x03"
)

const sampleSource = "func f() {\n\treturn a + b\n}\n"

// sampleRanges is the chain for the cursor on "a": a, a + b, return a + b.
const sampleRanges = `[{
  "range": {"start": {"line": 1, "character": 8}, "end": {"line": 1, "character": 9}},
  "parent": {
    "range": {"start": {"line": 1, "character": 8}, "end": {"line": 1, "character": 13}},
    "parent": {
      "range": {"start": {"line": 1, "character": 1}, "end": {"line": 1, "character": 13}}
    }
  }
}]`

// buildBinary compiles smartpick into a temp directory.
func buildBinary(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "smartpick")
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "go build failed:\n%s", out)
	return bin
}

type pickRun struct {
	console *expect.Console
	cmd     *exec.Cmd
	stdout  *bytes.Buffer
	done    chan error
}

// startPick runs the binary against a sample file with the picker drawn on a
// pseudo-terminal.
func startPick(t *testing.T, bin string) *pickRun {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "f.go")
	ranges := filepath.Join(dir, "ranges.json")
	require.NoError(t, os.WriteFile(file, []byte(sampleSource), 0644))
	require.NoError(t, os.WriteFile(ranges, []byte(sampleRanges), 0644))

	console, err := expect.NewConsole(expect.WithDefaultTimeout(5 * time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { console.Close() })

	tty := console.Tty()
	require.NoError(t, unix.IoctlSetWinsize(int(tty.Fd()), unix.TIOCSWINSZ, &unix.Winsize{Row: 24, Col: 80}))

	run := &pickRun{console: console, stdout: &bytes.Buffer{}, done: make(chan error, 1)}
	run.cmd = exec.Command(bin, "pick", file, "--cursor", "2:9", "--ranges", ranges) //nolint:gosec // G204: test binary
	run.cmd.Stdout = run.stdout
	run.cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"SMARTPICK_TTY="+tty.Name(),
		"SMARTPICK_CONFIG="+filepath.Join(dir, "config.yaml"),
		"XDG_DATA_HOME="+dir,
		"XDG_CACHE_HOME="+dir,
	)
	require.NoError(t, run.cmd.Start())
	go func() { run.done <- run.cmd.Wait() }()
	return run
}

func (r *pickRun) wait(t *testing.T) int {
	t.Helper()
	select {
	case err := <-r.done:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		require.NoError(t, err)
		return 0
	case <-time.After(10 * time.Second):
		_ = r.cmd.Process.Kill()
		t.Fatal("smartpick did not exit")
		return -1
	}
}

func TestIntegration_PickAccept(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	run := startPick(t, buildBinary(t))

	_, err := run.console.ExpectString("return a + b")
	require.NoError(t, err)

	_, err = run.console.Send(keyDown)
	require.NoError(t, err)
	_, err = run.console.Send(keyEnter)
	require.NoError(t, err)

	assert.Equal(t, 0, run.wait(t))
	assert.Equal(t, "2:9-2:14\n", run.stdout.String())
}

func TestIntegration_PickCancel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	run := startPick(t, buildBinary(t))

	_, err := run.console.ExpectString("return a + b")
	require.NoError(t, err)

	_, err = run.console.Send(keyDown)
	require.NoError(t, err)
	_, err = run.console.Send(keyCtrlC)
	require.NoError(t, err)

	assert.Equal(t, 1, run.wait(t))
	assert.Empty(t, run.stdout.String())
}
