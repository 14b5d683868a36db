// Package tuitest drives a compiled TUI binary inside a pseudo
// terminal and captures what it draws, for smoke tests that exercise
// the real program instead of the model in isolation.
package tuitest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/creack/pty"
)

const (
	defaultWidth   = 120
	defaultHeight  = 32
	defaultTimeout = 10 * time.Second
)

// Common control sequences for scripted input.
var (
	KeyCtrlC = []byte{0x03}
	KeyEsc   = []byte{0x1b}
	KeyEnter = []byte("\r")
	KeyTab   = []byte("\t")
)

// Step is one scripted interaction: wait, then write.
type Step struct {
	Delay time.Duration
	Input []byte
}

// Config describes how to spawn and drive the program.
type Config struct {
	Command        []string
	Dir            string
	Env            []string
	Width          int
	Height         int
	Steps          []Step
	Timeout        time.Duration
	AllowInterrupt bool
}

// Run executes the command inside a PTY, replays the steps, and
// returns everything the program drew with ANSI sequences stripped.
func Run(ctx context.Context, cfg Config) (string, error) {
	if len(cfg.Command) == 0 {
		return "", errors.New("tuitest: command is required")
	}
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = append(os.Environ(), append([]string{"TERM=xterm-256color"}, cfg.Env...)...)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)})
	if err != nil {
		return "", err
	}
	defer ptmx.Close()

	var output bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 4096)
		for {
			n, readErr := ptmx.Read(buf)
			if n > 0 {
				output.Write(buf[:n])
				answerQueries(ptmx, buf[:n])
			}
			if readErr != nil {
				return
			}
		}
	}()

	for _, step := range cfg.Steps {
		if step.Delay > 0 {
			time.Sleep(step.Delay)
		}
		if len(step.Input) > 0 {
			if _, err := ptmx.Write(step.Input); err != nil {
				break
			}
		}
	}

	waitErr := cmd.Wait()
	ptmx.Close()
	<-done

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !(cfg.AllowInterrupt && errors.As(waitErr, &exitErr)) {
			return stripANSI(output.String()), waitErr
		}
	}
	return stripANSI(output.String()), nil
}

// answerQueries replies to terminal status queries the program sends
// on startup (color probes, cursor position); without a response the
// program blocks waiting on a real terminal that is not there.
func answerQueries(ptmx *os.File, chunk []byte) {
	if bytes.Contains(chunk, []byte("\x1b]10;?")) {
		ptmx.Write([]byte("\x1b]10;rgb:ffff/ffff/ffff\x1b\\"))
	}
	if bytes.Contains(chunk, []byte("\x1b]11;?")) {
		ptmx.Write([]byte("\x1b]11;rgb:0000/0000/0000\x1b\\"))
	}
	if bytes.Contains(chunk, []byte("\x1b[6n")) {
		ptmx.Write([]byte("\x1b[1;1R"))
	}
	if bytes.Contains(chunk, []byte("\x1b[0c")) || bytes.HasSuffix(chunk, []byte("\x1b[c")) {
		ptmx.Write([]byte("\x1b[?62c"))
	}
}

var (
	csiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)
	oscPattern = regexp.MustCompile(`\x1b\][^\x07]*(\x07|\x1b\\)`)
)

func stripANSI(s string) string {
	s = oscPattern.ReplaceAllString(s, "")
	s = csiPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\x0f", "")
	s = strings.ReplaceAll(s, "\x0e", "")
	return s
}
