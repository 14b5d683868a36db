package main

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/k-tsurumaki/quilldeck-cli/internal/tuitest"
)

func TestQuillDeckShowsAuthScreen(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)

	// Point at a port nothing listens on so the probe settles on
	// unreachable instead of hanging the test on a real backend.
	output, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "-no-alt-screen", "-server", "http://127.0.0.1:1"},
		Dir:     t.TempDir(),
		Width:   100,
		Height:  32,
		Steps: []tuitest.Step{
			{Delay: 2 * time.Second},
			{Input: tuitest.KeyCtrlC},
		},
		Timeout:        10 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	for _, fragment := range []string{"QuillDeck", "Sign in", "Email", "Password"} {
		if !strings.Contains(output, fragment) {
			t.Fatalf("auth screen missing %q in output:\n%s", fragment, output)
		}
	}
}

func TestQuillDeckRegisterModeToggle(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)

	output, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "-no-alt-screen", "-server", "http://127.0.0.1:1"},
		Dir:     t.TempDir(),
		Width:   100,
		Height:  32,
		Steps: []tuitest.Step{
			{Delay: time.Second},
			{Input: []byte{0x12}}, // ctrl+r switches to register mode
			{Delay: time.Second},
			{Input: tuitest.KeyCtrlC},
		},
		Timeout:        10 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	if !strings.Contains(output, "Create your account") {
		t.Fatalf("register form not shown after ctrl+r:\n%s", output)
	}
	if !strings.Contains(output, "Name") {
		t.Fatalf("register form missing name field:\n%s", output)
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	name := "quilldeck-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}
