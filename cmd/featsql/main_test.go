// Package main provides tests for the FeatSQL CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/featsql/internal/cli"
)

func writeSeedFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	data := `databases:
  - name: feat
    tables:
      - name: features
        columns:
          - {name: user_id, type: int}
          - {name: score, type: float}
        rows:
          - [1, 0.5]
          - [2, 0.9]
          - [3, 0.1]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("version command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "FeatSQL") {
		t.Errorf("version output should contain 'FeatSQL', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	output := buf.String()
	expectedCommands := []string{"run", "request", "explain", "repl", "version"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestRunCommand(t *testing.T) {
	seedPath := writeSeedFile(t)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{
		"run", "SELECT user_id, score FROM features WHERE score > 0.3",
		"--seed_file", seedPath,
		"--database", "feat",
		"--format", "csv",
	})

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("run command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "user_id,score") {
		t.Errorf("run output should contain header, got: %s", output)
	}
	if !strings.Contains(output, "1,0.5") || !strings.Contains(output, "2,0.9") {
		t.Errorf("run output should contain matching rows, got: %s", output)
	}
	if strings.Contains(output, "3,0.1") {
		t.Errorf("run output should not contain filtered row, got: %s", output)
	}
}

func TestRequestCommand(t *testing.T) {
	seedPath := writeSeedFile(t)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{
		"request", "SELECT user_id, score * 2 AS doubled FROM features",
		"--seed_file", seedPath,
		"--database", "feat",
		"--input", `[7, 0.25]`,
		"--format", "csv",
	})

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("request command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "7,0.5") {
		t.Errorf("request output should contain computed row, got: %s", output)
	}
}

func TestExplainCommand(t *testing.T) {
	seedPath := writeSeedFile(t)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{
		"explain", "SELECT user_id FROM features",
		"--seed_file", seedPath,
		"--database", "feat",
	})

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("explain command error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"Output Schema:", "Logical Plan:", "Physical Plan:"} {
		if !strings.Contains(output, want) {
			t.Errorf("explain output should contain %q, got: %s", want, output)
		}
	}
}

func TestExplainCommandBadMode(t *testing.T) {
	seedPath := writeSeedFile(t)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{
		"explain", "SELECT user_id FROM features",
		"--seed_file", seedPath,
		"--database", "feat",
		"--mode", "streaming",
	})

	err := cmd.Execute()
	if err == nil {
		t.Error("explain with an unknown mode should return an error")
	}
}

func TestCompletionCommand(t *testing.T) {
	shells := []string{"bash", "zsh", "fish", "powershell"}

	for _, shell := range shells {
		t.Run(shell, func(t *testing.T) {
			cmd := cli.NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs([]string{"completion", shell})

			err := cmd.Execute()
			if err != nil {
				t.Errorf("completion %s command error = %v", shell, err)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"unknown-command"})

	err := cmd.Execute()
	if err == nil {
		t.Error("unknown command should return an error")
	}
}
