package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadInputFromArgs(t *testing.T) {
	input, err := readInput([]string{"hello", "world"}, "", strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input != "hello world" {
		t.Fatalf("unexpected input: %q", input)
	}
}

func TestReadInputFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(path, []byte("file prompt\n"), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	input, err := readInput(nil, path, strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input != "file prompt" {
		t.Fatalf("unexpected input: %q", input)
	}
}

func TestReadInputFromStdin(t *testing.T) {
	input, err := readInput(nil, "-", strings.NewReader("stdin prompt\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input != "stdin prompt" {
		t.Fatalf("unexpected input: %q", input)
	}
}

func TestReadInputEmpty(t *testing.T) {
	input, err := readInput(nil, "", strings.NewReader("ignored"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input != "" {
		t.Fatalf("expected empty input, got %q", input)
	}
}

func TestReadInputConflict(t *testing.T) {
	_, err := readInput([]string{"hello"}, "prompt.txt", strings.NewReader(""))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestReadInputMissingFile(t *testing.T) {
	_, err := readInput(nil, filepath.Join(t.TempDir(), "missing.txt"), strings.NewReader(""))
	if err == nil {
		t.Fatalf("expected error")
	}
}
