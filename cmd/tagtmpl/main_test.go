package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "libs", "text.star"), "def shout(s):\n    return s.upper() + \"!\"\n")
	writeFile(t, filepath.Join(dir, "templates", "page.txt"),
		"{% load text %}{% if name %}{% shout name %}{% else %}nobody{% endif %}")
	writeFile(t, filepath.Join(dir, "data.yaml"), "name: bob\n")
	cfg := filepath.Join(dir, "tagtmpl.yaml")
	writeFile(t, cfg, "library_dirs: [libs]\ntemplate_dirs: [templates]\n")

	got := run(t, "--config", cfg, "--no-color", "render", "page.txt", "--data", filepath.Join(dir, "data.yaml"))
	if got != "BOB!" {
		t.Fatalf("render = %q", got)
	}

	got = run(t, "--config", cfg, "--no-color", "inspect", "page.txt", "--kind", "if")
	if got != "if#0 If(name)\n" {
		t.Fatalf("inspect = %q", got)
	}

	got = run(t, "--config", cfg, "--no-color", "tags")
	if got != "if (builtin)\nload (builtin)\nwith (builtin)\n" {
		t.Fatalf("tags = %q", got)
	}
}
