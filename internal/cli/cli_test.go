package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/karaoke/internal/config"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvConfig, "")
	t.Chdir(t.TempDir())
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeWords(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.json")
	body := `[
  {"word": "sing", "start": 0.0, "end": 0.5, "conf": 0.9, "source": "ctc_forced_aligner"},
  {"word": "a", "start": 0.5, "end": 0.9, "conf": 0.9, "source": "ctc_forced_aligner"},
  {"word": "song", "start": 0.9, "end": 1.6, "conf": 0.9, "source": "ctc_forced_aligner"},
  {"word": "  ", "start": 1.6, "end": 1.7}
]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write words: %v", err)
	}
	return path
}

func TestConfigInit(t *testing.T) {
	isolate(t)
	target := filepath.Join(t.TempDir(), "karaoke.toml")

	out, _, err := execute(t, "config", "init", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected target path in output, got %q", out)
	}
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("written sample does not load: %v", err)
	}

	if _, _, err := execute(t, "config", "init", target); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing-file error, got %v", err)
	}
	if _, _, err := execute(t, "config", "init", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestLayoutPrintsLines(t *testing.T) {
	isolate(t)
	words := writeWords(t)

	out, _, err := execute(t, "layout", words, "--max-chars", "8")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	for _, want := range []string{"sing a", "song", "3 words in 2 lines (1 dropped, 0 non-monotonic)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestLayoutRejectsEmptyTranscript(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "words.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatalf("write words: %v", err)
	}
	if _, _, err := execute(t, "layout", path); err == nil || !strings.Contains(err.Error(), "malformed timeline") {
		t.Fatalf("expected malformed timeline error, got %v", err)
	}
}

func TestRenderValidatesInputs(t *testing.T) {
	isolate(t)
	words := writeWords(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing instrumental", []string{"render", words}, "instrumental audio is required"},
		{"missing transcript", []string{"render", filepath.Join(t.TempDir(), "nope.json"), "--instrumental", "i.wav"}, "stat transcript"},
		{"bad mode", []string{"render", words, "--instrumental", "i.wav", "--mode", "scroll"}, "layout.mode"},
		{"nothing to render", []string{"render", words, "--final=false"}, "at least one"},
		{"wrong arg count", []string{"render"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestApplyRenderFlags(t *testing.T) {
	isolate(t)
	cmd := newRenderCommand(new(string))
	if err := cmd.ParseFlags([]string{"--mix", "mix.wav", "--mode", "Windowed", "--workers", "4", "--title", " T ", "--subtitles=false"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	s := config.Default()
	if err := applyRenderFlags(cmd, &s); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !s.Output.SyncCheck || !s.Output.Final || s.Output.Subtitles {
		t.Fatalf("unexpected outputs %+v", s.Output)
	}
	if s.Layout.Mode != "windowed" || s.Video.Workers != 4 || s.Song.Title != "T" {
		t.Fatalf("unexpected overrides: mode=%q workers=%d title=%q", s.Layout.Mode, s.Video.Workers, s.Song.Title)
	}
}

func TestRenderTimeoutDefaultsToNoLimit(t *testing.T) {
	cmd := newRenderCommand(new(string))
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil || timeout != 0 {
		t.Fatalf("timeout default = %v (%v), want 0", timeout, err)
	}
	ctx, cancel := withTimeout(context.Background(), timeout)
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatalf("zero timeout should not set a deadline")
	}

	ctx, cancel = withTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatalf("positive timeout should set a deadline")
	}
}
