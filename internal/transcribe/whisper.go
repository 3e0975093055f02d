package transcribe

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mediascribe/mediascribe/internal/errs"
	"github.com/pkg/errors"
)

// commandRunner abstracts the whisper binary for tests.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), errors.Wrapf(err, "%s failed", name)
}

// whisperEngine runs the local whisper CLI. One blocking call: the
// only progress boundaries are model load and completion.
type whisperEngine struct {
	binPath   string
	opts      Options
	runner    commandRunner
	mkdirTemp func(dir, pattern string) (string, error)
}

func newWhisperEngine(binPath string, opts Options) *whisperEngine {
	return &whisperEngine{
		binPath:   binPath,
		opts:      opts,
		runner:    execRunner{},
		mkdirTemp: os.MkdirTemp,
	}
}

func (e *whisperEngine) Name() string { return "whisper" }

func (e *whisperEngine) Transcribe(ctx context.Context, audioPath string, report ProgressFunc) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, errors.Wrapf(err, "audio file does not exist: %s", audioPath)
	}

	outDir, err := e.mkdirTemp("", "mediascribe-whisper-*")
	if err != nil {
		return nil, errors.Wrap(err, "cannot create transcript workspace")
	}
	defer os.RemoveAll(outDir)

	report(0, "loading whisper model "+e.opts.ModelSize)
	args := []string{
		audioPath,
		"--model", e.opts.ModelSize,
		"--output_format", "txt",
		"--output_dir", outDir,
	}
	if e.opts.Prompt != "" {
		args = append(args, "--initial_prompt", e.opts.Prompt)
	}

	if _, stderr, err := e.runner.Run(ctx, e.binPath, args...); err != nil {
		return nil, errors.Wrapf(err, "whisper transcription failed: %s", lastLine(stderr))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	textPath := filepath.Join(outDir, base+".txt")
	content, err := os.ReadFile(textPath)
	if err != nil {
		return nil, errors.Wrapf(err, "whisper finished but transcript is missing: %s", textPath)
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, errs.ErrEmptyTranscript
	}

	report(1, "transcription complete")
	return &Result{Text: text, Summary: summarize(text)}, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
