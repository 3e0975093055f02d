package transcribe

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mediascribe/mediascribe/internal/conf"
)

// ProgressFunc receives stage-local progress in [0,1].
type ProgressFunc func(fraction float64, message string)

// Result is the transcription stage output.
type Result struct {
	Text    string
	Summary string
}

// Engine is a transcription backend. It is selected once at job
// submission and held for the job's lifetime.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string, report ProgressFunc) (*Result, error)
}

// Options are per-job engine parameters supplied by the caller.
type Options struct {
	ModelSize string
	Prompt    string
}

// New resolves an engine by name. An unknown name is a synchronous
// validation failure, before any task exists.
func New(cfg conf.Transcribe, name string, opts Options) (Engine, error) {
	if name == "" {
		name = cfg.DefaultEngine
	}
	if opts.ModelSize == "" {
		opts.ModelSize = cfg.DefaultModel
	}
	if opts.Prompt == "" {
		opts.Prompt = cfg.Prompt
	}

	switch name {
	case "whisper":
		return newWhisperEngine(cfg.WhisperPath, opts), nil
	case "xunfei":
		if cfg.RemoteAppID == "" || cfg.RemoteSecretKey == "" {
			return nil, errors.New("remote engine requires app id and secret key")
		}
		return newRemoteEngine(
			cfg.RemoteHost,
			cfg.RemoteAppID,
			cfg.RemoteSecretKey,
			time.Duration(cfg.PollIntervalSecs)*time.Second,
			time.Duration(cfg.PollTimeoutMins)*time.Minute,
		), nil
	default:
		return nil, errors.Errorf("unknown transcription engine: %s", name)
	}
}

// summarize keeps the leading slice of the transcript for list views.
func summarize(text string) string {
	runes := []rune(text)
	if len(runes) <= 50 {
		return text
	}
	return string(runes[:50]) + "..."
}
