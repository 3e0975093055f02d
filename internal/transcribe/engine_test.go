package transcribe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mediascribe/mediascribe/internal/conf"
)

func testConf() conf.Transcribe {
	return conf.Transcribe{
		DefaultEngine:    "whisper",
		DefaultModel:     "small",
		WhisperPath:      "whisper",
		RemoteHost:       "http://127.0.0.1:0",
		PollIntervalSecs: 5,
		PollTimeoutMins:  30,
	}
}

// TestNewDefaults resolves an empty name to the configured default and
// fills in the default model.
func TestNewDefaults(t *testing.T) {
	eng, err := New(testConf(), "", Options{})
	require.NoError(t, err)
	require.Equal(t, "whisper", eng.Name())

	we, ok := eng.(*whisperEngine)
	require.True(t, ok)
	require.Equal(t, "small", we.opts.ModelSize)
}

func TestNewUnknownEngine(t *testing.T) {
	_, err := New(testConf(), "nonsense", Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown transcription engine")
}

// TestNewRemoteRequiresCredentials refuses the remote engine without
// both credentials.
func TestNewRemoteRequiresCredentials(t *testing.T) {
	cfg := testConf()
	_, err := New(cfg, "xunfei", Options{})
	require.Error(t, err)

	cfg.RemoteAppID = "app"
	cfg.RemoteSecretKey = "secret"
	eng, err := New(cfg, "xunfei", Options{})
	require.NoError(t, err)
	require.Equal(t, "xunfei", eng.Name())
}

func TestSummarize(t *testing.T) {
	require.Equal(t, "short", summarize("short"))

	long := strings.Repeat("字", 60)
	s := summarize(long)
	require.Equal(t, strings.Repeat("字", 50)+"...", s)
}
