package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "BV1xx411c7mD.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake video"), 0o644))
	return path
}

// TestExtractSuccess checks the timestamped output name and the
// progress boundaries.
func TestExtractSuccess(t *testing.T) {
	e := New(t.TempDir())
	e.now = func() time.Time { return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) }
	e.run = func(videoPath, outPath string) error {
		return os.WriteFile(outPath, []byte("fake audio"), 0o644)
	}

	var fractions []float64
	res, err := e.Extract(context.Background(), writeVideo(t), func(f float64, _ string) {
		fractions = append(fractions, f)
	})
	require.NoError(t, err)
	require.Equal(t, "BV1xx411c7mD_20240315103000.mp3", filepath.Base(res.AudioPath))
	require.Equal(t, "conv", filepath.Base(filepath.Dir(res.AudioPath)))
	require.FileExists(t, res.AudioPath)
	require.Equal(t, []float64{0, 1}, fractions)
}

func TestExtractMissingVideo(t *testing.T) {
	e := New(t.TempDir())
	_, err := e.Extract(context.Background(), "/nonexistent/video.mp4", func(float64, string) {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}

// TestExtractTranscodeFailure wraps the tool error.
func TestExtractTranscodeFailure(t *testing.T) {
	e := New(t.TempDir())
	e.run = func(videoPath, outPath string) error { return errors.New("codec not found") }

	_, err := e.Extract(context.Background(), writeVideo(t), func(float64, string) {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "codec not found")
}

// TestExtractMissingOutput fails when the transcode exits cleanly but
// produced nothing.
func TestExtractMissingOutput(t *testing.T) {
	e := New(t.TempDir())
	e.run = func(videoPath, outPath string) error { return nil }

	_, err := e.Extract(context.Background(), writeVideo(t), func(float64, string) {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "audio file is missing")
}

func TestExtractCancelledContext(t *testing.T) {
	e := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, writeVideo(t), func(float64, string) {})
	require.ErrorIs(t, err, context.Canceled)
}
