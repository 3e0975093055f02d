package download

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	err     error
	stderr  string
	written string // file created on success, simulating the tool
	calls   [][]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return "", f.stderr, f.err
	}
	if f.written != "" {
		if err := os.WriteFile(f.written, []byte("fake video"), 0o644); err != nil {
			return "", "", err
		}
	}
	return "", "", nil
}

func metaServer(t *testing.T, code int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/x/web-interface/view", r.URL.Path)
		require.Equal(t, "BV1xx411c7mD", r.URL.Query().Get("bvid"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"code":%d,"message":"ok",
			"data":{"title":"test video","desc":"a description","duration":120.5,
				"owner":{"name":"uploader"},
				"stat":{"view":100,"like":10}}}`, code)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestDownloader(t *testing.T, apiHost string, runner CommandRunner) *Downloader {
	t.Helper()
	dir := t.TempDir()
	return &Downloader{
		tool:     "yt-dlp",
		dir:      dir,
		thumbDir: filepath.Join(dir, "thumbs"),
		client:   newMetaClient(apiHost),
		runner:   runner,
		probe: func(path string) (string, error) {
			return `{"format":{"duration":"120.5"},"streams":[{"codec_type":"audio"},{"codec_type":"video","width":1920,"height":1080}]}`, nil
		},
		capture: func(videoPath, outPath string) error {
			return os.WriteFile(outPath, []byte("jpg"), 0o644)
		},
	}
}

func TestNormalizeBVID(t *testing.T) {
	require.Equal(t, "BV1xx411c7mD", NormalizeBVID("1xx411c7mD"))
	require.Equal(t, "BV1xx411c7mD", NormalizeBVID("  BV1xx411c7mD  "))
	require.Equal(t, "", NormalizeBVID("   "))
}

// TestDownloadSuccess runs the whole stage against fakes and checks
// the result and the reported checkpoints.
func TestDownloadSuccess(t *testing.T) {
	ts := metaServer(t, 0)
	runner := &fakeRunner{}
	d := newTestDownloader(t, ts.URL, runner)
	runner.written = filepath.Join(d.dir, "BV1xx411c7mD.mp4")

	var fractions []float64
	res, err := d.Download(context.Background(), "1xx411c7mD", func(f float64, _ string) {
		fractions = append(fractions, f)
	})
	require.NoError(t, err)
	require.Equal(t, "BV1xx411c7mD", res.BVID)
	require.FileExists(t, res.VideoPath)
	require.FileExists(t, res.ThumbnailPath)

	require.NotNil(t, res.Meta)
	require.Equal(t, "test video", res.Meta.Title)
	require.Equal(t, "uploader", res.Meta.Author)
	require.EqualValues(t, 100, res.Meta.Stats["view"])

	require.NotNil(t, res.Info)
	require.Equal(t, 120.5, res.Info.Duration)
	require.Equal(t, "1920x1080", res.Info.Resolution)

	require.Equal(t, []float64{0, 0.1, 0.85, 0.95, 1}, fractions)

	require.Len(t, runner.calls, 1)
	require.Equal(t, "yt-dlp", runner.calls[0][0])
	require.Contains(t, runner.calls[0], "--no-playlist")
}

// TestDownloadToleratesMetaFailure keeps going when the metadata API
// answers with an error code.
func TestDownloadToleratesMetaFailure(t *testing.T) {
	ts := metaServer(t, -404)
	runner := &fakeRunner{}
	d := newTestDownloader(t, ts.URL, runner)
	runner.written = filepath.Join(d.dir, "BV1xx411c7mD.mp4")

	res, err := d.Download(context.Background(), "BV1xx411c7mD", func(float64, string) {})
	require.NoError(t, err)
	require.Nil(t, res.Meta)
	require.FileExists(t, res.VideoPath)
}

// TestDownloadToolFailure surfaces the first stderr line in the error.
func TestDownloadToolFailure(t *testing.T) {
	ts := metaServer(t, 0)
	runner := &fakeRunner{err: errors.New("exit status 1"), stderr: "ERROR: video unavailable\nmore noise"}
	d := newTestDownloader(t, ts.URL, runner)

	_, err := d.Download(context.Background(), "BV1xx411c7mD", func(float64, string) {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ERROR: video unavailable")
	require.NotContains(t, err.Error(), "more noise")
}

// TestDownloadMissingOutput fails when the tool exits cleanly but left
// no file behind.
func TestDownloadMissingOutput(t *testing.T) {
	ts := metaServer(t, 0)
	d := newTestDownloader(t, ts.URL, &fakeRunner{})

	_, err := d.Download(context.Background(), "BV1xx411c7mD", func(float64, string) {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "video file is missing")
}

func TestDownloadEmptyID(t *testing.T) {
	d := newTestDownloader(t, "http://127.0.0.1:0", &fakeRunner{})
	_, err := d.Download(context.Background(), "  ", func(float64, string) {})
	require.Error(t, err)
}
