package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ProgressFunc receives coarse stage-local progress in [0,1]; the
// transcode itself reports no intermediate positions.
type ProgressFunc func(fraction float64, message string)

// Result is the extraction stage output.
type Result struct {
	AudioPath string
}

// Extractor derives an mp3 audio track from a downloaded video file.
type Extractor struct {
	dir string
	now func() time.Time
	run func(videoPath, outPath string) error
}

func New(audioDir string) *Extractor {
	return &Extractor{
		dir: audioDir,
		now: time.Now,
		run: transcode,
	}
}

// Extract writes the audio track next to previous conversions, with a
// timestamped name so re-runs never clobber an earlier extraction.
func (e *Extractor) Extract(ctx context.Context, videoPath string, report ProgressFunc) (*Result, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, errors.Wrapf(err, "video file does not exist: %s", videoPath)
	}
	outDir := filepath.Join(e.dir, "conv")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "cannot create audio directory")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	outPath := filepath.Join(outDir, fmt.Sprintf("%s_%s.mp3", base, e.now().Format("20060102150405")))

	report(0, "extracting audio track")
	if err := e.run(videoPath, outPath); err != nil {
		return nil, errors.Wrap(err, "audio extraction failed")
	}
	if _, err := os.Stat(outPath); err != nil {
		return nil, errors.Wrapf(err, "extraction finished but audio file is missing: %s", outPath)
	}

	report(1, "audio extraction complete")
	return &Result{AudioPath: outPath}, nil
}

func transcode(videoPath, outPath string) error {
	return ffmpeg.Input(videoPath).
		Output(outPath, ffmpeg.KwArgs{"vn": "", "acodec": "libmp3lame", "q:a": 2}).
		OverWriteOutput().
		Silent(true).
		Run()
}
