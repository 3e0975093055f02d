package download

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/mediascribe/mediascribe/internal/conf"
	"github.com/mediascribe/mediascribe/pkg/utils"
)

// ProgressFunc receives coarse stage-local progress in [0,1]. The
// checkpoints are synthetic (the external tool gives no byte-level
// feedback), an approximation rather than a contract.
type ProgressFunc func(fraction float64, message string)

// Info is the technical probe of the downloaded file.
type Info struct {
	Duration   float64 `json:"duration"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Resolution string  `json:"resolution"`
}

// Result is the acquisition stage output.
type Result struct {
	BVID          string
	VideoPath     string
	ThumbnailPath string
	Info          *Info
	Meta          *Meta
}

// Downloader acquires a media item by business key with an external
// downloader binary and enriches it with probed info and a thumbnail.
type Downloader struct {
	tool     string
	dir      string
	thumbDir string
	client   *resty.Client
	runner   CommandRunner
	probe    func(path string) (string, error)
	capture  func(videoPath, outPath string) error
}

func New(cfg conf.Download, downloadDir, thumbDir string) *Downloader {
	return &Downloader{
		tool:     cfg.Tool,
		dir:      downloadDir,
		thumbDir: thumbDir,
		client:   newMetaClient(cfg.APIHost),
		runner:   execRunner{},
		probe: func(path string) (string, error) {
			return ffmpeg.Probe(path)
		},
		capture:  captureFrame,
	}
}

// NormalizeBVID upper-cases nothing but guarantees the BV prefix, the
// same forgiving treatment the submission surface applies.
func NormalizeBVID(bvid string) string {
	bvid = strings.TrimSpace(bvid)
	if bvid != "" && !strings.HasPrefix(bvid, "BV") {
		bvid = "BV" + bvid
	}
	return bvid
}

// Download runs the acquisition stage: metadata fetch, binary
// download, probe, thumbnail. Metadata and thumbnail failures are
// tolerated; a missing output file is not.
func (d *Downloader) Download(ctx context.Context, bvid string, report ProgressFunc) (*Result, error) {
	bvid = NormalizeBVID(bvid)
	if bvid == "" {
		return nil, errors.New("media id must not be empty")
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "cannot create download directory")
	}
	if err := os.MkdirAll(d.thumbDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "cannot create thumbnail directory")
	}

	report(0, "fetching video metadata")
	meta, err := d.fetchMeta(ctx, bvid)
	if err != nil {
		// record still gets placeholders; the download decides success
		utils.Log.Warnf("metadata fetch for %s failed: %v", bvid, err)
	}

	report(0.1, "downloading video")
	videoPath := filepath.Join(d.dir, bvid+".mp4")
	url := fmt.Sprintf("https://www.bilibili.com/video/%s", bvid)
	args := []string{
		"-f", "mp4",
		"-o", videoPath,
		"--no-playlist",
		url,
	}
	if _, stderr, err := d.runner.Run(ctx, d.tool, args...); err != nil {
		return nil, errors.Wrapf(err, "video download failed: %s", firstLine(stderr))
	}
	if _, err := os.Stat(videoPath); err != nil {
		return nil, errors.Wrapf(err, "download finished but video file is missing: %s", videoPath)
	}

	report(0.85, "probing video file")
	res := &Result{BVID: bvid, VideoPath: videoPath, Meta: meta}
	if info, err := d.probeInfo(videoPath); err != nil {
		utils.Log.Warnf("probe of %s failed: %v", videoPath, err)
	} else {
		res.Info = info
	}

	report(0.95, "capturing thumbnail")
	thumbPath := filepath.Join(d.thumbDir, bvid+"_thumbnail.jpg")
	if err := d.capture(videoPath, thumbPath); err != nil {
		utils.Log.Warnf("thumbnail capture for %s failed: %v", bvid, err)
	} else {
		res.ThumbnailPath = thumbPath
	}

	report(1, "video download complete")
	return res, nil
}

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func (d *Downloader) probeInfo(path string) (*Info, error) {
	out, err := d.probe(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var p probeFormat
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		return nil, errors.Wrap(err, "cannot parse probe output")
	}
	info := &Info{}
	info.Duration, _ = strconv.ParseFloat(p.Format.Duration, 64)
	for _, s := range p.Streams {
		if s.CodecType == "video" {
			info.Width, info.Height = s.Width, s.Height
			info.Resolution = fmt.Sprintf("%dx%d", s.Width, s.Height)
			break
		}
	}
	return info, nil
}

func captureFrame(videoPath, outPath string) error {
	return ffmpeg.Input(videoPath, ffmpeg.KwArgs{"ss": "00:00:01"}).
		Output(outPath, ffmpeg.KwArgs{"vframes": 1, "format": "image2"}).
		OverWriteOutput().
		Silent(true).
		Run()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
