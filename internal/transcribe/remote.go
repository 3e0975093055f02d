package transcribe

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mediascribe/mediascribe/internal/errs"
)

// Remote order statuses as reported by the service.
const (
	orderRunning = 3
	orderDone    = 4
)

// remoteEngine talks to a long-running ASR HTTP service: upload the
// audio, then poll the order until it terminates. The service itself
// never times out, so the poll loop carries its own deadline.
type remoteEngine struct {
	appID    string
	secret   string
	client   *resty.Client
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
}

func newRemoteEngine(host, appID, secret string, interval, timeout time.Duration) *remoteEngine {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &remoteEngine{
		appID:    appID,
		secret:   secret,
		client: resty.New().
			SetBaseURL(host).
			SetHeader("Content-Type", "application/json").
			SetTimeout(5 * time.Minute),
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
	}
}

func (e *remoteEngine) Name() string { return "xunfei" }

type orderResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Content struct {
		OrderID   string `json:"orderId"`
		OrderInfo struct {
			Status   int `json:"status"`
			FailType int `json:"failType"`
		} `json:"orderInfo"`
		OrderResult string `json:"orderResult"`
	} `json:"content"`
}

func (e *remoteEngine) Transcribe(ctx context.Context, audioPath string, report ProgressFunc) (*Result, error) {
	report(0, "uploading audio to remote engine")
	orderID, err := e.upload(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	report(0.1, "audio uploaded, waiting for remote result")
	text, err := e.pollResult(ctx, orderID, report)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, errs.ErrEmptyTranscript
	}

	report(1, "transcription complete")
	return &Result{Text: text, Summary: summarize(text)}, nil
}

func (e *remoteEngine) upload(ctx context.Context, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read audio file: %s", audioPath)
	}

	signa, ts := e.sign()
	var body orderResp
	resp, err := e.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"appId":    e.appID,
			"signa":    signa,
			"ts":       ts,
			"fileSize": strconv.Itoa(len(data)),
			"fileName": uuid.NewString() + filepath.Ext(audioPath),
			"duration": "200",
		}).
		SetBody(data).
		SetResult(&body).
		Post("/upload")
	if err != nil {
		return "", errors.Wrap(err, "audio upload failed")
	}
	if resp.IsError() {
		return "", errors.Errorf("audio upload failed: %s", resp.Status())
	}
	if body.Code != 0 {
		return "", errors.Errorf("audio upload rejected (%d): %s", body.Code, body.Message)
	}
	if body.Content.OrderID == "" {
		return "", errors.New("audio upload returned no order id")
	}
	return body.Content.OrderID, nil
}

func (e *remoteEngine) pollResult(ctx context.Context, orderID string, report ProgressFunc) (string, error) {
	deadline := e.now().Add(e.timeout)
	polls := 0
	for {
		signa, ts := e.sign()
		var body orderResp
		resp, err := e.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"appId":      e.appID,
				"signa":      signa,
				"ts":         ts,
				"orderId":    orderID,
				"resultType": "transfer,predict",
			}).
			SetResult(&body).
			Post("/getResult")
		if err != nil {
			return "", errors.Wrap(err, "result poll failed")
		}
		if resp.IsError() {
			return "", errors.Errorf("result poll failed: %s", resp.Status())
		}

		switch body.Content.OrderInfo.Status {
		case orderDone:
			return parseOrderResult(body.Content.OrderResult)
		case orderRunning:
			polls++
			report(0.1, fmt.Sprintf("remote transcription in progress (poll %d)", polls))
		default:
			return "", errors.Errorf("remote transcription failed with status %d (fail type %d)",
				body.Content.OrderInfo.Status, body.Content.OrderInfo.FailType)
		}

		if e.now().After(deadline) {
			return "", errors.Errorf("remote transcription did not finish within %s", e.timeout)
		}
		select {
		case <-ctx.Done():
			return "", errors.WithStack(ctx.Err())
		case <-time.After(e.interval):
		}
	}
}

// sign builds the service signature: hmac-sha1 over the md5 hex of
// appid+timestamp, base64 encoded.
func (e *remoteEngine) sign() (string, string) {
	ts := strconv.FormatInt(e.now().Unix(), 10)
	sum := md5.Sum([]byte(e.appID + ts))
	digest := hex.EncodeToString(sum[:])
	mac := hmac.New(sha1.New, []byte(e.secret))
	mac.Write([]byte(digest))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), ts
}

// Result payload shapes: orderResult is a JSON string holding a
// lattice of per-sentence best paths, each itself JSON-encoded.
type lattice struct {
	Lattice []struct {
		JSONBest string `json:"json_1best"`
	} `json:"lattice"`
}

type oneBest struct {
	ST struct {
		RT []struct {
			WS []struct {
				CW []struct {
					W string `json:"w"`
				} `json:"cw"`
			} `json:"ws"`
		} `json:"rt"`
	} `json:"st"`
}

func parseOrderResult(raw string) (string, error) {
	var lat lattice
	if err := json.Unmarshal([]byte(raw), &lat); err != nil {
		return "", errors.Wrap(err, "cannot parse remote result")
	}
	var sentences []string
	for _, l := range lat.Lattice {
		var best oneBest
		if err := json.Unmarshal([]byte(l.JSONBest), &best); err != nil {
			continue
		}
		for _, rt := range best.ST.RT {
			var b strings.Builder
			for _, ws := range rt.WS {
				for _, cw := range ws.CW {
					b.WriteString(cw.W)
				}
			}
			if b.Len() > 0 {
				sentences = append(sentences, b.String())
			}
		}
	}
	return strings.Join(sentences, " "), nil
}
