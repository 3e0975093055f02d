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
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// doneResult is an order result with two sentences.
func doneResult(t *testing.T) string {
	t.Helper()
	best := func(words ...string) string {
		cw := make([]map[string]any, 0, len(words))
		for _, w := range words {
			cw = append(cw, map[string]any{"cw": []map[string]string{{"w": w}}})
		}
		b, err := json.Marshal(map[string]any{"st": map[string]any{"rt": []map[string]any{{"ws": cw}}}})
		require.NoError(t, err)
		return string(b)
	}
	out, err := json.Marshal(map[string]any{
		"lattice": []map[string]string{
			{"json_1best": best("你", "好")},
			{"json_1best": best("世", "界")},
		},
	})
	require.NoError(t, err)
	return string(out)
}

type remoteServer struct {
	*httptest.Server
	uploads int32
	polls   int32
	// pollStatus returns the order status for the nth poll (1-based)
	pollStatus func(n int32) int
	result     string
}

func newRemoteServer(t *testing.T) *remoteServer {
	t.Helper()
	rs := &remoteServer{result: doneResult(t)}
	rs.pollStatus = func(int32) int { return orderDone }
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "app", r.URL.Query().Get("appId"))
		require.NotEmpty(t, r.URL.Query().Get("signa"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/upload":
			atomic.AddInt32(&rs.uploads, 1)
			fmt.Fprint(w, `{"code":0,"content":{"orderId":"order-1"}}`)
		case "/getResult":
			n := atomic.AddInt32(&rs.polls, 1)
			status := rs.pollStatus(n)
			resp := map[string]any{
				"code": 0,
				"content": map[string]any{
					"orderId":     "order-1",
					"orderInfo":   map[string]int{"status": status, "failType": 0},
					"orderResult": rs.result,
				},
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(rs.Close)
	return rs
}

func newTestRemote(host string) *remoteEngine {
	return newRemoteEngine(host, "app", "secret", 5*time.Millisecond, time.Minute)
}

// TestRemoteTranscribe uploads, polls through a running answer and
// joins the lattice sentences.
func TestRemoteTranscribe(t *testing.T) {
	rs := newRemoteServer(t)
	rs.pollStatus = func(n int32) int {
		if n == 1 {
			return orderRunning
		}
		return orderDone
	}
	e := newTestRemote(rs.URL)

	res, err := e.Transcribe(context.Background(), writeAudio(t), func(float64, string) {})
	require.NoError(t, err)
	require.Equal(t, "你好 世界", res.Text)
	require.EqualValues(t, 1, rs.uploads)
	require.EqualValues(t, 2, rs.polls)
}

// TestRemoteOrderFailed maps a failed order status to an error.
func TestRemoteOrderFailed(t *testing.T) {
	rs := newRemoteServer(t)
	rs.pollStatus = func(int32) int { return -1 }
	e := newTestRemote(rs.URL)

	_, err := e.Transcribe(context.Background(), writeAudio(t), func(float64, string) {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "remote transcription failed")
}

// TestRemotePollDeadline stops polling a never-finishing order.
func TestRemotePollDeadline(t *testing.T) {
	rs := newRemoteServer(t)
	rs.pollStatus = func(int32) int { return orderRunning }
	e := newRemoteEngine(rs.URL, "app", "secret", time.Millisecond, time.Millisecond)

	_, err := e.Transcribe(context.Background(), writeAudio(t), func(float64, string) {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "did not finish within")
}

// TestRemotePollCancellation honours the caller's context between
// polls.
func TestRemotePollCancellation(t *testing.T) {
	rs := newRemoteServer(t)
	rs.pollStatus = func(int32) int { return orderRunning }
	e := newRemoteEngine(rs.URL, "app", "secret", time.Minute, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := e.Transcribe(ctx, writeAudio(t), func(float64, string) {})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRemoteUploadRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":26600,"message":"invalid signature"}`)
	}))
	t.Cleanup(ts.Close)
	e := newTestRemote(ts.URL)

	_, err := e.Transcribe(context.Background(), writeAudio(t), func(float64, string) {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid signature")
}

// TestRemoteSign reproduces the documented signature scheme.
func TestRemoteSign(t *testing.T) {
	e := newTestRemote("http://127.0.0.1:0")
	fixed := time.Unix(1700000000, 0)
	e.now = func() time.Time { return fixed }

	signa, ts := e.sign()
	require.Equal(t, "1700000000", ts)

	sum := md5.Sum([]byte("app" + ts))
	mac := hmac.New(sha1.New, []byte("secret"))
	mac.Write([]byte(hex.EncodeToString(sum[:])))
	require.Equal(t, base64.StdEncoding.EncodeToString(mac.Sum(nil)), signa)
}

func TestParseOrderResultSkipsBadSentences(t *testing.T) {
	raw := `{"lattice":[{"json_1best":"not json"},{"json_1best":"{\"st\":{\"rt\":[{\"ws\":[{\"cw\":[{\"w\":\"ok\"}]}]}]}}"}]}`
	text, err := parseOrderResult(raw)
	require.NoError(t, err)
	require.Equal(t, "ok", text)
}
