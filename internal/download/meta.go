package download

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Meta is the public metadata of a media item as reported by the
// site's JSON API. Acquisition tolerates a missing Meta; the record is
// then filled with placeholders.
type Meta struct {
	Title       string
	Author      string
	Description string
	Duration    float64
	URL         string
	Stats       map[string]int64
}

type viewResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Title    string  `json:"title"`
		Desc     string  `json:"desc"`
		Duration float64 `json:"duration"`
		Pic      string  `json:"pic"`
		Owner    struct {
			Name string `json:"name"`
		} `json:"owner"`
		Stat struct {
			View     int64 `json:"view"`
			Danmaku  int64 `json:"danmaku"`
			Like     int64 `json:"like"`
			Favorite int64 `json:"favorite"`
			Coin     int64 `json:"coin"`
			Share    int64 `json:"share"`
			Reply    int64 `json:"reply"`
		} `json:"stat"`
	} `json:"data"`
}

func (d *Downloader) fetchMeta(ctx context.Context, bvid string) (*Meta, error) {
	var body viewResp
	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParam("bvid", bvid).
		SetResult(&body).
		Get("/x/web-interface/view")
	if err != nil {
		return nil, errors.Wrap(err, "metadata request failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("metadata request failed: %s", resp.Status())
	}
	if body.Code != 0 {
		return nil, errors.Errorf("metadata api error %d: %s", body.Code, body.Message)
	}
	return &Meta{
		Title:       body.Data.Title,
		Author:      body.Data.Owner.Name,
		Description: body.Data.Desc,
		Duration:    body.Data.Duration,
		URL:         fmt.Sprintf("https://www.bilibili.com/video/%s", bvid),
		Stats: map[string]int64{
			"view":     body.Data.Stat.View,
			"danmaku":  body.Data.Stat.Danmaku,
			"like":     body.Data.Stat.Like,
			"favorite": body.Data.Stat.Favorite,
			"coin":     body.Data.Stat.Coin,
			"share":    body.Data.Stat.Share,
			"reply":    body.Data.Stat.Reply,
		},
	}, nil
}

func newMetaClient(host string) *resty.Client {
	return resty.New().
		SetBaseURL(host).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36").
		SetHeader("Referer", "https://www.bilibili.com/")
}
