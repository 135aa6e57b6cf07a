package douyin

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/alley-rs/lsar/src/live"
	"github.com/alley-rs/lsar/src/live/internal"
	"github.com/alley-rs/lsar/src/types"
)

// 房间页第一次裸访问发 __ac_nonce，带上它重访才发 ttwid
func newPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.Header.Get("Upgrade-Insecure-Requests"))
		if r.Header.Get("Cookie") == "" {
			w.Header().Add("Set-Cookie", "__ac_nonce=abc123; Path=/; Max-Age=21600")
		} else {
			require.Contains(t, r.Header.Get("Cookie"), "__ac_nonce=abc123")
			w.Header().Add("Set-Cookie", "ttwid=tt789; Path=/; Max-Age=21600")
		}
		fmt.Fprint(w, "<html></html>")
	}))
}

func roomInfoJSON(streamURL string) string {
	room := `{"status":2,"title":"测试标题"` + streamURL + `}`
	return `{"data":{
		"data":[` + room + `],
		"user":{"nickname":"测试主播"},
		"partition_road_map":{"partition":{"title":"游戏"},"sub_partition":{"partition":{"title":"主机游戏"}}}
	}}`
}

const streamURLJSON = `,"stream_url":{
	"flv_pull_url":{"FULL_HD1":"https://flv.example.com/full.flv","HD1":"https://flv.example.com/hd.flv"},
	"hls_pull_url_map":{"HD1":"https://hls.example.com/hd.m3u8"}
}`

func newTestParser(input string, page, enter *httptest.Server) *Parser {
	p := &Parser{BaseParser: internal.NewBaseParser(types.Douyin, input)}
	if page != nil {
		p.pageBaseURL = page.URL + "/"
	}
	if enter != nil {
		p.enterURL = enter.URL + "/?web_rid="
	}
	return p
}

func TestParse(t *testing.T) {
	page := newPageServer(t)
	defer page.Close()

	enter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie := r.Header.Get("Cookie")
		require.Contains(t, cookie, "__ac_nonce=abc123")
		require.Contains(t, cookie, "ttwid=tt789")
		fmt.Fprint(w, roomInfoJSON(streamURLJSON))
	}))
	defer enter.Close()

	p := newTestParser("741258963", page, enter)
	result, err := p.Parse()
	require.NoError(t, err)

	assert.Equal(t, types.Douyin, result.Platform)
	assert.Equal(t, int64(741258963), result.RoomID)
	assert.Equal(t, "测试主播", result.Anchor)
	assert.Equal(t, "测试标题", result.Title)
	assert.Equal(t, "主机游戏", result.Category)
	// FLV 取到原画，HLS 没有原画时退到超清
	assert.Equal(t, []string{
		"https://flv.example.com/full.flv",
		"https://hls.example.com/hd.m3u8",
	}, result.Links)
}

func TestParseWithRoomURL(t *testing.T) {
	page := newPageServer(t)
	defer page.Close()

	enter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "741258963", r.URL.Query().Get("web_rid"))
		fmt.Fprint(w, roomInfoJSON(streamURLJSON))
	}))
	defer enter.Close()

	p := newTestParser(page.URL+"/741258963", page, enter)
	result, err := p.Parse()
	require.NoError(t, err)
	assert.Equal(t, int64(741258963), result.RoomID)
}

func TestParseWithBadRoomURL(t *testing.T) {
	p := newTestParser("https://live.douyin.com/主播", nil, nil)
	_, err := p.Parse()
	assert.ErrorIs(t, err, live.ErrInvalidInput)
}

func TestParseNotLive(t *testing.T) {
	page := newPageServer(t)
	defer page.Close()

	enter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, roomInfoJSON(""))
	}))
	defer enter.Close()

	p := newTestParser("741258963", page, enter)
	_, err := p.Parse()
	assert.ErrorIs(t, err, live.ErrNotLive)
}

func TestParseMissingSetCookie(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html></html>")
	}))
	defer page.Close()

	p := newTestParser("741258963", page, nil)
	_, err := p.Parse()
	var scrapeErr *live.ScrapeError
	assert.ErrorAs(t, err, &scrapeErr)
}

func parseJSON(t *testing.T, s string) gjson.Result {
	t.Helper()
	require.True(t, gjson.Valid(s))
	return gjson.Parse(s)
}

func TestPickResolution(t *testing.T) {
	full := roomInfoJSON(streamURLJSON)
	p := newTestParser("1", nil, nil)
	result, err := p.parseRoomInfo(parseJSON(t, full))
	require.NoError(t, err)
	assert.Len(t, result.Links, 2)
}

func TestParseCategoryFallback(t *testing.T) {
	p := newTestParser("1", nil, nil)

	info := parseJSON(t, `{"data":{
		"data":[{"title":"t","stream_url":{"flv_pull_url":{"HD1":"https://flv.example.com/hd.flv"},"hls_pull_url_map":{}}}],
		"user":{"nickname":"n"},
		"partition_road_map":{"partition":{"title":"游戏"}}
	}}`)
	result, err := p.parseRoomInfo(info)
	require.NoError(t, err)
	assert.Equal(t, "游戏", result.Category)
	assert.Equal(t, []string{"https://flv.example.com/hd.flv"}, result.Links)

	info = parseJSON(t, `{"data":{
		"data":[{"title":"t","stream_url":{"flv_pull_url":{"HD1":"u"},"hls_pull_url_map":{}}}],
		"user":{"nickname":"n"},
		"partition_road_map":{}
	}}`)
	result, err = p.parseRoomInfo(info)
	require.NoError(t, err)
	assert.Equal(t, "", result.Category)
}
