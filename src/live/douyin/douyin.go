package douyin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hr3lxphr6j/requests"
	"github.com/tidwall/gjson"

	"github.com/alley-rs/lsar/src/live"
	"github.com/alley-rs/lsar/src/live/internal"
	"github.com/alley-rs/lsar/src/types"
)

const (
	cnName  = "抖音"
	baseURL = "https://live.douyin.com/"

	enterURL = "https://live.douyin.com/webcast/room/web/enter/?aid=6383&app_name=douyin_web&live_id=1&device_platform=web&language=zh-CN&enter_from=web_live&cookie_enabled=true&screen_width=1728&screen_height=1117&browser_language=zh-CN&browser_platform=MacIntel&browser_name=Chrome&browser_version=116.0.0.0&web_rid="
)

var (
	acNonceReg = regexp.MustCompile(`__ac_nonce=(.*?);`)
	ttwidReg   = regexp.MustCompile(`ttwid=(.*?);`)
)

func init() {
	live.Register(types.Douyin, &live.Entry{
		Label:       cnName,
		RoomBaseURL: baseURL,
		Builder:     new(builder),
	})
}

type builder struct{}

func (b *builder) Build(input string, _ string) (live.Parser, error) {
	return &Parser{
		BaseParser:  internal.NewBaseParser(types.Douyin, input),
		pageBaseURL: baseURL,
		enterURL:    enterURL,
	}, nil
}

type Parser struct {
	internal.BaseParser

	pageBaseURL string
	enterURL    string
}

func (p *Parser) Parse() (*live.ParsedResult, error) {
	// 用户给的是房间链接时，web_rid 就是链接末段的房间号
	if p.RoomID == 0 {
		id, err := live.ParseRoomID(p.RawURL)
		if err != nil {
			return nil, err
		}
		p.RoomID = id
	}
	cookie, err := p.setupCookie()
	if err != nil {
		return nil, err
	}
	info, err := p.getRoomInfo(cookie)
	if err != nil {
		return nil, err
	}
	return p.parseRoomInfo(info)
}

// setupCookie 抖音接口要求 __ac_nonce 和 ttwid 两个 cookie，
// 先裸抓房间页拿 __ac_nonce，带上它重抓一次才发 ttwid
func (p *Parser) setupCookie() (string, error) {
	roomURL := p.RoomURL(p.pageBaseURL)

	acNonce, err := p.extractCookieField(roomURL, "", acNonceReg, "__ac_nonce")
	if err != nil {
		return "", err
	}
	ttwid, err := p.extractCookieField(roomURL, fmt.Sprintf("__ac_nonce=%s", acNonce), ttwidReg, "ttwid")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("__ac_nonce=%s; ttwid=%s", acNonce, ttwid), nil
}

func (p *Parser) extractCookieField(url, cookie string, reg *regexp.Regexp, name string) (string, error) {
	options := []requests.RequestOption{
		live.CommonUserAgent,
		requests.Header("Upgrade-Insecure-Requests", "1"),
	}
	if cookie != "" {
		options = append(options, requests.Header("Cookie", cookie))
	}
	resp, _, err := p.Client.Get(url, options...)
	if err != nil {
		return "", err
	}
	setCookies := resp.Header.Values("Set-Cookie")
	if len(setCookies) == 0 {
		return "", live.NewScrapeError("set-cookie", "响应中没有 Set-Cookie")
	}
	m := reg.FindStringSubmatch(strings.Join(setCookies, "; ") + ";")
	if m == nil {
		return "", live.NewScrapeError(name, "Set-Cookie 中没有 %s", name)
	}
	p.Logger.Debugf("%s=%s", name, m[1])
	return m[1], nil
}

func (p *Parser) getRoomInfo(cookie string) (gjson.Result, error) {
	_, body, err := p.Client.Get(fmt.Sprintf("%s%d", p.enterURL, p.RoomID),
		live.CommonUserAgent,
		requests.Header("Cookie", cookie),
	)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, live.NewScrapeError("room_info", "房间接口响应不是合法 JSON")
	}
	return gjson.ParseBytes(body), nil
}

func (p *Parser) parseRoomInfo(info gjson.Result) (*live.ParsedResult, error) {
	room := info.Get("data.data.0")
	if !room.Exists() {
		return nil, live.NewScrapeError("room_info", "房间接口响应中没有房间数据")
	}
	if !room.Get("stream_url").Exists() {
		return nil, live.ErrNotLive
	}

	links := make([]string, 0, 2)
	if flv := pickResolution(room.Get("stream_url.flv_pull_url")); flv != "" {
		links = append(links, flv)
	}
	if hls := pickResolution(room.Get("stream_url.hls_pull_url_map")); hls != "" {
		links = append(links, hls)
	}
	if len(links) == 0 {
		return nil, live.NewScrapeError("links", "直播中但没有可用清晰度")
	}

	return &live.ParsedResult{
		Platform: types.Douyin,
		Anchor:   info.Get("data.user.nickname").String(),
		Title:    room.Get("title").String(),
		RoomID:   p.RoomID,
		Category: parseCategory(info.Get("data.partition_road_map")),
		Links:    links,
	}, nil
}

// pickResolution 优先原画 FULL_HD1，退而求其次超清 HD1
func pickResolution(urls gjson.Result) string {
	if u := urls.Get("FULL_HD1").String(); u != "" {
		return u
	}
	return urls.Get("HD1").String()
}

func parseCategory(partition gjson.Result) string {
	if title := partition.Get("sub_partition.partition.title").String(); title != "" {
		return title
	}
	return partition.Get("partition.title").String()
}
