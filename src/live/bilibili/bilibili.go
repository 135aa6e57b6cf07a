package bilibili

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hr3lxphr6j/requests"
	"github.com/tidwall/gjson"

	"github.com/alley-rs/lsar/src/live"
	"github.com/alley-rs/lsar/src/live/internal"
	"github.com/alley-rs/lsar/src/types"
)

const (
	cnName  = "哔哩哔哩"
	baseURL = "https://live.bilibili.com/"

	verifyURL   = "https://api.bilibili.com/x/web-interface/nav"
	roomInfoURL = "https://api.live.bilibili.com/xlive/web-room/v1/index/getInfoByRoom?room_id="
	playInfoURL = "https://api.live.bilibili.com/xlive/web-room/v2/index/getRoomPlayInfo?protocol=0,1&format=0,1,2&codec=0,1&qn=10000&platform=web&ptype=8&dolby=5&panorama=1&room_id="

	notLoggedInMsg = "账号未登录"
)

func init() {
	live.Register(types.Bilibili, &live.Entry{
		Label:       cnName,
		RoomBaseURL: baseURL,
		Builder:     new(builder),
	})
}

type builder struct{}

func (b *builder) Build(input string, cookie string) (live.Parser, error) {
	return &Parser{
		BaseParser:  internal.NewBaseParser(types.Bilibili, input),
		cookie:      cookie,
		pageBaseURL: baseURL,
		verifyURL:   verifyURL,
		roomInfoURL: roomInfoURL,
		playInfoURL: playInfoURL,
	}, nil
}

type Parser struct {
	internal.BaseParser

	cookie string

	pageBaseURL string
	verifyURL   string
	roomInfoURL string
	playInfoURL string
}

func (p *Parser) Parse() (*live.ParsedResult, error) {
	if err := p.verifyCookie(); err != nil {
		return nil, err
	}
	if p.RoomID == 0 {
		id, err := p.parseRoomIDFromPage()
		if err != nil {
			return nil, err
		}
		p.RoomID = id
	}
	title, anchor, category, err := p.fetchRoomInfo()
	if err != nil {
		return nil, err
	}
	links, err := p.fetchStreamLinks()
	if err != nil {
		return nil, err
	}

	return &live.ParsedResult{
		Platform: types.Bilibili,
		Anchor:   anchor,
		Title:    title,
		RoomID:   p.RoomID,
		Category: category,
		Links:    links,
	}, nil
}

// verifyCookie 解析前先确认 cookie 有效，避免后续接口返回脱敏数据
func (p *Parser) verifyCookie() error {
	_, body, err := p.Client.Get(p.verifyURL, requests.Header("Cookie", p.cookie))
	if err != nil {
		return err
	}
	resp := gjson.ParseBytes(body)
	if code := resp.Get("code").Int(); code != 0 {
		// -101 未登录
		if code == -101 && resp.Get("message").String() == notLoggedInMsg {
			return live.ErrMissingCredential
		}
		return live.NewUpstreamError(code, resp.Get("message").String())
	}
	p.Logger.Infof("cookie 有效，当前用户：%s", resp.Get("data.uname").String())
	return nil
}

// parseRoomIDFromPage 用户给的是房间链接时抓页面取真实房间号，
// 页面按浏览器指纹区分响应，带上完整浏览器头
func (p *Parser) parseRoomIDFromPage() (int64, error) {
	_, body, err := p.Client.Get(p.RawURL,
		requests.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:102.0) Gecko/20100101 Firefox/102.0"),
		requests.Header("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"),
		requests.Header("Accept-Language", "zh-CN"),
		requests.Header("Connection", "keep-alive"),
		requests.Header("Upgrade-Insecure-Requests", "1"),
		requests.Header("Sec-Fetch-Dest", "document"),
		requests.Header("Sec-Fetch-Mode", "navigate"),
		requests.Header("Sec-Fetch-Site", "none"),
		requests.Header("Sec-Fetch-User", "?1"),
		requests.Header("DNT", "1"),
		requests.Header("Sec-GPC", "1"),
	)
	if err != nil {
		return 0, err
	}
	id, ok := extractRoomID(string(body))
	if !ok {
		return 0, live.NewScrapeError("room_id", "页面中没有找到房间 id")
	}
	p.Logger.Infof("在网页中解析到房间 id：%d", id)
	return id, nil
}

// extractRoomID 依次尝试页面内嵌 JSON 的三种房间号写法
func extractRoomID(html string) (int64, bool) {
	if _, after, found := strings.Cut(html, `"defaultRoomId":"`); found {
		if value, _, found := strings.Cut(after, `"`); found {
			if id, err := strconv.ParseInt(value, 10, 64); err == nil {
				return id, true
			}
		}
	}
	for _, marker := range []string{`"roomid":`, `"roomId":`} {
		if _, after, found := strings.Cut(html, marker); found {
			if value, _, found := strings.Cut(after, ","); found {
				if id, err := strconv.ParseInt(value, 10, 64); err == nil {
					return id, true
				}
			}
		}
	}
	return 0, false
}

func (p *Parser) fetchRoomInfo() (title, anchor, category string, err error) {
	_, body, err := p.Client.Get(fmt.Sprintf("%s%d", p.roomInfoURL, p.RoomID),
		requests.Header("Cookie", p.cookie))
	if err != nil {
		return "", "", "", err
	}
	resp := gjson.ParseBytes(body)
	title = resp.Get("data.room_info.title").String()
	anchor = resp.Get("data.anchor_info.base_info.uname").String()
	category = resp.Get("data.room_info.area_name").String()
	if title == "" || anchor == "" || category == "" {
		return "", "", "", live.NewScrapeError("room_info", "房间信息不完整")
	}
	return title, anchor, category, nil
}

func (p *Parser) fetchStreamLinks() ([]string, error) {
	_, body, err := p.Client.Get(fmt.Sprintf("%s%d", p.playInfoURL, p.RoomID),
		requests.Header("Cookie", p.cookie))
	if err != nil {
		return nil, err
	}
	resp := gjson.ParseBytes(body)
	// 接口报错优先于开播状态判断，避免把接口异常当成未开播
	if code := resp.Get("code").Int(); code != 0 {
		return nil, live.NewUpstreamError(code, resp.Get("message").String())
	}
	if resp.Get("data.live_status").Int() == 0 {
		return nil, live.ErrNotLive
	}
	return flattenLinks(resp.Get("data.playurl_info.playurl.stream")), nil
}

// flattenLinks 把 stream/format/codec/url_info 四层嵌套按原始顺序摊平
func flattenLinks(stream gjson.Result) []string {
	links := make([]string, 0)
	stream.ForEach(func(_, s gjson.Result) bool {
		s.Get("format").ForEach(func(_, f gjson.Result) bool {
			f.Get("codec").ForEach(func(_, c gjson.Result) bool {
				base := c.Get("base_url").String()
				c.Get("url_info").ForEach(func(_, u gjson.Result) bool {
					links = append(links, u.Get("host").String()+base+u.Get("extra").String())
					return true
				})
				return true
			})
			return true
		})
		return true
	})
	return links
}
