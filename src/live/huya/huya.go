package huya

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/alley-rs/lsar/src/live"
	"github.com/alley-rs/lsar/src/live/internal"
	"github.com/alley-rs/lsar/src/pkg/utils"
	"github.com/alley-rs/lsar/src/types"
)

const (
	cnName  = "虎牙"
	baseURL = "https://m.huya.com/"

	profileURL = "https://mp.huya.com/cache.php?m=Live&do=profileRoom&roomid="
	loginURL   = "https://udblgn.huya.com/web/anonymousLogin"
)

func init() {
	live.Register(types.Huya, &live.Entry{
		Label:       cnName,
		RoomBaseURL: baseURL,
		Builder:     new(builder),
	})
}

type builder struct{}

func (b *builder) Build(input string, _ string) (live.Parser, error) {
	return &Parser{
		BaseParser:  internal.NewBaseParser(types.Huya, input),
		pageBaseURL: baseURL,
		profileURL:  profileURL,
		loginURL:    loginURL,
	}, nil
}

type Parser struct {
	internal.BaseParser

	pageBaseURL string
	profileURL  string
	loginURL    string
}

// 匿名登录请求体，字段固定
type loginRequest struct {
	AppID   int               `json:"appId"`
	ByPass  int               `json:"byPass"`
	Context string            `json:"context"`
	Version string            `json:"version"`
	Data    map[string]string `json:"data"`
}

func (p *Parser) Parse() (*live.ParsedResult, error) {
	roomID, err := p.getFinalRoomID()
	if err != nil {
		return nil, err
	}
	profile, err := p.getRoomProfile(roomID)
	if err != nil {
		return nil, err
	}

	switch status := profile.Get("data.liveStatus").String(); status {
	case "OFF":
		return nil, live.ErrNotLive
	case "REPLAY":
		return nil, live.ErrIsReplay
	case "ON":
	default:
		return nil, live.NewScrapeError("liveStatus", "未知的直播状态：%s", status)
	}

	uid, err := p.getAnonymousUID()
	if err != nil {
		return nil, err
	}
	links := p.getStreamLinks(profile.Get("data.stream.baseSteamInfoList"), uid)
	if len(links) == 0 {
		return nil, live.NewScrapeError("links", "直播中但没有解析出任何直链")
	}

	return &live.ParsedResult{
		Platform: types.Huya,
		Anchor:   profile.Get("data.liveData.nick").String(),
		Title:    profile.Get("data.liveData.introduction").String(),
		RoomID:   roomID,
		Category: profile.Get("data.liveData.gameFullName").String(),
		Links:    links,
	}, nil
}

// getFinalRoomID 抓手机版房间页，从内嵌的 stream JSON 里读真实房间号。
// 用户给的房间号可能是靓号，和接口用的 profileRoom 不一致
func (p *Parser) getFinalRoomID() (int64, error) {
	pageURL := p.RoomURL(p.pageBaseURL)
	p.Logger.Debugf("请求房间页：%s", pageURL)
	_, body, err := p.Client.Get(pageURL, live.CommonUserAgent)
	if err != nil {
		return 0, err
	}

	blob, err := extractStreamInfo(string(body))
	if err != nil {
		return 0, err
	}
	roomID := gjson.Get(blob, "data.0.gameLiveInfo.profileRoom")
	if !roomID.Exists() {
		return 0, live.NewScrapeError("profileRoom", "stream 数据中没有房间号")
	}
	p.Logger.Infof("真实房间号：%d", roomID.Int())
	return roomID.Int(), nil
}

// extractStreamInfo 页面脚本里的 stream 对象没有独立闭合，
// 取 "stream: " 到 ,"iFrameRate" 之间的片段再补上右括号
func extractStreamInfo(html string) (string, error) {
	_, after, found := strings.Cut(html, "stream: ")
	if !found {
		return "", live.NewScrapeError("stream", "页面中没有找到 stream 数据")
	}
	blob, _, found := strings.Cut(after, `,"iFrameRate"`)
	if !found {
		return "", live.NewScrapeError("stream", "stream 数据不完整")
	}
	return blob + "}", nil
}

func (p *Parser) getRoomProfile(roomID int64) (gjson.Result, error) {
	_, body, err := p.Client.Get(fmt.Sprintf("%s%d", p.profileURL, roomID))
	if err != nil {
		return gjson.Result{}, err
	}
	profile := gjson.ParseBytes(body)
	if status := profile.Get("status").Int(); status != 200 {
		if status == 422 {
			return gjson.Result{}, live.ErrRoomNotExist
		}
		return gjson.Result{}, live.NewUpstreamError(status, profile.Get("message").String())
	}
	return profile, nil
}

func (p *Parser) getAnonymousUID() (string, error) {
	payload, err := json.Marshal(&loginRequest{
		AppID:   5002,
		ByPass:  3,
		Context: "",
		Version: "2.4",
		Data:    map[string]string{},
	})
	if err != nil {
		return "", err
	}
	body, err := p.Client.PostJSON(p.loginURL, string(payload))
	if err != nil {
		return "", err
	}
	uid := gjson.GetBytes(body, "data.uid")
	if !uid.Exists() {
		return "", live.NewScrapeError("uid", "匿名登录响应中没有 uid")
	}
	p.Logger.Debugf("匿名 uid：%s", uid.String())
	return uid.String(), nil
}

// getStreamLinks 按原始顺序处理每条线路，FLV 在前 HLS 在后。
// 单条防盗码改写失败只记日志，不中断其余线路
func (p *Parser) getStreamLinks(list gjson.Result, uid string) []string {
	links := make([]string, 0)
	list.ForEach(func(_, item gjson.Result) bool {
		streamName := item.Get("sStreamName").String()
		if code := item.Get("sFlvAntiCode").String(); code != "" {
			anticode, err := p.parseAnticode(code, uid, streamName)
			if err != nil {
				p.Logger.Errorf("改写 FLV 防盗码失败：%v", err)
			} else {
				links = append(links, fmt.Sprintf("%s/%s.%s?%s",
					item.Get("sFlvUrl").String(), streamName, item.Get("sFlvUrlSuffix").String(), anticode))
			}
		}
		if code := item.Get("sHlsAntiCode").String(); code != "" {
			anticode, err := p.parseAnticode(code, uid, streamName)
			if err != nil {
				p.Logger.Errorf("改写 HLS 防盗码失败：%v", err)
			} else {
				links = append(links, fmt.Sprintf("%s/%s.%s?%s",
					item.Get("sHlsUrl").String(), streamName, item.Get("sHlsUrlSuffix").String(), anticode))
			}
		}
		return true
	})
	return links
}

// parseAnticode 重写防盗码查询串：补协议版本字段、生成 seqid/uuid、
// 用 fm 模板算出 wsSecret，再把消耗掉的字段去掉。
// CDN 校验的是查询串原文，字段顺序和原始编码都不能动
func (p *Parser) parseAnticode(code, uid, streamName string) (string, error) {
	q := parseAnticodeQuery(code)

	q.set("ver", "1")
	q.set("sv", "2110211124")

	uidNum, err := strconv.ParseInt(uid, 10, 64)
	if err != nil {
		return "", fmt.Errorf("uid 不是数字：%s", uid)
	}
	nowMillis := time.Now().UnixMilli()
	seqID := strconv.FormatInt(uidNum+nowMillis, 10)
	q.set("seqid", seqID)
	q.set("uid", uid)
	q.set("uuid", strconv.FormatInt(newUUID(nowMillis), 10))

	ss := utils.Md5Hex(fmt.Sprintf("%s|%s|%s", seqID, q.get("ctype"), q.get("t")))

	fm, err := parseFm(q.get("fm"), uid, streamName, ss, q.get("wsTime"))
	if err != nil {
		return "", err
	}
	q.set("wsSecret", utils.Md5Hex(fm))

	q.del("fm")
	q.del("txyp")

	return q.encode(), nil
}

// anticodeQuery 防盗码查询串的有序视图。
// values 存字段原文，已有字段原位改写，新字段追加在尾部
type anticodeQuery struct {
	keys   []string
	values map[string]string
}

func parseAnticodeQuery(code string) *anticodeQuery {
	q := &anticodeQuery{values: make(map[string]string)}
	for _, kv := range strings.Split(code, "&") {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		q.set(k, v)
	}
	return q
}

func (q *anticodeQuery) get(key string) string {
	v, err := url.QueryUnescape(q.values[key])
	if err != nil {
		return q.values[key]
	}
	return v
}

func (q *anticodeQuery) set(key, value string) {
	if _, ok := q.values[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.values[key] = value
}

func (q *anticodeQuery) del(key string) {
	if _, ok := q.values[key]; !ok {
		return
	}
	delete(q.values, key)
	for i, k := range q.keys {
		if k == key {
			q.keys = append(q.keys[:i], q.keys[i+1:]...)
			break
		}
	}
}

func (q *anticodeQuery) encode() string {
	pairs := make([]string, 0, len(q.keys))
	for _, k := range q.keys {
		pairs = append(pairs, k+"="+q.values[k])
	}
	return strings.Join(pairs, "&")
}

// parseFm 解开 base64 的 fm 模板并替换四个占位符
func parseFm(fm, uid, streamName, ss, wsTime string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(fm)
	if err != nil {
		return "", fmt.Errorf("fm 字段不是合法 base64: %w", err)
	}
	s := string(decoded)
	s = strings.ReplaceAll(s, "$0", uid)
	s = strings.ReplaceAll(s, "$1", streamName)
	s = strings.ReplaceAll(s, "$2", ss)
	s = strings.ReplaceAll(s, "$3", wsTime)
	return s, nil
}

func newUUID(nowMillis int64) int64 {
	return ((nowMillis%10_000_000_000)*1000 + rand.Int63n(1000)) % 4_294_967_295
}
