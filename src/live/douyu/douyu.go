package douyu

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robertkrimen/otto"
	"github.com/tidwall/gjson"

	"github.com/alley-rs/lsar/src/live"
	"github.com/alley-rs/lsar/src/live/internal"
	"github.com/alley-rs/lsar/src/pkg/utils"
	"github.com/alley-rs/lsar/src/types"
)

const (
	cnName  = "斗鱼"
	baseURL = "https://www.douyu.com/"

	// 固定设备号，斗鱼接口只校验格式
	did = "10000000000000000000000000001501"

	playInfoPostURL = "https://www.douyu.com/lapi/live/getH5Play/"
	playInfoGetURL  = "https://playweb.douyu.com/lapi/live/getH5Play/"
	mobilePlayURL   = "https://m.douyu.com/hgapi/livenc/room/getStreamUrl"

	notLivingMsg      = "房间未开播"
	invalidRequestMsg = "非法请求"
	roomClosedMarker  = "您观看的房间已被关闭，请选择其他直播进行观看哦！"
	roomNotExistMark  = "该房间目前没有开放"
)

var (
	signFuncReg = regexp.MustCompile(`(?s)var vdwdae325w_64we.*?function ub98484234\(.*?return eval\(strc\)\(.*?\);\}`)
	evalTailReg = regexp.MustCompile(`eval\(strc\)\(\w+,\w+,.\w+\);`)
	// 有的房间号前有一个空格，有的没有
	roomIDReg   = regexp.MustCompile(`\$ROOM\.room_id = ?(\d+);`)
	tokenReg    = regexp.MustCompile(`\w{12}`)
	anchorReg   = regexp.MustCompile(`<div class="Title-anchorName" title="(.+?)">`)
	titleReg    = regexp.MustCompile(`<h3 class="Title-header">(.+?)</h3>`)
	categoryReg = regexp.MustCompile(`<span class="Title-categoryArrow"></span><a class="Title-categoryItem" href=".+?" target="_blank" title="(.+?)">`)
	missVarReg  = regexp.MustCompile(`([A-Za-z_$][\w$]*)'? is not defined`)
)

// 响应体不是合法 JSON 时的内部标记，触发一次换请求方式重试
var errAmbiguousResponse = errors.New("ambiguous play info response")

func init() {
	live.Register(types.Douyu, &live.Entry{
		Label:       cnName,
		RoomBaseURL: baseURL,
		Builder:     new(builder),
	})
}

type builder struct{}

func (b *builder) Build(input string, _ string) (live.Parser, error) {
	return &Parser{
		BaseParser:  internal.NewBaseParser(types.Douyu, input),
		isPost:      true,
		pageBaseURL: baseURL,
		postURL:     playInfoPostURL,
		getURL:      playInfoGetURL,
		mobileURL:   mobilePlayURL,
	}, nil
}

type Parser struct {
	internal.BaseParser

	isPost      bool
	finalRoomID int64
	signFunc    string

	anchor   string
	title    string
	category string

	pageBaseURL string
	postURL     string
	getURL      string
	mobileURL   string
}

func (p *Parser) Parse() (*live.ParsedResult, error) {
	html, err := p.fetchRoomPage()
	if err != nil {
		return nil, err
	}
	if err := p.resolveRoomID(html); err != nil {
		return nil, err
	}
	if err := p.scrapeMeta(html); err != nil {
		return nil, err
	}
	signFunc, err := p.matchSignFunc(html)
	if err != nil {
		return nil, err
	}
	p.signFunc = signFunc

	params, err := p.createParams(time.Now().Unix())
	if err != nil {
		return nil, err
	}
	info, err := p.fetchPlayInfo(params)
	if errors.Is(err, errAmbiguousResponse) || (err == nil && info.Get("error").Int() == -15) {
		// 斗鱼各房间的取流接口随机要求 GET 或 POST，只换一次请求方式，
		// 时间戳和签名参数重新生成
		p.isPost = !p.isPost
		p.Logger.Warn("取流响应异常，更换请求方式重试")
		params, err = p.createParams(time.Now().Unix())
		if err != nil {
			return nil, err
		}
		info, err = p.fetchPlayInfo(params)
		if errors.Is(err, errAmbiguousResponse) {
			return nil, live.NewScrapeError("playinfo", "更换请求方式后仍未得到有效响应")
		}
	}
	if err != nil {
		return nil, err
	}

	rtmpLive := info.Get("data.rtmp_live")
	if !rtmpLive.Exists() {
		return nil, live.ErrNotLive
	}
	links := []string{fmt.Sprintf("%s/%s", info.Get("data.rtmp_url").String(), rtmpLive.String())}
	if mobile := p.fetchMobileStream(params); mobile != "" {
		links = append(links, mobile)
	}

	return &live.ParsedResult{
		Platform: types.Douyu,
		Anchor:   p.anchor,
		Title:    p.title,
		RoomID:   p.finalRoomID,
		Category: p.category,
		Links:    links,
	}, nil
}

func (p *Parser) fetchRoomPage() (string, error) {
	url := p.RoomURL(p.pageBaseURL)
	p.Logger.Debugf("请求房间页：%s", url)
	_, body, err := p.Client.Get(url, live.CommonUserAgent)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (p *Parser) resolveRoomID(html string) error {
	m := roomIDReg.FindStringSubmatch(html)
	if m == nil {
		if strings.Contains(html, roomClosedMarker) {
			return live.ErrRoomClosed
		}
		if strings.Contains(html, roomNotExistMark) {
			return live.ErrRoomNotExist
		}
		return live.NewScrapeError("room_id", "页面中没有找到房间 id")
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return live.NewScrapeError("room_id", "房间 id 不是数字：%s", m[1])
	}
	p.finalRoomID = id
	p.Logger.Infof("在网页中解析到最终房间 id：%d", id)
	return nil
}

func (p *Parser) scrapeMeta(html string) error {
	anchor := anchorReg.FindStringSubmatch(html)
	if anchor == nil {
		return live.NewScrapeError("anchor", "页面中没有找到主播名")
	}
	p.anchor = anchor[1]

	title := titleReg.FindStringSubmatch(html)
	if title == nil {
		return live.NewScrapeError("title", "页面中没有找到直播标题")
	}
	p.title = title[1]

	if category := categoryReg.FindStringSubmatch(html); category != nil {
		p.category = category[1]
	}
	return nil
}

// matchSignFunc 从页面里抠出 ub98484234 混淆函数并在 otto 中求值，
// 得到真正的签名函数源码。函数体里引用的 CryptoJS.MD5 在本环境不可用，
// 先在本地算好摘要再原样替换进去
func (p *Parser) matchSignFunc(html string) (string, error) {
	matched := signFuncReg.FindString(html)
	if matched == "" {
		return "", live.NewScrapeError("sign", "没找到函数 ub98484234")
	}
	ub98484234 := evalTailReg.ReplaceAllString(matched, "strc;")

	ts := time.Now().Unix()
	call := fmt.Sprintf("ub98484234(%d, %s, %d)", p.finalRoomID, did, ts)

	vm := otto.New()
	value, err := vm.Run(ub98484234 + call)
	if err != nil {
		// 函数体引用了块外定义的变量表，按报错名把 var 声明从页面补进来，只补一次
		name := missVarReg.FindStringSubmatch(err.Error())
		if name == nil {
			return "", live.NewScrapeError("sign", "执行 ub98484234 失败：%v", err)
		}
		lossReg, regErr := regexp.Compile(`(?s)var ` + regexp.QuoteMeta(name[1]) + `=.*?\];`)
		if regErr != nil {
			return "", live.NewScrapeError("sign", "执行 ub98484234 失败：%v", err)
		}
		loss := lossReg.FindString(html)
		if loss == "" {
			return "", live.NewScrapeError("sign", "没找到函数 ub98484234")
		}
		value, err = vm.Run(ub98484234 + loss + call)
		if err != nil {
			return "", live.NewScrapeError("sign", "补全变量后执行 ub98484234 仍失败：%v", err)
		}
	}
	signFunc := value.String()

	token := tokenReg.FindString(signFunc)
	if token == "" {
		return "", live.NewScrapeError("sign", "签名函数中没有找到校验串")
	}
	digest := utils.Md5Hex(fmt.Sprintf("%d%s%d%s", p.finalRoomID, did, ts, token))
	signFunc = strings.Replace(signFunc, "CryptoJS.MD5(cb).toString()", fmt.Sprintf("%q", digest), 1)

	if idx := strings.Index(signFunc, "return rt;})"); idx >= 0 {
		signFunc = signFunc[:idx] + "return rt;})"
	}
	p.Logger.Trace(signFunc)
	return signFunc, nil
}

// createParams 用缓存的签名函数算出取流请求参数，时间戳每次重算
func (p *Parser) createParams(ts int64) (string, error) {
	vm := otto.New()
	value, err := vm.Run(fmt.Sprintf(`%s(%d,"%s",%d)`, p.signFunc, p.finalRoomID, did, ts))
	if err != nil {
		return "", live.NewScrapeError("sign", "执行签名函数失败：%v", err)
	}
	params := value.String()
	p.Logger.Debugf("请求参数：%s", params)
	return params, nil
}

func (p *Parser) fetchPlayInfo(params string) (gjson.Result, error) {
	var body []byte
	var err error
	if p.isPost {
		body, err = p.Client.PostForm(fmt.Sprintf("%s%d", p.postURL, p.finalRoomID), params)
	} else {
		_, body, err = p.Client.Get(fmt.Sprintf("%s%d?%s", p.getURL, p.finalRoomID, params))
	}
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errAmbiguousResponse
	}
	info := gjson.ParseBytes(body)
	p.Logger.Debugf("取流响应：error=%d msg=%s", info.Get("error").Int(), info.Get("msg").String())

	switch info.Get("msg").String() {
	case notLivingMsg:
		return gjson.Result{}, live.ErrNotLive
	case invalidRequestMsg:
		return gjson.Result{}, live.NewUpstreamError(info.Get("error").Int(), invalidRequestMsg)
	}
	return info, nil
}

// fetchMobileStream 追加手机端直链，失败只记日志不影响主流程
func (p *Parser) fetchMobileStream(params string) string {
	body, err := p.Client.PostForm(p.mobileURL, fmt.Sprintf("%s&rid=%d&rate=-1", params, p.finalRoomID))
	if err != nil {
		p.Logger.Warnf("获取手机播放流出错：%v", err)
		return ""
	}
	if !gjson.ValidBytes(body) {
		return ""
	}
	resp := gjson.ParseBytes(body)
	if resp.Get("error").Int() != 0 {
		p.Logger.Warnf("获取手机播放流出错：%s", resp.Get("msg").String())
		return ""
	}
	return resp.Get("data.url").String()
}
