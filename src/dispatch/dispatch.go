// Package dispatch 把一次解析请求路由到对应平台的解析器，
// 并把各类失败翻译成用户可读的提示。它是唯一产出用户文案的边界，
// 下层只返回结构化的错误
package dispatch

import (
	"errors"
	"strings"

	"github.com/bluele/gcache"
	uuid "github.com/satori/go.uuid"

	"github.com/alley-rs/lsar/src/configs"
	"github.com/alley-rs/lsar/src/live"
	"github.com/alley-rs/lsar/src/log"
	"github.com/alley-rs/lsar/src/pkg/hclient"
	"github.com/alley-rs/lsar/src/types"
)

const resultKey = "last_result"

const issuesAdvice = "其他网络错误，请将日志上传到 https://github.com/alley-rs/lsar/issues"

// Result 一次解析的最终产出，Parsed 与 Message 二选一
type Result struct {
	TraceID  string             `json:"trace_id"`
	Platform types.Platform     `json:"platform"`
	Parsed   *live.ParsedResult `json:"parsed,omitempty"`
	Message  string             `json:"message,omitempty"`
	Err      error              `json:"-"`
}

func (r *Result) OK() bool {
	return r.Parsed != nil
}

type Dispatcher struct {
	cfg   *configs.Config
	store gcache.Cache
}

func New(cfg *configs.Config) *Dispatcher {
	return &Dispatcher{
		cfg:   cfg,
		store: gcache.New(4).LRU().Build(),
	}
}

// Dispatch 同一时刻只有一次解析有意义，开始前先清掉上一次的结果
func (d *Dispatcher) Dispatch(platform types.Platform, input string) *Result {
	d.store.Remove(resultKey)

	result := d.resolve(platform, input)
	if err := d.store.Set(resultKey, result); err != nil {
		log.WithPlatform(platform.String()).Warnf("缓存解析结果失败：%v", err)
	}
	return result
}

// LastResult 取最近一次发布的解析结果
func (d *Dispatcher) LastResult() (*Result, bool) {
	v, err := d.store.Get(resultKey)
	if err != nil {
		return nil, false
	}
	result, ok := v.(*Result)
	return result, ok
}

func (d *Dispatcher) resolve(platform types.Platform, input string) *Result {
	traceID := uuid.Must(uuid.NewV4()).String()
	logger := log.WithPlatform(platform.String()).WithField("trace", traceID)
	result := &Result{TraceID: traceID, Platform: platform}

	entry, ok := live.GetEntry(platform)
	if !ok {
		result.Err = live.ErrInvalidInput
		result.Message = "不支持的平台"
		return result
	}

	if err := checkInput(entry, input); err != nil {
		result.Err = err
		result.Message = userMessage(platform, err)
		return result
	}

	// B 站不带 cookie 解析只能拿到最低清晰度，直接拦下提示用户配置
	cookie := ""
	if platform == types.Bilibili {
		cookie = d.cfg.Platform.Bilibili.Cookie
		if strings.TrimSpace(cookie) == "" {
			result.Err = live.ErrMissingCredential
			result.Message = userMessage(platform, live.ErrMissingCredential)
			return result
		}
	}

	parser, err := entry.Builder.Build(input, cookie)
	if err != nil {
		result.Err = err
		result.Message = userMessage(platform, err)
		return result
	}

	logger.Infof("开始解析：%s", input)
	parsed, err := parser.Parse()
	if err != nil {
		result.Err = err
		result.Message = userMessage(platform, err)
		if !live.IsTerminalState(err) && !errors.Is(err, live.ErrMissingCredential) {
			logger.Errorf("解析失败：%v", err)
		} else {
			logger.Infof("解析结束：%v", err)
		}
		return result
	}

	logger.Infof("解析成功，共 %d 条直链", len(parsed.Links))
	result.Parsed = parsed
	return result
}

// checkInput 纯校验：数字房间号直接放行，链接校验二级域名，
// 其余输入按规范化结果判定
func checkInput(entry *live.Entry, input string) error {
	if strings.Contains(input, "://") {
		return live.CheckSecondLevelDomain(input, live.SecondLevelDomain(entry.RoomBaseURL))
	}
	_, err := live.ParseRoomID(input)
	return err
}

// userMessage 错误到用户文案的唯一翻译点。
// 传输层哨兵按固定字符串匹配，终态各有专属提示，其余原样透出
func userMessage(platform types.Platform, err error) string {
	switch err.Error() {
	case hclient.ErrConnect.Error():
		return "网络连接异常"
	case hclient.ErrTimeout.Error():
		return "网络连接超时"
	case hclient.ErrDecode.Error():
		return "解码响应失败"
	case hclient.ErrOther.Error():
		return issuesAdvice
	}

	entry, _ := live.GetEntry(platform)
	label := platform.String()
	if entry != nil {
		label = entry.Label
	}

	switch {
	case errors.Is(err, live.ErrNotLive):
		return "主播未开播"
	case errors.Is(err, live.ErrIsReplay):
		return "当前是录播回放，没有实时直播流"
	case errors.Is(err, live.ErrRoomClosed):
		return "该房间已被关闭"
	case errors.Is(err, live.ErrRoomNotExist):
		return "房间不存在"
	case errors.Is(err, live.ErrMissingCredential):
		return "请先在配置中填写 " + label + " 的 cookie"
	case errors.Is(err, live.ErrWrongDomain):
		return "链接不是 " + label + " 的直播间地址"
	case errors.Is(err, live.ErrInvalidInput):
		return "请输入房间号或直播间链接"
	}
	return err.Error()
}
