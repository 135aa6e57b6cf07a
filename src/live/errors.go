package live

import (
	"errors"
	"fmt"
)

// 终态哨兵：房间存在但当前没有可解析的直播流，不是故障
var (
	ErrNotLive    = errors.New("room is not live")
	ErrIsReplay   = errors.New("room is playing a replay")
	ErrRoomClosed = errors.New("room is closed")
)

// 输入与凭据错误
var (
	ErrInvalidInput      = errors.New("invalid room input")
	ErrWrongDomain       = errors.New("url domain does not match platform")
	ErrRoomNotExist      = errors.New("room does not exist")
	ErrMissingCredential = errors.New("missing platform credential")
)

// ScrapeError 表示平台页面或响应结构与解析器预期不符，
// 通常意味着平台改版，携带定位用的上下文信息
type ScrapeError struct {
	Field string
	Msg   string
}

func (e *ScrapeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("scrape failed: %s", e.Msg)
	}
	return fmt.Sprintf("scrape failed: %s: %s", e.Field, e.Msg)
}

func NewScrapeError(field, format string, args ...interface{}) *ScrapeError {
	return &ScrapeError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// UpstreamError 表示平台接口明确返回了拒绝（非零错误码、报错文案），
// 与传输层故障区分开，原始信息原样带给调用方
type UpstreamError struct {
	Code int64
	Msg  string
}

func (e *UpstreamError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("upstream rejected: code=%d msg=%s", e.Code, e.Msg)
	}
	return fmt.Sprintf("upstream rejected: %s", e.Msg)
}

func NewUpstreamError(code int64, msg string) *UpstreamError {
	return &UpstreamError{Code: code, Msg: msg}
}

// IsTerminalState 判断错误是否为合法终态（未开播/回放/已关闭），
// dispatch 层对终态只提示，不按错误记日志
func IsTerminalState(err error) bool {
	return errors.Is(err, ErrNotLive) || errors.Is(err, ErrIsReplay) || errors.Is(err, ErrRoomClosed)
}
