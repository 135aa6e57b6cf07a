package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alley-rs/lsar/src/configs"
	"github.com/alley-rs/lsar/src/live"
	_ "github.com/alley-rs/lsar/src/live/bilibili"
	_ "github.com/alley-rs/lsar/src/live/douyu"
	"github.com/alley-rs/lsar/src/types"
)

func TestUserMessageTransportErrors(t *testing.T) {
	// 传输层错误按字符串匹配，与平台无关
	tests := []struct {
		msg  string
		want string
	}{
		{"http error: Connect", "网络连接异常"},
		{"http error: Timeout", "网络连接超时"},
		{"http error: Decode", "解码响应失败"},
		{"http error: Other", "其他网络错误，请将日志上传到 https://github.com/alley-rs/lsar/issues"},
	}
	for _, tt := range tests {
		for _, platform := range types.All() {
			assert.Equal(t, tt.want, userMessage(platform, errors.New(tt.msg)),
				"msg=%q platform=%s", tt.msg, platform)
		}
	}
}

func TestUserMessageTerminalStates(t *testing.T) {
	assert.Equal(t, "主播未开播", userMessage(types.Douyu, live.ErrNotLive))
	assert.Equal(t, "当前是录播回放，没有实时直播流", userMessage(types.Huya, live.ErrIsReplay))
	assert.Equal(t, "该房间已被关闭", userMessage(types.Douyu, live.ErrRoomClosed))
	assert.Equal(t, "房间不存在", userMessage(types.Huya, live.ErrRoomNotExist))
	assert.Equal(t, "请输入房间号或直播间链接", userMessage(types.Douyu, live.ErrInvalidInput))
}

func TestUserMessagePassesUnknownThrough(t *testing.T) {
	err := live.NewUpstreamError(19002003, "房间信息不存在")
	assert.Equal(t, err.Error(), userMessage(types.Bilibili, err))
}

func TestDispatchBilibiliWithoutCookie(t *testing.T) {
	d := New(&configs.Config{})
	result := d.Dispatch(types.Bilibili, "21852")

	require.False(t, result.OK())
	assert.ErrorIs(t, result.Err, live.ErrMissingCredential)
	assert.Contains(t, result.Message, "cookie")
	assert.NotEmpty(t, result.TraceID)

	// 结果已发布到共享状态
	last, ok := d.LastResult()
	require.True(t, ok)
	assert.Same(t, result, last)
}

func TestDispatchInvalidInput(t *testing.T) {
	d := New(&configs.Config{})
	result := d.Dispatch(types.Douyu, "not-a-room")

	require.False(t, result.OK())
	assert.ErrorIs(t, result.Err, live.ErrInvalidInput)
}

func TestDispatchWrongDomain(t *testing.T) {
	d := New(&configs.Config{})
	result := d.Dispatch(types.Douyu, "https://www.huya.com/123456")

	require.False(t, result.OK())
	assert.ErrorIs(t, result.Err, live.ErrWrongDomain)
	assert.Contains(t, result.Message, "斗鱼")
}

func TestDispatchClearsPreviousResult(t *testing.T) {
	d := New(&configs.Config{})

	first := d.Dispatch(types.Bilibili, "21852")
	second := d.Dispatch(types.Douyu, "bad input")

	last, ok := d.LastResult()
	require.True(t, ok)
	assert.Same(t, second, last)
	assert.NotSame(t, first, last)
	assert.NotEqual(t, first.TraceID, second.TraceID)
}
