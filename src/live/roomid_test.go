package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoomID(t *testing.T) {
	t.Run("数字房间号", func(t *testing.T) {
		id, err := ParseRoomID("123456")
		require.NoError(t, err)
		assert.Equal(t, int64(123456), id)
	})

	t.Run("带空白的数字", func(t *testing.T) {
		id, err := ParseRoomID("  9999 ")
		require.NoError(t, err)
		assert.Equal(t, int64(9999), id)
	})

	t.Run("链接末段是房间号", func(t *testing.T) {
		id, err := ParseRoomID("https://www.huya.com/333003")
		require.NoError(t, err)
		assert.Equal(t, int64(333003), id)
	})

	t.Run("带查询参数的链接", func(t *testing.T) {
		id, err := ParseRoomID("https://live.bilibili.com/21852?visit_id=abc")
		require.NoError(t, err)
		assert.Equal(t, int64(21852), id)
	})

	t.Run("斗鱼分享链接回退到 rid 参数", func(t *testing.T) {
		id, err := ParseRoomID("https://www.douyu.com/topic/xyz?rid=666888")
		require.NoError(t, err)
		assert.Equal(t, int64(666888), id)
	})

	t.Run("无法提取时返回输入错误", func(t *testing.T) {
		for _, input := range []string{"", "abc", "https://www.douyu.com/topic/xyz", "://bad"} {
			_, err := ParseRoomID(input)
			assert.ErrorIs(t, err, ErrInvalidInput, "input=%q", input)
		}
	})
}

func TestSecondLevelDomain(t *testing.T) {
	assert.Equal(t, "huya", SecondLevelDomain("https://www.huya.com/123"))
	assert.Equal(t, "douyu", SecondLevelDomain("https://www.douyu.com/9999?rid=1"))
	assert.Equal(t, "bilibili", SecondLevelDomain("https://live.bilibili.com/21852"))
	assert.Equal(t, "", SecondLevelDomain("not a url"))
}

func TestCheckSecondLevelDomain(t *testing.T) {
	assert.NoError(t, CheckSecondLevelDomain("https://www.huya.com/123", "huya"))
	assert.ErrorIs(t, CheckSecondLevelDomain("https://www.douyu.com/123", "huya"), ErrWrongDomain)
	// 非链接输入不做域名校验
	assert.NoError(t, CheckSecondLevelDomain("123456", "huya"))
}
