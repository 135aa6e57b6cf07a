package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformCodes(t *testing.T) {
	// 与历史数据库中已存的整数编码保持一致
	assert.Equal(t, int64(0), Douyu.Code())
	assert.Equal(t, int64(1), Huya.Code())
	assert.Equal(t, int64(2), Douyin.Code())
	assert.Equal(t, int64(3), Bilibili.Code())
}

func TestFromCode(t *testing.T) {
	for _, p := range All() {
		got, err := FromCode(p.Code())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := FromCode(99)
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	p, err := Parse("douyu")
	require.NoError(t, err)
	assert.Equal(t, Douyu, p)

	_, err = Parse("twitch")
	assert.Error(t, err)
}
