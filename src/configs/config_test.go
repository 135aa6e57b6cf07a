package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigWithFileBootstrap(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sub", "config.yaml")

	// 文件不存在时写入默认配置
	config, err := NewConfigWithFile(file)
	require.NoError(t, err)
	assert.FileExists(t, file)
	assert.False(t, config.Debug)

	// 再次读取得到同样内容
	again, err := NewConfigWithFile(file)
	require.NoError(t, err)
	assert.Equal(t, config.Player, again.Player)
}

func TestConfigRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	config := NewConfig()
	config.File = file
	config.Debug = true
	config.Player.Path = "/usr/bin/mpv"
	config.Player.Args = []string{"--no-cache"}
	config.Platform.Bilibili.Cookie = "SESSDATA=abc"
	config.History.Path = "/tmp/history.db"
	require.NoError(t, config.Save())

	loaded, err := NewConfigWithFile(file)
	require.NoError(t, err)
	assert.True(t, loaded.Debug)
	assert.Equal(t, "/usr/bin/mpv", loaded.Player.Path)
	assert.Equal(t, []string{"--no-cache"}, loaded.Player.Args)
	assert.Equal(t, "SESSDATA=abc", loaded.Platform.Bilibili.Cookie)
	assert.Equal(t, "/tmp/history.db", loaded.History.Path)
}

func TestVerify(t *testing.T) {
	config := NewConfig()
	assert.NoError(t, config.Verify())

	config.Player.Path = filepath.Join(t.TempDir(), "no-such-player")
	assert.Error(t, config.Verify())

	player := filepath.Join(t.TempDir(), "player")
	require.NoError(t, os.WriteFile(player, []byte("#!/bin/sh\n"), 0o755))
	config.Player.Path = player
	assert.NoError(t, config.Verify())
}
