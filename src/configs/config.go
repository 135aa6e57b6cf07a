package configs

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Player 外部播放器，解析出的链接可以直接交给它播放
type Player struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
}

type Bilibili struct {
	Cookie string `yaml:"cookie"`
}

// PlatformConfig 平台级配置，目前只有 B 站需要（解析前必须携带用户 cookie）
type PlatformConfig struct {
	Bilibili Bilibili `yaml:"bilibili"`
}

type History struct {
	// Path 历史记录数据库文件路径，为空时不记录历史
	Path string `yaml:"path"`
}

type Config struct {
	File     string         `yaml:"-"`
	Debug    bool           `yaml:"debug"`
	Player   Player         `yaml:"player"`
	Platform PlatformConfig `yaml:"platform"`
	History  History        `yaml:"history"`
}

func NewConfig() *Config {
	return &Config{}
}

// NewConfigWithFile 从文件读取配置。文件不存在时写入默认配置后返回，
// 防止用户删除配置文件后启动异常（与旧版行为一致）
func NewConfigWithFile(file string) (*Config, error) {
	config := NewConfig()
	config.File = file

	b, err := os.ReadFile(file)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %s, err: %w", file, err)
		}
		if err := config.Save(); err != nil {
			return nil, err
		}
		return config, nil
	}
	if err = yaml.Unmarshal(b, config); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) Save() error {
	if c.File == "" {
		return errors.New("config file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
		return err
	}
	b, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(c.File, b, 0o644)
}

func (c *Config) Verify() error {
	if c == nil {
		return errors.New("config is null")
	}
	if c.Player.Path != "" {
		if _, err := os.Stat(c.Player.Path); err != nil {
			return fmt.Errorf("player does not exist: %s", c.Player.Path)
		}
	}
	return nil
}

// Play 用配置的播放器打开一个直播流链接。
// 解析出的链接是一次性的，播放后调用方应将其视为已消耗
func (c *Config) Play(url string) error {
	if c.Player.Path == "" {
		return errors.New("player path is not configured")
	}
	args := append(append([]string{}, c.Player.Args...), url)
	cmd := exec.Command(c.Player.Path, args...)
	return cmd.Start()
}
