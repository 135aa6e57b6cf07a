package internal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/alley-rs/lsar/src/log"
	"github.com/alley-rs/lsar/src/pkg/hclient"
	"github.com/alley-rs/lsar/src/types"
)

// BaseParser 各平台解析器共同嵌入的基座。
// 持有房间标识（号或链接二选一）、HTTP 客户端和带平台标签的日志入口
type BaseParser struct {
	Platform types.Platform
	RoomID   int64
	RawURL   string
	Client   *hclient.Client
	Logger   *logrus.Entry
}

func NewBaseParser(platform types.Platform, input string) BaseParser {
	b := BaseParser{
		Platform: platform,
		Client:   hclient.New(),
		Logger:   log.WithPlatform(platform.String()),
	}
	input = strings.TrimSpace(input)
	if id, err := strconv.ParseInt(input, 10, 64); err == nil {
		b.RoomID = id
	} else {
		b.RawURL = input
	}
	return b
}

// RoomURL 惰性拼出房间页地址：用户给了链接就用链接，
// 否则用平台的房间页前缀加房间号
func (b *BaseParser) RoomURL(base string) string {
	if b.RawURL != "" {
		return b.RawURL
	}
	return fmt.Sprintf("%s%d", base, b.RoomID)
}
