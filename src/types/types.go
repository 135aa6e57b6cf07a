package types

import "fmt"

// Platform 平台标识，闭合枚举，决定使用哪个解析器
type Platform string

const (
	Douyu    Platform = "douyu"
	Huya     Platform = "huya"
	Bilibili Platform = "bilibili"
	Douyin   Platform = "douyin"
)

// 历史记录数据库中平台以整数存储（与旧版数据库兼容）
var platformCodes = map[Platform]int64{
	Douyu:    0,
	Huya:     1,
	Douyin:   2,
	Bilibili: 3,
}

func All() []Platform {
	return []Platform{Douyu, Huya, Bilibili, Douyin}
}

func (p Platform) String() string {
	return string(p)
}

func (p Platform) Code() int64 {
	return platformCodes[p]
}

func FromCode(code int64) (Platform, error) {
	for p, c := range platformCodes {
		if c == code {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid platform code %d", code)
}

func Parse(value string) (Platform, error) {
	switch Platform(value) {
	case Douyu, Huya, Bilibili, Douyin:
		return Platform(value), nil
	}
	return "", fmt.Errorf("unsupported platform %q", value)
}
