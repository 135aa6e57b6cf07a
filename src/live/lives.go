package live

import (
	"github.com/hr3lxphr6j/requests"

	"github.com/alley-rs/lsar/src/types"
)

// CommonUserAgent 平台页面会按 UA 指纹区别对待请求，统一用桌面浏览器 UA
var CommonUserAgent = requests.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36 Edg/127.0.0.0")

// Parser 是所有平台解析器的共同契约。
// 每次解析都构造新的解析器实例，Parse 只被调用一次，
// 返回 *ParsedResult 或归类后的错误（含 ErrNotLive 等终态哨兵）。
type Parser interface {
	Parse() (*ParsedResult, error)
}

// Builder 按房间号或房间链接构造解析器。
// cookie 仅 B 站使用，其余平台忽略
type Builder interface {
	Build(input string, cookie string) (Parser, error)
}

// Entry 注册表条目
type Entry struct {
	Label       string
	RoomBaseURL string
	Builder     Builder
}

var registry = make(map[types.Platform]*Entry)

// Register 由各平台包的 init 调用，登记平台解析器。
// 平台集合是闭合的，不支持运行期扩展
func Register(platform types.Platform, entry *Entry) {
	registry[platform] = entry
}

func GetEntry(platform types.Platform) (*Entry, bool) {
	entry, ok := registry[platform]
	return entry, ok
}
