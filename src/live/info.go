package live

import "github.com/alley-rs/lsar/src/types"

// ParsedResult 一次解析成功后的完整产出。
// Links 非空且按画质/协议优先级降序，调用方约定每个链接只播放一次
type ParsedResult struct {
	Platform types.Platform `json:"platform"`
	Anchor   string         `json:"anchor"`
	Title    string         `json:"title"`
	RoomID   int64          `json:"room_id"`
	Category string         `json:"category"`
	Links    []string       `json:"links"`
}
