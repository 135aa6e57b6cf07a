package live

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseRoomID 把用户输入（纯数字或房间链接）规范化成数字房间号。
// 纯函数，不发起网络请求
func ParseRoomID(input string) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, ErrInvalidInput
	}
	if id, err := strconv.ParseInt(input, 10, 64); err == nil {
		return id, nil
	}
	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return 0, ErrInvalidInput
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if id, err := strconv.ParseInt(last, 10, 64); err == nil {
		return id, nil
	}
	// 斗鱼的分享链接把房间号放在 rid 查询参数里
	if rid := u.Query().Get("rid"); rid != "" {
		if id, err := strconv.ParseInt(rid, 10, 64); err == nil {
			return id, nil
		}
	}
	return 0, ErrInvalidInput
}

// SecondLevelDomain 取主机名的二级域名，如 www.huya.com -> huya
func SecondLevelDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := u.Hostname()
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// CheckSecondLevelDomain 校验链接是否属于期望平台的域，
// 用来在解析前拒绝贴错平台的链接
func CheckSecondLevelDomain(rawURL, expected string) error {
	if !strings.Contains(rawURL, "://") {
		return nil
	}
	if SecondLevelDomain(rawURL) != expected {
		return ErrWrongDomain
	}
	return nil
}
