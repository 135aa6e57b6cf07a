package utils

import (
	"crypto/md5"
	"fmt"
)

func GetMd5String(b []byte) string {
	return fmt.Sprintf("%x", md5.Sum(b))
}

// Md5Hex 对文本取 MD5 十六进制摘要，斗鱼签名与虎牙 wsSecret 均依赖它
func Md5Hex(text string) string {
	return GetMd5String([]byte(text))
}
