package consts

import (
	"fmt"
	"os"
	"runtime"
)

const AppName = "lsar"

var (
	BuildTime  string
	AppVersion string
	GitHash    string
)

type Info struct {
	AppName    string `json:"app_name"`
	AppVersion string `json:"app_version"`
	BuildTime  string `json:"build_time"`
	GitHash    string `json:"git_hash"`
	Pid        int    `json:"pid"`
	Platform   string `json:"platform"`
	GoVersion  string `json:"go_version"`
}

// GetAppInfo 返回应用信息
// 注意：必须使用函数而非变量，AppVersion 等字段通过 -ldflags 在链接阶段注入，
// 如果用变量初始化会在编译阶段求值，此时这些字段还是空字符串
func GetAppInfo() Info {
	return Info{
		AppName:    AppName,
		AppVersion: AppVersion,
		BuildTime:  BuildTime,
		GitHash:    GitHash,
		Pid:        os.Getpid(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		GoVersion:  runtime.Version(),
	}
}
